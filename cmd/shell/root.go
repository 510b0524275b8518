package shell

import (
	"fmt"
	"io"
	"os"

	cmdUtil "github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/appstate"
	"github.com/ValentinKolb/fKV/lib/storage"
	"github.com/ValentinKolb/fKV/shell"
	"github.com/ValentinKolb/fKV/shell/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var ShellCmd = &cobra.Command{
	Use:     "shell",
	Short:   "Run an interactive console session on the local device image",
	Long:    `Run a single interactive command console session on stdin/stdout against a local flash image, without starting a server. The session ends on end-of-file (ctrl-d).`,
	PreRunE: func(cmd *cobra.Command, _ []string) error { return cmdUtil.BindCommandFlags(cmd) },
	RunE:    run,
}

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	key := "log-level"
	ShellCmd.PersistentFlags().String(key, "warn", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error); defaults to warn so log lines do not interleave with the console"))

	cmdUtil.SetupDeviceFlags(ShellCmd)
}

// stdioStream is the duplex byte stream of the controlling terminal
type stdioStream struct {
	io.Reader
	io.Writer
}

// run starts one interactive session
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(common.Config{LogLevel: viper.GetString("log-level")})

	dev, closeDev, err := cmdUtil.OpenDevice()
	if err != nil {
		return err
	}
	defer func() { _ = closeDev() }()

	if err := storage.Init(dev, cmdUtil.GetPlacement()); err != nil {
		return fmt.Errorf("storage init failed: %v", err)
	}
	store := storage.Handle()

	state, err := cmdUtil.ProvisionState(store)
	if err != nil {
		return err
	}
	mirror := appstate.NewMirror(state)

	stream := &stdioStream{Reader: os.Stdin, Writer: os.Stdout}
	return shell.NewSession(stream, store, mirror).Run()
}
