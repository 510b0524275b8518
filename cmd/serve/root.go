package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/VictoriaMetrics/metrics"

	cmdUtil "github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/appstate"
	"github.com/ValentinKolb/fKV/lib/storage"
	"github.com/ValentinKolb/fKV/shell"
	"github.com/ValentinKolb/fKV/shell/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.Config{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Run the simulated device",
		Long:    `Run the simulated flash-backed device and expose its command console on a TCP or Unix socket. The configuration can be set via command line flags or environment variables. The format of the environment variables is FKV_<flag> (e.g. FKV_ENDPOINT=0.0.0.0:7878)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "transport"
	ServeCmd.PersistentFlags().String(key, "tcp", cmdUtil.WrapString("Transport for the command console (tcp, unix)"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:7878", cmdUtil.WrapString("The address on which the command console will listen (e.g. 0.0.0.0:7878 or /tmp/fkv.sock)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Idle timeout in seconds after which an inactive session is closed (0 disables)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY; the console echoes single bytes, so disabling this makes typing feel laggy"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("TCP keepalive interval in seconds (0 disables)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address serving Prometheus metrics under /metrics (e.g. 127.0.0.1:9100, empty disables)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	// simulated device flags
	cmdUtil.SetupDeviceFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.Transport = viper.GetString("transport")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.TCPKeepAliveSec = viper.GetInt("tcp-keepalive")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if serveCmdConfig.Transport != "tcp" && serveCmdConfig.Transport != "unix" {
		return fmt.Errorf("invalid transport %s (expected tcp or unix)", serveCmdConfig.Transport)
	}

	return nil
}

// run starts the simulated device
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(*serveCmdConfig)
	cmdUtil.Logger.Infof("Starting fKV device simulator with configuration:%s", serveCmdConfig.String())

	// open the flash device and bring up the storage engine
	dev, closeDev, err := cmdUtil.OpenDevice()
	if err != nil {
		return err
	}
	defer func() { _ = closeDev() }()

	if err := storage.Init(dev, cmdUtil.GetPlacement()); err != nil {
		return fmt.Errorf("storage init failed: %v", err)
	}
	store := storage.Handle()
	reg := store.Region()
	cmdUtil.Logger.Infof("storage region ready: start=0x%x end=0x%x (%d bytes)", reg.Start, reg.End, reg.Size())

	// boot provisioning seeds the mirror from flash
	state, err := cmdUtil.ProvisionState(store)
	if err != nil {
		return err
	}
	mirror := appstate.NewMirror(state)

	// background task consuming the change signal
	go watchState(context.Background(), mirror)

	// optional metrics endpoint
	if endpoint := viper.GetString("metrics-endpoint"); endpoint != "" {
		go serveMetrics(endpoint)
	}

	// serve the command console
	t, err := cmdUtil.GetTransport()
	if err != nil {
		return err
	}
	t.RegisterHandler(func(conn net.Conn) {
		_ = shell.NewSession(conn, store, mirror).Run()
	})
	return t.Listen(*serveCmdConfig)
}

// watchState logs every application state change. It stands in for the
// device's background logic reacting to updates; each wake-up re-reads the
// mirror since raises coalesce.
func watchState(ctx context.Context, mirror *appstate.Mirror) {
	for {
		if err := mirror.Changed().Wait(ctx); err != nil {
			return
		}
		state := mirror.Read()
		cmdUtil.Logger.Infof("application state changed: counter=%d mode=%d", state.Counter, state.Mode)
	}
}

// serveMetrics exposes the VictoriaMetrics registry under /metrics
func serveMetrics(endpoint string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	cmdUtil.Logger.Infof("Serving metrics on http://%s/metrics", endpoint)
	if err := http.ListenAndServe(endpoint, mux); err != nil {
		cmdUtil.Logger.Errorf("Metrics endpoint failed: %v", err)
	}
}
