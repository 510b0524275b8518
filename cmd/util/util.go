package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/fKV/lib/appstate"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/flash/fileflash"
	"github.com/ValentinKolb/fKV/lib/flash/memflash"
	"github.com/ValentinKolb/fKV/lib/flash/region"
	"github.com/ValentinKolb/fKV/lib/storage"
	"github.com/ValentinKolb/fKV/shell/transport"
	"github.com/ValentinKolb/fKV/shell/transport/tcp"
	"github.com/ValentinKolb/fKV/shell/transport/unix"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cmd")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("fkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Simulated Device
// --------------------------------------------------------------------------

// SetupDeviceFlags adds the simulated-device flags shared by the serve and
// shell commands. The region defaults span the whole simulated flash: 8
// erase pages of 512 bytes.
func SetupDeviceFlags(cmd *cobra.Command) {
	key := "image"
	cmd.PersistentFlags().String(key, "", WrapString("Path of the flash image file backing the simulated device. An empty value runs on a volatile in-memory device"))

	key = "page-size"
	cmd.PersistentFlags().Uint32(key, 512, WrapString("Erase page size of the simulated flash in bytes"))

	key = "write-align"
	cmd.PersistentFlags().Uint32(key, 4, WrapString("Write alignment of the simulated flash in bytes"))

	key = "flash-size"
	cmd.PersistentFlags().Uint32(key, 4096, WrapString("Total size of the simulated flash in bytes"))

	key = "region-start"
	cmd.PersistentFlags().Uint32(key, 0, WrapString("Absolute start address of the reserved storage region"))

	key = "region-end"
	cmd.PersistentFlags().Uint32(key, 4096, WrapString("Absolute end address (exclusive) of the reserved storage region"))

	key = "base-offset"
	cmd.PersistentFlags().Uint32(key, 0, WrapString("Base offset subtracted from the region addresses to make them device-relative"))
}

// GetGeometry reads the flash geometry from the configuration
func GetGeometry() flash.Geometry {
	return flash.Geometry{
		PageSize:   viper.GetUint32("page-size"),
		WriteAlign: viper.GetUint32("write-align"),
		Size:       viper.GetUint32("flash-size"),
	}
}

// GetPlacement reads the storage region placement from the configuration
func GetPlacement() region.Placement {
	return region.Placement{
		Start:      viper.GetUint32("region-start"),
		End:        viper.GetUint32("region-end"),
		BaseOffset: viper.GetUint32("base-offset"),
		PageCount:  storage.PageCount,
	}
}

// OpenDevice creates the simulated flash device from the configuration. The
// returned close function flushes and releases a file-backed device; it is a
// no-op for the in-memory one.
func OpenDevice() (flash.BlockingDriver, func() error, error) {
	geo := GetGeometry()

	imagePath := viper.GetString("image")
	if imagePath == "" {
		Logger.Warningf("no image configured, contents will not survive this run")
		return memflash.New(geo), func() error { return nil }, nil
	}

	dev, err := fileflash.Open(imagePath, geo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open flash image %s: %v", imagePath, err)
	}
	return dev, dev.Close, nil
}

// --------------------------------------------------------------------------
// Boot Provisioning
// --------------------------------------------------------------------------

// ProvisionState runs the boot sequence against the storage engine: bump the
// run counter and seed missing configuration with defaults. Read faults fall
// back to defaults rather than aborting; only a failed write is fatal.
func ProvisionState(store *storage.Engine) (appstate.State, error) {
	var state appstate.State

	// run counter
	count, loaded, err := store.GetCounter()
	switch {
	case err != nil:
		Logger.Warningf("reading run count failed (%v), resetting to 0", err)
		state.Counter = 0
	case !loaded:
		Logger.Infof("no run count found, initializing to 1")
		state.Counter = 1
	default:
		state.Counter = count + 1
		Logger.Infof("run count %d, incrementing to %d", count, state.Counter)
	}
	if err := store.SetCounter(state.Counter); err != nil {
		return state, fmt.Errorf("failed to save run count: %v", err)
	}

	// mode
	mode, loaded, err := store.GetMode()
	if err != nil || !loaded {
		state.Mode = 0
	} else {
		state.Mode = mode
	}

	// device name
	if _, loaded, err := store.GetDeviceName(); err != nil || !loaded {
		Logger.Infof("no device name found, setting default")
		if err := store.SetDeviceName("fKV Device"); err != nil {
			return state, fmt.Errorf("failed to set default device name: %v", err)
		}
	}

	// heater configuration
	if _, loaded, err := store.GetHeaterConfig(); err != nil || !loaded {
		Logger.Infof("no heater config found, setting default")
		cfg := storage.HeaterConfig{Mode: storage.HeatOff, Hysteresis: 5, Threshold: 200}
		if err := store.SetHeaterConfig(cfg); err != nil {
			return state, fmt.Errorf("failed to set default heater config: %v", err)
		}
	}

	return state, nil
}

// --------------------------------------------------------------------------
// Transport Selection
// --------------------------------------------------------------------------

// GetTransport creates the shell server transport based on configuration
func GetTransport() (transport.IShellServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}
