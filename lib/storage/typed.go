package storage

import (
	"github.com/ValentinKolb/fKV/lib/codec"
)

// --------------------------------------------------------------------------
// Device Configuration Schema
// --------------------------------------------------------------------------

// Storage keys of the device configuration records.
const (
	KeySerialNumber    = "cfg/snum"
	KeyDeviceName      = "cfg/name"
	KeyBaudRate        = "cfg/baud"
	KeyAutoMessage     = "cfg/amsg"
	KeySmoothingFactor = "cfg/smooth"
	KeySensorsInterval = "cfg/sens_int"
	KeyCorrDistance    = "cfg/corr_dist"
	KeyHeaterConfig    = "cfg/heat"

	// application state keys consumed by the command session and the
	// background task
	KeyAppCounter = "app/run_count"
	KeyAppMode    = "app/mode"
)

const (
	serialNumberLen = 5
	deviceNameCap   = 22
)

// HeatMode enumerates the heater operating modes.
type HeatMode uint8

const (
	HeatOff HeatMode = iota
	HeatOn
	HeatAuto
	HeatPowerSave
)

func (m HeatMode) String() string {
	switch m {
	case HeatOff:
		return "Off"
	case HeatOn:
		return "On"
	case HeatAuto:
		return "Auto"
	case HeatPowerSave:
		return "PwrSave"
	default:
		return "Unknown"
	}
}

// AutoMessage configures the periodic announcement record.
type AutoMessage struct {
	ID       uint16
	Interval uint16
}

func (a *AutoMessage) EncodedMaxSize() int { return 4 }

func (a *AutoMessage) MarshalRecord(buf []byte) (int, error) {
	id, interval := codec.U16(a.ID), codec.U16(a.Interval)
	if _, err := id.MarshalRecord(buf); err != nil {
		return 0, err
	}
	if _, err := interval.MarshalRecord(buf[2:]); err != nil {
		return 0, err
	}
	return 4, nil
}

func (a *AutoMessage) UnmarshalRecord(data []byte) error {
	if len(data) != 4 {
		return (&codec.DecodeError{Msg: "auto message expects 4 bytes"})
	}
	var id, interval codec.U16
	if err := id.UnmarshalRecord(data[:2]); err != nil {
		return err
	}
	if err := interval.UnmarshalRecord(data[2:]); err != nil {
		return err
	}
	a.ID, a.Interval = uint16(id), uint16(interval)
	return nil
}

// HeaterConfig is the heater's non-volatile configuration record.
type HeaterConfig struct {
	Mode       HeatMode
	Hysteresis uint8 // tenths of a degree
	Threshold  int16 // tenths of a degree
}

func (h *HeaterConfig) EncodedMaxSize() int { return 4 }

func (h *HeaterConfig) MarshalRecord(buf []byte) (int, error) {
	if h.Mode > HeatPowerSave {
		return 0, &codec.EncodeError{Msg: "invalid heater mode"}
	}
	if len(buf) < 4 {
		return 0, &codec.EncodeError{Msg: "buffer below heater config size"}
	}
	buf[0] = uint8(h.Mode)
	buf[1] = h.Hysteresis
	th := codec.I16(h.Threshold)
	if _, err := th.MarshalRecord(buf[2:]); err != nil {
		return 0, err
	}
	return 4, nil
}

func (h *HeaterConfig) UnmarshalRecord(data []byte) error {
	if len(data) != 4 {
		return &codec.DecodeError{Msg: "heater config expects 4 bytes"}
	}
	if data[0] > uint8(HeatPowerSave) {
		return &codec.DecodeError{Msg: "invalid heater mode"}
	}
	var th codec.I16
	if err := th.UnmarshalRecord(data[2:]); err != nil {
		return err
	}
	h.Mode = HeatMode(data[0])
	h.Hysteresis = data[1]
	h.Threshold = int16(th)
	return nil
}

// --------------------------------------------------------------------------
// Typed Accessors
// --------------------------------------------------------------------------

// GetSerialNumber reads the 5-byte device serial number.
func (e *Engine) GetSerialNumber() ([]byte, bool, error) {
	v := codec.NewBytes(serialNumberLen)
	loaded, err := e.Get(KeySerialNumber, v)
	if err != nil || !loaded {
		return nil, loaded, err
	}
	return v.Data, true, nil
}

// SetSerialNumber persists the 5-byte device serial number.
func (e *Engine) SetSerialNumber(snum [serialNumberLen]byte) error {
	return e.Insert(KeySerialNumber, &codec.Bytes{Data: snum[:]})
}

// GetDeviceName reads the device name (capacity 22 bytes).
func (e *Engine) GetDeviceName() (string, bool, error) {
	v := codec.NewString(deviceNameCap)
	loaded, err := e.Get(KeyDeviceName, v)
	return v.Val, loaded, err
}

// SetDeviceName persists the device name (capacity 22 bytes).
func (e *Engine) SetDeviceName(name string) error {
	return e.Insert(KeyDeviceName, &codec.String{Cap: deviceNameCap, Val: name})
}

// GetBaudRate reads the configured UART baud rate.
func (e *Engine) GetBaudRate() (uint32, bool, error) {
	var v codec.U32
	loaded, err := e.Get(KeyBaudRate, &v)
	return uint32(v), loaded, err
}

// SetBaudRate persists the UART baud rate.
func (e *Engine) SetBaudRate(baud uint32) error {
	v := codec.U32(baud)
	return e.Insert(KeyBaudRate, &v)
}

// GetAutoMessage reads the periodic announcement configuration.
func (e *Engine) GetAutoMessage() (AutoMessage, bool, error) {
	var v AutoMessage
	loaded, err := e.Get(KeyAutoMessage, &v)
	return v, loaded, err
}

// SetAutoMessage persists the periodic announcement configuration.
func (e *Engine) SetAutoMessage(a AutoMessage) error {
	return e.Insert(KeyAutoMessage, &a)
}

// GetSmoothingFactor reads the sensor smoothing factor.
func (e *Engine) GetSmoothingFactor() (float32, bool, error) {
	var v codec.F32
	loaded, err := e.Get(KeySmoothingFactor, &v)
	return float32(v), loaded, err
}

// SetSmoothingFactor persists the sensor smoothing factor.
func (e *Engine) SetSmoothingFactor(factor float32) error {
	v := codec.F32(factor)
	return e.Insert(KeySmoothingFactor, &v)
}

// GetSensorsInterval reads the sensor polling interval in seconds.
func (e *Engine) GetSensorsInterval() (uint8, bool, error) {
	var v codec.U8
	loaded, err := e.Get(KeySensorsInterval, &v)
	return uint8(v), loaded, err
}

// SetSensorsInterval persists the sensor polling interval in seconds.
func (e *Engine) SetSensorsInterval(interval uint8) error {
	v := codec.U8(interval)
	return e.Insert(KeySensorsInterval, &v)
}

// GetCorrDistance reads the distance correction factor.
func (e *Engine) GetCorrDistance() (float32, bool, error) {
	var v codec.F32
	loaded, err := e.Get(KeyCorrDistance, &v)
	return float32(v), loaded, err
}

// SetCorrDistance persists the distance correction factor.
func (e *Engine) SetCorrDistance(distance float32) error {
	v := codec.F32(distance)
	return e.Insert(KeyCorrDistance, &v)
}

// GetHeaterConfig reads the heater configuration record.
func (e *Engine) GetHeaterConfig() (HeaterConfig, bool, error) {
	var v HeaterConfig
	loaded, err := e.Get(KeyHeaterConfig, &v)
	return v, loaded, err
}

// SetHeaterConfig persists the heater configuration record.
func (e *Engine) SetHeaterConfig(cfg HeaterConfig) error {
	return e.Insert(KeyHeaterConfig, &cfg)
}

// GetCounter reads the application counter.
func (e *Engine) GetCounter() (uint32, bool, error) {
	var v codec.U32
	loaded, err := e.Get(KeyAppCounter, &v)
	return uint32(v), loaded, err
}

// SetCounter persists the application counter.
func (e *Engine) SetCounter(counter uint32) error {
	v := codec.U32(counter)
	return e.Insert(KeyAppCounter, &v)
}

// GetMode reads the application mode.
func (e *Engine) GetMode() (uint8, bool, error) {
	var v codec.U8
	loaded, err := e.Get(KeyAppMode, &v)
	return uint8(v), loaded, err
}

// SetMode persists the application mode.
func (e *Engine) SetMode(mode uint8) error {
	v := codec.U8(mode)
	return e.Insert(KeyAppMode, &v)
}
