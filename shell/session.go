package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ValentinKolb/fKV/lib/appstate"
	"github.com/ValentinKolb/fKV/lib/storage"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("shell")

const (
	// lineCap is the maximum length of a single command line; further
	// printable bytes on the same line are dropped
	lineCap = 64

	prompt  = "> "
	newline = "\r\n"
)

// --------------------------------------------------------------------------
// Command Parsing
// --------------------------------------------------------------------------

type verb int

const (
	verbGet verb = iota
	verbSet
	verbMode
	verbHelp
	verbUnknown
)

// command is a parsed command line
type command struct {
	verb    verb
	counter uint32
	mode    uint8
}

// parseCommand parses a trimmed command line. Malformed numeric arguments
// fall back to the unknown verb.
func parseCommand(input string) command {
	trimmed := strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(trimmed, "get"):
		return command{verb: verbGet}
	case strings.HasPrefix(trimmed, "set "):
		if fields := strings.Fields(trimmed); len(fields) >= 2 {
			if counter, err := strconv.ParseUint(fields[1], 10, 32); err == nil {
				return command{verb: verbSet, counter: uint32(counter)}
			}
		}
		return command{verb: verbUnknown}
	case strings.HasPrefix(trimmed, "mode "):
		if fields := strings.Fields(trimmed); len(fields) >= 2 {
			if mode, err := strconv.ParseUint(fields[1], 10, 8); err == nil {
				return command{verb: verbMode, mode: uint8(mode)}
			}
		}
		return command{verb: verbUnknown}
	case trimmed == "help":
		return command{verb: verbHelp}
	default:
		return command{verb: verbUnknown}
	}
}

// helpText returns the help text listing all commands
func helpText() string {
	return "Available commands:\r\n" +
		"get - Display current counter value and mode\r\n" +
		"set <value> - Set counter to <value>\r\n" +
		"mode <value> - Set mode to <value>\r\n" +
		"help - Show this help text\r\n"
}

// --------------------------------------------------------------------------
// Session Type
// --------------------------------------------------------------------------

// Session drives one interactive command session over a duplex byte stream.
// It owns neither the storage engine nor the mirror; both are shared with the
// background task and other sessions and synchronize internally.
//
// Thread-safety: a Session instance serves a single stream and must not be
// shared; create one Session per connection.
type Session struct {
	stream io.ReadWriter
	store  *storage.Engine
	mirror *appstate.Mirror

	// receive buffer carried across lines: a read chunk may contain bytes
	// past a line terminator, those must feed the next command
	rx    [64]byte
	rxLen int
	rxPos int
}

// NewSession creates a session bound to the given stream.
func NewSession(stream io.ReadWriter, store *storage.Engine, mirror *appstate.Mirror) *Session {
	return &Session{stream: stream, store: store, mirror: mirror}
}

// Run serves the session until the stream is closed by the peer (returns
// nil) or a stream error occurs. Command failures are reported to the peer
// as text and never end the session.
func (s *Session) Run() error {
	if err := s.write("\r\n===== fKV device console =====\r\nType 'help' for available commands\r\n" + prompt); err != nil {
		return err
	}

	for {
		line, err := s.readLine()
		if err == io.EOF {
			Logger.Infof("stream closed by peer, session ends")
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if err := s.write(prompt); err != nil {
				return err
			}
			continue
		}

		Logger.Debugf("processing command %q", trimmed)
		if err := s.write(s.execute(trimmed) + prompt); err != nil {
			return err
		}
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// readLine reads one command line with echo and backspace editing. Printable
// bytes (0x20-0x7E) accumulate up to lineCap; 0x08/0x7F erase the last byte
// (echoed as "\b \b"); CR or LF terminates the line. Bytes received after
// the terminator stay in the receive buffer for the next line.
func (s *Session) readLine() (string, error) {
	var (
		buf [lineCap]byte
		n   int
	)

	for {
		if s.rxPos == s.rxLen {
			read, err := s.stream.Read(s.rx[:])
			if read == 0 && err != nil {
				return "", err
			}
			if read == 0 {
				continue
			}
			s.rxLen = read
			s.rxPos = 0
		}

		for s.rxPos < s.rxLen {
			c := s.rx[s.rxPos]
			s.rxPos++

			// echo every byte back, like a serial terminal
			if err := s.write(string(c)); err != nil {
				return "", err
			}

			switch {
			case c == '\r' || c == '\n':
				if err := s.write(newline); err != nil {
					return "", err
				}
				return string(buf[:n]), nil
			case c == 0x08 || c == 0x7F:
				if n > 0 {
					n--
					if err := s.write("\x08 \x08"); err != nil {
						return "", err
					}
				}
			case c >= 0x20 && c <= 0x7E:
				if n < lineCap {
					buf[n] = c
					n++
				} else {
					Logger.Debugf("command line full, dropping byte 0x%02x", c)
				}
			}
		}
	}
}

// execute runs one parsed command and renders its response line(s). The
// write path persists to flash first and only then updates the mirror, so a
// woken observer can trust the flash contents.
func (s *Session) execute(trimmed string) string {
	switch cmd := parseCommand(trimmed); cmd.verb {
	case verbGet:
		state := s.mirror.Read()
		return fmt.Sprintf("Counter: %d, Mode: %d\r\n", state.Counter, state.Mode)

	case verbSet:
		if err := s.store.SetCounter(cmd.counter); err != nil {
			Logger.Warningf("persisting counter failed: %v", err)
			return "Failed to save counter\r\n"
		}
		state := s.mirror.Read()
		state.Counter = cmd.counter
		s.mirror.Write(state)
		return fmt.Sprintf("Counter set to %d\r\n", cmd.counter)

	case verbMode:
		if err := s.store.SetMode(cmd.mode); err != nil {
			Logger.Warningf("persisting mode failed: %v", err)
			return "Failed to save mode\r\n"
		}
		state := s.mirror.Read()
		state.Mode = cmd.mode
		s.mirror.Write(state)
		return fmt.Sprintf("Mode set to %d\r\n", cmd.mode)

	case verbHelp:
		return helpText()

	default:
		return fmt.Sprintf("Unknown command: '%s'. Type 'help' for available commands\r\n", trimmed)
	}
}

// write pushes the whole string to the stream.
func (s *Session) write(text string) error {
	_, err := io.WriteString(s.stream, text)
	return err
}
