package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shell server configuration struct
// --------------------------------------------------------------------------

// Config holds all configuration parameters for the shell server.
type Config struct {
	// Transport selects the connector ("tcp" or "unix")
	Transport string

	// Endpoint is the listen address (host:port for tcp, a socket path for
	// unix)
	Endpoint string

	// TimeoutSecond bounds how long an idle session may sit between bytes;
	// 0 disables the idle timeout
	TimeoutSecond int64

	// TCP socket tuning (ignored for unix sockets). NoDelay matters here:
	// the session echoes single bytes
	TCPNoDelay      bool
	TCPKeepAliveSec int

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Shell Server")
	addField("Transport", c.Transport)
	addField("Endpoint", c.Endpoint)
	addField("Idle Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	if c.Transport == "tcp" {
		addSection("TCP Tuning")
		addField("No Delay", strconv.FormatBool(c.TCPNoDelay))
		addField("Keep Alive", fmt.Sprintf("%d sec", c.TCPKeepAliveSec))
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
