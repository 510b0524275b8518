package transport

import (
	"net"

	"github.com/ValentinKolb/fKV/shell/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// SessionHandleFunc runs one command session over the connection and returns
// when the session ends. The transport closes the connection afterwards.
type SessionHandleFunc func(conn net.Conn)

// IShellServerTransport is the interface for the shell listener layer.
type IShellServerTransport interface {
	// RegisterHandler registers the session handler. Must be called before
	// Listen.
	RegisterHandler(handler SessionHandleFunc)
	// Listen starts accepting connections and blocks for the lifetime of the
	// server, running one handler goroutine per connection.
	Listen(config common.Config) error
}
