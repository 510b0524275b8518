package base

import (
	"fmt"
	"net"

	"github.com/ValentinKolb/fKV/shell/common"
	"github.com/ValentinKolb/fKV/shell/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("shell/transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.Config) (net.Listener, error)

	// UpgradeConnection applies protocol-specific tuning to an accepted
	// connection (a no-op for protocols without knobs)
	UpgradeConnection(conn net.Conn, config common.Config) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.SessionHandleFunc
	config    common.Config
	listener  net.Listener
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport
func NewBaseServerTransport(connector IServerConnector) transport.IShellServerTransport {
	return &serverTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IShellServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.SessionHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.Config) error {
	if t.handler == nil {
		return fmt.Errorf("no session handler registered")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listener = listener

	Logger.Infof("Starting %s shell server on %s", t.connector.GetName(), config.Endpoint)

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		// Serve the session in a goroutine
		go t.handleConnection(conn)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection runs one session for the connection and closes it when
// the session ends
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Errorf("Failed to tune connection from %s: %v", conn.RemoteAddr(), err)
		return
	}

	Logger.Infof("Session opened from %s", conn.RemoteAddr())

	session := newIdleTimeoutConn(conn, t.config.TimeoutSecond)
	t.handler(session)

	Logger.Infof("Session from %s ended", conn.RemoteAddr())
}
