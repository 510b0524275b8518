package base

import (
	"net"
	"time"
)

// idleTimeoutConn pushes the read deadline forward on every read so an
// abandoned session is eventually reclaimed. A timeout of 0 disables the
// deadline entirely.
type idleTimeoutConn struct {
	net.Conn
	timeout time.Duration
}

// newIdleTimeoutConn wraps conn with an idle timeout of timeoutSecond
// seconds; with 0 the connection is returned unchanged.
func newIdleTimeoutConn(conn net.Conn, timeoutSecond int64) net.Conn {
	if timeoutSecond <= 0 {
		return conn
	}
	return &idleTimeoutConn{Conn: conn, timeout: time.Duration(timeoutSecond) * time.Second}
}

func (c *idleTimeoutConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *idleTimeoutConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}
