// Package base provides the protocol-agnostic serve loop for shell
// transports: it accepts connections through a pluggable connector, applies
// protocol-specific socket tuning, enforces the configured idle timeout and
// runs one session goroutine per connection.
//
// Key Components:
//
//   - IServerConnector: Interface for protocol-specific operations (creating
//     the listener, tuning an accepted connection) that allows extending the
//     base transport with different network protocols.
//
//   - serverTransport: Core server implementation. One goroutine per
//     connection; the connection is closed when the handler returns.
//
// Thread Safety:
//
//	RegisterHandler must be called before Listen; afterwards the transport
//	only reads its own fields, so concurrent sessions need no coordination
//	beyond what the handler itself provides.
package base
