// Package transport defines the listener abstraction for the shell system.
// Unlike a framed RPC transport, a shell connection carries a single
// long-lived byte stream, so the contract is deliberately small: a transport
// accepts connections and hands each one to a session handler that runs
// until the stream ends.
//
// Implementations:
//   - base: protocol-agnostic serve loop (accept, upgrade, idle timeout)
//   - tcp: TCP socket connector with NoDelay/keep-alive tuning
//   - unix: Unix domain socket connector
package transport
