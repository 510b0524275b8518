// Package shell implements the device's command session layer: a
// line-buffered text console spoken over any duplex byte stream (a serial
// port on the real device, a TCP or Unix socket on the simulator).
//
// The package is organized into several subpackages:
//
//   - common: Configuration structures and the logger factory shared across
//     the shell system.
//
//   - transport: Listener abstractions with pluggable connectors (TCP, Unix
//     sockets) that run one session per accepted connection.
//
// The shell package itself holds the Session type: it reads line-buffered
// ASCII with echo and backspace editing, parses the command verbs (get, set,
// mode, help) and renders textual responses followed by a prompt. Storage
// faults render as a plain failure line; a failed command never terminates
// the session.
package shell
