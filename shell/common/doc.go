// Package common provides the configuration structures and logging
// utilities shared across the shell system: the server Config consumed by
// the transport layer and the command binary, and the logger factory that
// gives every package the same `LEVEL | name | message` output format.
package common
