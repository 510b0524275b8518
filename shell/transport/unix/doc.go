// Package unix provides the Unix domain socket connector for the shell
// transport. A stale socket file from a previous run is removed before
// listening.
package unix
