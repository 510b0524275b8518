// Package tcp provides the TCP connector for the shell transport. It layers
// socket tuning over the base serve loop: NoDelay is enabled by default
// because the session echoes single bytes, and keep-alive reclaims sessions
// whose peer vanished without closing.
package tcp
