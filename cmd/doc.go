// Package cmd implements the command-line interface for the fKV flash-backed
// key-value store. The binary runs a simulated device: the same storage
// engine the firmware would run, over a flash image file or a volatile
// in-memory device.
//
// The package is organized into several subpackages:
//
//   - serve: Command for running the simulated device with its command
//     console exposed on a TCP or Unix socket
//   - shell: Command for a single interactive console session on
//     stdin/stdout
//   - util: Shared utilities for command-line processing, device flags and
//     configuration (internal use)
//
// Configuration comes from command line flags, environment variables with
// the FKV_ prefix (e.g. FKV_ENDPOINT) and .env/.env.local files.
//
// See fkv -help for a list of all commands.
package cmd
