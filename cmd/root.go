package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/fKV/cmd/serve"
	"github.com/ValentinKolb/fKV/cmd/shell"
	"github.com/spf13/cobra"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "fkv",
		Short: "flash-backed persistent key-value store",
		Long: fmt.Sprintf(`fKV (v%s)

A persistent, crash-resilient key-value store over raw NOR flash,
with a simulated device exposing the firmware's command console.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of fKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(shell.ShellCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
