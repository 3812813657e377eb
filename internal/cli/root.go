package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "sheetkernel",
	Short: "Notebook server launcher for spreadsheet-embedded kernels",
	Long: `sheetkernel manages Jupyter notebook servers connected to a kernel
embedded in a spreadsheet host. Given the kernel's connection file it
resolves the server command, spawns it, waits for the token URL, and
guarantees the server is torn down with the host.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("sheetkernel version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
