// nestcanvas is a terminal canvas of nested cards.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nestcanvas",
		Short: "A canvas of nested cards in the terminal",
		Long: `nestcanvas places blocks on an infinite, zoomable canvas. Every block
points at a concept, and every concept can be opened as a canvas of its own.

Running without a subcommand opens the editor on the last viewed canvas.`,
		SilenceUsage: true,
		RunE:         runEditor,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/"+configFileName()+")")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level with the console encoder")

	root.AddCommand(runCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(conceptsCmd())
	root.AddCommand(initCmd())
	return root
}
