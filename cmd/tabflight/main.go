// Command tabflight serves a JSON dataset over Arrow Flight.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tabflight",
		Short:         "Serve a tabular dataset over Arrow Flight",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("data", "", "dataset file (.json or .json.zst)")
	root.PersistentFlags().StringSlice("schema", nil, "column declarations name:type, in order")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "log format: text or json")

	root.AddCommand(newServeCmd(), newInspectCmd())
	return root
}
