package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugr-lab/tabflight/filter"
	"github.com/hugr-lab/tabflight/query"
)

// inspectOutput is printed by the inspect command.
type inspectOutput struct {
	query.Metadata
	Filter *filterReport `json:"filter,omitempty"`
}

type filterReport struct {
	Matches int    `json:"matches"`
	SQL     string `json:"sql"`
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load a dataset and print its metadata as JSON",
		Args:  cobra.NoArgs,
		RunE:  runInspect,
	}
	cmd.Flags().String("filter", "", "filter expression (JSON) to count and explain")
	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	ds, err := openDataset(cfg)
	if err != nil {
		return err
	}
	p := query.New(ds)

	out := inspectOutput{Metadata: p.Metadata()}
	if expr, _ := cmd.Flags().GetString("filter"); expr != "" {
		node, err := filter.ParseAndSanitizeJSON([]byte(expr))
		if err != nil {
			return err
		}
		out.Filter = &filterReport{
			Matches: p.Count(node),
			SQL:     filter.EncodeDuckDB(node, ds.Schema()),
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
