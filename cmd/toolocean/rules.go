package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/toolocean/internal/jsonrepair"
)

func newRulesCmd(root *rootOptions) *cobra.Command {
	var (
		asJSON  bool
		disable []string
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List enabled repair rules in the order they are applied",
		Long:  "Lists the rules repair would run with the same config file, environment and --disable settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := layeredConfig(root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("disable") {
				cfg.Disabled = disable
			}
			e, err := jsonrepair.New(jsonrepair.Options{Disabled: cfg.Disabled})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			catalog := e.Rules()
			if asJSON {
				b, err := json.MarshalIndent(catalog, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			}
			for _, r := range catalog {
				if _, err := fmt.Fprintf(out, "%d. %-20s %s\n", r.Position, r.Name, r.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	cmd.Flags().StringSliceVar(&disable, "disable", nil, "Comma-separated rule names to leave out")
	return cmd
}
