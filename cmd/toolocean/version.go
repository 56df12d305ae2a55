package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/toolocean/internal/app"
	"github.com/hyperifyio/toolocean/internal/jsonrepair"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "toolocean %s (commit %s, built %s, engine %s)\n",
				app.BuildVersion, app.BuildCommit, app.BuildDate, jsonrepair.Version)
			return err
		},
	}
}
