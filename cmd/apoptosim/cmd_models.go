package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/njchilds90/apoptosim/models"
)

var (
	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List the built-in models",
		Args:  cobra.NoArgs,
		RunE:  runModels,
	}

	modelsJSON bool
)

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Print JSON")
}

func runModels(cmd *cobra.Command, _ []string) error {
	infos := models.Catalog()
	if modelsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLOOP\tDESCRIPTION")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", info.Name, info.Loop, info.Description)
	}
	return tw.Flush()
}
