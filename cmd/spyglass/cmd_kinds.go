package main

import (
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spyglass-dev/spyglass/registry"
)

// kindsCmd represents the kinds command
var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List supported resource kinds",
	Long: `List every resource kind spyglass knows how to browse, with the
AWS service it belongs to and the actions it supports.`,
	RunE: runKinds,
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

func runKinds(cmd *cobra.Command, args []string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Kind", "Name", "Service", "Actions")

	for _, kind := range registry.Builtin().Kinds() {
		ids := make([]string, 0, len(kind.Actions))
		for _, action := range kind.Actions {
			ids = append(ids, action.ID)
		}
		_ = table.Append(kind.ID, kind.Name, kind.Service, strings.Join(ids, ", "))
	}
	return table.Render()
}
