package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spyglass-dev/spyglass/cache"
	"github.com/spyglass-dev/spyglass/fetch"
)

var (
	listFilter  string
	listFields  []string
	listOutput  string
	listNoCache bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List resources of a kind",
	Long: `List resources of a kind in the working profile and region,
following pagination until the provider runs out of pages.

A fetch that fails partway still prints the rows gathered so far.`,
	Example: `  spyglass list ec2-instances
  spyglass list ec2-instances --filter prod
  spyglass list sqs-queues -p staging -r eu-west-1
  spyglass list rds-instances --filter "Status=available"
  spyglass list lambda-functions -o json`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeKinds,
	RunE:              runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Substring filter across all columns")
	listCmd.Flags().StringArrayVar(&listFields, "field", nil, "Restrict the filter to named columns or paths (repeatable)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json")
	listCmd.Flags().BoolVar(&listNoCache, "no-cache", false, "Skip writing the row snapshot cache")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	kind, err := a.reg.Lookup(args[0])
	if err != nil {
		return err
	}

	req := a.fetchRequest(kind.ID)
	req.Filter = fetch.Filter{Query: listFilter, Fields: listFields}

	res := a.fetcher.Paginated(cmd.Context(), req, nil)

	switch listOutput {
	case "json":
		if err := renderJSON(os.Stdout, rawItems(res.Rows)); err != nil {
			return err
		}
	default:
		renderRows(os.Stdout, kind, res.Rows)
	}

	if res.State == fetch.Truncated {
		fmt.Fprintln(os.Stderr, "Warning: page limit reached, listing is incomplete. Narrow with --filter.")
	}
	if res.Err != nil {
		return fmt.Errorf("listing stopped after %d rows: %w", len(res.Rows), res.Err)
	}

	if !listNoCache {
		a.snapshotRows(kind.ID, res.Rows)
	}
	a.rememberSelection(kind.ID)
	return nil
}

// snapshotRows persists the rows for offline fallback. Cache trouble is
// logged, never fatal.
func (a *app) snapshotRows(kind string, rows []fetch.Row) {
	store, err := cache.Open(cache.DefaultDir())
	if err != nil {
		a.logger.Warn().Err(err).Msg("snapshot cache unavailable")
		return
	}
	defer store.Close()

	if err := store.Put(kind, a.profile, a.region, rows); err != nil {
		a.logger.Warn().Err(err).Msg("failed to write row snapshot")
	}
}

// cachedRow looks up one row in the snapshot cache.
func (a *app) cachedRow(kind, key string) (fetch.Row, bool) {
	store, err := cache.Open(cache.DefaultDir())
	if err != nil {
		a.logger.Warn().Err(err).Msg("snapshot cache unavailable")
		return fetch.Row{}, false
	}
	defer store.Close()

	snap, ok, err := store.Get(kind, a.profile, a.region)
	if err != nil || !ok {
		return fetch.Row{}, false
	}
	for _, row := range snap.Rows {
		if row.Key == key {
			return row, true
		}
	}
	return fetch.Row{}, false
}
