package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spyglass-dev/spyglass/actions"
	"github.com/spyglass-dev/spyglass/fetch"
)

var doYes bool

// doCmd represents the do command
var doCmd = &cobra.Command{
	Use:   "do <kind> <action> <key>",
	Short: "Run an action on one resource",
	Long: `Run a registered action (stop, reboot, delete, purge, ...) on one
resource. Destructive actions and actions flagged for confirmation ask
before running; pass --yes to skip the prompt in scripts.

Run 'spyglass kinds' to see which actions each kind supports.`,
	Example: `  spyglass do ec2-instances stop i-0abc123def456
  spyglass do sqs-queues purge https://sqs.us-east-1.amazonaws.com/123/my-queue
  spyglass do ebs-volumes delete vol-0abc123 --yes`,
	Args:              cobra.ExactArgs(3),
	ValidArgsFunction: completeKinds,
	RunE:              runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)

	doCmd.Flags().BoolVarP(&doYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runDo(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	kindID, actionID, key := args[0], args[1], args[2]

	action, err := a.exec.Lookup(kindID, actionID)
	if err != nil {
		return err
	}

	row, err := a.findRow(cmd, kindID, key)
	if err != nil {
		return err
	}

	if (action.Destructive || action.Confirm) && !doYes {
		if !confirm(cmd, action.Label, key, action.Destructive) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return nil
		}
	}

	outcome, err := a.exec.Execute(cmd.Context(), actions.Request{
		Kind:     kindID,
		Action:   actionID,
		Row:      row,
		Profile:  a.profile,
		Region:   a.region,
		Endpoint: a.endpoint,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", outcome.Message)
	return nil
}

// findRow locates the resource row the action needs, preferring a live
// listing and falling back to the snapshot cache.
func (a *app) findRow(cmd *cobra.Command, kindID, key string) (fetch.Row, error) {
	res := a.fetcher.Paginated(cmd.Context(), a.fetchRequest(kindID), nil)
	for _, row := range res.Rows {
		if row.Key == key {
			return row, nil
		}
	}

	if row, ok := a.cachedRow(kindID, key); ok {
		if res.Err != nil {
			a.logger.Warn().Err(res.Err).Msg("listing failed, using cached row")
		}
		return row, nil
	}
	if res.Err != nil {
		return fetch.Row{}, res.Err
	}
	return fetch.Row{}, fmt.Errorf("%s %q not found in %s/%s", kindID, key, a.profile, a.region)
}

func confirm(cmd *cobra.Command, label, key string, destructive bool) bool {
	verb := "Confirm"
	if destructive {
		verb = "Delete"
	}
	fmt.Fprintf(os.Stderr, "<%s> %s %s? [y/N]: ", verb, label, key)

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
