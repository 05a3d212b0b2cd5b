package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/spyglass-dev/spyglass/fetch"
	"github.com/spyglass-dev/spyglass/refresh"
	"github.com/spyglass-dev/spyglass/registry"
)

var (
	watchInterval time.Duration
	watchFilter   string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <kind>",
	Short: "Continuously refresh a resource list",
	Long: `Refresh a resource list on an interval and print each applied
result. A refresh that is still running when the next tick fires is
superseded; stale results are discarded, never merged.

Stop with Ctrl-C.`,
	Example: `  spyglass watch ec2-instances
  spyglass watch sqs-queues --interval 10s
  spyglass watch rds-instances --filter prod`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeKinds,
	RunE:              runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "Refresh interval")
	watchCmd.Flags().StringVarP(&watchFilter, "filter", "f", "", "Substring filter across all columns")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	kind, err := a.reg.Lookup(args[0])
	if err != nil {
		return err
	}

	req := a.fetchRequest(kind.ID)
	req.Filter = fetch.Filter{Query: watchFilter}

	coord := refresh.New(a.fetcher, a.logger)
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	g.Add(func() error {
		coord.Refresh(ctx, req)
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				coord.Refresh(ctx, req)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}, func(error) {
		cancel()
	})

	g.Add(func() error {
		for {
			select {
			case update := <-coord.Updates():
				printUpdate(kind, a.profile, a.region, update)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}, func(error) {
		cancel()
	})

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printUpdate(kind registry.ResourceKind, profile, region string, update refresh.Update) {
	stamp := time.Now().Format("15:04:05")
	if update.Phase == refresh.Failed {
		fmt.Fprintf(os.Stderr, "[%s] %s %s/%s: refresh failed: %v\n",
			stamp, kind.ID, profile, region, update.Result.Err)
		if len(update.Result.Rows) == 0 {
			return
		}
	}

	fmt.Printf("[%s] %s %s/%s: %d rows\n", stamp, kind.ID, profile, region, len(update.Result.Rows))
	renderRows(os.Stdout, kind, update.Result.Rows)
	if update.Result.State == fetch.Truncated {
		fmt.Fprintln(os.Stderr, "Warning: page limit reached, listing is incomplete.")
	}
}
