package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"live-watcher/internal/monitor"
	"live-watcher/internal/output"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "watch [username]",
		Short: "Monitor a username (or every saved one) until Ctrl+C",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			if all {
				f.Info(fmt.Sprintf("Monitoring %d account(s). Press Ctrl+C to stop.", len(deps.App.Watchlist.List())))
				return watch(cmd.Context(), deps, f, deps.App.MonitorAll)
			}
			username := args[0]
			f.Info(fmt.Sprintf("Monitoring @%s. Press Ctrl+C to stop.", username))
			return watch(cmd.Context(), deps, f, func(ctx context.Context) error {
				return deps.App.Monitor(ctx, username)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Monitor every saved username concurrently")

	return cmd
}

// watch streams monitor events to f while run blocks, and returns once an
// interrupt cancels it.
func watch(parent context.Context, deps *Dependencies, f *output.Formatter, run func(context.Context) error) error {
	ctx, stop := deps.interruptible(parent)
	defer stop()

	f.RecordingSetting(deps.App.Preferences.RecordingEnabled())

	var mu sync.Mutex
	unsubscribe := deps.App.Events.Subscribe(func(event monitor.Event) {
		mu.Lock()
		defer mu.Unlock()
		f.Event(event)
	})
	defer unsubscribe()

	if err := run(ctx); err != nil {
		return err
	}
	f.Info("Monitoring stopped")
	return nil
}
