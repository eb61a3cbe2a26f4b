package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"live-watcher/internal/output"
	"live-watcher/internal/watchlist"
)

func NewAddCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>...",
		Short: "Add usernames to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			for _, raw := range args {
				if err := addUsername(deps, f, raw); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func NewRemoveCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <username>...",
		Aliases: []string{"rm"},
		Short:   "Remove usernames from the watchlist",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			for _, raw := range args {
				if err := removeUsername(deps, f, raw); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watched usernames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			f.UsernameList(deps.App.Watchlist.List())
			f.RecordingSetting(deps.App.Preferences.RecordingEnabled())
			return nil
		},
	}
}

// addUsername reports duplicates as a warning; only save failures and
// invalid handles are errors.
func addUsername(deps *Dependencies, f *output.Formatter, raw string) error {
	name, err := deps.App.Watchlist.Add(raw)
	switch {
	case errors.Is(err, watchlist.ErrDuplicateUsername):
		f.Warning(fmt.Sprintf("@%s is already watched", name))
		return nil
	case err != nil:
		return err
	}
	f.Success(fmt.Sprintf("Added @%s", name))
	return nil
}

func removeUsername(deps *Dependencies, f *output.Formatter, raw string) error {
	name, err := deps.App.Watchlist.Remove(raw)
	switch {
	case errors.Is(err, watchlist.ErrUnknownUsername):
		f.Warning(fmt.Sprintf("@%s is not in the watchlist", name))
		return nil
	case err != nil:
		return err
	}
	f.Success(fmt.Sprintf("Removed @%s", name))
	return nil
}
