package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"live-watcher/internal/bootstrap"
	"live-watcher/internal/config"
	"live-watcher/internal/version"
)

type Dependencies struct {
	App    *bootstrap.App
	Config *config.Config

	// NotifyContext scopes a monitoring run to Ctrl+C. Nil means
	// signal.NotifyContext on SIGINT and SIGTERM.
	NotifyContext func(parent context.Context) (context.Context, context.CancelFunc)
}

func (d *Dependencies) interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	if d.NotifyContext != nil {
		return d.NotifyContext(parent)
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "live-watcher",
		Short: "Watch TikTok accounts and record their live streams",
		Long: "Polls saved TikTok accounts for live broadcasts and records them with streamlink,\n" +
			"falling back to yt-dlp. Run without arguments for the interactive menu.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewMenu(deps, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}

	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewAddCmd(deps))
	rootCmd.AddCommand(NewRemoveCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewRecordingsCmd(deps))

	return rootCmd
}
