package cli

import (
	"github.com/spf13/cobra"

	"live-watcher/internal/output"
)

func NewRecordingsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "recordings",
		Short: "List captured recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())

			files, err := deps.App.Recordings()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				f.Info("No recordings found")
				return nil
			}

			f.RecordingListHeader(deps.Config.RecordingsDir)
			for _, file := range files {
				f.RecordingListItem(file)
			}
			return nil
		},
	}
}
