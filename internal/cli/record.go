package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"live-watcher/internal/output"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:       "record [on|off|toggle]",
		Short:     "Show or change whether live streams are recorded",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			prefs := deps.App.Preferences

			if len(args) == 0 {
				f.RecordingSetting(prefs.RecordingEnabled())
				return nil
			}

			var err error
			switch args[0] {
			case "on":
				err = prefs.SetRecording(true)
			case "off":
				err = prefs.SetRecording(false)
			case "toggle":
				_, err = prefs.ToggleRecording()
			default:
				return fmt.Errorf("unknown record mode %q", args[0])
			}
			if err != nil {
				return err
			}
			f.RecordingSetting(prefs.RecordingEnabled())
			return nil
		},
	}
}
