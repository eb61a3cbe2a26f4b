package cli

import (
	"github.com/spf13/cobra"

	"live-watcher/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check capture tools and the recordings directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			if !fix {
				f.DiagnosticReport(deps.App.RefreshDiagnostics())
				return nil
			}

			f.Info("Trying to install missing dependencies...")
			results, report := deps.App.FixDiagnostics(cmd.Context())
			for _, result := range results {
				f.FixResult(result)
			}
			f.DiagnosticReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Install missing tools using the available package managers")

	return cmd
}
