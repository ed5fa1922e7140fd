package cli

import (
	"github.com/spf13/cobra"
)

// NewRedoCommand creates the redo command.
func NewRedoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Re-apply stored bans missing from the firewall",
		Long: `Ban again every stored address the firewall no longer denies, for
example after the firewall rules were reset. Addresses whitelisted since
their ban are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.engine.Redo(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "redo aborted", err)
			}
			if err := opts.formatter(cmd).Success(redoView{newReportView(report)}); err != nil {
				return err
			}
			return itemFailures(report, "redo")
		},
	}
}
