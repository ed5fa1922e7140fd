package cli

import (
	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every deny rule and its record",
		Long: `Remove every deny rule the firewall reports, deleting the stored record
of each address that was released. Failures are reported per address and
the remaining addresses are still processed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.engine.ClearAll(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "cannot list bans", err)
			}
			if err := opts.formatter(cmd).Success(clearView{newReportView(report)}); err != nil {
				return err
			}
			return itemFailures(report, "clear")
		},
	}
}
