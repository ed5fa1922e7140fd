package cli

import (
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List addresses the firewall currently denies",
		Long: `List every address the firewall currently denies together with the
pattern that caused the ban. Addresses banned outside logwarden show
"unknown".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			bans, err := s.engine.Show(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "cannot list bans", err)
			}
			return opts.formatter(cmd).Success(showView{Bans: bans, Total: len(bans)})
		},
	}
}
