package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/logwarden/internal/ban"
)

// NewUnbanCommand creates the unban command.
func NewUnbanCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unban <address>",
		Short: "Lift the ban on one address",
		Long: `Remove the firewall deny rule of one address and delete its record.
Only addresses with a stored record can be unbanned; use clear to remove
deny rules logwarden did not create.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			address := args[0]
			if _, err := s.engine.Unban(cmd.Context(), address); err != nil {
				if errors.Is(err, ban.ErrNotFound) {
					return NewExitError(ExitFailure, fmt.Sprintf("address %s is not in the ban list", address))
				}
				return WrapExitError(ExitFailure, "unban failed", err)
			}
			return opts.formatter(cmd).Success(messageView{
				Message: "Unbanned " + address,
				Address: address,
			})
		},
	}
}
