package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/logwarden/internal/ban"
)

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <address>",
		Short: "Show the stored ban record of one address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.engine.Get(cmd.Context(), args[0])
			if errors.Is(err, ban.ErrNotFound) {
				return NewExitError(ExitFailure, fmt.Sprintf("address %s is not in the ban list", args[0]))
			}
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(newRecordView(rec))
		},
	}
}
