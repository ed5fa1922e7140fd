package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/logwarden/internal/watch"
)

// NewBanPassCommand creates the bp command.
func NewBanPassCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bp",
		Short: "Run one ban pass over the last lines of every log (default)",
		Long: `Read the last log_lines lines of every configured log, match the
requested paths against the configured patterns and ban new offenders.

Addresses already recorded are not looked at again. Addresses the firewall
already denies only get a record. Whitelisted addresses are never banned.

Example:
  logwarden bp --config /etc/logwarden/config.yaml
  logwarden --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBanPass(cmd, opts)
		},
	}
}

func runBanPass(cmd *cobra.Command, opts *RootOptions) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := watch.RunOnce(cmd.Context(), s.engine, s.cfg.Log, s.cfg.LogLines, s.logger)
	if err != nil {
		return WrapExitError(ExitFailure, "ban pass aborted", err)
	}

	if err := opts.formatter(cmd).Success(reconcileView{newReportView(report)}); err != nil {
		return err
	}
	return itemFailures(report, "ban pass")
}
