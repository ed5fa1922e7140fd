package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/logwarden/internal/engine"
	"github.com/roach88/logwarden/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the logs and ban offenders as lines are appended",
		Long: `Watch every configured log and run a ban pass over each batch of newly
appended lines. Lines already in the logs at start-up are ignored; run bp
first to process them. Rotated logs are re-read from the start.

Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}
}

func runWatch(cmd *cobra.Command, opts *RootOptions) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter := opts.formatter(cmd)
	w := watch.New(s.engine, s.cfg.Log,
		watch.WithLogger(s.logger),
		watch.WithReportHandler(func(r *engine.Report) {
			if err := formatter.Success(reconcileView{newReportView(r)}); err != nil {
				s.logger.Error("cannot write pass report", "error", err)
			}
		}),
	)

	if opts.Format != "json" {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %d log(s). Press Ctrl-C to stop.\n", len(s.cfg.Log))
	}
	if err := w.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "watch failed", err)
	}
	s.logger.Info("watch stopped gracefully")
	return nil
}
