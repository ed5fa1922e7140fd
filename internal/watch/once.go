package watch

import (
	"context"
	"log/slog"

	"github.com/roach88/logwarden/internal/engine"
	"github.com/roach88/logwarden/internal/logparse"
	"github.com/roach88/logwarden/internal/tail"
)

// RunOnce reads the last n lines of every path and runs one pass over them.
// Missing or unreadable logs are logged and skipped. The error is the one
// returned by the pass itself.
func RunOnce(ctx context.Context, rec Reconciler, paths []string, n int, logger *slog.Logger) (*engine.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lines, errs := tail.ReadLast(paths, n)
	for _, err := range errs {
		logger.Warn("log skipped", "error", err)
	}

	entries := logparse.Extract(lines)
	logger.Debug("logs read", "files", len(paths)-len(errs), "lines", len(lines), "entries", len(entries))

	return rec.Reconcile(ctx, entries)
}
