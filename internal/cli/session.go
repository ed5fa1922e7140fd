package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/config"
	"github.com/roach88/logwarden/internal/engine"
	"github.com/roach88/logwarden/internal/firewall"
	"github.com/roach88/logwarden/internal/store"
)

// session bundles what a command needs: configuration, backends and engine.
type session struct {
	cfg    *config.Config
	engine *engine.Engine
	logger *slog.Logger
	closer func() error
}

// openSession loads the configuration and connects the backends.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	path, err := config.Resolve(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "path", path, "logs", len(cfg.Log), "patterns", len(cfg.Patterns))

	whitelist, err := cfg.WhitelistSet()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, closer: func() error { return nil }}

	st := opts.Store
	if st == nil {
		backend, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		st = backend
		s.closer = backend.Close
	}

	fw := opts.Firewall
	if fw == nil {
		fw = openFirewall(cfg, logger)
	}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if opts.PassIDs != nil {
		engineOpts = append(engineOpts, engine.WithPassIDs(opts.PassIDs))
	}
	s.engine = engine.New(fw, st, cfg.PatternSet(), whitelist, engineOpts...)
	return s, nil
}

func (s *session) Close() {
	if err := s.closer(); err != nil {
		s.logger.Error("error closing ban store", "error", err)
	}
}

// openStore opens the configured ban record backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		if ctx == nil {
			ctx = context.Background()
		}
		rs, err := store.OpenRedis(ctx, cfg.Store.RedisURL, cfg.Store.KeyPrefix)
		if err != nil {
			return nil, ban.NewError(ban.ErrCodeStoreRead, "cannot open redis ban store", err)
		}
		return rs, nil
	default:
		st, err := store.Open(cfg.Database)
		if err != nil {
			return nil, &ban.Error{Code: ban.ErrCodeStoreRead, Message: "cannot open ban database", Subject: cfg.Database, Err: err}
		}
		return st, nil
	}
}

// openFirewall builds the configured firewall backend.
func openFirewall(cfg *config.Config, logger *slog.Logger) engine.Firewall {
	opts := []firewall.Option{
		firewall.WithCommand(cfg.Firewall.Command),
		firewall.WithLogger(logger),
	}
	switch cfg.Firewall.Backend {
	case config.BackendNFT:
		return firewall.NewNFT(cfg.Firewall.NFTTable, cfg.Firewall.NFTSet, opts...)
	default:
		return firewall.NewUFW(opts...)
	}
}

// itemFailures turns per-item failures of a batch into the command error.
func itemFailures(report *engine.Report, what string) error {
	if report.Failed == 0 && len(report.Errors()) == 0 {
		return nil
	}
	return NewExitError(ExitFailure, what+" completed with errors")
}
