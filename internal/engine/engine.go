package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/pattern"
)

// Firewall is the enforcement point. Implemented by firewall.UFW and
// firewall.NFT.
type Firewall interface {
	Ban(ctx context.Context, address string) error
	Unban(ctx context.Context, address string) error
	ListEnforced(ctx context.Context) ([]ban.FirewallEntry, error)
}

// BanStore persists one record per banned address. Implemented by
// store.Store (SQLite) and store.RedisStore.
type BanStore interface {
	Exists(ctx context.Context, address string) (bool, error)
	Save(ctx context.Context, rec ban.Record) error
	Delete(ctx context.Context, address string) error
	Get(ctx context.Context, address string) (ban.Record, error)
	List(ctx context.Context) ([]ban.Record, error)
}

// PassIDGenerator generates unique IDs for reconciliation passes.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type PassIDGenerator interface {
	Generate() string
}

// Engine applies ban decisions. Patterns and whitelist are fixed for the
// lifetime of the engine.
type Engine struct {
	firewall  Firewall
	store     BanStore
	patterns  *pattern.Set
	whitelist *ban.Whitelist
	passIDs   PassIDGenerator
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithPassIDs sets the pass ID generator. Defaults to UUIDv7Generator.
func WithPassIDs(g PassIDGenerator) Option {
	return func(e *Engine) {
		e.passIDs = g
	}
}

// New creates an Engine. A nil patterns set matches nothing; a nil whitelist
// exempts nothing.
func New(fw Firewall, st BanStore, patterns *pattern.Set, whitelist *ban.Whitelist, opts ...Option) *Engine {
	e := &Engine{
		firewall:  fw,
		store:     st,
		patterns:  patterns,
		whitelist: whitelist,
		passIDs:   UUIDv7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var globs, regexes int
	for _, r := range patterns.Rules() {
		switch {
		case !r.Valid():
			e.logger.Warn("pattern skipped", "error", r.Err)
		case r.Kind == pattern.KindRegex:
			regexes++
		default:
			globs++
		}
	}
	e.logger.Debug("patterns loaded", "globs", globs, "regexes", regexes)
	return e
}

// newPass starts a report and a logger carrying the pass ID.
func (e *Engine) newPass(op string) (*Report, *slog.Logger) {
	id := e.passIDs.Generate()
	return &Report{PassID: id, Op: op}, e.logger.With("pass", id, "op", op)
}

// enforced queries the firewall. Errors are already typed by the backend;
// untyped ones are wrapped as FIREWALL_QUERY.
func (e *Engine) enforced(ctx context.Context) ([]ban.FirewallEntry, error) {
	entries, err := e.firewall.ListEnforced(ctx)
	if err != nil {
		if ban.CodeOf(err) == "" {
			err = ban.NewError(ban.ErrCodeFirewallQuery, "failed to list firewall deny rules", err)
		}
		return nil, err
	}
	return entries, nil
}

// records lists the stored records, wrapping failures as STORE_READ.
func (e *Engine) records(ctx context.Context) ([]ban.Record, error) {
	recs, err := e.store.List(ctx)
	if err != nil {
		return nil, ban.NewError(ban.ErrCodeStoreRead, "failed to list ban records", err)
	}
	return recs, nil
}

// save persists rec, wrapping failures as STORE_WRITE.
func (e *Engine) save(ctx context.Context, rec ban.Record) error {
	if err := e.store.Save(ctx, rec); err != nil {
		return ban.NewItemError(ban.ErrCodeStoreWrite, rec.Address, "failed to save ban record", err)
	}
	return nil
}

// actionErr makes sure a firewall action error carries the address.
func actionErr(address, action string, err error) error {
	if ban.CodeOf(err) != "" {
		return err
	}
	return ban.NewItemError(ban.ErrCodeFirewallAction, address, action+" failed", err)
}
