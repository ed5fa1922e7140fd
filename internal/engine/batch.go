package engine

import (
	"context"
	"errors"

	"github.com/roach88/logwarden/internal/ban"
)

// ClearAll removes every deny rule the firewall reports and deletes the
// matching records. Failures are counted and the loop continues.
func (e *Engine) ClearAll(ctx context.Context) (*Report, error) {
	report, log := e.newPass("clear")

	entries, err := e.enforced(ctx)
	if err != nil {
		log.Error("clear aborted", "error", err)
		return report, err
	}

	for _, fe := range entries {
		rec := ban.Record{Address: fe.Address}
		if err := e.firewall.Unban(ctx, fe.Address); err != nil {
			err = actionErr(fe.Address, "unban", err)
			log.Error("unban failed", "address", fe.Address, "error", err)
			report.add(ActionFailed, rec, err)
			continue
		}
		var delErr error
		if err := e.store.Delete(ctx, fe.Address); err != nil {
			delErr = ban.NewItemError(ban.ErrCodeStoreWrite, fe.Address, "failed to delete ban record", err)
			log.Error("ban record not deleted", "address", fe.Address, "error", delErr)
		}
		log.Info("address unbanned", "address", fe.Address)
		report.add(ActionUnbanned, rec, delErr)
	}

	log.Info("clear complete", "processed", report.Unbanned, "failed", report.Failed, "total", len(entries))
	return report, nil
}

// Redo re-applies stored bans the firewall no longer enforces, for example
// after the firewall was reset. Records of addresses whitelisted since are
// skipped and left untouched.
func (e *Engine) Redo(ctx context.Context) (*Report, error) {
	report, log := e.newPass("redo")

	recs, err := e.records(ctx)
	if err != nil {
		log.Error("redo aborted", "error", err)
		return report, err
	}
	entries, err := e.enforced(ctx)
	if err != nil {
		log.Error("redo aborted", "error", err)
		return report, err
	}
	enforced := ban.EnforcedSet(entries)

	for _, rec := range recs {
		switch {
		case e.whitelist.Contains(rec.Address):
			log.Info("whitelisted address skipped", "address", rec.Address)
			report.add(ActionWhitelisted, rec, nil)
		case enforced.Has(rec.Address):
			report.add(ActionSkipped, rec, nil)
		default:
			if err := e.firewall.Ban(ctx, rec.Address); err != nil {
				err = actionErr(rec.Address, "ban", err)
				log.Error("ban failed", "address", rec.Address, "error", err)
				report.add(ActionFailed, rec, err)
				continue
			}
			log.Info("address banned", "address", rec.Address, "pattern", rec.Pattern)
			report.add(ActionBanned, rec, nil)
		}
	}

	log.Info("redo complete",
		"banned", report.Banned,
		"skipped", report.Skipped,
		"whitelisted", report.WhitelistSkipped,
		"failed", report.Failed,
	)
	return report, nil
}

// Unban lifts the ban on one address. The address must have a stored record;
// otherwise the error wraps ban.ErrNotFound and the firewall is not touched.
func (e *Engine) Unban(ctx context.Context, address string) (ban.Record, error) {
	rec, err := e.Get(ctx, address)
	if err != nil {
		return ban.Record{}, err
	}
	if err := e.firewall.Unban(ctx, address); err != nil {
		return rec, actionErr(address, "unban", err)
	}
	if err := e.store.Delete(ctx, address); err != nil {
		return rec, ban.NewItemError(ban.ErrCodeStoreWrite, address, "failed to delete ban record", err)
	}
	e.logger.Info("address unbanned", "address", address)
	return rec, nil
}

// Get returns the stored record for address.
func (e *Engine) Get(ctx context.Context, address string) (ban.Record, error) {
	rec, err := e.store.Get(ctx, address)
	if errors.Is(err, ban.ErrNotFound) {
		return ban.Record{}, err
	}
	if err != nil {
		return ban.Record{}, ban.NewItemError(ban.ErrCodeStoreRead, address, "failed to read ban record", err)
	}
	return rec, nil
}

// UnknownPattern is shown for enforced addresses without a stored record.
const UnknownPattern = "unknown"

// EnforcedBan is one firewall deny rule joined with its stored record.
type EnforcedBan struct {
	Address string `json:"address"`
	Scope   string `json:"scope"`
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

// Show lists the addresses the firewall denies, with the pattern that caused
// each ban, or UnknownPattern when no record exists.
func (e *Engine) Show(ctx context.Context) ([]EnforcedBan, error) {
	entries, err := e.enforced(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EnforcedBan, 0, len(entries))
	for _, fe := range entries {
		eb := EnforcedBan{Address: fe.Address, Scope: fe.Scope, Pattern: UnknownPattern}
		rec, err := e.Get(ctx, fe.Address)
		switch {
		case err == nil:
			eb.Pattern = rec.Pattern
			eb.Path = rec.Path
		case !errors.Is(err, ban.ErrNotFound):
			return nil, err
		}
		out = append(out, eb)
	}
	return out, nil
}
