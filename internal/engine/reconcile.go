package engine

import (
	"context"

	"github.com/roach88/logwarden/internal/ban"
)

// Reconcile runs one pass over newly observed entries.
//
// The returned error is non-nil only when the pass was aborted because the
// firewall or the store could not be queried; no side effects happened in
// that case. Per-address failures are in the report.
func (e *Engine) Reconcile(ctx context.Context, entries []ban.Entry) (*Report, error) {
	report, log := e.newPass("reconcile")

	enforcedEntries, err := e.enforced(ctx)
	if err != nil {
		log.Error("pass aborted", "error", err)
		return report, err
	}
	recs, err := e.records(ctx)
	if err != nil {
		log.Error("pass aborted", "error", err)
		return report, err
	}

	enforced := ban.EnforcedSet(enforcedEntries)
	existing := ban.NewAddressSet()
	for _, r := range recs {
		existing.Add(r.Address)
	}

	candidates := make([]ban.Entry, 0, len(entries))
	for _, en := range entries {
		if !existing.Has(en.Address) {
			candidates = append(candidates, en)
		}
	}

	matches := e.patterns.Match(candidates)
	log.Debug("pass started",
		"entries", len(entries),
		"candidates", len(candidates),
		"matches", len(matches),
		"enforced", len(enforced),
		"stored", len(existing),
	)

	processed := ban.NewAddressSet()
	for _, m := range matches {
		if processed.Has(m.Address) {
			continue
		}
		processed.Add(m.Address)
		rec := ban.RecordFromMatch(m)

		switch {
		case e.whitelist.Contains(m.Address):
			log.Info("whitelisted address skipped", "address", m.Address, "path", m.Path, "pattern", m.Pattern)
			report.add(ActionWhitelisted, rec, nil)

		case enforced.Has(m.Address):
			if err := e.save(ctx, rec); err != nil {
				log.Error("record sync failed", "address", m.Address, "error", err)
				report.add(ActionFailed, rec, err)
				continue
			}
			log.Info("already enforced, record synced", "address", m.Address, "pattern", m.Pattern)
			report.add(ActionSynced, rec, nil)

		default:
			if err := e.firewall.Ban(ctx, m.Address); err != nil {
				err = actionErr(m.Address, "ban", err)
				log.Error("ban failed", "address", m.Address, "error", err)
				report.add(ActionFailed, rec, err)
				continue
			}
			// The deny rule stands even if the record cannot be written;
			// the next pass syncs it.
			err := e.save(ctx, rec)
			if err != nil {
				log.Error("ban record not saved", "address", m.Address, "error", err)
			}
			log.Info("address banned", "address", m.Address, "path", m.Path, "pattern", m.Pattern)
			report.add(ActionBanned, rec, err)
		}
	}

	log.Info("pass complete",
		"banned", report.Banned,
		"skipped", report.Skipped,
		"whitelisted", report.WhitelistSkipped,
		"failed", report.Failed,
	)
	return report, nil
}

// Snapshot is the state observed when continuous mode starts.
type Snapshot struct {
	Enforced int
	Stored   int
}

// Snapshot queries the firewall and the store once. Continuous mode calls it
// at start-up so that an unreachable firewall fails early.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	enforced, err := e.enforced(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	recs, err := e.records(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Enforced: len(enforced), Stored: len(recs)}, nil
}
