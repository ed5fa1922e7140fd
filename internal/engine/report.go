package engine

import "github.com/roach88/logwarden/internal/ban"

// ActionKind names what happened to one address during a pass.
type ActionKind string

const (
	// ActionBanned: the firewall now denies the address.
	ActionBanned ActionKind = "banned"
	// ActionSynced: the firewall already denied the address; only the record
	// was written.
	ActionSynced ActionKind = "synced"
	// ActionSkipped: nothing to do, the firewall already denies the address.
	ActionSkipped ActionKind = "skipped"
	// ActionWhitelisted: the address is exempt; nothing was changed.
	ActionWhitelisted ActionKind = "whitelisted"
	// ActionUnbanned: the deny rule was removed.
	ActionUnbanned ActionKind = "unbanned"
	// ActionFailed: the firewall or store rejected the change.
	ActionFailed ActionKind = "failed"
)

// Action is the outcome for one address. Err is set for failures, and also
// for a ban whose record could not be written afterwards.
type Action struct {
	Kind   ActionKind
	Record ban.Record
	Err    error
}

// Report summarizes one pass or batch operation.
type Report struct {
	PassID string
	Op     string

	Banned           int
	Skipped          int
	WhitelistSkipped int
	Unbanned         int
	Failed           int

	Actions []Action
}

// Total is the number of addresses the pass handled.
func (r *Report) Total() int {
	return r.Banned + r.Skipped + r.WhitelistSkipped + r.Unbanned + r.Failed
}

// Errors returns the per-item errors in the order they occurred.
func (r *Report) Errors() []error {
	var errs []error
	for _, a := range r.Actions {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Empty reports whether the pass did nothing.
func (r *Report) Empty() bool {
	return len(r.Actions) == 0
}

// BannedRecords returns the records of addresses banned by this pass.
func (r *Report) BannedRecords() []ban.Record {
	var recs []ban.Record
	for _, a := range r.Actions {
		if a.Kind == ActionBanned {
			recs = append(recs, a.Record)
		}
	}
	return recs
}

func (r *Report) add(kind ActionKind, rec ban.Record, err error) {
	switch kind {
	case ActionBanned:
		r.Banned++
	case ActionSynced, ActionSkipped:
		r.Skipped++
	case ActionWhitelisted:
		r.WhitelistSkipped++
	case ActionUnbanned:
		r.Unbanned++
	case ActionFailed:
		r.Failed++
	}
	r.Actions = append(r.Actions, Action{Kind: kind, Record: rec, Err: err})
}
