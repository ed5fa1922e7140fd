package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/engine"
)

// actionView is one Action in CLI output.
type actionView struct {
	Kind    string `json:"kind"`
	Address string `json:"address"`
	Path    string `json:"path,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Error   string `json:"error,omitempty"`
}

// reportView is the CLI rendering of an engine.Report.
type reportView struct {
	PassID           string       `json:"-"`
	Op               string       `json:"op"`
	Banned           int          `json:"banned"`
	Skipped          int          `json:"skipped"`
	WhitelistSkipped int          `json:"whitelist_skipped"`
	Unbanned         int          `json:"unbanned"`
	Failed           int          `json:"failed"`
	Total            int          `json:"total"`
	Actions          []actionView `json:"actions"`

	banned []ban.Record
}

func newReportView(r *engine.Report) reportView {
	v := reportView{
		PassID:           r.PassID,
		Op:               r.Op,
		Banned:           r.Banned,
		Skipped:          r.Skipped,
		WhitelistSkipped: r.WhitelistSkipped,
		Unbanned:         r.Unbanned,
		Failed:           r.Failed,
		Total:            r.Total(),
		Actions:          make([]actionView, 0, len(r.Actions)),
		banned:           r.BannedRecords(),
	}
	for _, a := range r.Actions {
		av := actionView{
			Kind:    string(a.Kind),
			Address: a.Record.Address,
			Path:    a.Record.Path,
			Pattern: a.Record.Pattern,
		}
		if a.Err != nil {
			av.Error = a.Err.Error()
		}
		v.Actions = append(v.Actions, av)
	}
	return v
}

func (v reportView) passID() string { return v.PassID }

// reconcileView prints a ban card per new ban and a tally.
type reconcileView struct{ reportView }

func (v reconcileView) renderText(w io.Writer) {
	for _, rec := range v.banned {
		writeCard(w, "", rec)
	}
	for _, a := range v.Actions {
		switch {
		case a.Kind == string(engine.ActionFailed):
			fmt.Fprintf(w, "failed: %s: %s\n", a.Address, a.Error)
		case a.Kind == string(engine.ActionBanned) && a.Error != "":
			fmt.Fprintf(w, "warning: %s: %s\n", a.Address, a.Error)
		}
	}
	fmt.Fprintf(w, "Banned: %d  Skipped: %d  Whitelisted: %d  Failed: %d  Total: %d\n",
		v.Banned, v.Skipped, v.WhitelistSkipped, v.Failed, v.Total)
}

// clearView prints per-address progress and the processed count.
type clearView struct{ reportView }

func (v clearView) renderText(w io.Writer) {
	if v.Total == 0 {
		fmt.Fprintln(w, "No banned addresses.")
		return
	}
	fmt.Fprintf(w, "Clearing %d banned addresses\n", v.Total)
	separator(w)
	for i, a := range v.Actions {
		status := "ok"
		if a.Kind == string(engine.ActionFailed) {
			status = "failed (" + a.Error + ")"
		} else if a.Error != "" {
			status = "ok, " + a.Error
		}
		fmt.Fprintf(w, "[%d/%d] unban %s: %s\n", i+1, v.Total, a.Address, status)
	}
	separator(w)
	fmt.Fprintf(w, "Cleared: %d/%d\n", v.Unbanned, v.Total)
	if v.Failed > 0 {
		fmt.Fprintf(w, "Failed: %d\n", v.Failed)
	}
}

// redoView prints the outcome for every stored record.
type redoView struct{ reportView }

func (v redoView) renderText(w io.Writer) {
	for _, a := range v.Actions {
		switch a.Kind {
		case string(engine.ActionFailed):
			fmt.Fprintf(w, "%-12s %s: %s\n", a.Kind, a.Address, a.Error)
		default:
			fmt.Fprintf(w, "%-12s %s\n", a.Kind, a.Address)
		}
	}
	fmt.Fprintf(w, "Banned: %d  Skipped: %d  Whitelisted: %d  Failed: %d  Total: %d\n",
		v.Banned, v.Skipped, v.WhitelistSkipped, v.Failed, v.Total)
}

// showView is the enforced-ban table.
type showView struct {
	Bans  []engine.EnforcedBan `json:"bans"`
	Total int                  `json:"total"`
}

func (v showView) renderText(w io.Writer) {
	fmt.Fprintln(w, "Current bans:")
	separator(w)
	fmt.Fprintf(w, "%-20s %s\n", "ADDRESS", "PATTERN")
	for _, b := range v.Bans {
		fmt.Fprintf(w, "%-20s %s\n", b.Address, b.Pattern)
	}
	separator(w)
	fmt.Fprintf(w, "Total: %d\n", v.Total)
}

// recordView is one stored record.
type recordView struct {
	Address  string     `json:"address"`
	Path     string     `json:"path"`
	Pattern  string     `json:"pattern"`
	BannedAt *time.Time `json:"banned_at,omitempty"`
}

func newRecordView(rec ban.Record) recordView {
	v := recordView{Address: rec.Address, Path: rec.Path, Pattern: rec.Pattern}
	if !rec.BannedAt.IsZero() {
		t := rec.BannedAt.UTC()
		v.BannedAt = &t
	}
	return v
}

func (v recordView) renderText(w io.Writer) {
	rec := ban.Record{Address: v.Address, Path: v.Path, Pattern: v.Pattern}
	if v.BannedAt != nil {
		rec.BannedAt = *v.BannedAt
	}
	writeCard(w, "Ban details", rec)
}

// messageView is a one-line result.
type messageView struct {
	Message string `json:"message"`
	Address string `json:"address,omitempty"`
}

func (v messageView) renderText(w io.Writer) {
	fmt.Fprintln(w, v.Message)
}
