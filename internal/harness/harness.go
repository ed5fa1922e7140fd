package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/engine"
	"github.com/roach88/logwarden/internal/logparse"
	"github.com/roach88/logwarden/internal/pattern"
	"github.com/roach88/logwarden/internal/store"
	"github.com/roach88/logwarden/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Open an in-memory store and a fake firewall, apply seed and failures
//  2. Build an engine with a fixed pass ID
//  3. Run every pass in order, recording its actions as trace events
//  4. Compare each report against the pass's expect clause
//  5. Evaluate assertions against the trace and final state
//
// Returns error only for setup failures (bad whitelist, store errors).
// Expectation and assertion failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	whitelist, err := ban.NewWhitelist(scenario.Config.Whitelist)
	if err != nil {
		return nil, fmt.Errorf("whitelist: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	for _, r := range scenario.Seed.Records {
		rec := ban.Record{Address: r.Address, Path: r.Path, Pattern: r.Pattern}
		if err := st.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("seed record %s: %w", r.Address, err)
		}
	}

	fw := testutil.NewFakeFirewall(scenario.Seed.Firewall...)
	fw.FailBan(scenario.Failures.Ban...)
	fw.FailUnban(scenario.Failures.Unban...)

	eng := engine.New(fw, st, pattern.Compile(scenario.Config.Patterns), whitelist,
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithPassIDs(testutil.NewFixedPassGenerator(scenario.PassID)),
	)

	result := NewResult()
	for i, step := range scenario.Passes {
		fw.FailQuery(step.FirewallDown)
		report, runErr := runPass(ctx, eng, step)
		fw.FailQuery(false)

		if runErr != nil {
			result.AddTrace(TraceEvent{
				Pass:  i,
				Op:    step.Op,
				Kind:  KindAborted,
				Error: string(ban.CodeOf(runErr)),
			})
		} else {
			for _, a := range report.Actions {
				result.AddTrace(TraceEvent{
					Pass:    i,
					Op:      step.Op,
					Kind:    string(a.Kind),
					Address: a.Record.Address,
					Path:    a.Record.Path,
					Pattern: a.Record.Pattern,
					Error:   string(ban.CodeOf(a.Err)),
				})
			}
		}

		if step.Expect != nil {
			checkExpect(result, i, step.Expect, report, runErr)
		}
	}

	state := finalState{firewall: fw, store: st}
	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(ctx, a, result.Trace, state); err != nil {
			result.AddError(fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}

	return result, nil
}

func runPass(ctx context.Context, eng *engine.Engine, step PassStep) (*engine.Report, error) {
	switch step.Op {
	case OpClear:
		return eng.ClearAll(ctx)
	case OpRedo:
		return eng.Redo(ctx)
	default:
		return eng.Reconcile(ctx, logparse.Extract(step.Lines))
	}
}

func checkExpect(result *Result, pass int, want *PassExpect, report *engine.Report, runErr error) {
	aborted := runErr != nil
	if aborted != want.Aborted {
		result.AddError(fmt.Sprintf("pass %d: aborted = %t, want %t", pass, aborted, want.Aborted))
		return
	}
	if aborted {
		return
	}

	counts := []struct {
		name      string
		got, want int
	}{
		{"banned", report.Banned, want.Banned},
		{"skipped", report.Skipped, want.Skipped},
		{"whitelist_skipped", report.WhitelistSkipped, want.WhitelistSkipped},
		{"unbanned", report.Unbanned, want.Unbanned},
		{"failed", report.Failed, want.Failed},
	}
	for _, c := range counts {
		if c.got != c.want {
			result.AddError(fmt.Sprintf("pass %d: %s = %d, want %d", pass, c.name, c.got, c.want))
		}
	}
}
