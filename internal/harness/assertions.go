package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/store"
	"github.com/roach88/logwarden/internal/testutil"
)

// finalState is what assertions can inspect after the last pass.
type finalState struct {
	firewall *testutil.FakeFirewall
	store    *store.Store
}

// evaluateAssertion dispatches to the appropriate assertion function based on type.
func evaluateAssertion(ctx context.Context, a Assertion, trace []TraceEvent, state finalState) error {
	switch a.Type {
	case AssertFirewallDenies:
		return assertFirewallDenies(a, state.firewall)
	case AssertRecordExists:
		return assertRecordExists(ctx, a, state.store)
	case AssertRecordAbsent:
		return assertRecordAbsent(ctx, a, state.store)
	case AssertTraceContains:
		return assertTraceContains(a, trace)
	case AssertTraceCount:
		return assertTraceCount(a, trace)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertFirewallDenies compares the deny set, ignoring order.
func assertFirewallDenies(a Assertion, fw *testutil.FakeFirewall) error {
	got := fw.Denied()
	want := slices.Clone(a.Addresses)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return fmt.Errorf("firewall denies [%s], want [%s]",
			strings.Join(got, ", "), strings.Join(want, ", "))
	}
	return nil
}

// assertRecordExists checks the record, comparing pattern and path only
// when the assertion sets them.
func assertRecordExists(ctx context.Context, a Assertion, st *store.Store) error {
	rec, err := st.Get(ctx, a.Address)
	if errors.Is(err, ban.ErrNotFound) {
		return fmt.Errorf("no record for %s", a.Address)
	}
	if err != nil {
		return err
	}
	if a.Pattern != "" && rec.Pattern != a.Pattern {
		return fmt.Errorf("record %s has pattern %q, want %q", a.Address, rec.Pattern, a.Pattern)
	}
	if a.Path != "" && rec.Path != a.Path {
		return fmt.Errorf("record %s has path %q, want %q", a.Address, rec.Path, a.Path)
	}
	return nil
}

func assertRecordAbsent(ctx context.Context, a Assertion, st *store.Store) error {
	exists, err := st.Exists(ctx, a.Address)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("unexpected record for %s", a.Address)
	}
	return nil
}

func assertTraceContains(a Assertion, trace []TraceEvent) error {
	for _, ev := range trace {
		if ev.Kind == a.Kind && ev.Address == a.Address {
			return nil
		}
	}
	return fmt.Errorf("no %s action for %s in trace", a.Kind, a.Address)
}

func assertTraceCount(a Assertion, trace []TraceEvent) error {
	n := 0
	for _, ev := range trace {
		if ev.Kind == a.Kind {
			n++
		}
	}
	if n != a.Count {
		return fmt.Errorf("trace has %d %s actions, want %d", n, a.Kind, a.Count)
	}
	return nil
}
