package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/roach88/logwarden/internal/ban"
)

// ErrInjected is the cause attached to failures configured on FakeFirewall.
var ErrInjected = errors.New("injected failure")

// FakeFirewall is an in-memory firewall for tests.
//
// It keeps deny rules in insertion order and records every call. Failures can
// be injected per address (FailBan, FailUnban) or for listing (FailQuery).
// Errors carry the same codes as the real backends.
//
// Thread-safety: FakeFirewall is safe for concurrent use.
type FakeFirewall struct {
	mu        sync.Mutex
	denied    []string
	failBan   ban.AddressSet
	failUnban ban.AddressSet
	failQuery bool
	calls     []string
}

// NewFakeFirewall creates a fake firewall already denying the given addresses.
func NewFakeFirewall(denied ...string) *FakeFirewall {
	return &FakeFirewall{
		denied:    slices.Clone(denied),
		failBan:   ban.NewAddressSet(),
		failUnban: ban.NewAddressSet(),
	}
}

// FailBan makes Ban fail for the given addresses.
func (f *FakeFirewall) FailBan(addrs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range addrs {
		f.failBan.Add(a)
	}
}

// FailUnban makes Unban fail for the given addresses.
func (f *FakeFirewall) FailUnban(addrs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range addrs {
		f.failUnban.Add(a)
	}
}

// FailQuery makes ListEnforced fail while on is true.
func (f *FakeFirewall) FailQuery(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failQuery = on
}

// Ban adds a deny rule.
func (f *FakeFirewall) Ban(_ context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ban "+address)
	if f.failBan.Has(address) {
		return ban.NewItemError(ban.ErrCodeFirewallAction, address, "ban failed", ErrInjected)
	}
	if !slices.Contains(f.denied, address) {
		f.denied = append(f.denied, address)
	}
	return nil
}

// Unban removes a deny rule.
func (f *FakeFirewall) Unban(_ context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "unban "+address)
	if f.failUnban.Has(address) {
		return ban.NewItemError(ban.ErrCodeFirewallAction, address, "unban failed", ErrInjected)
	}
	f.denied = slices.DeleteFunc(f.denied, func(a string) bool { return a == address })
	return nil
}

// ListEnforced returns the current deny rules.
func (f *FakeFirewall) ListEnforced(_ context.Context) ([]ban.FirewallEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	if f.failQuery {
		return nil, ban.NewError(ban.ErrCodeFirewallQuery, "failed to list firewall deny rules", ErrInjected)
	}
	entries := make([]ban.FirewallEntry, 0, len(f.denied))
	for _, a := range f.denied {
		entries = append(entries, ban.FirewallEntry{Address: a, Scope: "Anywhere"})
	}
	return entries, nil
}

// Denied returns a copy of the current deny rules.
func (f *FakeFirewall) Denied() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.denied)
}

// Calls returns the recorded calls ("ban <a>", "unban <a>", "list").
func (f *FakeFirewall) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// ResetCalls clears the recorded calls.
func (f *FakeFirewall) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
