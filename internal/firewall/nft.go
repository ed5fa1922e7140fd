package firewall

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/roach88/logwarden/internal/ban"
)

// Defaults for the nftables backend.
const (
	DefaultNFTCommand = "nft"
	DefaultNFTTable   = "filter"
	DefaultNFTSet     = "logwarden_ban"
)

// NFT manages elements of an `inet` nftables set. The set and the rule that
// drops traffic from it are expected to exist already.
type NFT struct {
	command string
	table   string
	set     string
	runner  Runner
	logger  *slog.Logger
}

// NewNFT creates an nftables backend for the given table and set. Empty names
// fall back to the defaults.
func NewNFT(table, set string, opts ...Option) *NFT {
	o := buildOptions(DefaultNFTCommand, opts)
	if table == "" {
		table = DefaultNFTTable
	}
	if set == "" {
		set = DefaultNFTSet
	}
	return &NFT{command: o.command, table: table, set: set, runner: o.runner, logger: o.logger}
}

// Ban runs `nft add element inet <table> <set> { <address> }`.
func (n *NFT) Ban(ctx context.Context, address string) error {
	if err := validateAddress(address); err != nil {
		return actionError(address, "ban", err)
	}
	n.logger.Debug("firewall command", "cmd", n.command, "action", "add element", "set", n.set, "address", address)
	if _, err := n.runner.Run(ctx, n.command, "add", "element", "inet", n.table, n.set, "{", address, "}"); err != nil {
		return actionError(address, "ban", err)
	}
	return nil
}

// Unban runs `nft delete element inet <table> <set> { <address> }`.
func (n *NFT) Unban(ctx context.Context, address string) error {
	if err := validateAddress(address); err != nil {
		return actionError(address, "unban", err)
	}
	n.logger.Debug("firewall command", "cmd", n.command, "action", "delete element", "set", n.set, "address", address)
	if _, err := n.runner.Run(ctx, n.command, "delete", "element", "inet", n.table, n.set, "{", address, "}"); err != nil {
		return actionError(address, "unban", err)
	}
	return nil
}

// ListEnforced runs `nft list set inet <table> <set>` and returns its elements.
func (n *NFT) ListEnforced(ctx context.Context) ([]ban.FirewallEntry, error) {
	out, err := n.runner.Run(ctx, n.command, "list", "set", "inet", n.table, n.set)
	if err != nil {
		return nil, queryError(err)
	}
	return parseNFTSet(string(out), n.set), nil
}

var nftElementsRe = regexp.MustCompile(`(?s)elements\s*=\s*\{([^}]*)\}`)

// parseNFTSet extracts the elements of a set listing:
//
//	set logwarden_ban {
//		type ipv4_addr
//		elements = { 1.2.3.4, 5.6.7.8 }
//	}
//
// Element annotations such as "timeout 1h" are ignored.
func parseNFTSet(out, set string) []ban.FirewallEntry {
	entries := []ban.FirewallEntry{}
	m := nftElementsRe.FindStringSubmatch(out)
	if m == nil {
		return entries
	}
	seen := ban.NewAddressSet()
	for _, item := range strings.Split(m[1], ",") {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}
		addr := fields[0]
		if !isAddressOrPrefix(addr) || seen.Has(addr) {
			continue
		}
		seen.Add(addr)
		entries = append(entries, ban.FirewallEntry{Address: addr, Scope: set})
	}
	return entries
}
