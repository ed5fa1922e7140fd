package firewall

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net"

	"github.com/roach88/logwarden/internal/ban"
)

// DefaultUFWCommand is the ufw binary looked up on PATH.
const DefaultUFWCommand = "ufw"

// ufwScope is the scope reported for every ufw deny rule.
const ufwScope = "Anywhere"

// UFW manages deny rules with the ufw command line tool.
type UFW struct {
	command string
	runner  Runner
	logger  *slog.Logger
}

// Option configures a backend.
type Option func(*options)

type options struct {
	command string
	runner  Runner
	logger  *slog.Logger
}

// WithCommand overrides the binary name or path.
func WithCommand(command string) Option {
	return func(o *options) {
		if command != "" {
			o.command = command
		}
	}
}

// WithRunner overrides how commands are executed.
func WithRunner(r Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithLogger sets the logger used for command diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(defaultCommand string, opts []Option) options {
	o := options{command: defaultCommand, runner: ExecRunner{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewUFW creates a ufw backend.
func NewUFW(opts ...Option) *UFW {
	o := buildOptions(DefaultUFWCommand, opts)
	return &UFW{command: o.command, runner: o.runner, logger: o.logger}
}

// Ban runs `ufw deny from <address>`.
func (u *UFW) Ban(ctx context.Context, address string) error {
	if err := validateAddress(address); err != nil {
		return actionError(address, "ban", err)
	}
	u.logger.Debug("firewall command", "cmd", u.command, "action", "deny", "address", address)
	if _, err := u.runner.Run(ctx, u.command, "deny", "from", address); err != nil {
		return actionError(address, "ban", err)
	}
	return nil
}

// Unban runs `ufw delete deny from <address>`.
func (u *UFW) Unban(ctx context.Context, address string) error {
	if err := validateAddress(address); err != nil {
		return actionError(address, "unban", err)
	}
	u.logger.Debug("firewall command", "cmd", u.command, "action", "delete deny", "address", address)
	if _, err := u.runner.Run(ctx, u.command, "delete", "deny", "from", address); err != nil {
		return actionError(address, "unban", err)
	}
	return nil
}

// ListEnforced runs `ufw status` and returns every denied source address.
func (u *UFW) ListEnforced(ctx context.Context) ([]ban.FirewallEntry, error) {
	out, err := u.runner.Run(ctx, u.command, "status")
	if err != nil {
		return nil, queryError(err)
	}
	return parseUFWStatus(out), nil
}

// parseUFWStatus extracts denied addresses from `ufw status` output.
//
// Two layouts are recognized:
//
//	Anywhere                   DENY        1.2.3.4
//	1.2.3.4                    DENY        Anywhere
//
// Duplicate addresses (v4 and v6 rules for the same source) are reported once.
func parseUFWStatus(out []byte) []ban.FirewallEntry {
	entries := []ban.FirewallEntry{}
	seen := ban.NewAddressSet()

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := bytesFields(sc.Bytes())
		var addr string
		switch {
		case len(fields) >= 3 && fields[0] == "Anywhere" && fields[1] == "DENY":
			addr = fields[2]
		case len(fields) >= 2 && fields[1] == "DENY":
			addr = fields[0]
		default:
			continue
		}
		if !isAddressOrPrefix(addr) || seen.Has(addr) {
			continue
		}
		seen.Add(addr)
		entries = append(entries, ban.FirewallEntry{Address: addr, Scope: ufwScope})
	}
	return entries
}

func bytesFields(line []byte) []string {
	raw := bytes.Fields(line)
	fields := make([]string, len(raw))
	for i, f := range raw {
		fields[i] = string(f)
	}
	return fields
}

func isAddressOrPrefix(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(s)
	return err == nil
}
