package firewall

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/roach88/logwarden/internal/ban"
)

// Gateway is implemented by every firewall backend.
type Gateway interface {
	Ban(ctx context.Context, address string) error
	Unban(ctx context.Context, address string) error
	ListEnforced(ctx context.Context) ([]ban.FirewallEntry, error)
}

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. On failure the returned error carries the
// trimmed standard error of the command.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// validateAddress rejects anything that is not a literal IP address or CIDR
// prefix before it reaches a command line.
func validateAddress(address string) error {
	if !isAddressOrPrefix(address) {
		return fmt.Errorf("invalid address %q", address)
	}
	return nil
}

func actionError(address, action string, err error) error {
	return ban.NewItemError(ban.ErrCodeFirewallAction, address, action+" failed", err)
}

func queryError(err error) error {
	return ban.NewError(ban.ErrCodeFirewallQuery, "failed to list firewall deny rules", err)
}
