package ban

import (
	"fmt"
	"net/netip"
	"strings"
)

// Whitelist holds addresses exempt from banning. Entries are either single
// addresses, compared as strings, or CIDR prefixes.
//
// A Whitelist is immutable once built.
type Whitelist struct {
	addrs    AddressSet
	prefixes []netip.Prefix
}

// NewWhitelist builds a whitelist from configured entries. Blank entries are
// ignored; an entry containing "/" must be a valid CIDR prefix.
func NewWhitelist(entries []string) (*Whitelist, error) {
	w := &Whitelist{addrs: NewAddressSet()}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid whitelist prefix %q: %w", entry, err)
			}
			w.prefixes = append(w.prefixes, p.Masked())
			continue
		}
		w.addrs.Add(entry)
	}
	return w, nil
}

// Contains reports whether addr is exempt.
func (w *Whitelist) Contains(addr string) bool {
	if w == nil {
		return false
	}
	if w.addrs.Has(addr) {
		return true
	}
	if len(w.prefixes) == 0 {
		return false
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	for _, p := range w.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// Len returns the number of configured entries.
func (w *Whitelist) Len() int {
	if w == nil {
		return 0
	}
	return len(w.addrs) + len(w.prefixes)
}
