package ban

import "time"

// Entry is one (address, path) pair extracted from an access log line.
type Entry struct {
	Address string `json:"address"`
	Path    string `json:"path"`
}

// Match is an Entry whose path satisfied a configured pattern.
// Pattern holds the pattern exactly as it was configured.
type Match struct {
	Address string `json:"address"`
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
}

// Record explains why an address was banned.
// Address is the identity key; stores keep at most one record per address.
// BannedAt is filled in by the store when the record is read back.
type Record struct {
	Address  string    `json:"address"`
	Path     string    `json:"path"`
	Pattern  string    `json:"pattern"`
	BannedAt time.Time `json:"banned_at,omitzero"`
}

// RecordFromMatch converts a match into the record persisted for it.
func RecordFromMatch(m Match) Record {
	return Record{Address: m.Address, Path: m.Path, Pattern: m.Pattern}
}

// FirewallEntry is one address currently denied by the firewall, as reported
// live by the firewall backend. Scope is backend specific ("Anywhere" for ufw,
// the set name for nftables).
type FirewallEntry struct {
	Address string `json:"address"`
	Scope   string `json:"scope"`
}

// AddressSet is a set of addresses.
type AddressSet map[string]struct{}

// NewAddressSet builds a set from the given addresses.
func NewAddressSet(addrs ...string) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

// Has reports whether addr is in the set.
func (s AddressSet) Has(addr string) bool {
	_, ok := s[addr]
	return ok
}

// Add inserts addr into the set.
func (s AddressSet) Add(addr string) {
	s[addr] = struct{}{}
}

// EnforcedSet collects the addresses of firewall entries.
func EnforcedSet(entries []FirewallEntry) AddressSet {
	s := make(AddressSet, len(entries))
	for _, e := range entries {
		s.Add(e.Address)
	}
	return s
}
