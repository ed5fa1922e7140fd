package pattern

import "github.com/roach88/logwarden/internal/ban"

// Set is an ordered, immutable list of compiled rules.
type Set struct {
	rules []Rule
}

// Compile compiles every configured pattern. Malformed patterns are kept in
// the set but never match; Errors reports them.
func Compile(raws []string) *Set {
	s := &Set{rules: make([]Rule, 0, len(raws))}
	for _, raw := range raws {
		s.rules = append(s.rules, Parse(raw))
	}
	return s
}

// Rules returns the compiled rules in configured order.
func (s *Set) Rules() []Rule {
	if s == nil {
		return nil
	}
	return s.rules
}

// Len returns the number of configured patterns, valid or not.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Errors returns one PATTERN_COMPILE error per malformed pattern.
func (s *Set) Errors() []error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, r := range s.rules {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Match returns every (address, path, pattern) triple where the entry's path
// satisfies a rule. Duplicate triples collapse; the result is ordered by first
// occurrence (entry order, then rule order).
func (s *Set) Match(entries []ban.Entry) []ban.Match {
	if s == nil {
		return nil
	}
	seen := make(map[ban.Match]struct{})
	var out []ban.Match
	for _, e := range entries {
		for _, r := range s.rules {
			if !r.Matches(e.Path) {
				continue
			}
			m := ban.Match{Address: e.Address, Path: e.Path, Pattern: r.Raw}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
