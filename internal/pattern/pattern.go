// Package pattern classifies request paths against configured ban rules.
//
// A rule is either a shell-style glob matched against the entire path, or a
// regular expression selected by the RegexPrefix marker. Regular expressions
// are anchored at the start of the path only: "/^//admin" matches
// "/admin/login" as well as "/admin". Globs always have to match the whole
// path. The asymmetry is long-standing configured behavior and is kept.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/roach88/logwarden/internal/ban"
)

// RegexPrefix marks a configured pattern as a regular expression.
const RegexPrefix = "/^/"

// Kind distinguishes glob and regex rules.
type Kind int

const (
	// KindGlob is a shell-style wildcard rule (*, ?, [...], [!...]).
	KindGlob Kind = iota + 1
	// KindRegex is a regular expression matched from the start of the path.
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindGlob:
		return "glob"
	case KindRegex:
		return "regex"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Rule is one compiled pattern. A rule whose pattern failed to compile keeps
// the compile error in Err and never matches.
type Rule struct {
	Raw  string
	Kind Kind
	Err  error

	g  glob.Glob
	re *regexp.Regexp
}

// Parse compiles a configured pattern string.
func Parse(raw string) Rule {
	if strings.HasPrefix(raw, RegexPrefix) {
		r := Rule{Raw: raw, Kind: KindRegex}
		re, err := regexp.Compile(`^(?:` + strings.TrimPrefix(raw, RegexPrefix) + `)`)
		if err != nil {
			r.Err = compileError(raw, err)
			return r
		}
		r.re = re
		return r
	}

	r := Rule{Raw: raw, Kind: KindGlob}
	toks := tokenize(raw)
	if src, ok := globSource(toks); ok {
		// No separators: '*' crosses '/' like fnmatch does.
		if g, err := glob.Compile(src); err == nil {
			r.g = g
			return r
		}
	}
	re, err := regexp.Compile(regexSource(toks))
	if err != nil {
		r.Err = compileError(raw, err)
		return r
	}
	r.re = re
	return r
}

func compileError(raw string, err error) error {
	return &ban.Error{
		Code:    ban.ErrCodePatternCompile,
		Message: "invalid pattern",
		Subject: raw,
		Err:     err,
	}
}

// Valid reports whether the rule compiled.
func (r Rule) Valid() bool {
	return r.Err == nil
}

// Matches reports whether path satisfies the rule.
func (r Rule) Matches(path string) bool {
	switch {
	case r.Err != nil:
		return false
	case r.re != nil:
		return r.re.MatchString(path)
	case r.g != nil:
		return r.g.Match(path)
	default:
		return false
	}
}
