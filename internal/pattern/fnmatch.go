package pattern

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Configured globs use fnmatch syntax: '*' matches any run, '?' one
// character, and '[...]' / '[!...]' a class with optional ranges. Everything
// else is literal, including '{', '}', '\' and a '[' without a closing ']'.
// gobwas/glob gives those characters meaning, so patterns are tokenized here
// and rendered in gobwas syntax with the literals quoted.

type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokAny
	tokSingle
	tokClass
)

type classItem struct {
	lo, hi rune
}

type token struct {
	kind  tokenKind
	lit   rune
	neg   bool
	items []classItem
}

func tokenize(pattern string) []token {
	p := []rune(pattern)
	var toks []token
	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '*':
			toks = append(toks, token{kind: tokAny})
		case '?':
			toks = append(toks, token{kind: tokSingle})
		case '[':
			end, neg, items, ok := parseClass(p, i+1)
			if !ok {
				toks = append(toks, token{kind: tokLiteral, lit: c})
				continue
			}
			toks = append(toks, token{kind: tokClass, neg: neg, items: items})
			i = end
		default:
			toks = append(toks, token{kind: tokLiteral, lit: c})
		}
	}
	return toks
}

// parseClass reads a class whose '[' precedes start. end is the index of the
// closing ']'. A ']' right after '[' or '[!' is a member, not the end.
// Reversed ranges are dropped.
func parseClass(p []rune, start int) (end int, neg bool, items []classItem, ok bool) {
	j := start
	if j < len(p) && p[j] == '!' {
		neg = true
		j++
	}
	body := j
	if j < len(p) && p[j] == ']' {
		j++
	}
	for j < len(p) && p[j] != ']' {
		j++
	}
	if j >= len(p) {
		return 0, false, nil, false
	}

	content := p[body:j]
	for k := 0; k < len(content); {
		if k+2 < len(content) && content[k+1] == '-' {
			if content[k] <= content[k+2] {
				items = append(items, classItem{lo: content[k], hi: content[k+2]})
			}
			k += 3
			continue
		}
		items = append(items, classItem{lo: content[k], hi: content[k]})
		k++
	}
	return j, neg, items, true
}

// globSource renders toks in gobwas syntax. ok is false when a class has no
// gobwas form; the caller then falls back to regexSource.
func globSource(toks []token) (string, bool) {
	var b strings.Builder
	for _, t := range toks {
		switch t.kind {
		case tokAny:
			b.WriteByte('*')
		case tokSingle:
			b.WriteByte('?')
		case tokLiteral:
			b.WriteString(glob.QuoteMeta(string(t.lit)))
		case tokClass:
			src, ok := globClass(t.neg, t.items)
			if !ok {
				return "", false
			}
			b.WriteString(src)
		}
	}
	return b.String(), true
}

// globClass renders one class. gobwas accepts either a list of characters or
// a single range per bracket, so a class mixing both becomes an alternation
// of single-item classes. Negated mixed classes have no equivalent.
func globClass(neg bool, items []classItem) (string, bool) {
	if len(items) == 0 {
		return "", false
	}

	var chars []rune
	var ranges []classItem
	seen := make(map[rune]bool)
	for _, it := range items {
		if it.lo != it.hi {
			ranges = append(ranges, it)
			continue
		}
		if !seen[it.lo] {
			seen[it.lo] = true
			chars = append(chars, it.lo)
		}
	}

	prefix := "["
	if neg {
		prefix = "[!"
	}

	switch {
	case len(ranges) == 0:
		var b strings.Builder
		b.WriteString(prefix)
		// gobwas reads "x-" as the start of a range; a leading '-' is safe.
		if seen['-'] {
			b.WriteByte('-')
		}
		for _, c := range chars {
			switch c {
			case '-':
			case ']', '\\', '!':
				b.WriteByte('\\')
				b.WriteRune(c)
			default:
				b.WriteRune(c)
			}
		}
		b.WriteByte(']')
		return b.String(), true

	case len(ranges) == 1 && len(chars) == 0:
		r := ranges[0]
		if !neg && r.lo == '!' {
			return "", false
		}
		return prefix + string(r.lo) + "-" + string(r.hi) + "]", true

	case neg:
		return "", false

	default:
		alts := make([]string, 0, len(items))
		for _, it := range items {
			src, ok := globClass(false, []classItem{it})
			if !ok {
				return "", false
			}
			alts = append(alts, src)
		}
		return "{" + strings.Join(alts, ",") + "}", true
	}
}

// regexSource renders toks as a regular expression matching the whole path.
func regexSource(toks []token) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for _, t := range toks {
		switch t.kind {
		case tokAny:
			b.WriteString(`.*`)
		case tokSingle:
			b.WriteByte('.')
		case tokLiteral:
			b.WriteString(regexp.QuoteMeta(string(t.lit)))
		case tokClass:
			switch {
			case len(t.items) == 0 && t.neg:
				b.WriteByte('.')
			case len(t.items) == 0:
				b.WriteString(`[^\x00-\x{10FFFF}]`)
			default:
				b.WriteByte('[')
				if t.neg {
					b.WriteByte('^')
				}
				for _, it := range t.items {
					b.WriteString(classRune(it.lo))
					if it.hi != it.lo {
						b.WriteByte('-')
						b.WriteString(classRune(it.hi))
					}
				}
				b.WriteByte(']')
			}
		}
	}
	b.WriteByte('$')
	return b.String()
}

func classRune(r rune) string {
	if strings.ContainsRune(`\]^-[`, r) {
		return `\` + string(r)
	}
	return string(r)
}
