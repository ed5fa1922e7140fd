// Package logparse extracts client addresses and request paths from access
// log lines.
//
// The grammar is fixed: a dotted-quad token followed, anywhere later on the
// same line, by a quoted request method and a path token. It works for the
// nginx and Apache combined formats without trying to detect the format.
// Octet ranges are not validated and IPv6 clients are not recognized.
package logparse

import (
	"regexp"

	"github.com/roach88/logwarden/internal/ban"
)

// requestRe captures (address, method, path). The gap between the address and
// the quoted method is non-greedy so a line holding several requests yields
// one match per request.
var requestRe = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+).+?"(GET|POST|HEAD|PUT|DELETE)\s(\S+)`)

// Extract returns the (address, path) pairs found in lines, in order.
// Lines without a recognizable request contribute nothing.
func Extract(lines []string) []ban.Entry {
	var entries []ban.Entry
	for _, line := range lines {
		entries = append(entries, ExtractLine(line)...)
	}
	return entries
}

// ExtractLine returns every (address, path) pair embedded in one line.
func ExtractLine(line string) []ban.Entry {
	matches := requestRe.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}
	entries := make([]ban.Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, ban.Entry{Address: m[1], Path: m[3]})
	}
	return entries
}
