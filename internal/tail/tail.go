// Package tail reads access logs incrementally.
//
// A Tailer keeps one byte cursor per file and hands out only what was
// appended since the previous read. A file that shrank below its cursor is
// treated as rotated and re-read from the start. ReadLast serves the one-shot
// mode, which looks at the last N lines of each file without any cursor.
//
// Decoding is best-effort: ill-formed UTF-8 is replaced with U+FFFD so a
// single corrupt byte never aborts a read.
package tail

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/roach88/logwarden/internal/ban"
)

// Cursor is the read position of one file.
type Cursor struct {
	Path   string
	Offset int64
}

// Tailer owns the cursors of a set of files.
//
// Thread-safety: Poll and Prime may be called from any goroutine, but the
// watch loop drives a Tailer from a single goroutine.
type Tailer struct {
	mu      sync.Mutex
	cursors map[string]int64
	logger  *slog.Logger
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithLogger sets the logger used for rotation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tailer) {
		t.logger = l
	}
}

// New creates a Tailer with no cursors. Files without a cursor are read from
// offset 0 on their first poll.
func New(opts ...Option) *Tailer {
	t := &Tailer{
		cursors: make(map[string]int64),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Prime positions the cursor of path at its current end so that only data
// appended afterwards is returned. A missing file gets a cursor at 0.
func (t *Tailer) Prime(path string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	t.cursors[path] = size
	return size
}

// Cursor returns the current cursor of path.
func (t *Tailer) Cursor(path string) Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Cursor{Path: path, Offset: t.cursors[path]}
}

// Poll returns the lines appended to path since the last successful poll.
//
// A file that cannot be stat'ed is reported as a SOURCE_READ error and its
// cursor is kept. A file smaller than the cursor is treated as rotated: the
// cursor is reset to 0 and the file is read from the start. The cursor only
// advances after a successful read.
func (t *Tailer) Poll(path string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return nil, sourceError(path, "cannot stat log file", err)
	}

	offset := t.cursors[path]
	size := info.Size()
	if size < offset {
		t.logger.Warn("log file shrank, assuming rotation", "path", path, "offset", offset, "size", size)
		offset = 0
		t.cursors[path] = 0
	}
	if size == offset {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, sourceError(path, "cannot open log file", err)
	}
	defer f.Close()

	text, err := decode(io.NewSectionReader(f, offset, size-offset))
	if err != nil {
		return nil, sourceError(path, "cannot read log file", err)
	}

	t.cursors[path] = size
	return splitLines(text), nil
}

// decode reads r fully, replacing ill-formed UTF-8 sequences.
func decode(r io.Reader) (string, error) {
	b, err := io.ReadAll(transform.NewReader(r, runes.ReplaceIllFormed()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// splitLines splits text on newlines, dropping the empty tail after a final
// newline and trailing carriage returns.
func splitLines(text string) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func sourceError(path, msg string, err error) error {
	return &ban.Error{Code: ban.ErrCodeSourceRead, Message: msg, Subject: path, Err: err}
}

// IsNotExist reports whether err was caused by a missing file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// String implements fmt.Stringer for log output.
func (c Cursor) String() string {
	return fmt.Sprintf("%s@%d", c.Path, c.Offset)
}
