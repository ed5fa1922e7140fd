package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/engine"
	"github.com/roach88/logwarden/internal/logparse"
	"github.com/roach88/logwarden/internal/tail"
)

// Reconciler runs passes. Implemented by *engine.Engine.
type Reconciler interface {
	Reconcile(ctx context.Context, entries []ban.Entry) (*engine.Report, error)
	Snapshot(ctx context.Context) (engine.Snapshot, error)
}

// State is the lifecycle state of one watched file.
type State int

const (
	StateInitialized State = iota
	StateIdle
	StateProcessing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// fileHandler tracks one watched log.
type fileHandler struct {
	path  string
	state State
}

// Watcher is the continuous-mode event loop.
//
// Thread-safety model:
//   - Run(): must be called from exactly one goroutine
//   - Stop(), Ready(), State(): safe from any goroutine
type Watcher struct {
	rec      Reconciler
	tailer   *tail.Tailer
	logger   *slog.Logger
	onReport func(*engine.Report)

	mu    sync.Mutex
	files map[string]*fileHandler

	ready    chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithReportHandler registers fn to be called after every pass that did
// something.
func WithReportHandler(fn func(*engine.Report)) Option {
	return func(w *Watcher) {
		w.onReport = fn
	}
}

// New creates a Watcher for the given log paths.
func New(rec Reconciler, paths []string, opts ...Option) *Watcher {
	w := &Watcher{
		rec:    rec,
		logger: slog.Default(),
		files:  make(map[string]*fileHandler),
		ready:  make(chan struct{}),
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.tailer = tail.New(tail.WithLogger(w.logger))

	for _, p := range paths {
		clean := cleanPath(p)
		w.files[clean] = &fileHandler{path: clean, state: StateInitialized}
	}
	return w
}

// Ready is closed once Run has subscribed to notifications.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Stop makes Run return after the pass in flight, if any.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// State returns the state of a watched file.
func (w *Watcher) State(path string) (State, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	h, ok := w.files[cleanPath(path)]
	if !ok {
		return 0, false
	}
	return h.state, true
}

func (w *Watcher) setState(h *fileHandler, s State) {
	w.mu.Lock()
	h.state = s
	w.mu.Unlock()
}

// Run snapshots the current state, subscribes to notifications and handles
// them until ctx is cancelled or Stop is called. A cancelled context is a
// clean shutdown and returns nil.
//
// Start-up fails if the firewall or store cannot be queried, or if no
// configured log can be watched.
func (w *Watcher) Run(ctx context.Context) error {
	snap, err := w.rec.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.logger.Info("watch starting", "enforced", snap.Enforced, "stored", snap.Stored, "files", len(w.files))

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	dirs := make(map[string]bool)
	for _, h := range w.sortedHandlers() {
		dir := filepath.Dir(h.path)
		if _, err := os.Stat(h.path); err != nil {
			w.logger.Warn("log file not present yet", "path", h.path, "error", err)
		}
		if !dirs[dir] {
			if err := fsw.Add(dir); err != nil {
				w.logger.Warn("log directory not watchable, file skipped", "path", h.path, "dir", dir, "error", err)
				w.setState(h, StateStopped)
				continue
			}
			dirs[dir] = true
		}
		offset := w.tailer.Prime(h.path)
		w.logger.Debug("watching", "path", h.path, "offset", offset)
		w.setState(h, StateIdle)
	}
	if len(dirs) == 0 {
		w.stopAll()
		return ban.NewError(ban.ErrCodeConfig, "none of the configured logs can be watched", nil)
	}
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopping: context cancelled")
			w.stopAll()
			return nil

		case <-w.stop:
			w.logger.Info("watch stopping")
			w.stopAll()
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				w.stopAll()
				return nil
			}
			// select picks randomly among ready cases; a pending event must
			// not win over a shutdown that has already begun.
			if w.stopping(ctx) {
				w.logger.Info("watch stopping")
				w.stopAll()
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			h, watched := w.files[cleanPath(ev.Name)]
			if !watched {
				continue
			}
			w.handle(ctx, h)

		case err, ok := <-fsw.Errors:
			if !ok {
				w.stopAll()
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// handle runs one incremental pass for h. Errors are logged; the loop keeps
// running.
func (w *Watcher) handle(ctx context.Context, h *fileHandler) {
	if h.state != StateIdle {
		return
	}
	w.setState(h, StateProcessing)
	defer w.setState(h, StateIdle)

	lines, err := w.tailer.Poll(h.path)
	if tail.IsNotExist(err) {
		// Removed between the event and the read; rotation recreates it.
		w.logger.Debug("log gone before read", "path", h.path)
		return
	}
	if err != nil {
		w.logger.Warn("log read failed", "path", h.path, "error", err)
		return
	}
	if len(lines) == 0 {
		return
	}
	w.logger.Debug("new lines", "path", h.path, "lines", len(lines))
	if w.stopping(ctx) {
		w.logger.Debug("shutdown begun, pass dropped", "path", h.path, "lines", len(lines))
		return
	}

	report, err := w.rec.Reconcile(ctx, logparse.Extract(lines))
	if err != nil {
		w.logger.Error("pass aborted", "path", h.path, "error", err)
		return
	}
	if report.Empty() {
		return
	}
	w.logger.Info("pass tally",
		"path", h.path,
		"pass", report.PassID,
		"banned", report.Banned,
		"skipped", report.Skipped,
		"whitelisted", report.WhitelistSkipped,
		"failed", report.Failed,
	)
	if w.onReport != nil {
		w.onReport(report)
	}
}

// stopping reports whether Stop was called or ctx was cancelled.
func (w *Watcher) stopping(ctx context.Context) bool {
	select {
	case <-w.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (w *Watcher) stopAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range w.files {
		h.state = StateStopped
	}
}

func (w *Watcher) sortedHandlers() []*fileHandler {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*fileHandler, 0, len(w.files))
	for _, h := range w.files {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
