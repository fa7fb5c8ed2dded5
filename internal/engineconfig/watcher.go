package engineconfig

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ReloadCallback is invoked with the newly parsed, validated configuration
// after a successful hot-reload.
type ReloadCallback func(*Config) error

// ErrWatcherClosed is returned by operations attempted on a closed Watcher.
var ErrWatcherClosed = errors.New("engineconfig: watcher already closed")

// Watcher monitors the engine config file for changes, debouncing rapid
// writes from editors and atomic temp-file+rename saves.
type Watcher struct {
	ctx           context.Context
	fsWatcher     *fsnotify.Watcher
	cancel        context.CancelFunc
	path          string
	callbacks     []ReloadCallback
	debounceDelay time.Duration
	mu            sync.RWMutex
	closed        bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay overrides the default 100ms debounce window.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounceDelay = d }
}

// NewWatcher builds a Watcher for path. It watches the parent directory so
// atomic writes (temp file + rename) are detected.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:          absPath,
		fsWatcher:     fsWatcher,
		debounceDelay: 100 * time.Millisecond,
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(absPath)
	if err := fsWatcher.Add(dir); err != nil {
		if cerr := fsWatcher.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("engineconfig: failed to close watcher after add failure")
		}
		return nil, err
	}

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// OnReload registers cb to run (in registration order) after every
// successful reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Watch blocks, debouncing file events and triggering reloads, until ctx
// is canceled.
func (w *Watcher) Watch(ctx context.Context) error {
	var (
		timer      *time.Timer
		timerMu    sync.Mutex
		targetFile = filepath.Base(w.path)
	)

	for {
		select {
		case <-ctx.Done():
			w.cleanupTimer(timer)
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if w.shouldProcessEvent(event, targetFile) {
				w.handleEvent(&timerMu, &timer)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("engineconfig: watcher error")
		}
	}
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event, targetFile string) bool {
	if filepath.Base(event.Name) != targetFile {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *Watcher) handleEvent(timerMu *sync.Mutex, timer **time.Timer) {
	timerMu.Lock()
	defer timerMu.Unlock()

	if *timer != nil {
		(*timer).Stop()
	}

	*timer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		w.triggerReload()
	})
}

func (w *Watcher) cleanupTimer(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}

func (w *Watcher) triggerReload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Error().Err(err).Str("path", w.path).Msg("engineconfig: failed to reload config")
		return
	}

	log.Info().Str("path", w.path).Msg("engineconfig: config file reloaded")
	w.invokeCallbacks(cfg)
}

func (w *Watcher) invokeCallbacks(cfg *Config) {
	w.mu.RLock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			log.Error().Err(err).Msg("engineconfig: reload callback error")
		}
	}
}

// Close stops watching and releases resources. Returns ErrWatcherClosed if
// already closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	w.closed = true
	w.cancel()
	return w.fsWatcher.Close()
}
