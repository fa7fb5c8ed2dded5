package ruleprovider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/samber/ro"

	"github.com/omarluq/mapping-engine/internal/mapping"
)

// batchPathWrites buffers path-write notifications for delay and emits them
// as batches, so a burst of saves to the same file collapses into a single
// reload. Uses samber/ro's buffering operator directly rather than a general
// stream-utility wrapper, since this is the only reactive pipeline the
// provider needs.
func batchPathWrites(writes <-chan string, delay time.Duration) ro.Observable[[]string] {
	return ro.Pipe1(ro.FromChannel(writes), ro.BufferWithTime[string](delay))
}

// RuleExtension is the file extension FileSource treats as a rule document.
const RuleExtension = ".rule"

// ErrFileSourceClosed is returned by operations attempted on a closed
// FileSource.
var ErrFileSourceClosed = errors.New("ruleprovider: file source already closed")

// FileSource watches a directory of rule documents, binding a RuleProvider
// for each *.rule file into service and keeping the bindings in sync as
// files are added, edited, or removed. Write/create events are batched in
// a time window by batchPathWrites rather than by per-path debounce timers.
type FileSource struct {
	dir           string
	service       *mapping.Service
	fsWatcher     *fsnotify.Watcher
	cancel        context.CancelFunc
	debounceDelay time.Duration

	mu     sync.Mutex
	active map[string]*RuleProvider // absolute path -> currently bound provider
	closed bool
}

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithFileDebounceDelay overrides the default 100ms debounce window.
func WithFileDebounceDelay(d time.Duration) FileSourceOption {
	return func(s *FileSource) { s.debounceDelay = d }
}

// NewFileSource builds a FileSource watching dir for *.rule documents.
func NewFileSource(dir string, service *mapping.Service, opts ...FileSourceOption) (*FileSource, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(absDir); err != nil {
		if cerr := fsWatcher.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("ruleprovider: failed to close watcher after add failure")
		}
		return nil, err
	}

	s := &FileSource{
		dir:           absDir,
		service:       service,
		fsWatcher:     fsWatcher,
		debounceDelay: 100 * time.Millisecond,
		active:        make(map[string]*RuleProvider),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoadAll parses and binds every *.rule file currently in the directory.
// Call once before Watch to establish the initial provider set.
func (s *FileSource) LoadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), RuleExtension) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := s.reload(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("ruleprovider: failed to load rule file")
		}
	}
	return nil
}

// Watch blocks, batching per-window write/create events through a
// samber/ro BufferWithTime pipeline and rebinding providers once per
// distinct path per window, until ctx is canceled. Remove/rename events
// unbind immediately, without batching.
func (s *FileSource) Watch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	writes := make(chan string)
	batches := batchPathWrites(writes, s.debounceDelay)

	sub := batches.Subscribe(ro.OnNext(func(paths []string) {
		seen := make(map[string]struct{}, len(paths))
		for _, path := range paths {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			if err := s.reload(path); err != nil {
				log.Error().Err(err).Str("path", path).Msg("ruleprovider: failed to reload rule file")
			}
		}
	}))
	defer sub.Unsubscribe()
	defer close(writes)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-s.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, RuleExtension) {
				continue
			}

			path := event.Name
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				s.unbindPath(path)
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			select {
			case writes <- path:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-s.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("ruleprovider: watcher error")
		}
	}
}

func (s *FileSource) reload(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.unbindPath(path)
			return nil
		}
		return err
	}
	defer file.Close()

	rule, err := ParseRule(file)
	if err != nil {
		return err
	}

	newProvider := NewRuleProvider(path, rule)

	s.mu.Lock()
	old, existed := s.active[path]
	s.active[path] = newProvider
	s.mu.Unlock()

	if existed {
		return s.service.Rebind(old, newProvider)
	}
	return s.service.Bind(newProvider)
}

func (s *FileSource) unbindPath(path string) {
	s.mu.Lock()
	old, existed := s.active[path]
	delete(s.active, path)
	s.mu.Unlock()

	if !existed {
		return
	}
	if _, err := s.service.Unbind(old); err != nil {
		log.Error().Err(err).Str("path", path).Msg("ruleprovider: failed to unbind removed rule file")
	}
}

// Close stops watching and releases resources. Returns ErrFileSourceClosed
// if already closed.
func (s *FileSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrFileSourceClosed
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	return s.fsWatcher.Close()
}
