package spacefile

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/logger"
)

// ReloadCallback receives each successfully rebuilt space.
type ReloadCallback func(*Built) error

// ErrorCallback receives load or build failures.
type ErrorCallback func(error)

// Watcher rebuilds a definition whenever its file is written or recreated.
// Bursts of events within the debounce period cause one rebuild.
type Watcher struct {
	path      string
	watcher   *fsnotify.Watcher
	build     []BuildOption
	callbacks []ReloadCallback
	onError   []ErrorCallback
	mu        sync.RWMutex
	debounce  time.Duration
	logger    *zap.SugaredLogger
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithBuildOptions sets the options every rebuild uses.
func WithBuildOptions(opts ...BuildOption) WatcherOption {
	return func(w *Watcher) { w.build = append(w.build, opts...) }
}

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(l *zap.SugaredLogger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher watches the directory holding path. Editors often replace a
// file rather than write it, so the directory is watched and events are
// filtered by name.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	if _, err := FormatOf(abs); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	w := &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	if w.logger == nil {
		w.logger = logger.ComponentLogger("spacefile")
	}
	return w, nil
}

// OnReload registers a callback for rebuilt spaces.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// OnError registers a callback for failed reloads.
func (w *Watcher) OnError(cb ErrorCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = append(w.onError, cb)
}

// Start begins watching. Callbacks run on the watcher's goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop ends watching and waits for any running reload to finish.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debugw("Space definition changed",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Space definition watcher error", logger.FieldError, err)

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	w.mu.RLock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	onError := make([]ErrorCallback, len(w.onError))
	copy(onError, w.onError)
	w.mu.RUnlock()

	fail := func(err error) {
		w.logger.Warnw("Space definition reload failed", logger.FieldFile, w.path, logger.FieldError, err)
		for _, cb := range onError {
			cb(err)
		}
	}

	def, err := Load(w.path)
	if err != nil {
		fail(err)
		return
	}
	built, err := def.Build(w.build...)
	if err != nil {
		fail(errors.Wrapf(err, "build %s", w.path))
		return
	}
	w.logger.Infow("Space definition reloaded",
		logger.FieldFile, w.path,
		logger.FieldSpaceName, def.Name,
		logger.FieldPoints, built.Space.Len(),
		logger.FieldRegions, built.Space.RegionCount())

	for _, cb := range callbacks {
		if err := cb(built); err != nil {
			w.logger.Warnw("Space definition reload callback error", logger.FieldError, err)
		}
	}
}
