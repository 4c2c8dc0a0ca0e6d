package config

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"linkcore/internal/logging"
)

// Watcher hot-reloads a config file on write, debouncing rapid saves the
// same way the teacher's mangle file watcher does for rule files.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	path        string
	current     *Config
	onReload    func(*Config)
	debounceDur time.Duration
	lastEvent   time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewWatcher constructs a Watcher for the config file at path, with an
// initially-loaded Config. onReload is invoked (from the watcher
// goroutine) after every successful reload.
func NewWatcher(path string, initial *Config, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		logging.Get(logging.CategoryBoot).Warn("config watcher: failed to watch %s: %v", dir, err)
	}

	return &Watcher{
		watcher:     fw,
		path:        path,
		current:     initial,
		onReload:    onReload,
		debounceDur: 300 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching in a background goroutine. Non-blocking.
func (w *Watcher) Start() {
	go w.run()
}

// Stop halts the watcher and closes the underlying fsnotify handle.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	debounce := time.NewTicker(100 * time.Millisecond)
	defer debounce.Stop()

	var pending bool

	for {
		select {
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !matchesPath(ev.Name, w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			w.lastEvent = time.Now()
			w.mu.Unlock()
			pending = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Warn("config watcher error: %v", err)

		case <-debounce.C:
			if !pending {
				continue
			}
			w.mu.RLock()
			settled := time.Since(w.lastEvent) >= w.debounceDur
			w.mu.RUnlock()
			if !settled {
				continue
			}
			pending = false
			w.reload()
		}
	}
}

func matchesPath(eventName, watched string) bool {
	return filepath.Clean(eventName) == filepath.Clean(watched) || strings.HasSuffix(eventName, filepath.Base(watched))
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("config hot-reload failed, keeping previous config: %v", err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	logging.Get(logging.CategoryBoot).Info("config hot-reloaded from %s", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
