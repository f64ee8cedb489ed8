package loader

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/meshspy/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before a reload fires.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports when the watched file changes on disk. The parent
// directory is watched so editors that save by rename are caught.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	log      *zap.Logger
	changes  chan string

	mu   sync.Mutex
	path string
	dir  string

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher starts an idle watcher. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.Named("watcher")
	}
	w := &Watcher{
		fw:       fw,
		debounce: debounce,
		log:      log,
		changes:  make(chan string, 1),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch replaces the watched file with path.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir != w.dir {
		if w.dir != "" {
			_ = w.fw.Remove(w.dir)
		}
		if err := w.fw.Add(dir); err != nil {
			w.dir, w.path = "", ""
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dir = dir
	}
	w.path = abs
	w.log.Debug("watching", zap.String("path", abs))
	return nil
}

// Changes delivers the path of the watched file after it settles.
func (w *Watcher) Changes() <-chan string { return w.changes }

func (w *Watcher) current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := ""

	for {
		select {
		case <-w.done:
			timer.Stop()
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			target := w.current()
			if target == "" || filepath.Clean(ev.Name) != target {
				continue
			}
			pending = target
			timer.Reset(w.debounce)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			if pending == "" {
				continue
			}
			select {
			case w.changes <- pending:
			default:
			}
			pending = ""
		}
	}
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fw.Close()
		w.wg.Wait()
	})
	return err
}
