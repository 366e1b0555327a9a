// Package watcher reports debounced batches of changed source files under a directory tree.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a FileWatcher.
type Options struct {
	// Debounce is the quiet period before a batch is delivered.
	Debounce time.Duration
	// Ignore patterns are matched against slash-separated absolute paths. Matching directories
	// are not watched and matching files never reach the callback.
	Ignore []string
	// Accept reports whether a changed file is of interest. Nil accepts every file.
	Accept func(path string) bool
	Log    logrus.FieldLogger
}

// FileWatcher monitors a directory tree and calls back with debounced file changes.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	ignore   IgnoreSet
	accept   func(path string) bool
	log      logrus.FieldLogger

	callback func(files []string)
	cancel   context.CancelFunc
	stopOnce sync.Once
	doneCh   chan struct{}

	accumulated   map[string]bool
	accumulatedMu sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex
}

// New creates a watcher for root and registers every directory beneath it that is not ignored.
func New(root string, opts Options) (*FileWatcher, error) {
	ignore, err := CompileIgnore(opts.Ignore)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:     w,
		root:        abs,
		debounce:    opts.Debounce,
		ignore:      ignore,
		accept:      opts.Accept,
		log:         opts.Log,
		accumulated: make(map[string]bool),
		doneCh:      make(chan struct{}),
	}
	if fw.debounce <= 0 {
		fw.debounce = DefaultDebounce
	}
	if fw.log == nil {
		fw.log = logrus.StandardLogger()
	}

	if err := fw.addDirectoriesRecursively(abs); err != nil {
		w.Close()
		return nil, err
	}
	return fw, nil
}

// Ignored reports whether path matches an ignore pattern.
func (fw *FileWatcher) Ignored(path string) bool {
	return fw.ignore.Match(path)
}

// Start begins watching. callback runs on the watch goroutine, so batches never overlap.
func (fw *FileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return errors.New("watcher callback is required")
	}
	fw.callback = callback

	ctx, fw.cancel = context.WithCancel(ctx)
	go fw.watch(ctx)
	return nil
}

// Stop stops the watcher and waits for the watch goroutine. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// Done is closed once the watch goroutine has exited.
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.doneCh
}

func (fw *FileWatcher) watch(ctx context.Context) {
	defer close(fw.doneCh)

	flushCh := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addDirectoriesRecursively(event.Name); err != nil {
						fw.log.WithError(err).WithField("dir", event.Name).Warn("failed to watch new directory")
					}
					continue
				}
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(flushCh)

		case <-flushCh:
			fw.flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.WithError(err).Warn("file watcher error")
		}
	}
}

// flush delivers the accumulated batch, sorted.
func (fw *FileWatcher) flush() {
	fw.accumulatedMu.Lock()
	if len(fw.accumulated) == 0 {
		fw.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	fw.accumulatedMu.Unlock()

	slices.Sort(files)
	fw.callback(files)
}

func (fw *FileWatcher) resetDebounceTimer(flushCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debounce, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

func (fw *FileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

// shouldProcessEvent keeps writes, creates and removes of accepted, non-ignored files.
func (fw *FileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if fw.Ignored(event.Name) {
		return false
	}
	return fw.accept == nil || fw.accept(event.Name)
}

func (fw *FileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			fw.log.WithError(err).WithField("path", path).Warn("error accessing path")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != rootPath && fw.ignore.MatchDir(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.log.WithError(err).WithField("dir", path).Warn("failed to watch directory")
		}
		return nil
	})
}
