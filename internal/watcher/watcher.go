// Package watcher watches course directories for changes so the server can
// re-import and push a reload to connected browsers. Rapid bursts of file
// events (editors write several times per save) are debounced into one
// batch.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/coursegrid/coursegrid/internal/logging"
)

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type EventType
	Path string
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if a changed file is interesting
type FileFilter func(path string) bool

// ChangeHandler handles a debounced batch of file change events
type ChangeHandler func(events []ChangeEvent)

// CourseFileFilter accepts the files that affect a loaded course: content
// XML, policy, templates and static assets.
func CourseFileFilter(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".yaml", ".yml", ".html", ".json", ".css", ".js", ".png", ".jpg", ".svg":
		return true
	default:
		return false
	}
}

// FileWatcher watches course directories with debouncing.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	delay    time.Duration
	logger   logging.Logger
	mu       sync.Mutex
	filters  []FileFilter
	handlers []ChangeHandler
	pending  []ChangeEvent
	timer    *time.Timer
}

// NewFileWatcher creates a file watcher with the given debounce delay.
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &FileWatcher{
		watcher: w,
		delay:   debounceDelay,
		logger:  logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a file filter; with no filters every change passes.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler.
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddRecursive watches root and all of its subdirectories.
func (fw *FileWatcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fw.watcher.Add(path)
		}
		return nil
	})
}

// Start consumes file events until ctx is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				fw.watcher.Close()
				return
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				fw.handleEvent(event)
			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.logger.Warn(ctx, err, "watch error")
			}
		}
	}()
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	change := ChangeEvent{Path: event.Name}
	switch {
	case event.Op.Has(fsnotify.Create):
		change.Type = EventTypeCreated
		// A newly created directory needs its own watch.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = fw.watcher.Add(event.Name)
			return
		}
	case event.Op.Has(fsnotify.Write):
		change.Type = EventTypeModified
	case event.Op.Has(fsnotify.Remove):
		change.Type = EventTypeDeleted
	case event.Op.Has(fsnotify.Rename):
		change.Type = EventTypeRenamed
	default:
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.accepts(change.Path) {
		return
	}

	fw.pending = append(fw.pending, change)
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.delay, fw.flush)
}

// accepts is called with fw.mu held.
func (fw *FileWatcher) accepts(path string) bool {
	if len(fw.filters) == 0 {
		return true
	}
	for _, filter := range fw.filters {
		if filter(path) {
			return true
		}
	}
	return false
}

// flush delivers the pending batch to every handler.
func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	events := fw.pending
	fw.pending = nil
	handlers := make([]ChangeHandler, len(fw.handlers))
	copy(handlers, fw.handlers)
	fw.mu.Unlock()

	if len(events) == 0 {
		return
	}
	for _, handler := range handlers {
		handler(events)
	}
}
