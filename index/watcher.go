package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"filedeck/events"
)

const debounceWindow = 500 * time.Millisecond

// Watcher listens for filesystem changes under the indexed roots,
// publishes change events for live refresh, and schedules debounced
// re-scans of the touched roots.
type Watcher struct {
	scanner     *Scanner
	broadcaster *events.Broadcaster
	log         *zap.SugaredLogger
}

// NewWatcher builds a watcher over the scanner's roots. broadcaster may be
// nil to disable change events.
func NewWatcher(scanner *Scanner, broadcaster *events.Broadcaster, log *zap.SugaredLogger) *Watcher {
	return &Watcher{scanner: scanner, broadcaster: broadcaster, log: log}
}

// Run blocks until ctx is cancelled. fsnotify watches are not recursive,
// so existing subdirectories are registered up front and new ones as their
// create events arrive.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range w.scanner.Roots() {
		w.addTree(watcher, root.RealPath)
	}

	dirty := make(map[string]Root)
	timer := time.NewTimer(debounceWindow)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			root, virtual, matched := w.translate(event.Name)
			if !matched {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addTree(watcher, event.Name)
				}
			}
			w.publish(event.Op, root, virtual)
			dirty[root.RealPath] = root
			timer.Reset(debounceWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", "error", err)

		case <-timer.C:
			for _, root := range dirty {
				if err := w.scanner.ScanRoot(ctx, root); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					w.log.Warnw("rescan failed", "root", root.VirtualBase, "error", err)
				}
			}
			clear(dirty)
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if werr := watcher.Add(path); werr != nil {
			w.log.Debugw("failed to watch directory", "path", path, "error", werr)
		}
		return nil
	})
	if err != nil {
		w.log.Debugw("failed to register watch tree", "dir", dir, "error", err)
	}
}

// translate maps a real path back to its root and virtual path.
func (w *Watcher) translate(realPath string) (Root, string, bool) {
	for _, root := range w.scanner.Roots() {
		if realPath == root.RealPath {
			return root, root.VirtualBase, true
		}
		prefix := root.RealPath + string(os.PathSeparator)
		if strings.HasPrefix(realPath, prefix) {
			rel := filepath.ToSlash(strings.TrimPrefix(realPath, prefix))
			return root, root.VirtualBase + rel, true
		}
	}
	return Root{}, "", false
}

func (w *Watcher) publish(op fsnotify.Op, root Root, virtual string) {
	if w.broadcaster == nil {
		return
	}
	var eventType string
	switch {
	case op&fsnotify.Create != 0:
		eventType = events.EventCreated
	case op&fsnotify.Write != 0:
		eventType = events.EventModified
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		eventType = events.EventDeleted
	default:
		return
	}
	w.broadcaster.Publish(events.Event{
		Type:    eventType,
		Path:    virtual,
		Service: string(root.Service),
	})
}
