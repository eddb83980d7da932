package vfs

import (
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Reader lists the immediate children of resolved directories. Listing is
// best-effort under concurrent mutation: an unreadable directory yields an
// empty list and children that vanish between readdir and stat are dropped.
type Reader struct {
	mu       sync.Mutex
	collator *collate.Collator
	log      *zap.SugaredLogger
}

// NewReader builds a reader with a case-insensitive, numeric-aware collator.
func NewReader(log *zap.SugaredLogger) *Reader {
	return &Reader{
		collator: collate.New(language.Und, collate.IgnoreCase, collate.Numeric),
		log:      log,
	}
}

// ReadDirectory lists realPath, mapping each surviving child onto a
// FileEntry under the directory's virtual path. Directories come back
// before files, each group sorted by name.
func (r *Reader) ReadDirectory(realPath, virtualBase string, service Scheme) []FileEntry {
	children, err := os.ReadDir(realPath)
	if err != nil {
		r.log.Warnw("directory unreadable", "path", realPath, "error", err)
		return []FileEntry{}
	}

	entries := make([]FileEntry, 0, len(children))
	for _, child := range children {
		info, err := child.Info()
		if err != nil {
			// Deleted between readdir and stat; tolerated.
			continue
		}
		name := child.Name()
		if info.IsDir() {
			entries = append(entries, NewFolderEntry(name, Join(virtualBase, name, true), info.ModTime(), service))
		} else {
			entries = append(entries, NewFileEntry(name, Join(virtualBase, name, false), info.Size(), info.ModTime(), service))
		}
	}

	r.Sort(entries)
	return entries
}

// Sort orders folders before files, each group collated by name ascending.
// The collator is stateful, hence the lock.
func (r *Reader) Sort(entries []FileEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		aFolder := a.Type == KindFolder
		bFolder := b.Type == KindFolder
		if aFolder != bFolder {
			return aFolder
		}
		return r.collator.CompareString(a.Name, b.Name) < 0
	})
}
