package vfs

import "sync"

// DriveAliases caches the mapping from a drive's display label, e.g.
// "Local Disk (C:)", to the real root path of that drive. The cache only
// ever grows and a label's root never changes once written, so a duplicate
// concurrent insert is harmless. It is an explicit handle shared between
// the catalog and the resolver, not package state.
type DriveAliases struct {
	mu    sync.RWMutex
	roots map[string]string
}

// NewDriveAliases returns an empty alias cache.
func NewDriveAliases() *DriveAliases {
	return &DriveAliases{roots: make(map[string]string)}
}

// Lookup returns the cached root for a display label.
func (a *DriveAliases) Lookup(label string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	root, ok := a.roots[label]
	return root, ok
}

// Put records a label's drive root. Last write wins; values for a given
// label are identical by construction.
func (a *DriveAliases) Put(label, root string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roots[label] = root
}

// Len returns the number of cached aliases.
func (a *DriveAliases) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.roots)
}
