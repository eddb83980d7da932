package vfs

import (
	"os"
	"time"

	"go.uber.org/zap"

	"filedeck/events"
	"filedeck/metrics"
)

// FS is the virtual filesystem facade the IPC surfaces call. It wires the
// catalog, resolver, reader, and executor over one shared alias cache.
type FS struct {
	Aliases  *DriveAliases
	Catalog  *Catalog
	Resolver *Resolver
	Reader   *Reader
	Executor *Executor

	broadcaster *events.Broadcaster
	log         *zap.SugaredLogger
}

// Options configure New. A nil Folders table falls back to the current
// user's special folders; Broadcaster may be nil to disable change events.
type Options struct {
	Folders     []SpecialFolder
	Clouds      map[Scheme]CloudMount
	Broadcaster *events.Broadcaster
	Logger      *zap.SugaredLogger
}

// New assembles the virtual filesystem.
func New(opts Options) *FS {
	folders := opts.Folders
	if folders == nil {
		folders = DefaultSpecialFolders()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	aliases := NewDriveAliases()
	resolver := NewResolver(folders, aliases, opts.Clouds, log)
	return &FS{
		Aliases:     aliases,
		Catalog:     NewCatalog(folders, aliases, log),
		Resolver:    resolver,
		Reader:      NewReader(log),
		Executor:    NewExecutor(resolver, log),
		broadcaster: opts.Broadcaster,
		log:         log,
	}
}

// ListDirectory resolves a virtual path and lists it: the scheme root, the
// drive container, or a concrete directory.
func (f *FS) ListDirectory(virtualPath string) ([]FileEntry, error) {
	loc, err := f.Resolver.Resolve(virtualPath)
	if err != nil {
		return nil, err
	}

	var entries []FileEntry
	switch loc.Kind {
	case KindRootListing:
		if loc.Scheme == SchemeCombined {
			entries = f.listProviders()
		} else {
			entries = f.Catalog.ListRoot()
		}
	case KindDriveListing:
		entries = f.Catalog.ListDrives()
	case KindEntry:
		entries = f.Reader.ReadDirectory(loc.RealPath, loc.VirtualBase, loc.Scheme)
	}

	metrics.RecordListing(len(entries))
	return entries, nil
}

// listProviders renders the combined root: one folder per cloud mount, in
// scheme declaration order.
func (f *FS) listProviders() []FileEntry {
	entries := make([]FileEntry, 0, len(f.Resolver.Clouds))
	for _, scheme := range Schemes {
		mount, ok := f.Resolver.Clouds[scheme]
		if !ok {
			continue
		}
		modified := time.Now()
		if info, err := os.Stat(mount.Root); err == nil {
			modified = info.ModTime()
		}
		entries = append(entries, NewFolderEntry(mount.Name, Root(SchemeCombined)+mount.Name+"/", modified, scheme))
	}
	return entries
}

// Shortcuts returns the sidebar targets.
func (f *FS) Shortcuts() []Shortcut {
	return f.Catalog.Shortcuts()
}

// Copy copies sources into the destination directory.
func (f *FS) Copy(sources []string, destination string) (*OperationResult, error) {
	start := time.Now()
	result, err := f.Executor.Copy(sources, destination)
	metrics.RecordFileOp(OpCopy, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	f.publishItems(events.EventCreated, result.Items)
	return result, nil
}

// Move moves sources into the destination directory.
func (f *FS) Move(sources []string, destination string) (*OperationResult, error) {
	start := time.Now()
	result, err := f.Executor.Move(sources, destination)
	metrics.RecordFileOp(OpMove, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	f.publishItems(events.EventMoved, result.Items)
	return result, nil
}

// Delete removes targets recursively.
func (f *FS) Delete(targets []string) (*OperationResult, error) {
	start := time.Now()
	result, err := f.Executor.Delete(targets)
	metrics.RecordFileOp(OpDelete, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	if f.broadcaster != nil {
		for _, target := range targets {
			scheme, _, perr := ParsePath(target)
			if perr != nil {
				continue
			}
			f.broadcaster.Publish(events.Event{Type: events.EventDeleted, Path: target, Service: scheme.String()})
		}
	}
	return result, nil
}

func (f *FS) publishItems(eventType string, items []TransferItem) {
	if f.broadcaster == nil {
		return
	}
	for _, item := range items {
		scheme, _, err := ParsePath(item.Destination)
		if err != nil {
			continue
		}
		f.broadcaster.Publish(events.Event{Type: eventType, Path: item.Destination, Service: scheme.String()})
	}
}
