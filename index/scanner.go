package index

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"filedeck/metrics"
	"filedeck/vfs"
)

// Root is one indexed tree: a real directory and the virtual base its
// children are published under.
type Root struct {
	Service     vfs.Scheme
	VirtualBase string
	RealPath    string
}

// RootsFor derives the indexable roots from the special-folder table and
// the cloud mounts.
func RootsFor(folders []vfs.SpecialFolder, clouds map[vfs.Scheme]vfs.CloudMount) []Root {
	roots := make([]Root, 0, len(folders)+len(clouds))
	for _, folder := range folders {
		roots = append(roots, Root{
			Service:     vfs.SchemeLocal,
			VirtualBase: folder.VirtualPrefix + "/",
			RealPath:    folder.RealPath,
		})
	}
	for _, scheme := range vfs.Schemes {
		mount, ok := clouds[scheme]
		if !ok {
			continue
		}
		roots = append(roots, Root{
			Service:     scheme,
			VirtualBase: vfs.Root(scheme),
			RealPath:    mount.Root,
		})
	}
	return roots
}

// Scanner walks the roots and keeps the store in sync with the disk.
type Scanner struct {
	store *Store
	roots []Root
	log   *zap.SugaredLogger
}

// NewScanner builds a scanner over the store.
func NewScanner(store *Store, roots []Root, log *zap.SugaredLogger) *Scanner {
	return &Scanner{store: store, roots: roots, log: log}
}

// Roots returns the indexed roots.
func (s *Scanner) Roots() []Root {
	return s.roots
}

// ScanAll scans every root. Roots that do not exist on disk are skipped;
// their rows are pruned like any other stale rows.
func (s *Scanner) ScanAll(ctx context.Context) error {
	start := time.Now()
	for _, root := range s.roots {
		if err := s.ScanRoot(ctx, root); err != nil {
			return err
		}
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	metrics.RecordIndexScan(time.Since(start), count)
	s.log.Infow("index scan complete", "roots", len(s.roots), "entries", count, "took", time.Since(start))
	return nil
}

// ScanRoot walks one root, batch-upserting rows stamped with this scan's
// time, then prunes rows under the root the walk no longer saw.
func (s *Scanner) ScanRoot(ctx context.Context, root Root) error {
	scanTime := time.Now().UTC().Unix()
	batch := make([]Entry, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.UpsertBatch(ctx, batch, scanTime); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	err := filepath.WalkDir(root.RealPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Missing or unreadable subtrees drop out of the index on prune.
			s.log.Debugw("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == root.RealPath {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		rel := filepath.ToSlash(strings.TrimPrefix(path, root.RealPath))
		rel = strings.TrimPrefix(rel, "/")
		virtual := root.VirtualBase + rel
		parent := root.VirtualBase
		if idx := strings.LastIndex(rel, "/"); idx >= 0 {
			parent += rel[:idx+1]
		}

		entry := Entry{
			Name:    d.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   d.IsDir(),
			Parent:  parent,
			Depth:   strings.Count(rel, "/") + 1,
			Service: string(root.Service),
		}
		if d.IsDir() {
			entry.Path = virtual + "/"
			entry.Type = vfs.KindFolder
			entry.Size = 0
		} else {
			entry.Path = virtual
			entry.Ext = strings.ToLower(filepath.Ext(d.Name()))
			entry.Type = vfs.Classify(d.Name())
		}

		batch = append(batch, entry)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	pruned, err := s.store.PruneStale(ctx, root.VirtualBase, scanTime)
	if err != nil {
		return err
	}
	if pruned > 0 {
		s.log.Debugw("pruned stale index rows", "root", root.VirtualBase, "rows", pruned)
	}
	return nil
}
