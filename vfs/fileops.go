package vfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// Executor performs copy, move, and delete batches against resolved
// locations. Sources are processed sequentially in input order; the first
// failure aborts the rest of the batch.
type Executor struct {
	resolver *Resolver
	rename   func(oldpath, newpath string) error
	log      *zap.SugaredLogger
}

// NewExecutor builds an executor over the resolver.
func NewExecutor(resolver *Resolver, log *zap.SugaredLogger) *Executor {
	return &Executor{resolver: resolver, rename: os.Rename, log: log}
}

// Copy copies each source into the destination directory, overwriting
// existing entries. Copying a source onto its own parent is a silent no-op.
func (e *Executor) Copy(sources []string, destination string) (*OperationResult, error) {
	return e.transfer(OpCopy, sources, destination)
}

// Move moves each source into the destination directory, renaming when the
// two share a device and falling back to copy-then-delete across devices.
func (e *Executor) Move(sources []string, destination string) (*OperationResult, error) {
	return e.transfer(OpMove, sources, destination)
}

func (e *Executor) transfer(op string, sources []string, destination string) (*OperationResult, error) {
	if len(sources) == 0 {
		return nil, &Error{Op: op, Err: ErrNoInput}
	}

	dest, err := e.resolver.Resolve(destination)
	if err != nil {
		return nil, err
	}
	if dest.Kind != KindEntry || !dest.IsDir {
		return nil, &Error{Op: op, Path: destination, Err: ErrUnsupportedDestination}
	}

	// Validate every source before any I/O happens.
	resolved := make([]ResolvedLocation, len(sources))
	for i, source := range sources {
		loc, err := e.resolver.Resolve(source)
		if err != nil {
			return nil, err
		}
		if loc.Kind != KindEntry {
			return nil, &Error{Op: op, Path: source, Err: ErrUnsupportedSource}
		}
		resolved[i] = loc
	}

	if err := os.MkdirAll(dest.RealPath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	result := &OperationResult{Success: true}
	for i, source := range sources {
		src := resolved[i]
		name := filepath.Base(src.RealPath)
		target := filepath.Join(dest.RealPath, name)

		if target == src.RealPath {
			// Dropping an entry onto its own parent; nothing to do.
			continue
		}
		if strings.HasPrefix(target, src.RealPath+string(os.PathSeparator)) {
			return nil, &Error{Op: op, Path: source, Err: ErrSelfContainment}
		}

		srcInfo, err := os.Stat(src.RealPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source: %w", err)
		}

		switch op {
		case OpCopy:
			err = e.copyEntry(src.RealPath, target, srcInfo)
		case OpMove:
			err = e.moveEntry(src.RealPath, target)
		}
		if err != nil {
			return nil, err
		}

		result.Items = append(result.Items, TransferItem{
			Source:      source,
			Destination: Join(dest.VirtualBase, name, srcInfo.IsDir()),
		})
	}

	e.log.Infow("transfer complete", "op", op, "items", len(result.Items), "destination", destination)
	return result, nil
}

// Delete removes each target recursively. Absent targets are not an error.
func (e *Executor) Delete(targets []string) (*OperationResult, error) {
	if len(targets) == 0 {
		return nil, &Error{Op: OpDelete, Err: ErrNoInput}
	}

	resolved := make([]ResolvedLocation, len(targets))
	for i, target := range targets {
		loc, err := e.resolver.Resolve(target)
		if err != nil {
			return nil, err
		}
		if loc.Kind != KindEntry {
			return nil, &Error{Op: OpDelete, Path: target, Err: ErrUnsupportedSource}
		}
		resolved[i] = loc
	}

	for i := range resolved {
		if err := os.RemoveAll(resolved[i].RealPath); err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", targets[i], err)
		}
	}

	e.log.Infow("delete complete", "targets", len(targets))
	return &OperationResult{Success: true}, nil
}

func (e *Executor) copyEntry(src, target string, srcInfo os.FileInfo) error {
	if srcInfo.IsDir() {
		if err := os.MkdirAll(target, srcInfo.Mode()); err != nil {
			return fmt.Errorf("failed to create destination directory: %w", err)
		}
		children, err := os.ReadDir(src)
		if err != nil {
			return fmt.Errorf("failed to read source directory: %w", err)
		}
		for _, child := range children {
			childInfo, err := child.Info()
			if err != nil {
				return fmt.Errorf("failed to stat source: %w", err)
			}
			if err := e.copyEntry(filepath.Join(src, child.Name()), filepath.Join(target, child.Name()), childInfo); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	return copyFile(src, target, srcInfo.Mode())
}

func copyFile(src, target string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	destFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, srcFile); err != nil {
		os.Remove(target) // cleanup on error
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	return nil
}

func (e *Executor) moveEntry(src, target string) error {
	err := e.rename(src, target)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("failed to move: %w", err)
	}

	// Source and destination live on different devices. Copy then delete;
	// a crash between the two steps leaves both copies behind.
	e.log.Debugw("cross-device move, copying instead", "source", src, "target", target)
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if err := e.copyEntry(src, target, srcInfo); err != nil {
		return err
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("failed to remove source after copy: %w", err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
