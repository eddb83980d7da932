package vfs

import "time"

// FileEntry is the uniform listing record handed to the UI. Size is nil for
// directories and serializes as JSON null; Modified serializes as RFC 3339.
type FileEntry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Size     *int64    `json:"size"`
	Modified time.Time `json:"modified"`
	Path     string    `json:"path"`
	Service  string    `json:"service"`
}

// NewFolderEntry builds the record for a directory. The virtual path must
// already carry its trailing slash.
func NewFolderEntry(name, virtualPath string, modified time.Time, service Scheme) FileEntry {
	return FileEntry{
		ID:       EntryID(virtualPath),
		Name:     name,
		Type:     KindFolder,
		Modified: modified,
		Path:     virtualPath,
		Service:  service.String(),
	}
}

// NewFileEntry builds the record for a regular file.
func NewFileEntry(name, virtualPath string, size int64, modified time.Time, service Scheme) FileEntry {
	return FileEntry{
		ID:       EntryID(virtualPath),
		Name:     name,
		Type:     Classify(name),
		Size:     &size,
		Modified: modified,
		Path:     virtualPath,
		Service:  service.String(),
	}
}

// Shortcut is a sidebar navigation target.
type Shortcut struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// TransferItem maps one processed source to the virtual path it ended up at.
type TransferItem struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// OperationResult reports a completed copy, move, or delete batch. Items is
// only populated for copy and move, and omits sources skipped as no-ops.
type OperationResult struct {
	Success bool           `json:"success"`
	Items   []TransferItem `json:"items,omitempty"`
}
