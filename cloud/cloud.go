// Package cloud defines the mock provider backends. Each cloud scheme is
// rooted in a locally seeded directory tree; no network I/O ever happens.
package cloud

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"filedeck/vfs"
)

var displayNames = map[vfs.Scheme]string{
	vfs.SchemeGDrive:   "Google Drive",
	vfs.SchemeDropbox:  "Dropbox",
	vfs.SchemeOneDrive: "OneDrive",
}

// seedEntry describes one node of a provider's starter tree. Dir entries
// carry no content; file entries are written only when absent.
type seedEntry struct {
	path    string
	dir     bool
	content string
}

var seedTrees = map[vfs.Scheme][]seedEntry{
	vfs.SchemeGDrive: {
		{path: "Documents", dir: true},
		{path: "Documents/Project Plan.docx", content: "Q3 project plan: resolver, executor, live refresh.\n"},
		{path: "Documents/Meeting Notes.txt", content: "Standup notes placeholder.\n"},
		{path: "Photos", dir: true},
		{path: "Photos/holiday.jpg", content: "not-a-real-jpeg\n"},
		{path: "welcome.txt", content: "This folder mirrors your Google Drive.\n"},
	},
	vfs.SchemeDropbox: {
		{path: "Shared", dir: true},
		{path: "Shared/Team Handbook.pdf", content: "not-a-real-pdf\n"},
		{path: "Backups", dir: true},
		{path: "getting-started.txt", content: "This folder mirrors your Dropbox.\n"},
	},
	vfs.SchemeOneDrive: {
		{path: "Documents", dir: true},
		{path: "Documents/Resume.docx", content: "resume placeholder\n"},
		{path: "Pictures", dir: true},
		{path: "Pictures/wallpaper.png", content: "not-a-real-png\n"},
		{path: "todo.txt", content: "- wire the combined view\n"},
	},
}

// Mounts maps each cloud scheme to its mock root under dataDir. The roots
// are not created here; call Seed before handing the mounts to a resolver.
func Mounts(dataDir string) map[vfs.Scheme]vfs.CloudMount {
	mounts := make(map[vfs.Scheme]vfs.CloudMount, len(displayNames))
	for scheme, name := range displayNames {
		mounts[scheme] = vfs.CloudMount{
			Name: name,
			Root: filepath.Join(dataDir, "clouds", string(scheme)),
		}
	}
	return mounts
}

// Seed creates each mount root and populates its starter tree. Files are
// written only when absent, so user edits and deletions inside an existing
// file survive re-seeding. Safe to call on every startup.
func Seed(mounts map[vfs.Scheme]vfs.CloudMount, log *zap.SugaredLogger) error {
	for scheme, mount := range mounts {
		if err := os.MkdirAll(mount.Root, 0750); err != nil {
			return fmt.Errorf("failed to create cloud root %s: %w", mount.Root, err)
		}
		seeded := 0
		for _, entry := range seedTrees[scheme] {
			target := filepath.Join(mount.Root, filepath.FromSlash(entry.path))
			if entry.dir {
				if err := os.MkdirAll(target, 0750); err != nil {
					return fmt.Errorf("failed to create seed directory %s: %w", target, err)
				}
				continue
			}
			if _, err := os.Stat(target); err == nil {
				continue
			}
			if err := os.WriteFile(target, []byte(entry.content), 0640); err != nil {
				return fmt.Errorf("failed to write seed file %s: %w", target, err)
			}
			seeded++
		}
		if seeded > 0 {
			log.Infow("seeded cloud provider", "scheme", scheme, "root", mount.Root, "files", seeded)
		}
	}
	return nil
}
