package vfs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ThisPCName is the synthetic container for OS drives at the local root.
const ThisPCName = "This PC"

// ThisPCPath is its virtual path.
const ThisPCPath = "local://This PC/"

// SpecialFolder is one row of the well-known folder table seeding the root
// of the local namespace.
type SpecialFolder struct {
	Label         string
	VirtualPrefix string
	RealPath      string
}

// DefaultSpecialFolders returns the conventional per-user folders under the
// current user's home directory, in the order they appear at the root.
func DefaultSpecialFolders() []SpecialFolder {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	names := []string{"Desktop", "Documents", "Downloads", "Music", "Pictures", "Videos"}
	folders := make([]SpecialFolder, 0, len(names))
	for _, name := range names {
		folders = append(folders, SpecialFolder{
			Label:         name,
			VirtualPrefix: Root(SchemeLocal) + name,
			RealPath:      filepath.Join(home, name),
		})
	}
	return folders
}

// Catalog enumerates the special folders and OS drives that make up the
// root of the local namespace. Probe, DriveRoot, and SystemDrive are
// overridable so tests can simulate drives on any platform.
type Catalog struct {
	Folders []SpecialFolder
	Aliases *DriveAliases

	// Probe reports whether a drive root is accessible.
	Probe func(root string) bool
	// DriveRoot maps a drive letter to the real root path probed and
	// joined against.
	DriveRoot func(letter string) string
	// SystemDrive is the letter always included even when its probe fails.
	SystemDrive string

	log *zap.SugaredLogger
}

// NewCatalog builds a catalog over the given folder table, sharing the
// alias cache with the resolver.
func NewCatalog(folders []SpecialFolder, aliases *DriveAliases, log *zap.SugaredLogger) *Catalog {
	return &Catalog{
		Folders:     folders,
		Aliases:     aliases,
		Probe:       defaultProbe,
		DriveRoot:   defaultDriveRoot,
		SystemDrive: systemDriveLetter(),
		log:         log,
	}
}

func defaultProbe(root string) bool {
	_, err := os.Stat(root)
	return err == nil
}

func defaultDriveRoot(letter string) string {
	return letter + ":" + string(os.PathSeparator)
}

func systemDriveLetter() string {
	if drive := os.Getenv("SystemDrive"); len(drive) > 0 {
		return strings.ToUpper(drive[:1])
	}
	return "C"
}

// ListRoot returns one folder entry per special folder that exists on disk,
// in table order, with the synthetic This PC container appended last.
func (c *Catalog) ListRoot() []FileEntry {
	entries := make([]FileEntry, 0, len(c.Folders)+1)
	for _, folder := range c.Folders {
		info, err := os.Stat(folder.RealPath)
		if err != nil {
			continue
		}
		entries = append(entries, NewFolderEntry(folder.Label, folder.VirtualPrefix+"/", info.ModTime(), SchemeLocal))
	}
	entries = append(entries, NewFolderEntry(ThisPCName, ThisPCPath, time.Now(), SchemeLocal))
	return entries
}

// ListDrives probes the 26 drive letters and returns a folder entry per
// accessible drive, sorted by display name. The system drive is always
// included. Discovered drives seed the alias cache so subsequent path
// resolution does not re-derive them.
func (c *Catalog) ListDrives() []FileEntry {
	var entries []FileEntry
	for letter := 'A'; letter <= 'Z'; letter++ {
		l := string(letter)
		root := c.DriveRoot(l)
		system := strings.EqualFold(l, c.SystemDrive)
		if !system && !c.Probe(root) {
			continue
		}

		label := driveLabel(l, system)
		c.Aliases.Put(label, root)

		modified := time.Now()
		if info, err := os.Stat(root); err == nil {
			modified = info.ModTime()
		}
		entries = append(entries, NewFolderEntry(label, ThisPCPath+label+"/", modified, SchemeLocal))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	c.log.Debugw("enumerated drives", "count", len(entries))
	return entries
}

func driveLabel(letter string, system bool) string {
	if system {
		return "Local Disk (" + letter + ":)"
	}
	return "Drive (" + letter + ":)"
}

// Shortcuts returns the sidebar targets: every existing special folder,
// then This PC.
func (c *Catalog) Shortcuts() []Shortcut {
	shortcuts := make([]Shortcut, 0, len(c.Folders)+1)
	for _, folder := range c.Folders {
		if _, err := os.Stat(folder.RealPath); err != nil {
			continue
		}
		shortcuts = append(shortcuts, Shortcut{Name: folder.Label, Path: folder.VirtualPrefix + "/"})
	}
	shortcuts = append(shortcuts, Shortcut{Name: ThisPCName, Path: ThisPCPath})
	return shortcuts
}
