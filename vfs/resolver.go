package vfs

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// LocationKind tags a ResolvedLocation.
type LocationKind int

const (
	// KindRootListing is the virtual root of a scheme, with no backing path.
	KindRootListing LocationKind = iota
	// KindDriveListing is the This PC container enumerating OS drives.
	KindDriveListing
	// KindEntry is a location bound to one real filesystem path.
	KindEntry
)

// ResolvedLocation is the classification of one virtual path. Locations are
// built fresh on every call and never cached; the filesystem may change
// between calls.
type ResolvedLocation struct {
	Kind LocationKind
	// Scheme is the namespace the entry originates from. Paths in the
	// combined namespace resolve with the underlying provider's scheme so
	// listings keep their origin attribution.
	Scheme   Scheme
	RealPath string
	IsDir    bool
	// VirtualBase is the normalized virtual path of the entry itself;
	// directory bases end in "/" so child paths append cleanly.
	VirtualBase string
}

// CloudMount is a mock cloud provider's display name and local root
// directory. Name doubles as the provider's folder name inside combined://.
type CloudMount struct {
	Name string
	Root string
}

// Resolver classifies virtual paths. It shares the alias cache with the
// catalog; resolving an unknown drive label derives the letter from its
// "(X:)" suffix and grows the cache.
type Resolver struct {
	Folders []SpecialFolder
	Aliases *DriveAliases
	Clouds  map[Scheme]CloudMount

	// DriveRoot maps a derived drive letter to its real root path.
	DriveRoot func(letter string) string

	log *zap.SugaredLogger
}

// NewResolver builds a resolver over the folder table, alias cache, and
// cloud mounts.
func NewResolver(folders []SpecialFolder, aliases *DriveAliases, clouds map[Scheme]CloudMount, log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		Folders:   folders,
		Aliases:   aliases,
		Clouds:    clouds,
		DriveRoot: defaultDriveRoot,
		log:       log,
	}
}

// Resolve classifies a virtual path into a root listing, a drive listing,
// or a concrete filesystem entry.
func (r *Resolver) Resolve(virtualPath string) (ResolvedLocation, error) {
	scheme, rest, err := ParsePath(virtualPath)
	if err != nil {
		return ResolvedLocation{}, err
	}
	switch scheme {
	case SchemeLocal:
		return r.resolveLocal(virtualPath, rest)
	case SchemeGDrive, SchemeDropbox, SchemeOneDrive:
		return r.resolveCloud(scheme, virtualPath, rest)
	case SchemeCombined:
		return r.resolveCombined(virtualPath, rest)
	}
	return ResolvedLocation{}, &Error{Op: OpResolve, Path: virtualPath, Err: ErrInvalidPath}
}

func (r *Resolver) resolveLocal(virtualPath, rest string) (ResolvedLocation, error) {
	if rest == "" {
		return ResolvedLocation{Kind: KindRootListing, Scheme: SchemeLocal}, nil
	}
	if rest == ThisPCName || rest == ThisPCName+"/" {
		return ResolvedLocation{Kind: KindDriveListing, Scheme: SchemeLocal}, nil
	}

	full := Root(SchemeLocal) + rest
	dir := IsDirPath(full)

	// Special folders are matched before the drive pattern: they are
	// top-level shortcuts, not nested under This PC.
	for _, folder := range r.Folders {
		if full == folder.VirtualPrefix || full == folder.VirtualPrefix+"/" {
			return entryLocation(SchemeLocal, folder.RealPath, true, folder.VirtualPrefix), nil
		}
		if strings.HasPrefix(full, folder.VirtualPrefix+"/") {
			segs := Segments(strings.TrimPrefix(full, folder.VirtualPrefix+"/"))
			real := filepath.Join(append([]string{folder.RealPath}, segs...)...)
			return entryLocation(SchemeLocal, real, dir || len(segs) == 0, full), nil
		}
	}

	if strings.HasPrefix(full, ThisPCPath) {
		segs := Segments(strings.TrimPrefix(full, ThisPCPath))
		if len(segs) == 0 {
			return ResolvedLocation{Kind: KindDriveListing, Scheme: SchemeLocal}, nil
		}
		label := segs[0]
		root, ok := r.Aliases.Lookup(label)
		if !ok {
			letter, derived := driveLetterFromLabel(label)
			if !derived {
				return ResolvedLocation{}, &Error{Op: OpResolve, Path: virtualPath, Err: ErrUnknownDrive}
			}
			root = r.DriveRoot(letter)
			r.Aliases.Put(label, root)
			r.log.Debugw("derived drive alias", "label", label, "root", root)
		}
		real := filepath.Join(append([]string{root}, segs[1:]...)...)
		return entryLocation(SchemeLocal, real, dir || len(segs) == 1, full), nil
	}

	return ResolvedLocation{}, &Error{Op: OpResolve, Path: virtualPath, Err: ErrInvalidPath}
}

func (r *Resolver) resolveCloud(scheme Scheme, virtualPath, rest string) (ResolvedLocation, error) {
	mount, ok := r.Clouds[scheme]
	if !ok {
		return ResolvedLocation{}, &Error{Op: OpResolve, Path: virtualPath, Err: ErrInvalidPath}
	}
	segs := Segments(rest)
	real := filepath.Join(append([]string{mount.Root}, segs...)...)
	isDir := IsDirPath(rest) || len(segs) == 0
	return entryLocation(scheme, real, isDir, Root(scheme)+rest), nil
}

func (r *Resolver) resolveCombined(virtualPath, rest string) (ResolvedLocation, error) {
	if rest == "" {
		return ResolvedLocation{Kind: KindRootListing, Scheme: SchemeCombined}, nil
	}
	segs := Segments(rest)
	if len(segs) == 0 {
		return ResolvedLocation{Kind: KindRootListing, Scheme: SchemeCombined}, nil
	}
	for scheme, mount := range r.Clouds {
		if segs[0] != mount.Name {
			continue
		}
		real := filepath.Join(append([]string{mount.Root}, segs[1:]...)...)
		isDir := IsDirPath(rest) || len(segs) == 1
		loc := entryLocation(scheme, real, isDir, Root(SchemeCombined)+rest)
		return loc, nil
	}
	return ResolvedLocation{}, &Error{Op: OpResolve, Path: virtualPath, Err: ErrInvalidPath}
}

// RealPath resolves a virtual path to the real entry backing it. Listing
// containers (scheme roots, This PC) have no backing path and fail with
// ErrUnsupportedSource.
func (r *Resolver) RealPath(virtualPath string) (string, error) {
	loc, err := r.Resolve(virtualPath)
	if err != nil {
		return "", err
	}
	if loc.Kind != KindEntry {
		return "", &Error{Op: OpResolve, Path: virtualPath, Err: ErrUnsupportedSource}
	}
	return loc.RealPath, nil
}

// RealDir is RealPath restricted to directories that exist on disk.
func (r *Resolver) RealDir(virtualPath string) (string, error) {
	real, err := r.RealPath(virtualPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &Error{Op: OpResolve, Path: virtualPath, Err: ErrNotDirectory}
	}
	return real, nil
}

func entryLocation(scheme Scheme, realPath string, isDir bool, virtualBase string) ResolvedLocation {
	if isDir && !strings.HasSuffix(virtualBase, "/") {
		virtualBase += "/"
	}
	return ResolvedLocation{
		Kind:        KindEntry,
		Scheme:      scheme,
		RealPath:    realPath,
		IsDir:       isDir,
		VirtualBase: virtualBase,
	}
}

var driveLetterRE = regexp.MustCompile(`\(([A-Za-z]):\)$`)

func driveLetterFromLabel(label string) (string, bool) {
	m := driveLetterRE.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
