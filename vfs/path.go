// Package vfs maps the scheme-prefixed virtual path space presented to the
// UI onto real filesystem paths, and performs listings and file operations
// against the resolved locations.
package vfs

import "strings"

// Scheme identifies the namespace a virtual path belongs to. The set is
// closed: ParsePath rejects anything else and the resolver switches over it
// exhaustively, so adding a scheme is a compile-time visible change.
type Scheme string

const (
	SchemeLocal    Scheme = "local"
	SchemeGDrive   Scheme = "gdrive"
	SchemeDropbox  Scheme = "dropbox"
	SchemeOneDrive Scheme = "onedrive"
	SchemeCombined Scheme = "combined"
)

// Schemes lists every supported scheme in declaration order.
var Schemes = []Scheme{SchemeLocal, SchemeGDrive, SchemeDropbox, SchemeOneDrive, SchemeCombined}

func (s Scheme) String() string {
	return string(s)
}

const schemeSuffix = "://"

// ParsePath splits a virtual path into its scheme and the remainder after
// "://". Backslashes are normalized to forward slashes first, so paths
// pasted from Windows UIs resolve the same as native ones.
func ParsePath(virtualPath string) (Scheme, string, error) {
	normalized := strings.ReplaceAll(virtualPath, `\`, "/")
	idx := strings.Index(normalized, schemeSuffix)
	if idx < 0 {
		return "", "", &Error{Op: OpResolve, Path: virtualPath, Err: ErrInvalidPath}
	}
	scheme := Scheme(normalized[:idx])
	switch scheme {
	case SchemeLocal, SchemeGDrive, SchemeDropbox, SchemeOneDrive, SchemeCombined:
	default:
		return "", "", &Error{Op: OpResolve, Path: virtualPath, Err: ErrInvalidPath}
	}
	return scheme, normalized[idx+len(schemeSuffix):], nil
}

// IsDirPath reports whether the virtual path denotes a directory. Directory
// paths always carry a trailing slash; file paths never do.
func IsDirPath(virtualPath string) bool {
	return strings.HasSuffix(virtualPath, "/")
}

// Segments splits the remainder of a virtual path into its non-empty
// segments. "Desktop/notes/" and "Desktop/notes" both yield two segments.
func Segments(rest string) []string {
	var segs []string
	for _, s := range strings.Split(rest, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Join appends a child name to a directory virtual path, adding the
// trailing slash when the child is itself a directory.
func Join(base, name string, dir bool) string {
	joined := strings.TrimSuffix(base, "/") + "/" + name
	if dir {
		joined += "/"
	}
	return joined
}

// Root returns the root virtual path for a scheme, e.g. "local://".
func Root(scheme Scheme) string {
	return string(scheme) + schemeSuffix
}
