package terminal

import "io"

// Provider opens shells rooted at a real working directory.
type Provider interface {
	NewShell(cwd string) (Shell, error)
}

// Shell is one interactive session. Reads return terminal output, writes
// feed keystrokes.
type Shell interface {
	io.ReadWriteCloser
	Resize(rows, cols int) error
}

// DirResolver maps a virtual path to the real directory backing it.
// *vfs.Resolver satisfies it.
type DirResolver interface {
	RealDir(virtualPath string) (string, error)
}
