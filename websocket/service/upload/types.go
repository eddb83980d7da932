package upload

import (
	"hash"
	"os"
	"sync"
)

// PathResolver maps a virtual directory to the real path that will receive
// the upload. *vfs.Resolver satisfies it.
type PathResolver interface {
	RealPath(virtualPath string) (string, error)
}

type jsonWriter interface {
	WriteJSON(v any) error
}

// uploadSession is one in-flight file transfer, keyed by message id.
type uploadSession struct {
	virtualDir string
	dir        string
	name       string
	partPath   string
	declared   int64

	mu       sync.Mutex
	file     *os.File
	hasher   hash.Hash
	received int64
}

type chunkMeta struct {
	id       string
	progress int64
}
