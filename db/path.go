package db

import (
	"path/filepath"
)

// Path locates a chunk in the store.  We use the full hex digest as the
// last component of the path in order to make troubleshooting with UNIX
// tools slightly easier (in contrast to the way git truncates the
// leading subdir parts of the hash).
type Path struct {
	Store *Store
	Hash  string // hex digest
	Rel   string // relative to Store.Dir, including subdirs
	Abs   string // absolute
}

// New fills in path for digest.  The caller makes sure the digest is at
// least Depth bytes long.
func (path Path) New(store *Store, digest Digest) *Path {
	path.Store = store
	path.Hash = digest.Hex()
	var subpath string
	for i := 0; i < store.depth(); i++ {
		subdir := path.Hash[(2 * i):((2 * i) + 2)]
		subpath = filepath.Join(subpath, subdir)
	}
	path.Rel = filepath.Join(subpath, path.Hash)
	path.Abs = filepath.Join(store.Dir, path.Rel)
	return &path
}

// Dir returns the absolute shard directory holding the chunk.
func (path *Path) Dir() string {
	return filepath.Dir(path.Abs)
}
