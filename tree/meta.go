package tree

import (
	"os"
	"time"
)

// FileMeta is the stat data recorded for a file.  ChunkSize is the
// chunk size of the file's bitmap.
type FileMeta struct {
	Name      string      `msgpack:"name"`
	Mode      os.FileMode `msgpack:"mode"`
	Owner     uint32      `msgpack:"owner"`
	Group     uint32      `msgpack:"group"`
	Mtime     time.Time   `msgpack:"mtime"`
	Ctime     time.Time   `msgpack:"ctime"`
	Atime     time.Time   `msgpack:"atime"`
	Size      int64       `msgpack:"size"`
	ChunkSize int64       `msgpack:"chunk_size"`
}

// Equal compares every field; times are compared with time.Time.Equal
// so that location and monotonic clock readings don't matter.
func (m FileMeta) Equal(other FileMeta) bool {
	return m.Name == other.Name &&
		m.Mode == other.Mode &&
		m.Owner == other.Owner &&
		m.Group == other.Group &&
		m.Mtime.Equal(other.Mtime) &&
		m.Ctime.Equal(other.Ctime) &&
		m.Atime.Equal(other.Atime) &&
		m.Size == other.Size &&
		m.ChunkSize == other.ChunkSize
}

// Lstat reads the metadata of path without following a final symlink.
// ChunkSize is left zero.
func Lstat(path string) (meta FileMeta, err error) {
	return lstat(path)
}
