//go:build !linux

package tree

import (
	"os"

	"github.com/pkg/errors"
)

// Without st_uid and friends we record owner and group as 0 and use
// the modification time for all three timestamps.
func lstat(path string) (meta FileMeta, err error) {
	info, err := os.Lstat(path)
	if err != nil {
		return meta, errors.Wrapf(err, "lstat %s", path)
	}
	meta = FileMeta{
		Name:  info.Name(),
		Mode:  info.Mode(),
		Mtime: info.ModTime(),
		Ctime: info.ModTime(),
		Atime: info.ModTime(),
		Size:  info.Size(),
	}
	return
}
