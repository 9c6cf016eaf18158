//go:build linux

package tree

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func lstat(path string) (meta FileMeta, err error) {
	var st unix.Stat_t
	err = unix.Lstat(path, &st)
	if err != nil {
		return meta, errors.Wrapf(err, "lstat %s", path)
	}
	meta = FileMeta{
		Name:  filepath.Base(path),
		Mode:  fileMode(uint32(st.Mode)),
		Owner: st.Uid,
		Group: st.Gid,
		Mtime: time.Unix(st.Mtim.Unix()),
		Ctime: time.Unix(st.Ctim.Unix()),
		Atime: time.Unix(st.Atim.Unix()),
		Size:  st.Size,
	}
	return
}

// fileMode converts st_mode bits to an os.FileMode.
func fileMode(m uint32) os.FileMode {
	mode := os.FileMode(m & 0777)
	switch m & unix.S_IFMT {
	case unix.S_IFDIR:
		mode |= os.ModeDir
	case unix.S_IFLNK:
		mode |= os.ModeSymlink
	case unix.S_IFCHR:
		mode |= os.ModeDevice | os.ModeCharDevice
	case unix.S_IFBLK:
		mode |= os.ModeDevice
	case unix.S_IFIFO:
		mode |= os.ModeNamedPipe
	case unix.S_IFSOCK:
		mode |= os.ModeSocket
	}
	if m&unix.S_ISUID != 0 {
		mode |= os.ModeSetuid
	}
	if m&unix.S_ISGID != 0 {
		mode |= os.ModeSetgid
	}
	if m&unix.S_ISVTX != 0 {
		mode |= os.ModeSticky
	}
	return mode
}
