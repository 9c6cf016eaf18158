package db

import (
	"os"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// file modes
const (
	READ  = 0444
	WRITE = 0644
)

// writeOnce publishes buf as the chunk file at path.  The data goes to
// a temporary file in the shard directory which is then renamed over
// path.Abs, so a concurrent reader sees either no chunk or the whole
// chunk, never a partial one.  Chunk files are read-only once written.
func (s *Store) writeOnce(path *Path, buf []byte) (err error) {
	defer Return(&err)

	pf, err := renameio.TempFile(path.Dir(), path.Abs)
	Ck(err)
	defer pf.Cleanup()

	n, err := pf.Write(buf)
	Ck(err)
	Assert(n == len(buf))

	err = pf.Chmod(READ)
	Ck(err)

	err = pf.CloseAtomicallyReplace()
	Ck(err)

	log.Debugf("wrote chunk %s (%d bytes)", path.Rel, len(buf))
	return
}

func canstat(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isdir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func mkdir(dir string) (err error) {
	if _, err = os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return
		}
	}
	return
}
