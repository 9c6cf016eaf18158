package tree

import (
	"bytes"
	"io"
	"os"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	"github.com/vmihailenco/msgpack"
)

const treeVersion = 1

type treeRecord struct {
	Version int        `msgpack:"version"`
	Root    *dirRecord `msgpack:"root"`
}

type dirRecord struct {
	Name  string        `msgpack:"name"`
	Dirs  []*dirRecord  `msgpack:"dirs"`
	Files []*FileRecord `msgpack:"files"`
}

func dumpDir(dir *Directory) *dirRecord {
	rec := &dirRecord{Name: dir.name}
	dirs, files := dir.Entries()
	for _, sub := range dirs {
		rec.Dirs = append(rec.Dirs, dumpDir(sub))
	}
	for _, f := range files {
		rec.Files = append(rec.Files, f.Dump())
	}
	return rec
}

func loadDir(rec *dirRecord) (dir *Directory, err error) {
	if rec == nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "missing directory record")
	}
	dir = NewDirectory(rec.Name)
	for _, subrec := range rec.Dirs {
		sub, err := loadDir(subrec)
		if err != nil {
			return nil, err
		}
		err = dir.Create(sub)
		if err != nil {
			return nil, err
		}
	}
	for _, frec := range rec.Files {
		if frec == nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "%s: missing file record", rec.Name)
		}
		f, err := LoadFile(frec)
		if err != nil {
			return nil, err
		}
		err = dir.Create(f)
		if err != nil {
			return nil, err
		}
	}
	return
}

// Save writes the tree rooted at dir to w.
func Save(w io.Writer, dir *Directory) error {
	return msgpack.NewEncoder(w).Encode(&treeRecord{Version: treeVersion, Root: dumpDir(dir)})
}

// Load reads a tree written by Save.  The root is unattached.
func Load(r io.Reader) (dir *Directory, err error) {
	rec := &treeRecord{}
	err = msgpack.NewDecoder(r).Decode(rec)
	if err != nil {
		return nil, errors.Wrap(err, "decoding tree")
	}
	if rec.Version != treeVersion {
		return nil, errors.Wrapf(ErrInvalidArgument, "tree version %d", rec.Version)
	}
	return loadDir(rec.Root)
}

// WriteFile saves the tree rooted at dir to path, replacing any
// previous content atomically.
func WriteFile(path string, dir *Directory) (err error) {
	defer Return(&err)
	var buf bytes.Buffer
	err = Save(&buf, dir)
	Ck(err)
	err = renameio.WriteFile(path, buf.Bytes(), 0644)
	Ck(err)
	log.Debugf("saved tree %s to %s (%d bytes)", dir.name, path, buf.Len())
	return
}

// ReadFile loads a tree saved by WriteFile.
func ReadFile(path string) (dir *Directory, err error) {
	fh, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "no saved tree: %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Load(fh)
}
