package db

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

const (
	configName = "config.json"
	defDepth   = 2
)

// Store is a content-addressed chunk store rooted at Dir.  Depth is the
// number of subdirectory levels between Dir and a chunk file.  We use
// two-character hexadecimal names for the subdirectories, giving us a
// maximum of 256 subdirs in a parent dir and 65,536 leaf dirs at the
// default depth of 2.
//
// A Store with only Dir set is usable; the other fields then take their
// defaults.  Create and Open persist and load the fields in
// Dir/config.json.
type Store struct {
	Dir       string `json:"-"`
	Algo      Algo   `json:"algo"`       // digest algorithm for new bitmaps
	Depth     int    `json:"depth"`      // number of subdir levels
	Verify    bool   `json:"verify"`     // re-hash chunks on read and before trusting an existing chunk
	CacheSize int    `json:"cache_size"` // number of chunks kept by the read cache; 0 disables it

	cache *lru.Cache[string, []byte]
}

// Create initializes a store directory and its config.
func (s Store) Create() (out *Store, err error) {
	defer Return(&err)

	dir := s.Dir

	// if directory exists, make sure it's empty
	if canstat(dir) {
		entries, err := os.ReadDir(dir)
		Ck(err)
		if len(entries) > 0 {
			return nil, &ExistsError{Dir: dir}
		}
	}

	if s.Algo == 0 {
		s.Algo = DefaultAlgo
	}
	if s.Depth < 1 {
		s.Depth = defDepth
	}
	if !s.Algo.Valid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "digest algorithm %d", s.Algo)
	}

	err = mkdir(dir)
	Ck(err)

	buf, err := json.MarshalIndent(s, "", "  ")
	Ck(err)
	err = renameio.WriteFile(filepath.Join(dir, configName), append(buf, '\n'), WRITE)
	Ck(err)

	return Open(dir)
}

// Open loads an existing store from dir.
func Open(dir string) (s *Store, err error) {
	dir = filepath.Clean(dir)

	if !isdir(dir) {
		return nil, errors.Wrapf(ErrConfig, "cannot open: %s", dir)
	}

	buf, err := os.ReadFile(filepath.Join(dir, configName))
	if err != nil {
		return nil, &NotStoreError{Dir: dir}
	}
	s = &Store{}
	err = json.Unmarshal(buf, s)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filepath.Join(dir, configName))
	}
	s.Dir = dir

	if s.CacheSize > 0 {
		s.cache, err = lru.New[string, []byte](s.CacheSize)
		if err != nil {
			return nil, err
		}
	}
	return
}

func (s *Store) algo() Algo {
	if s.Algo == 0 {
		return DefaultAlgo
	}
	return s.Algo
}

func (s *Store) depth() int {
	if s.Depth < 1 {
		return defDepth
	}
	return s.Depth
}

// PutFile reads the file at path in chunks, stores each chunk, and
// returns the file's bitmap.  The chunk size is picked by ChunkSize
// unless the caller passes one.
func (s *Store) PutFile(path string, chunkSize ...int64) (bm *Bitmap, err error) {
	defer Return(&err)
	Assert(len(chunkSize) < 2)

	fh, err := os.Open(path)
	Ck(err)
	defer fh.Close()

	var size int64
	if len(chunkSize) > 0 {
		size = chunkSize[0]
	} else {
		info, err := fh.Stat()
		Ck(err)
		size = ChunkSize(info.Size())
	}
	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "chunk size %d", size)
	}

	bm = NewBitmap(s.algo(), size)
	if size == 0 {
		// only an empty file can have chunk size 0
		var probe [1]byte
		n, err := fh.Read(probe[:])
		if n > 0 {
			return nil, errors.Wrapf(ErrInvalidArgument, "chunk size 0 for non-empty file %s", path)
		}
		if errors.Cause(err) != io.EOF {
			Ck(err)
		}
		return bm, nil
	}

	buf := make([]byte, size)
	for {
		n, err := io.ReadFull(fh, buf)
		if n > 0 {
			digest := bm.AddChunk(buf[:n])
			err := s.PutChunk(buf[:n], digest)
			Ck(err)
		}
		cause := errors.Cause(err)
		if cause == io.EOF || cause == io.ErrUnexpectedEOF {
			break
		}
		Ck(err)
	}
	log.Debugf("stored %s: %d chunks of %d bytes", path, bm.Len(), size)

	return bm, nil
}

// PutChunk stores buf under digest unless a chunk with that digest is
// already there.  Storing the same chunk again is a no-op, so PutChunk
// is safe to call repeatedly and from concurrent goroutines.
func (s *Store) PutChunk(buf []byte, digest Digest) (err error) {
	if !isdir(s.Dir) {
		return errors.Wrapf(ErrConfig, "no such directory: %q", s.Dir)
	}

	path, err := s.ChunkPath(digest, true)
	if err != nil {
		return
	}

	if canstat(path.Abs) {
		if !s.Verify {
			log.Debugf("dedup %s", path.Rel)
			return nil
		}
		ok, err := s.verifyChunk(path, digest, s.algosFor(digest)...)
		if err != nil {
			return err
		}
		if ok {
			log.Debugf("dedup %s", path.Rel)
			return nil
		}
		log.Warnf("replacing corrupt chunk %s", path.Rel)
		if s.cache != nil {
			s.cache.Remove(path.Hash)
		}
	}

	return s.writeOnce(path, buf)
}

// ChunkPath maps digest to its location in the store.  With mkdirs
// set, the shard directories are created; a directory that already
// exists (perhaps created by a concurrent writer) is fine.
func (s *Store) ChunkPath(digest Digest, mkdirs bool) (path *Path, err error) {
	if len(digest) < s.depth() {
		return nil, errors.Wrapf(ErrInvalidArgument, "digest %q too short for depth %d", digest.Hex(), s.depth())
	}
	path = Path{}.New(s, digest)
	if mkdirs {
		err = os.MkdirAll(path.Dir(), 0755)
		if err != nil {
			return nil, errors.Wrapf(err, "creating shard dir for %s", path.Hash)
		}
	}
	return
}

// GetChunk retrieves an entire chunk by reading its file contents.  The
// returned slice may be shared with the read cache and must not be
// modified.
func (s *Store) GetChunk(digest Digest) (buf []byte, err error) {
	return s.getChunk(digest, s.algosFor(digest)...)
}

// getChunk reads digest and, with Verify set, checks it against algos.
func (s *Store) getChunk(digest Digest, algos ...Algo) (buf []byte, err error) {
	path, err := s.ChunkPath(digest, false)
	if err != nil {
		return
	}

	if s.cache != nil {
		if buf, ok := s.cache.Get(path.Hash); ok {
			return buf, nil
		}
	}

	buf, err = os.ReadFile(path.Abs)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "chunk %s", path.Hash)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading chunk %s", path.Rel)
	}

	if s.Verify && !matches(buf, digest, algos) {
		return nil, errors.Wrapf(ErrCorrupt, "chunk %s", path.Hash)
	}

	if s.cache != nil {
		s.cache.Add(path.Hash, buf)
	}
	return buf, nil
}

// Has reports whether a chunk with digest is stored.
func (s *Store) Has(digest Digest) (ok bool, err error) {
	path, err := s.ChunkPath(digest, false)
	if err != nil {
		return
	}
	return canstat(path.Abs), nil
}

// algosFor lists the algorithms that could have produced digest: the
// store's own first, then every other one with the same digest length.
// SHA256 and BLAKE3 digests are both 32 bytes, so a bare digest does not
// always name its algorithm.
func (s *Store) algosFor(digest Digest) (algos []Algo) {
	algo := s.algo()
	if algo.Size() == len(digest) {
		algos = append(algos, algo)
	}
	for i, info := range algoTable {
		if Algo(i) != algo && info.tag != "" && info.size == len(digest) {
			algos = append(algos, Algo(i))
		}
	}
	return
}

// matches reports whether buf hashes to digest under any of algos.
func matches(buf []byte, digest Digest, algos []Algo) bool {
	for _, algo := range algos {
		if bytes.Equal(algo.Sum(buf), digest) {
			return true
		}
	}
	return false
}

func (s *Store) verifyChunk(path *Path, digest Digest, algos ...Algo) (ok bool, err error) {
	buf, err := os.ReadFile(path.Abs)
	if err != nil {
		return false, errors.Wrapf(err, "reading chunk %s", path.Rel)
	}
	return matches(buf, digest, algos), nil
}
