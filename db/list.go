package db

import (
	"encoding/hex"
	"io/fs"
	"path/filepath"
	"strings"

	. "github.com/stevegt/goadapt"
)

// Stats summarizes store contents.
type Stats struct {
	Chunks int   // number of stored chunks
	Bytes  int64 // total size of stored chunks
}

// Digests returns the digests of every stored chunk, in path order.
func (s *Store) Digests() (digests []Digest, err error) {
	err = s.walkChunks(func(path string, d fs.DirEntry, digest Digest) error {
		digests = append(digests, digest)
		return nil
	})
	return
}

// Stats counts the stored chunks and their bytes.
func (s *Store) Stats() (stats Stats, err error) {
	err = s.walkChunks(func(path string, d fs.DirEntry, digest Digest) (err error) {
		defer Return(&err)
		info, err := d.Info()
		Ck(err)
		stats.Chunks++
		stats.Bytes += info.Size()
		return
	})
	return
}

// walkChunks calls fn for each chunk file.  Anything that is not a hex
// name at chunk depth (config, saved trees, temporary files) is
// skipped.
func (s *Store) walkChunks(fn func(path string, d fs.DirEntry, digest Digest) error) error {
	depth := s.depth()
	return filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.Dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if d.IsDir() {
			// only descend into shard dirs
			if len(parts) > depth || !isShard(parts[len(parts)-1]) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(parts) != depth+1 || !d.Type().IsRegular() {
			return nil
		}
		name := parts[depth]
		digest, err := hex.DecodeString(name)
		if err != nil || !strings.HasPrefix(name, strings.Join(parts[:depth], "")) {
			return nil
		}
		return fn(path, d, Digest(digest))
	})
}

func isShard(name string) bool {
	if len(name) != 2 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}
