package db

import (
	"os"
	"path/filepath"
	"testing"
)

func benchStore(b *testing.B, s *Store) *Store {
	if s == nil {
		s = &Store{}
	}
	s.Dir = filepath.Join(b.TempDir(), "store")
	s, err := s.Create()
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func BenchmarkPutChunk(b *testing.B) {
	s := benchStore(b, nil)
	for n := 0; n < b.N; n++ {
		val := mkbuf(asString(n))
		err := s.PutChunk(val, SHA256.Sum(val))
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPutChunkSame(b *testing.B) {
	s := benchStore(b, nil)
	val := mkbuf("foo")
	digest := SHA256.Sum(val)
	for n := 0; n < b.N; n++ {
		err := s.PutChunk(val, digest)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPutGetChunk(b *testing.B) {
	s := benchStore(b, nil)
	for n := 0; n < b.N; n++ {
		val := mkbuf(asString(n))
		digest := SHA256.Sum(val)
		err := s.PutChunk(val, digest)
		if err != nil {
			b.Fatal(err)
		}
		_, err = s.GetChunk(digest)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGetChunkCached(b *testing.B) {
	s := benchStore(b, &Store{CacheSize: 128})
	val := randbuf(1, 64*kiB)
	digest := SHA1.Sum(val)
	err := s.PutChunk(val, digest)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(val)))
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_, err = s.GetChunk(digest)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPutFile(b *testing.B) {
	s := benchStore(b, nil)
	val := randbuf(2, 1<<20)
	fn := filepath.Join(b.TempDir(), "f")
	if err := os.WriteFile(fn, val, 0644); err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(val)))
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_, err := s.PutFile(fn)
		if err != nil {
			b.Fatal(err)
		}
	}
}
