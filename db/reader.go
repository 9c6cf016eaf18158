package db

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ChunkIter yields the chunks named by a bitmap, in order.  Each call
// to Store.Chunks returns a fresh iterator; an iterator is single-pass.
type ChunkIter struct {
	store *Store
	bm    *Bitmap
	pos   int
	chunk []byte
	err   error
}

// Chunks returns an iterator over the chunk contents of bm.
func (s *Store) Chunks(bm *Bitmap) *ChunkIter {
	return &ChunkIter{store: s, bm: bm}
}

// Next loads the next chunk.  It returns false when the bitmap is
// exhausted or a chunk could not be read; check Err afterwards.
func (it *ChunkIter) Next() bool {
	if it.err != nil || it.pos >= it.bm.Len() {
		it.chunk = nil
		return false
	}
	it.chunk, it.err = it.store.getChunk(it.bm.At(it.pos), it.bm.Algo)
	if it.err != nil {
		it.chunk = nil
		return false
	}
	it.pos++
	return true
}

// Chunk returns the chunk loaded by the last call to Next.
func (it *ChunkIter) Chunk() []byte {
	return it.chunk
}

func (it *ChunkIter) Err() error {
	return it.err
}

// Reader returns an io.Reader over the reconstructed content of bm.
func (s *Store) Reader(bm *Bitmap) io.Reader {
	return &chunkReader{it: s.Chunks(bm)}
}

type chunkReader struct {
	it  *ChunkIter
	buf []byte
}

// Read fills p from the current chunk, advancing to the next chunk when
// the current one is used up.
func (r *chunkReader) Read(p []byte) (n int, err error) {
	for len(r.buf) == 0 {
		if !r.it.Next() {
			if r.it.Err() != nil {
				return 0, r.it.Err()
			}
			log.Debugf("chunkReader.Read() returning 0, io.EOF")
			return 0, io.EOF
		}
		r.buf = r.it.Chunk()
	}
	n = copy(p, r.buf)
	r.buf = r.buf[n:]
	return
}

// ReadAt reads len(p) bytes of bm's content starting at byte off.  The
// fixed chunk size lets us go straight to the chunk holding off.  As
// with io.ReaderAt, a short read returns io.EOF.
func (s *Store) ReadAt(bm *Bitmap, p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errors.Wrapf(ErrInvalidArgument, "negative offset %d", off)
	}
	if bm.ChunkSize > 0 {
		i := int(off / bm.ChunkSize)
		skip := off % bm.ChunkSize
		for n < len(p) && i < bm.Len() {
			chunk, err := s.getChunk(bm.At(i), bm.Algo)
			if err != nil {
				return n, err
			}
			if skip >= int64(len(chunk)) {
				break
			}
			n += copy(p[n:], chunk[skip:])
			skip = 0
			i++
		}
	}
	if n < len(p) {
		err = io.EOF
	}
	return
}
