package db

import (
	"bytes"
)

// Bitmap is the ordered list of chunk digests for one file, along with
// the algorithm that produced them and the chunk size used to slice the
// file.  Reading the chunks in order reproduces the file; every chunk
// is ChunkSize bytes long except the last, which may be shorter.  A
// ChunkSize of 0 is reserved for empty files, which have no chunks.
type Bitmap struct {
	Algo      Algo
	ChunkSize int64
	digests   []Digest
}

func NewBitmap(algo Algo, chunkSize int64, digests ...Digest) *Bitmap {
	if algo == 0 {
		algo = DefaultAlgo
	}
	bm := &Bitmap{Algo: algo, ChunkSize: chunkSize}
	for _, d := range digests {
		bm.Append(d)
	}
	return bm
}

// AddChunk hashes buf, appends the digest, and returns it.
func (bm *Bitmap) AddChunk(buf []byte) Digest {
	digest := bm.Algo.Sum(buf)
	bm.digests = append(bm.digests, digest)
	return digest
}

// Append adds a precomputed digest.
func (bm *Bitmap) Append(d Digest) {
	bm.digests = append(bm.digests, append(Digest(nil), d...))
}

func (bm *Bitmap) Len() int {
	return len(bm.digests)
}

// At returns the i'th digest.  The result must not be modified.
func (bm *Bitmap) At(i int) Digest {
	return bm.digests[i]
}

// Digests returns a copy of the digest list.
func (bm *Bitmap) Digests() []Digest {
	out := make([]Digest, len(bm.digests))
	copy(out, bm.digests)
	return out
}

// Tag returns the algorithm tag, e.g. "sha1".
func (bm *Bitmap) Tag() string {
	return bm.Algo.Tag()
}

func (bm *Bitmap) Equal(other *Bitmap) bool {
	if bm == nil || other == nil {
		return bm == other
	}
	if bm.Algo != other.Algo || bm.ChunkSize != other.ChunkSize || len(bm.digests) != len(other.digests) {
		return false
	}
	for i, d := range bm.digests {
		if !bytes.Equal(d, other.digests[i]) {
			return false
		}
	}
	return true
}

// NumChunks returns how many chunks a file of the given size has when
// sliced into chunkSize pieces.
func NumChunks(size, chunkSize int64) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}
