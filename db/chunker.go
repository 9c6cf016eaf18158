package db

import (
	"math/bits"
)

const (
	kiB = 1024
	miB = 1024 * kiB

	// MinChunkSize is the smallest chunk size ChunkSize picks for a
	// non-empty file.
	MinChunkSize = 4 * kiB
	// MaxChunkSize is the largest chunk size ChunkSize picks.
	MaxChunkSize = 128 * kiB
)

// ChunkSize maps a file size to the chunk size used to slice it.  The
// size grows as 2^floor(0.8*floor(log2(size))), clamped to
// [MinChunkSize, MaxChunkSize], so small files get small chunks and
// large files settle on MaxChunkSize.  Empty files have no chunks and
// get 0.
//
// Chunk boundaries depend on size alone, never on content, so an
// insertion near the start of a file shifts every later chunk.
func ChunkSize(size int64) int64 {
	if size <= 0 {
		return 0
	}
	exp := bits.Len64(uint64(size)) - 1
	n := int64(1) << uint(exp*4/5)
	if n < MinChunkSize {
		n = MinChunkSize
	}
	if n > MaxChunkSize {
		n = MaxChunkSize
	}
	return n
}
