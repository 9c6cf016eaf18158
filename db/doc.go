/*

Package db is a content-addressable deduplicating chunk store.  Files
are sliced into fixed-size chunks, each chunk is hashed, and each
unique chunk is stored once in a file named after its digest.  The
ordered list of digests for a file is its bitmap.

Vocabulary:

- digest: binary output of the store's hash algorithm for one chunk
- algo: short tag naming the hash algorithm ("sha1", "sha256", ...)
- chunk: contiguous byte range of a file; deduplication atom; stored as file
- chunk size: length of every chunk of a file except possibly the last;
	picked from the file size by ChunkSize
- bitmap: ordered digests of a file's chunks, plus algo and chunk size
- abspath: absolute path on hard disk, including subdirs
- relpath: path relative to Store.Dir, including subdirs
- subdir: two-character hexadecimal segment of a digest
- subdirs: Depth subdir segments inserted in abspath or relpath in
	order to keep directory sizes small; a digest h is stored at
	h[0:2]/h[2:4]/h with the default depth of 2

*/

package db
