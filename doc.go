/*

Syncfs is a deduplicating, content-addressable store for filesystem
trees.  Files are sliced into fixed-size chunks, every unique chunk is
stored once under its digest, and each file is described by the ordered
list of its chunk digests.  An in-memory tree mirrors the scanned
directory hierarchy so it can be listed, verified, saved, or mounted.

Packages:

- db: chunk store, digest algorithms, bitmaps, and the chunk size policy
- tree: files, directories, breadth-first walk, scanner, persistence,
  verification, and change watching
- fuse: read-only FUSE view of a scanned tree
- cmd/sfs: command line interface

Vocabulary:

- chunk: contiguous byte range of a file; deduplication atom; stored as file
- digest: hash of a chunk's bytes; its address in the store
- bitmap: ordered digests of a file's chunks, plus chunk size and algo
- store root: directory holding the chunk shards, config.json, and the
  saved tree
- scan: building a tree from a directory on disk, storing every file

*/

package syncfs
