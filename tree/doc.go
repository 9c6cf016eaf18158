/*

Package tree mirrors a POSIX directory hierarchy in memory.  Each File
carries its metadata and the bitmap that reconstructs its content from
a db.Store; each Directory holds uniquely named entries.  Scan builds a
tree from disk, Walk visits it breadth-first, and Save/Load persist it.

A node is attached to at most one Directory at a time.  The tree is not
safe for concurrent mutation.

*/

package tree
