// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with cursor, positional, and sync access
//   - [FileSystem]: open, remove, rename, stat, mkdir
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects write, sync, and close failures
//
// # Usage
//
// Production code uses fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests inject [FaultyFS] to simulate a full disk:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.SetLimit(1024) // fail after 1KB written
//	store, _ := vectorstore.Open(path, vectorstore.WithFileSystem(ffs))
//
// Operations take no context.Context: local file I/O is not interruptible at the
// syscall level. Remote artifacts go through the blobstore package instead.
package fs
