// Package mmap maps index files read-only so they can be decoded without
// copying them through a read buffer first.
//
//	m, err := mmap.Open("index.dat")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers must
// not touch slices returned by Bytes after Close returns.
package mmap
