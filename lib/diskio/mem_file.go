// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package diskio

import (
	"fmt"
	"sync"
)

// MemFile is a File[int64] backed by an in-process byte slice. It
// stands in for any backing store that isn't a real on-disk file,
// namely the host and simulated-device buffers that lib/ddev hands
// out.
type MemFile struct {
	name string

	mu   sync.RWMutex
	data []byte
}

var _ File[int64] = (*MemFile)(nil)

// NewMemFile allocates a zero-filled MemFile of the given size.
func NewMemFile(name string, size int64) *MemFile {
	return &MemFile{name: name, data: make([]byte, size)}
}

// WrapMemFile builds a MemFile directly over an existing byte slice
// (e.g. one reused from a pool), rather than allocating a fresh one.
func WrapMemFile(name string, data []byte) *MemFile {
	return &MemFile{name: name, data: data}
}

func (f *MemFile) Name() string { return f.name }

func (f *MemFile) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.data))
}

func (f *MemFile) Close() error { return nil }

func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if off < 0 || off > int64(len(f.data)) {
		return 0, fmt.Errorf("diskio: ReadAt offset %d out of range [0,%d]", off, len(f.data))
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, fmt.Errorf("diskio: short read at offset %d", off)
	}
	return n, nil
}

func (f *MemFile) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off < 0 || off > int64(len(f.data)) {
		return 0, fmt.Errorf("diskio: WriteAt offset %d out of range [0,%d]", off, len(f.data))
	}
	if need := off + int64(len(p)); need > int64(len(f.data)) {
		return 0, fmt.Errorf("diskio: WriteAt [%d,%d) exceeds backing size %d", off, need, len(f.data))
	}
	n := copy(f.data[off:], p)
	return n, nil
}

// Bytes returns the live backing slice directly, for callers (ddev's
// CPU-path memcpy) that can avoid a ReadAt/WriteAt copy.
func (f *MemFile) Bytes() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data
}
