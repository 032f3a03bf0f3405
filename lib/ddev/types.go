// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package ddev implements the backend dispatch layer: memory allocation,
// event lifecycle, and pack/unpack kernels, for each device kind the
// engine (lib/dpack) may target.
package ddev

import (
	"github.com/tinypack/ddt/lib/diskio"
)

// MemKind classifies which address space a Pointer lives in.
type MemKind int

const (
	Host MemKind = iota
	Device
)

func (k MemKind) String() string {
	if k == Device {
		return "device"
	}
	return "host"
}

// Buffer is a backend-allocated region of memory. The CPU backend's
// buffers and the Sim backend's "device" buffers are both, under the
// hood, a diskio.MemFile: this package does not talk to real GPU
// memory, it simulates device placement and asynchrony over ordinary
// host RAM. See DESIGN.md for why that's the right fidelity here.
type Buffer struct {
	Kind     MemKind
	DeviceID int
	file     *diskio.MemFile
}

// Pointer addresses a byte offset within a Buffer, the unit every
// backend operation reads or writes against.
type Pointer struct {
	Buf    *Buffer
	Offset int64
}

func (p Pointer) add(delta int64) Pointer {
	return Pointer{Buf: p.Buf, Offset: p.Offset + delta}
}

// ReadAt/WriteAt let callers outside this package (tests, cmd/ddtbench)
// populate and inspect buffers without reaching into Buffer's fields.

func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	return b.file.ReadAt(p, off)
}

func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	return b.file.WriteAt(p, off)
}

func (b *Buffer) Size() int64 { return b.file.Size() }

// bytes exposes the live backing slice for the in-package memcpy-style
// pack/unpack kernels; never handed outside this package.
func (b *Buffer) bytes() []byte { return b.file.Bytes() }

// WrapHostBuffer builds a host Buffer directly over an existing byte
// slice (typically one borrowed from a containers.SlicePool[byte]),
// for callers staging a cross-device transfer without allocating a
// fresh backing array per request.
func WrapHostBuffer(name string, data []byte) *Buffer {
	return &Buffer{Kind: Host, file: diskio.WrapMemFile(name, data)}
}
