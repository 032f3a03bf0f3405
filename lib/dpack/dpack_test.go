// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dpack_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinypack/ddt/lib/ddev"
	"github.com/tinypack/ddt/lib/dpack"
	"github.com/tinypack/ddt/lib/dtype"
)

func newEngine() (*dpack.Engine, *ddev.CPUBackend) {
	cpu := ddev.NewCPUBackend()
	return dpack.NewEngine(cpu, nil), cpu
}

func TestPackSimpleContig(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	engine, cpu := newEngine()

	h, errno := table.Contig(4, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)

	src, _ := cpu.HostAlloc(n.Metrics.Size)
	dst, _ := cpu.HostAlloc(n.Metrics.Size)
	_, _ = src.WriteAt([]byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0}, 0)

	actual, errno := engine.Pack(ddev.Pointer{Buf: src}, 1, n, 0, ddev.Pointer{Buf: dst}, int64(n.Metrics.Size), nil)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, int64(16), actual)

	got := make([]byte, 16)
	_, _ = dst.ReadAt(got, 0)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0}, got)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	engine, cpu := newEngine()

	h, errno := table.HVector(2, 1, 12, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)

	// Source buffer holds 6 densely-packed int32s a..f (24 bytes); the
	// type selects every 3rd one starting from the first: a, d.
	extentBytes := int(n.Metrics.Extent) + 4*4 // room for e, f past the type's own extent
	src, _ := cpu.HostAlloc(extentBytes)
	packed, _ := cpu.HostAlloc(n.Metrics.Size)
	dst, _ := cpu.HostAlloc(extentBytes)

	abcdef := []byte{
		1, 0, 0, 0, // a
		2, 0, 0, 0, // b
		3, 0, 0, 0, // c
		4, 0, 0, 0, // d
		5, 0, 0, 0, // e
		6, 0, 0, 0, // f
	}
	_, _ = src.WriteAt(abcdef, 0)

	actual, errno := engine.Pack(ddev.Pointer{Buf: src}, 1, n, 0, ddev.Pointer{Buf: packed}, int64(n.Metrics.Size), nil)
	require.Equal(t, dtype.Success, errno)

	gotPacked := make([]byte, actual)
	_, _ = packed.ReadAt(gotPacked, 0)
	assert.Equal(t, []byte{1, 0, 0, 0, 4, 0, 0, 0}, gotPacked, "packed stream is bytes of [a, d]")

	actual2, errno := engine.Unpack(ddev.Pointer{Buf: packed}, actual, ddev.Pointer{Buf: dst}, 1, n, 0, nil)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, actual, actual2)

	// Bytes falling within the type's footprint must round-trip
	// exactly (a, d in the HVector-with-stride scenario).
	gotA := make([]byte, 4)
	_, _ = dst.ReadAt(gotA, 0)
	assert.Equal(t, []byte{1, 0, 0, 0}, gotA)

	gotD := make([]byte, 4)
	_, _ = dst.ReadAt(gotD, 12)
	assert.Equal(t, []byte{4, 0, 0, 0}, gotD)
}

func TestStructRoundTrip(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	engine, cpu := newEngine()

	// Two int32 members at displacements 0 and 12, leaving an 8-byte
	// gap (bytes 4..12) that the engine must skip on both pack and
	// unpack.
	h, errno := table.Struct([]int{1, 1}, []int{0, 12}, []dtype.Handle{dtype.Int32, dtype.Int32})
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)
	require.Equal(t, 8, n.Metrics.Size)
	require.Equal(t, 16, n.Metrics.Extent)

	src, _ := cpu.HostAlloc(n.Metrics.Extent)
	packed, _ := cpu.HostAlloc(n.Metrics.Size)
	dst, _ := cpu.HostAlloc(n.Metrics.Extent)

	srcBytes := []byte{
		1, 0, 0, 0, // member 0, offset 0
		9, 9, 9, 9, 9, 9, 9, 9, // gap, must not be packed
		2, 0, 0, 0, // member 1, offset 12
	}
	_, _ = src.WriteAt(srcBytes, 0)

	actual, errno := engine.Pack(ddev.Pointer{Buf: src}, 1, n, 0, ddev.Pointer{Buf: packed}, int64(n.Metrics.Size), nil)
	require.Equal(t, dtype.Success, errno)
	gotPacked := make([]byte, actual)
	_, _ = packed.ReadAt(gotPacked, 0)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, gotPacked)

	actual2, errno := engine.Unpack(ddev.Pointer{Buf: packed}, actual, ddev.Pointer{Buf: dst}, 1, n, 0, nil)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, actual, actual2)

	got0 := make([]byte, 4)
	_, _ = dst.ReadAt(got0, 0)
	assert.Equal(t, []byte{1, 0, 0, 0}, got0)

	got1 := make([]byte, 4)
	_, _ = dst.ReadAt(got1, 12)
	assert.Equal(t, []byte{2, 0, 0, 0}, got1)
}

func TestIndexedRoundTrip(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	engine, cpu := newEngine()

	// Block of 2 int32s at offset 0, then a single int32 at offset 16.
	h, errno := table.Indexed([]int{2, 1}, []int{0, 16}, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)
	require.Equal(t, 12, n.Metrics.Size)
	require.Equal(t, 20, n.Metrics.Extent)

	src, _ := cpu.HostAlloc(n.Metrics.Extent)
	packed, _ := cpu.HostAlloc(n.Metrics.Size)
	dst, _ := cpu.HostAlloc(n.Metrics.Extent)

	srcBytes := []byte{
		1, 0, 0, 0, 2, 0, 0, 0, // block 0, offset 0
		9, 9, 9, 9, 9, 9, 9, 9, // gap
		3, 0, 0, 0, // block 1, offset 16
	}
	_, _ = src.WriteAt(srcBytes, 0)

	actual, errno := engine.Pack(ddev.Pointer{Buf: src}, 1, n, 0, ddev.Pointer{Buf: packed}, int64(n.Metrics.Size), nil)
	require.Equal(t, dtype.Success, errno)
	gotPacked := make([]byte, actual)
	_, _ = packed.ReadAt(gotPacked, 0)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}, gotPacked)

	actual2, errno := engine.Unpack(ddev.Pointer{Buf: packed}, actual, ddev.Pointer{Buf: dst}, 1, n, 0, nil)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, actual, actual2)

	block0 := make([]byte, 8)
	_, _ = dst.ReadAt(block0, 0)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, block0)

	block1 := make([]byte, 4)
	_, _ = dst.ReadAt(block1, 16)
	assert.Equal(t, []byte{3, 0, 0, 0}, block1)
}

func TestSubarrayRoundTrip(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	engine, cpu := newEngine()

	// 4x4 array of int32, row-major; select the inner 2x2 block
	// starting at (1,1): elements 5, 6, 9, 10 in a 0..15 fill.
	h, errno := table.Subarray([]int{4, 4}, []int{2, 2}, []int{1, 1}, dtype.OrderC, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)
	require.Equal(t, 16, n.Metrics.Size)
	require.Equal(t, 64, n.Metrics.Extent)

	src, _ := cpu.HostAlloc(n.Metrics.Extent)
	packed, _ := cpu.HostAlloc(n.Metrics.Size)
	dst, _ := cpu.HostAlloc(n.Metrics.Extent)

	srcBytes := make([]byte, 64)
	for i := 0; i < 16; i++ {
		srcBytes[i*4] = byte(i)
	}
	_, _ = src.WriteAt(srcBytes, 0)

	actual, errno := engine.Pack(ddev.Pointer{Buf: src}, 1, n, 0, ddev.Pointer{Buf: packed}, int64(n.Metrics.Size), nil)
	require.Equal(t, dtype.Success, errno)
	gotPacked := make([]byte, actual)
	_, _ = packed.ReadAt(gotPacked, 0)
	assert.Equal(t, []byte{5, 0, 0, 0, 6, 0, 0, 0, 9, 0, 0, 0, 10, 0, 0, 0}, gotPacked)

	actual2, errno := engine.Unpack(ddev.Pointer{Buf: packed}, actual, ddev.Pointer{Buf: dst}, 1, n, 0, nil)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, actual, actual2)

	row1 := make([]byte, 8)
	_, _ = dst.ReadAt(row1, 20)
	assert.Equal(t, []byte{5, 0, 0, 0, 6, 0, 0, 0}, row1)

	row2 := make([]byte, 8)
	_, _ = dst.ReadAt(row2, 36)
	assert.Equal(t, []byte{9, 0, 0, 0, 10, 0, 0, 0}, row2)
}

func TestSegmentationInvariance(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	engine, cpu := newEngine()

	h, errno := table.Contig(4, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)

	src, _ := cpu.HostAlloc(n.Metrics.Size)
	_, _ = src.WriteAt([]byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0}, 0)

	whole, _ := cpu.HostAlloc(n.Metrics.Size)
	_, errno = engine.Pack(ddev.Pointer{Buf: src}, 1, n, 0, ddev.Pointer{Buf: whole}, int64(n.Metrics.Size), nil)
	require.Equal(t, dtype.Success, errno)
	wholeBytes := make([]byte, 16)
	_, _ = whole.ReadAt(wholeBytes, 0)

	tiled, _ := cpu.HostAlloc(n.Metrics.Size)
	_, errno = engine.Pack(ddev.Pointer{Buf: src}, 1, n, 0, ddev.Pointer{Buf: tiled}, 7, nil)
	require.Equal(t, dtype.Success, errno)
	_, errno = engine.Pack(ddev.Pointer{Buf: src}, 1, n, 7, ddev.Pointer{Buf: tiled, Offset: 7}, 9, nil)
	require.Equal(t, dtype.Success, errno)
	tiledBytes := make([]byte, 16)
	_, _ = tiled.ReadAt(tiledBytes, 0)

	assert.Equal(t, wholeBytes, tiledBytes)
}

func TestCrossDeviceStaging(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	h, errno := table.Contig(4, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)

	cpu := ddev.NewCPUBackend()
	dev0 := ddev.NewSimBackend(0, time.Millisecond)
	dev1 := ddev.NewSimBackend(1, time.Millisecond)
	engine := dpack.NewEngine(cpu, map[int]ddev.Backend{0: dev0, 1: dev1})

	srcDev, err := dev0.DeviceAlloc(n.Metrics.Size, 0)
	require.NoError(t, err)
	dstDev, err := dev1.DeviceAlloc(n.Metrics.Size, 1)
	require.NoError(t, err)

	want := []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0}
	_, _ = srcDev.WriteAt(want, 0)

	info := dpack.InfoCreate()
	info.SetSrcKind(ddev.Device, 0)
	info.SetDstKind(ddev.Device, 1)

	req, _, errno := engine.IPack(ddev.Pointer{Buf: srcDev}, 1, n, 0, ddev.Pointer{Buf: dstDev}, int64(n.Metrics.Size), info)
	require.Equal(t, dtype.Success, errno)

	actual, err := dpack.RequestWait(req)
	require.NoError(t, err)
	assert.Equal(t, int64(16), actual)

	got := make([]byte, 16)
	_, _ = dstDev.ReadAt(got, 0)
	assert.Equal(t, want, got)
}

func TestDeviceIDsSorted(t *testing.T) {
	t.Parallel()
	cpu := ddev.NewCPUBackend()
	dev0 := ddev.NewSimBackend(0, time.Millisecond)
	dev2 := ddev.NewSimBackend(2, time.Millisecond)
	dev1 := ddev.NewSimBackend(1, time.Millisecond)
	engine := dpack.NewEngine(cpu, map[int]ddev.Backend{2: dev2, 0: dev0, 1: dev1})

	assert.Equal(t, []int{0, 1, 2}, engine.DeviceIDs())
}

func TestRequestTestNonBlocking(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	h, errno := table.Contig(4, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)

	cpu := ddev.NewCPUBackend()
	dev0 := ddev.NewSimBackend(0, 20*time.Millisecond)
	engine := dpack.NewEngine(cpu, map[int]ddev.Backend{0: dev0})

	host, _ := cpu.HostAlloc(n.Metrics.Size)
	dev, err := dev0.DeviceAlloc(n.Metrics.Size, 0)
	require.NoError(t, err)

	info := dpack.InfoCreate()
	info.SetSrcKind(ddev.Host, 0)
	info.SetDstKind(ddev.Device, 0)

	req, _, errno := engine.IPack(ddev.Pointer{Buf: host}, 1, n, 0, ddev.Pointer{Buf: dev}, int64(n.Metrics.Size), info)
	require.Equal(t, dtype.Success, errno)

	_, ok, _ := dpack.RequestTest(req)
	assert.False(t, ok, "should still be in flight immediately after submission")

	_, err = dpack.RequestWait(req)
	assert.NoError(t, err)
}
