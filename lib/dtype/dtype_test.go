// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dtype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinypack/ddt/lib/dtype"
)

func TestContigMetricLaw(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	h, errno := table.Contig(5, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, errno := table.Lookup(h)
	require.Equal(t, dtype.Success, errno)

	base, _ := table.Lookup(dtype.Int32)
	assert.Equal(t, 5*base.Metrics.Size, n.Metrics.Size)
	assert.True(t, n.Metrics.IsContig)
	assert.Equal(t, 1, n.Metrics.TreeDepth)
}

func TestHVectorExtentLaw(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	const count, blocklen, stride = 4, 2, 24
	h, errno := table.HVector(count, blocklen, stride, dtype.Float64)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)

	base, _ := table.Lookup(dtype.Float64)
	wantExtent := (count-1)*stride + blocklen*base.Metrics.Extent
	assert.Equal(t, wantExtent, n.Metrics.Extent)
}

func TestHVectorIsContigWhenDense(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	base, _ := table.Lookup(dtype.Int64)
	// stride == blocklen*extent, so this is really just a contig.
	h, errno := table.HVector(3, 2, 2*base.Metrics.Extent, dtype.Int64)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)
	assert.True(t, n.Metrics.IsContig)
	assert.Equal(t, 1, n.Metrics.NumContig)
}

func TestResizedChangesOnlyExtent(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	ch, errno := table.Contig(4, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	contig, _ := table.Lookup(ch)

	rh, errno := table.Resized(ch, 0, contig.Metrics.Extent+8)
	require.Equal(t, dtype.Success, errno)
	resized, _ := table.Lookup(rh)

	assert.Equal(t, contig.Metrics.Size, resized.Metrics.Size)
	assert.Equal(t, contig.Metrics.Extent+8, resized.Metrics.Extent)
	assert.False(t, resized.Metrics.IsContig, "extent no longer equals size")
}

func TestSubarrayFullCoverageIsContig(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	sizes := []int{4, 4}
	sub := []int{4, 4}
	start := []int{0, 0}
	h, errno := table.Subarray(sizes, sub, start, dtype.OrderC, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)
	assert.True(t, n.Metrics.IsContig)
}

func TestSubarrayPartialIsNotContig(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	sizes := []int{4, 4}
	sub := []int{2, 2}
	start := []int{1, 1}
	h, errno := table.Subarray(sizes, sub, start, dtype.OrderC, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)
	assert.False(t, n.Metrics.IsContig)
}

func TestSubarrayNdimsZeroYieldsNull(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	h, errno := table.Subarray(nil, nil, nil, dtype.OrderC, dtype.Int32)
	assert.Equal(t, dtype.Success, errno)
	assert.Equal(t, dtype.HandleNull, h)
}

func TestZeroCountIsContig(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	h, errno := table.Contig(0, dtype.Byte)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)
	assert.True(t, n.Metrics.IsContig)
	assert.Equal(t, 0, n.Metrics.Extent)
}

func TestRefcountReleasesChildOnLastRelease(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	h, errno := table.Contig(3, dtype.Int32)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)

	n.Retain()
	n.Release(table)
	_, errno = table.Lookup(h)
	assert.Equal(t, dtype.Success, errno, "still alive after one of two releases")

	n.Release(table)
	_, errno = table.Lookup(h)
	assert.Equal(t, dtype.ErrInvalidHandle, errno, "freed after matching release")
}

func TestInvalidHandleLookup(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	_, errno := table.Lookup(dtype.HandleNull)
	assert.Equal(t, dtype.ErrInvalidHandle, errno)

	_, errno = table.Lookup(dtype.Handle(999999))
	assert.Equal(t, dtype.ErrInvalidHandle, errno)
}

func TestStructSizeLaw(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	i32, _ := table.Lookup(dtype.Int32)
	f64, _ := table.Lookup(dtype.Float64)

	h, errno := table.Struct(
		[]int{2, 1},
		[]int{0, 8},
		[]dtype.Handle{dtype.Int32, dtype.Float64},
	)
	require.Equal(t, dtype.Success, errno)
	n, _ := table.Lookup(h)
	assert.Equal(t, 2*i32.Metrics.Size+f64.Metrics.Size, n.Metrics.Size)
}
