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

func TestGetSizeExtentTrueExtent(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	h, errno := table.HVector(2, 1, 12, dtype.Int32)
	require.Equal(t, dtype.Success, errno)

	size, errno := table.GetSize(h)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, 8, size)

	extent, errno := table.GetExtent(h)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, 16, extent)

	trueExtent, errno := table.GetTrueExtent(h)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, 16, trueExtent)

	require.Equal(t, dtype.Success, table.Free(h))
}

func TestGetTrueExtentIgnoresResize(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	base, errno := table.Contig(4, dtype.Int32)
	require.Equal(t, dtype.Success, errno)

	resized, errno := table.Resized(base, 0, 4)
	require.Equal(t, dtype.Success, errno)

	extent, errno := table.GetExtent(resized)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, 4, extent, "Resized shrinks the advertised extent")

	trueExtent, errno := table.GetTrueExtent(resized)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, 16, trueExtent, "true extent still reflects the underlying data's real footprint")

	require.Equal(t, dtype.Success, table.Free(resized))
}

func TestFreeOnInvalidHandle(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	_, errno := table.GetSize(dtype.HandleNull)
	assert.Equal(t, dtype.ErrInvalidHandle, errno)
	assert.Equal(t, dtype.ErrInvalidHandle, table.Free(dtype.HandleNull))
}
