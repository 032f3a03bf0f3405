// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package binstruct_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinypack/ddt/lib/binstruct"
	"github.com/tinypack/ddt/lib/binstruct/binint"
	"github.com/tinypack/ddt/lib/dtype"
)

type header struct {
	Magic    binint.U32le `bin:"off=0x0, siz=0x4"`
	Checksum binint.U64le `bin:"off=0x4, siz=0x8"`
	Flags    binint.U16le `bin:"off=0xc, siz=0x2"`
	_        binstruct.End `bin:"off=0xe"`
}

func TestDTypeMatchesStaticSize(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	h, errno := binstruct.DType(table, header{})
	require.Equal(t, dtype.Success, errno)

	n, errno := table.Lookup(h)
	require.Equal(t, dtype.Success, errno)

	assert.Equal(t, binstruct.StaticSize(header{}), n.Metrics.Size)
}

func TestDTypeRejectsUnsupportedShape(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	_, errno := binstruct.DType(table, "not a binstruct-shaped value")
	assert.Equal(t, dtype.ErrNotSupported, errno)
}

func TestTypeCacheReusesNode(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()
	cache := binstruct.NewTypeCache(table)

	h1, errno := cache.DType(header{})
	require.Equal(t, dtype.Success, errno)
	n1, errno := table.Lookup(h1)
	require.Equal(t, dtype.Success, errno)

	h2, errno := cache.DType(header{})
	require.Equal(t, dtype.Success, errno)
	n2, errno := table.Lookup(h2)
	require.Equal(t, dtype.Success, errno)

	assert.NotEqual(t, h1, h2, "each call owns a distinct handle")
	assert.Equal(t, n1.Metrics, n2.Metrics, "both handles describe the same layout")

	n1.Release(table)
	n2.Release(table)
}

func TestDTypeArrayField(t *testing.T) {
	t.Parallel()
	table := dtype.NewHandleTable()

	type withArray struct {
		Bytes [8]binint.U8 `bin:"off=0x0, siz=0x8"`
	}

	h, errno := binstruct.DType(table, withArray{})
	require.Equal(t, dtype.Success, errno)

	n, errno := table.Lookup(h)
	require.Equal(t, dtype.Success, errno)
	assert.Equal(t, 8, n.Metrics.Size)
}
