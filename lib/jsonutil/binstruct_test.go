// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package jsonutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinypack/ddt/lib/binstruct"
	"github.com/tinypack/ddt/lib/binstruct/binint"
	"github.com/tinypack/ddt/lib/jsonutil"
)

type binaryRecord struct {
	A binint.I64le  `bin:"off=0, siz=8"`
	B binint.I64le  `bin:"off=8, siz=8"`
	_ binstruct.End `bin:"off=16"`
}

func TestBinaryRoundTrip(t *testing.T) {
	want := jsonutil.Binary[binaryRecord]{Val: binaryRecord{A: 16, B: -3}}

	var buf strings.Builder
	require.NoError(t, want.EncodeJSON(&buf))

	var got jsonutil.Binary[binaryRecord]
	require.NoError(t, got.DecodeJSON(strings.NewReader(buf.String())))
	assert.Equal(t, want.Val, got.Val)
}
