// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package jsonutil_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinypack/ddt/lib/jsonutil"
)

func TestEncodeSplitHexStringChunks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jsonutil.EncodeSplitHexString(&buf, []byte{0x01, 0x02, 0x03, 0x04, 0x05}, 2))
	assert.Equal(t, `["0102","0304","05"]`, buf.String())
}

func TestSplitHexStringRoundTrip(t *testing.T) {
	want := []byte("the quick brown fox jumps over the lazy dog, 0123456789")

	var encoded bytes.Buffer
	require.NoError(t, jsonutil.EncodeSplitHexString(&encoded, want, 6))

	var decoded bytes.Buffer
	require.NoError(t, jsonutil.DecodeSplitHexString(strings.NewReader(encoded.String()), &decoded))
	assert.Equal(t, want, decoded.Bytes())
}
