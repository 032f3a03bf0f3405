// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ddev

import (
	"fmt"

	"github.com/tinypack/ddt/lib/dtype"
	"github.com/tinypack/ddt/lib/dwalk"
)

// packKernel walks typ's layout over src and writes the resulting
// packed bytes sequentially into dst starting at dst.Offset. It is the
// shared memcpy-equivalent kernel behind both the CPU and Sim
// backends' Pack.
func packKernel(src, dst Pointer, count int, typ *dtype.Node, offset, length int64) error {
	runs, err := dwalk.Walk(typ, count, offset, length)
	if err != nil {
		return err
	}
	srcBytes := src.Buf.bytes()
	dstBytes := dst.Buf.bytes()
	out := dst.Offset
	for _, r := range runs {
		from := src.Offset + r.Offset
		if from < 0 || from+r.Length > int64(len(srcBytes)) {
			return fmt.Errorf("ddev: pack source run [%d,%d) out of bounds (len %d)", from, from+r.Length, len(srcBytes))
		}
		if out+r.Length > int64(len(dstBytes)) {
			return fmt.Errorf("ddev: pack destination overflow at %d", out)
		}
		copy(dstBytes[out:out+r.Length], srcBytes[from:from+r.Length])
		out += r.Length
	}
	return nil
}

// unpackKernel is packKernel's inverse: it reads length contiguous
// bytes sequentially from src starting at src.Offset and scatters them
// into dst according to typ's layout.
func unpackKernel(src, dst Pointer, count int, typ *dtype.Node, offset, length int64) error {
	runs, err := dwalk.Walk(typ, count, offset, length)
	if err != nil {
		return err
	}
	srcBytes := src.Buf.bytes()
	dstBytes := dst.Buf.bytes()
	in := src.Offset
	for _, r := range runs {
		to := dst.Offset + r.Offset
		if to < 0 || to+r.Length > int64(len(dstBytes)) {
			return fmt.Errorf("ddev: unpack destination run [%d,%d) out of bounds (len %d)", to, to+r.Length, len(dstBytes))
		}
		if in+r.Length > int64(len(srcBytes)) {
			return fmt.Errorf("ddev: unpack source overflow at %d", in)
		}
		copy(dstBytes[to:to+r.Length], srcBytes[in:in+r.Length])
		in += r.Length
	}
	return nil
}
