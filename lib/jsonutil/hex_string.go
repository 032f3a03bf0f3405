// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package jsonutil provides utilities for implementing the interfaces
// consumed by the "git.lukeshu.com/go/lowmemjson" package.
package jsonutil

import (
	"io"

	"git.lukeshu.com/go/lowmemjson"
)

func EncodeHexString[T ~[]byte | ~string](w io.Writer, str T) error {
	const hextable = "0123456789abcdef"
	var buf [2]byte
	buf[0] = '"'
	if _, err := w.Write(buf[:1]); err != nil {
		return err
	}
	for i := 0; i < len(str); i++ {
		buf[0] = hextable[str[i]>>4]
		buf[1] = hextable[str[i]&0x0f]
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	buf[0] = '"'
	if _, err := w.Write(buf[:1]); err != nil {
		return err
	}
	return nil
}

func DecodeHexString(r io.RuneScanner, dst io.ByteWriter) error {
	dec := &hexDecoder{dst: dst}
	if err := lowmemjson.DecodeString(r, dec); err != nil {
		return err
	}
	return dec.Close()
}

// EncodeSplitHexString is like EncodeHexString, but emits a JSON array
// of hex strings of at most chunkSize input bytes each, rather than
// one single (potentially enormous) string token — keeping any one
// token small enough for lowmemjson's streaming decoder to handle
// without buffering the whole value.
func EncodeSplitHexString[T ~[]byte | ~string](w io.Writer, str T, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = len(str)
		if chunkSize == 0 {
			chunkSize = 1
		}
	}
	if _, err := w.Write([]byte{'['}); err != nil {
		return err
	}
	for i := 0; i < len(str); i += chunkSize {
		if i > 0 {
			if _, err := w.Write([]byte{','}); err != nil {
				return err
			}
		}
		end := i + chunkSize
		if end > len(str) {
			end = len(str)
		}
		if err := EncodeHexString(w, str[i:end]); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{']'})
	return err
}

// DecodeSplitHexString is EncodeSplitHexString's inverse: it reads a
// JSON array of hex strings and writes their concatenated decoded
// bytes to dst.
func DecodeSplitHexString(r io.RuneScanner, dst io.ByteWriter) error {
	return lowmemjson.DecodeArray(r, func(r io.RuneScanner) error {
		return DecodeHexString(r, dst)
	})
}
