// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package binstruct

import (
	"reflect"

	"github.com/tinypack/ddt/lib/containers"
	"github.com/tinypack/ddt/lib/dtype"
)

// DType derives a dtype.Handle describing obj's on-the-wire layout, the
// same layout Marshal/Unmarshal already drive from "bin" struct tags.
// It lets a caller hand a tagged Go value straight to the pack engine
// instead of hand-building the equivalent STRUCT/CONTIG chain: a
// struct's tags give the engine the (blocklen, displacement) pairs it
// needs. Each field's tagged offset is used as given; DType does not
// run genStructHandler's offset and size checks.
//
// Supported shapes: fixed-size integer and float kinds, fixed-size
// arrays, and nested structs built the same way. A type is mapped by
// its reflect.Kind alone, so a Marshaler type with an integer kind
// (such as the binint types) maps to the builtin of that size.
// Anything else (slices, strings, maps, ...) fails with ErrNotSupported
// rather than guessing a layout.
func DType(table *dtype.HandleTable, obj any) (dtype.Handle, dtype.Errno) {
	return dtypeForType(table, reflect.TypeOf(obj))
}

// TypeCache memoizes DType by Go type, so a caller that repeatedly
// bridges the same tagged struct (e.g. once per record in a batch)
// doesn't re-walk its fields and re-run every constructor's create
// hooks on each call. It is bound to a single HandleTable, since
// Handles are only meaningful within the table that issued them.
type TypeCache struct {
	table *dtype.HandleTable
	cache containers.LRUCache[reflect.Type, dtype.Handle]
}

// NewTypeCache returns a TypeCache that builds handles in table.
func NewTypeCache(table *dtype.HandleTable) *TypeCache {
	return &TypeCache{table: table}
}

// DType is DType, but returns a Dup of a cached handle on a repeat
// call for the same Go type instead of rebuilding the descriptor tree.
// Every returned handle, cached or fresh, is separately owned by the
// caller and must be released once.
func (c *TypeCache) DType(obj any) (dtype.Handle, dtype.Errno) {
	typ := reflect.TypeOf(obj)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if cached, ok := c.cache.Get(typ); ok {
		return c.table.Dup(cached)
	}
	h, errno := dtypeForType(c.table, typ)
	if errno != dtype.Success {
		return dtype.HandleNull, errno
	}
	c.cache.Add(typ, h)
	return c.table.Dup(h)
}

func dtypeForType(table *dtype.HandleTable, typ reflect.Type) (dtype.Handle, dtype.Errno) {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	switch typ.Kind() {
	case reflect.Uint8:
		return dtype.Byte, dtype.Success
	case reflect.Int8:
		return dtype.Int8, dtype.Success
	case reflect.Uint16:
		return dtype.Uint16, dtype.Success
	case reflect.Int16:
		return dtype.Int16, dtype.Success
	case reflect.Uint32:
		return dtype.Uint32, dtype.Success
	case reflect.Int32:
		return dtype.Int32, dtype.Success
	case reflect.Uint64:
		return dtype.Uint64, dtype.Success
	case reflect.Int64:
		return dtype.Int64, dtype.Success
	case reflect.Float32:
		return dtype.Float32, dtype.Success
	case reflect.Float64:
		return dtype.Float64, dtype.Success
	case reflect.Array:
		elem, errno := dtypeForType(table, typ.Elem())
		if errno != dtype.Success {
			return dtype.HandleNull, errno
		}
		return table.Contig(typ.Len(), elem)
	case reflect.Struct:
		return structDType(table, typ)
	default:
		return dtype.HandleNull, dtype.ErrNotSupported
	}
}

// structDType walks typ's fields the same way genStructHandler does,
// reusing its own tag parsing, and turns each non-skipped field into
// one STRUCT entry at the field's tagged offset.
func structDType(table *dtype.HandleTable, typ reflect.Type) (dtype.Handle, dtype.Errno) {
	var blocklens []int
	var displs []int
	var elems []dtype.Handle

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Type == endType {
			continue
		}
		fieldTag, err := parseStructTag(field.Tag.Get("bin"))
		if err != nil {
			return dtype.HandleNull, dtype.ErrInvalidArg
		}
		if fieldTag.skip {
			continue
		}
		elem, errno := dtypeForType(table, field.Type)
		if errno != dtype.Success {
			return dtype.HandleNull, errno
		}
		blocklens = append(blocklens, 1)
		displs = append(displs, fieldTag.off)
		elems = append(elems, elem)
	}

	if len(elems) == 0 {
		return dtype.HandleNull, dtype.ErrInvalidArg
	}
	return table.Struct(blocklens, displs, elems)
}
