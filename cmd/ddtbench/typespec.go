// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tinypack/ddt/lib/dtype"
)

// typeSpec is the on-disk JSON shape a user writes to describe a
// derived datatype to construct. It is plain declarative JSON (not a
// lowmemjson stream), the same way btrfs-rec reads its --mappings
// file straight into a []btrfsvol.Mapping with encoding/json.
type typeSpec struct {
	Kind string `json:"kind"`

	// KindBuiltin
	Builtin string `json:"builtin,omitempty"`

	// KindDup, KindContig, KindHVector, KindIndexed, KindBlockIndexed, KindResized, KindSubarray
	Elem *typeSpec `json:"elem,omitempty"`

	// KindContig, KindHVector
	Count int `json:"count,omitempty"`

	// KindHVector, KindBlockIndexed
	Blocklen int `json:"blocklen,omitempty"`

	// KindHVector
	Stride int `json:"stride,omitempty"`

	// KindIndexed, KindBlockIndexed, KindStruct
	Blocklens []int `json:"blocklens,omitempty"`
	Displs    []int `json:"displs,omitempty"`

	// KindStruct
	Elems []*typeSpec `json:"elems,omitempty"`

	// KindResized
	LB     int `json:"lb,omitempty"`
	Extent int `json:"extent,omitempty"`

	// KindSubarray
	Sizes   []int  `json:"sizes,omitempty"`
	Subsize []int  `json:"subsize,omitempty"`
	Start   []int  `json:"start,omitempty"`
	Order   string `json:"order,omitempty"`
}

var builtinsByName = map[string]dtype.Handle{
	"byte":    dtype.Byte,
	"int8":    dtype.Int8,
	"int16":   dtype.Int16,
	"int32":   dtype.Int32,
	"int64":   dtype.Int64,
	"uint8":   dtype.Uint8,
	"uint16":  dtype.Uint16,
	"uint32":  dtype.Uint32,
	"uint64":  dtype.Uint64,
	"float32": dtype.Float32,
	"float64": dtype.Float64,
}

func readTypeSpec(filename string) (*typeSpec, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var spec typeSpec
	if err := json.Unmarshal(bs, &spec); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &spec, nil
}

// build recursively constructs spec into table, returning the handle
// of the resulting type.
func build(table *dtype.HandleTable, spec *typeSpec) (dtype.Handle, error) {
	switch spec.Kind {
	case "builtin":
		h, ok := builtinsByName[spec.Builtin]
		if !ok {
			return dtype.HandleNull, fmt.Errorf("unknown builtin %q", spec.Builtin)
		}
		return h, nil
	case "dup":
		elem, err := buildElem(table, spec)
		if err != nil {
			return dtype.HandleNull, err
		}
		return errno2(table.Dup(elem))
	case "contig":
		elem, err := buildElem(table, spec)
		if err != nil {
			return dtype.HandleNull, err
		}
		return errno2(table.Contig(spec.Count, elem))
	case "hvector":
		elem, err := buildElem(table, spec)
		if err != nil {
			return dtype.HandleNull, err
		}
		return errno2(table.HVector(spec.Count, spec.Blocklen, spec.Stride, elem))
	case "hindexed":
		elem, err := buildElem(table, spec)
		if err != nil {
			return dtype.HandleNull, err
		}
		return errno2(table.Indexed(spec.Blocklens, spec.Displs, elem))
	case "blkhindexed":
		elem, err := buildElem(table, spec)
		if err != nil {
			return dtype.HandleNull, err
		}
		return errno2(table.BlockIndexed(spec.Blocklen, spec.Displs, elem))
	case "struct":
		elems := make([]dtype.Handle, len(spec.Elems))
		for i, e := range spec.Elems {
			h, err := build(table, e)
			if err != nil {
				return dtype.HandleNull, err
			}
			elems[i] = h
		}
		return errno2(table.Struct(spec.Blocklens, spec.Displs, elems))
	case "resized":
		elem, err := buildElem(table, spec)
		if err != nil {
			return dtype.HandleNull, err
		}
		return errno2(table.Resized(elem, spec.LB, spec.Extent))
	case "subarray":
		elem, err := buildElem(table, spec)
		if err != nil {
			return dtype.HandleNull, err
		}
		order := dtype.OrderC
		if spec.Order == "fortran" {
			order = dtype.OrderFortran
		}
		return errno2(table.Subarray(spec.Sizes, spec.Subsize, spec.Start, order, elem))
	default:
		return dtype.HandleNull, fmt.Errorf("unknown type kind %q", spec.Kind)
	}
}

func buildElem(table *dtype.HandleTable, spec *typeSpec) (dtype.Handle, error) {
	if spec.Elem == nil {
		return dtype.HandleNull, fmt.Errorf("type kind %q requires \"elem\"", spec.Kind)
	}
	return build(table, spec.Elem)
}

func errno2(h dtype.Handle, errno dtype.Errno) (dtype.Handle, error) {
	if errno != dtype.Success {
		return dtype.HandleNull, errno
	}
	return h, nil
}
