// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dtype implements the derived-datatype descriptor algebra: the
// recursive construction of layout trees and the derivation of each
// node's size/extent/bounds/alignment/contiguity metrics.
package dtype

import (
	"fmt"
)

// Kind identifies which constructor produced a Node.
type Kind uint8

const (
	KindBuiltin Kind = iota
	KindDup
	KindContig
	KindResized
	KindHVector
	KindBlockIndexed
	KindIndexed
	KindStruct
	KindSubarray
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindDup:
		return "dup"
	case KindContig:
		return "contig"
	case KindResized:
		return "resized"
	case KindHVector:
		return "hvector"
	case KindBlockIndexed:
		return "blkhindexed"
	case KindIndexed:
		return "hindexed"
	case KindStruct:
		return "struct"
	case KindSubarray:
		return "subarray"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Order selects how Subarray enumerates dimensions.
type Order uint8

const (
	OrderC Order = iota
	OrderFortran
)

func (o Order) String() string {
	switch o {
	case OrderC:
		return "C"
	case OrderFortran:
		return "Fortran"
	default:
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
}

// Errno is the status code returned by every public operation, mirroring
// the integer-status convention of the originating library.
type Errno int

const (
	Success Errno = iota
	ErrInvalidHandle
	ErrNoMem
	ErrBackend
	ErrNotSupported
	ErrNotInitialized
	ErrInvalidArg
)

func (e Errno) Error() string {
	switch e {
	case Success:
		return "success"
	case ErrInvalidHandle:
		return "invalid handle"
	case ErrNoMem:
		return "out of memory"
	case ErrBackend:
		return "backend error"
	case ErrNotSupported:
		return "not supported"
	case ErrNotInitialized:
		return "not initialized"
	case ErrInvalidArg:
		return "invalid argument"
	default:
		return fmt.Sprintf("errno(%d)", int(e))
	}
}
