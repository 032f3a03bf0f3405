// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dtype

// Predefined builtin handles, analogous to MPI_BYTE / MPI_INT32_T /
// etc. Their ids are stable across a process's lifetime and never
// appear in a HandleTable's free-list.
const (
	Byte Handle = iota + 1
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var builtinsByHandle = make(map[Handle]*Node, PredefinedLast)

func registerBuiltin(h Handle, name string, size int) {
	n := &Node{
		Handle:  h,
		Kind:    KindBuiltin,
		Builtin: &BuiltinInfo{Name: name, Size: size},
		// Builtins are immortal: refcount starts at 1 and is never
		// allowed to reach zero (Release is a no-op for KindBuiltin).
		refcount: 1,
	}
	computeMetrics(n)
	builtinsByHandle[h] = n
}

func init() {
	registerBuiltin(Byte, "byte", 1)
	registerBuiltin(Int8, "int8", 1)
	registerBuiltin(Int16, "int16", 2)
	registerBuiltin(Int32, "int32", 4)
	registerBuiltin(Int64, "int64", 8)
	registerBuiltin(Uint8, "uint8", 1)
	registerBuiltin(Uint16, "uint16", 2)
	registerBuiltin(Uint32, "uint32", 4)
	registerBuiltin(Uint64, "uint64", 8)
	registerBuiltin(Float32, "float32", 4)
	registerBuiltin(Float64, "float64", 8)
}

// LookupBuiltin resolves a builtin handle directly, without needing a
// HandleTable. Returns nil if h does not name a builtin.
func LookupBuiltin(h Handle) *Node {
	return builtinsByHandle[h]
}
