// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dtype

import (
	"sync/atomic"

	"github.com/tinypack/ddt/lib/containers"
)

// Hook is implemented by a backend (see lib/ddev) that wants to attach
// per-Node, per-backend state (e.g. a compiled pack/unpack kernel) to a
// Node without dtype needing to import the backend package.
//
// Attach runs once, eagerly, at construction time (§4.2 "create hook");
// the result is cached in Node.hookCache, keyed by the backend's
// registry slot, and handed back by Node.HookState.
type Hook interface {
	Attach(n *Node) (any, error)
}

// HookCloser is an optional extension of Hook: a backend implements it
// when node destruction must release backend-side state (the "free
// hook"). Detach receives whatever Attach returned.
type HookCloser interface {
	Hook
	Detach(n *Node, state any)
}

// Node is one layout-tree node of a derived datatype. Nodes are
// immutable once Publish returns them: every field below is written
// exactly once, during construction, before any other goroutine can
// observe the pointer.
type Node struct {
	Handle Handle
	Kind   Kind

	// Elem is the child type that this node derives from. Builtins
	// have Elem == nil.
	Elem *Node

	// Count is the repeat count shared by Contig, HVector,
	// BlockIndexed, Indexed: the node's logical extent is Count
	// copies of one "element" pattern.
	Count int

	// Extent-affecting payload, set depending on Kind.
	Builtin      *BuiltinInfo
	ContigInfo   *ContigPayload
	HVectorInfo  *HVectorPayload
	IndexedInfo  *IndexedPayload
	StructInfo   *StructPayload
	ResizedInfo  *ResizedPayload
	SubarrayInfo *SubarrayPayload

	// Metrics is fully computed at construction time; see metrics.go.
	Metrics Metrics

	refcount  int32
	hookCache containers.SyncMap[int, any]
}

// BuiltinInfo describes a leaf (non-derived) element type, analogous to
// MPI_BYTE / MPI_INT / etc.
type BuiltinInfo struct {
	Name string
	Size int
}

// ContigPayload is the CONTIG constructor's arguments: Count copies of
// Elem, placed back to back with no padding between them.
type ContigPayload struct{}

// HVectorPayload is the (H)VECTOR constructor's arguments: Count blocks
// of Blocklen copies of Elem, each block separated from the next by
// Stride bytes (measured block-start to block-start).
type HVectorPayload struct {
	Blocklen int
	Stride   int // bytes
}

// IndexedPayload covers both HINDEXED (per-block lengths and byte
// displacements) and BLKHINDEXED (uniform length, per-block byte
// displacements); Uniform distinguishes the two.
type IndexedPayload struct {
	Uniform      bool
	UniformBlock int   // valid iff Uniform
	Blocklens    []int // valid iff !Uniform; len == Count
	Displs       []int // byte displacements; len == Count
}

// StructPayload is the STRUCT constructor's arguments: heterogeneous
// (length, displacement, type) triples.
type StructPayload struct {
	Blocklens []int
	Displs    []int // byte displacements
	Elems     []*Node
}

// ResizedPayload overrides the advertised lb/extent of Elem without
// touching its data layout.
type ResizedPayload struct {
	LB     int
	Extent int
}

// SubarrayPayload is the SUBARRAY constructor's arguments, mirroring an
// MPI_Type_create_subarray call.
type SubarrayPayload struct {
	Sizes   []int
	Subsize []int
	Start   []int
	Order   Order
}

// Retain increments the node's reference count and returns the same
// pointer, for chaining at call sites that store the result.
func (n *Node) Retain() *Node {
	if n == nil {
		return nil
	}
	atomic.AddInt32(&n.refcount, 1)
	return n
}

// Release decrements the node's reference count, recursively releasing
// children and returning the node to its owning HandleTable once the
// count reaches zero. Release on a builtin is a no-op: builtins are
// process-wide and never freed.
func (n *Node) Release(table *HandleTable) {
	if n == nil || n.Kind == KindBuiltin {
		return
	}
	if atomic.AddInt32(&n.refcount, -1) > 0 {
		return
	}
	for slot, h := range hooks() {
		closer, ok := h.(HookCloser)
		if !ok {
			continue
		}
		if state, ok := n.hookCache.Load(slot); ok {
			closer.Detach(n, state)
		}
	}
	for _, child := range n.children() {
		child.Release(table)
	}
	if table != nil {
		table.free(n.Handle)
	}
}

// children returns every *Node directly referenced by this node's
// payload, for refcount propagation and tree-depth computation.
func (n *Node) children() []*Node {
	switch n.Kind {
	case KindStruct:
		return n.StructInfo.Elems
	case KindBuiltin:
		return nil
	default:
		if n.Elem == nil {
			return nil
		}
		return []*Node{n.Elem}
	}
}

// refCount reports the current reference count.
func (n *Node) refCount() int32 {
	return atomic.LoadInt32(&n.refcount)
}

// HookState returns the state a backend's Attach stashed for this node
// at construction time, keyed by the backend's registry slot. ok is
// false if that backend was not registered when n was constructed.
func (n *Node) HookState(slot int) (state any, ok bool) {
	return n.hookCache.Load(slot)
}
