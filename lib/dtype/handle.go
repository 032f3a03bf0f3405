// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dtype

import (
	"sync"

	"github.com/tinypack/ddt/lib/containers"
)

// Handle is an opaque 32-bit identifier for a Node, the user-visible
// analogue of an MPI_Datatype.
type Handle uint32

// HandleNull resolves to "no type".
const HandleNull Handle = 0

// PredefinedLast is the first handle value available for allocation by
// a HandleTable; ids below it identify builtins and are never reused.
const PredefinedLast Handle = 64

// HandleTable maps handles to Nodes, supporting concurrent
// allocate/lookup/free. Publication of a newly-allocated handle happens
// before any call to Lookup can observe it, via SyncMap.Store.
type HandleTable struct {
	mu      sync.Mutex
	next    Handle
	freeIDs []Handle
	nodes   containers.SyncMap[Handle, *Node]
}

// NewHandleTable returns a HandleTable with no user-allocated handles.
func NewHandleTable() *HandleTable {
	return &HandleTable{next: PredefinedLast}
}

// allocID reserves a fresh handle, preferring one freed by a prior
// release to bound the id space under steady churn.
func (t *HandleTable) allocID() Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.freeIDs); n > 0 {
		id := t.freeIDs[n-1]
		t.freeIDs = t.freeIDs[:n-1]
		return id
	}
	id := t.next
	t.next++
	return id
}

// Publish assigns a fresh handle to n and stores it, returning the
// handle. Called as the last step of every constructor, after metrics
// and hooks are computed.
func (t *HandleTable) Publish(n *Node) Handle {
	id := t.allocID()
	n.Handle = id
	t.nodes.Store(id, n)
	return id
}

// Lookup resolves a handle to its Node. Builtins are resolved without
// consulting the per-table map.
func (t *HandleTable) Lookup(h Handle) (*Node, Errno) {
	if h == HandleNull {
		return nil, ErrInvalidHandle
	}
	if h < PredefinedLast {
		n, ok := builtinsByHandle[h]
		if !ok {
			return nil, ErrInvalidHandle
		}
		return n, Success
	}
	n, ok := t.nodes.Load(h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	return n, Success
}

// free removes h from the table and recycles its id. Called by
// Node.Release once a node's refcount reaches zero.
func (t *HandleTable) free(h Handle) {
	if h < PredefinedLast {
		return
	}
	t.nodes.Delete(h)
	t.mu.Lock()
	t.freeIDs = append(t.freeIDs, h)
	t.mu.Unlock()
}
