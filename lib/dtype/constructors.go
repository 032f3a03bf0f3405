// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dtype

// Every constructor below follows the same five steps (§4.2):
// allocate a node with refcount 1, retain every input type, compute
// metrics, run the registered backends' create hooks, and publish into
// the table. A failure at the hook step releases the inputs it had
// already retained and returns without publishing.

// Dup creates a new handle for a fresh KindDup node whose only child
// is in (retained). The new node copies in's metrics, one level deeper
// in TreeDepth.
func (t *HandleTable) Dup(in Handle) (Handle, Errno) {
	n, errno := t.Lookup(in)
	if errno != Success {
		return HandleNull, errno
	}
	dup := &Node{
		Kind:     KindDup,
		Elem:     n.Retain(),
		refcount: 1,
	}
	computeMetrics(dup)
	if err := invokeCreateHooks(dup); err != nil {
		n.Release(t)
		return HandleNull, ErrBackend
	}
	return t.Publish(dup), Success
}

// Contig creates the CONTIG(count, in) type: count copies of in placed
// back to back with no padding.
func (t *HandleTable) Contig(count int, in Handle) (Handle, Errno) {
	if count < 0 {
		return HandleNull, ErrInvalidArg
	}
	elem, errno := t.Lookup(in)
	if errno != Success {
		return HandleNull, errno
	}
	n := &Node{
		Kind:       KindContig,
		Elem:       elem.Retain(),
		Count:      count,
		ContigInfo: &ContigPayload{},
		refcount:   1,
	}
	computeMetrics(n)
	if err := invokeCreateHooks(n); err != nil {
		elem.Release(t)
		return HandleNull, ErrBackend
	}
	return t.Publish(n), Success
}

// HVector creates the HVECTOR(count, blocklen, stride, in) type: count
// blocks of blocklen copies of in, block starts stride bytes apart.
func (t *HandleTable) HVector(count, blocklen, strideBytes int, in Handle) (Handle, Errno) {
	if count < 0 || blocklen < 0 {
		return HandleNull, ErrInvalidArg
	}
	elem, errno := t.Lookup(in)
	if errno != Success {
		return HandleNull, errno
	}
	n := &Node{
		Kind:  KindHVector,
		Elem:  elem.Retain(),
		Count: count,
		HVectorInfo: &HVectorPayload{
			Blocklen: blocklen,
			Stride:   strideBytes,
		},
		refcount: 1,
	}
	computeMetrics(n)
	if err := invokeCreateHooks(n); err != nil {
		elem.Release(t)
		return HandleNull, ErrBackend
	}
	return t.Publish(n), Success
}

// Indexed creates the HINDEXED(count, blocklens, displs, in) type: one
// block per entry, independent lengths and byte displacements.
func (t *HandleTable) Indexed(blocklens, displsBytes []int, in Handle) (Handle, Errno) {
	if len(blocklens) != len(displsBytes) {
		return HandleNull, ErrInvalidArg
	}
	elem, errno := t.Lookup(in)
	if errno != Success {
		return HandleNull, errno
	}
	n := &Node{
		Kind:  KindIndexed,
		Elem:  elem.Retain(),
		Count: len(blocklens),
		IndexedInfo: &IndexedPayload{
			Uniform:   false,
			Blocklens: append([]int(nil), blocklens...),
			Displs:    append([]int(nil), displsBytes...),
		},
		refcount: 1,
	}
	computeMetrics(n)
	if err := invokeCreateHooks(n); err != nil {
		elem.Release(t)
		return HandleNull, ErrBackend
	}
	return t.Publish(n), Success
}

// BlockIndexed creates the BLKHINDEXED(count, blocklen, displs, in)
// type: one uniform-length block per displacement entry.
func (t *HandleTable) BlockIndexed(blocklen int, displsBytes []int, in Handle) (Handle, Errno) {
	if blocklen < 0 {
		return HandleNull, ErrInvalidArg
	}
	elem, errno := t.Lookup(in)
	if errno != Success {
		return HandleNull, errno
	}
	n := &Node{
		Kind:  KindBlockIndexed,
		Elem:  elem.Retain(),
		Count: len(displsBytes),
		IndexedInfo: &IndexedPayload{
			Uniform:      true,
			UniformBlock: blocklen,
			Displs:       append([]int(nil), displsBytes...),
		},
		refcount: 1,
	}
	computeMetrics(n)
	if err := invokeCreateHooks(n); err != nil {
		elem.Release(t)
		return HandleNull, ErrBackend
	}
	return t.Publish(n), Success
}

// Struct creates the STRUCT(count, blocklens, displs, in[]) type: a
// heterogeneous sequence of (length, displacement, type) triples.
func (t *HandleTable) Struct(blocklens, displsBytes []int, elems []Handle) (Handle, Errno) {
	if len(blocklens) != len(displsBytes) || len(blocklens) != len(elems) {
		return HandleNull, ErrInvalidArg
	}
	nodes := make([]*Node, len(elems))
	for i, h := range elems {
		n, errno := t.Lookup(h)
		if errno != Success {
			return HandleNull, errno
		}
		nodes[i] = n
	}
	for i, n := range nodes {
		nodes[i] = n.Retain()
	}
	n := &Node{
		Kind:  KindStruct,
		Count: len(elems),
		StructInfo: &StructPayload{
			Blocklens: append([]int(nil), blocklens...),
			Displs:    append([]int(nil), displsBytes...),
			Elems:     nodes,
		},
		refcount: 1,
	}
	computeMetrics(n)
	if err := invokeCreateHooks(n); err != nil {
		for _, child := range nodes {
			child.Release(t)
		}
		return HandleNull, ErrBackend
	}
	return t.Publish(n), Success
}

// Resized creates the RESIZED(in, newLB, newExtent) type: overrides the
// advertised lb/extent of in without touching its data layout.
func (t *HandleTable) Resized(in Handle, newLB, newExtent int) (Handle, Errno) {
	elem, errno := t.Lookup(in)
	if errno != Success {
		return HandleNull, errno
	}
	n := &Node{
		Kind: KindResized,
		Elem: elem.Retain(),
		ResizedInfo: &ResizedPayload{
			LB:     newLB,
			Extent: newExtent,
		},
		refcount: 1,
	}
	computeMetrics(n)
	if err := invokeCreateHooks(n); err != nil {
		elem.Release(t)
		return HandleNull, ErrBackend
	}
	return t.Publish(n), Success
}

// Subarray creates the SUBARRAY(sizes, subsize, start, order, in) type.
// ndims == 0 yields the null type per §4.1's tie-break.
func (t *HandleTable) Subarray(sizes, subsize, start []int, order Order, in Handle) (Handle, Errno) {
	ndims := len(sizes)
	if ndims == 0 {
		return HandleNull, Success
	}
	if len(subsize) != ndims || len(start) != ndims {
		return HandleNull, ErrInvalidArg
	}
	for i := 0; i < ndims; i++ {
		if subsize[i] < 0 || subsize[i] > sizes[i] || start[i] < 0 || start[i]+subsize[i] > sizes[i] {
			return HandleNull, ErrInvalidArg
		}
	}
	elem, errno := t.Lookup(in)
	if errno != Success {
		return HandleNull, errno
	}
	n := &Node{
		Kind: KindSubarray,
		Elem: elem.Retain(),
		SubarrayInfo: &SubarrayPayload{
			Sizes:   append([]int(nil), sizes...),
			Subsize: append([]int(nil), subsize...),
			Start:   append([]int(nil), start...),
			Order:   order,
		},
		refcount: 1,
	}
	computeMetrics(n)
	if err := invokeCreateHooks(n); err != nil {
		elem.Release(t)
		return HandleNull, ErrBackend
	}
	return t.Publish(n), Success
}
