// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dwalk

import (
	"sync"

	"github.com/tinypack/ddt/lib/dtype"
)

// cache memoizes elementRuns per node. Nodes are immutable once
// published (see dtype.Node), so it is safe to compute this once and
// share it across every Walk call and every goroutine.
var (
	cacheMu sync.Mutex
	cache   = map[*dtype.Node]*elementRuns{}
)

func runsFor(n *dtype.Node) *elementRuns {
	cacheMu.Lock()
	if e, ok := cache[n]; ok {
		cacheMu.Unlock()
		return e
	}
	cacheMu.Unlock()

	e := decompose(n)

	cacheMu.Lock()
	cache[n] = e
	cacheMu.Unlock()
	return e
}

func decompose(n *dtype.Node) *elementRuns {
	switch n.Kind {
	case dtype.KindBuiltin:
		return makeElementRuns([]Run{{Offset: 0, Length: int64(n.Builtin.Size)}})
	case dtype.KindDup, dtype.KindResized:
		// Neither dup nor resize moves data; they reuse the child's
		// decomposition verbatim.
		return runsFor(n.Elem)
	case dtype.KindContig:
		return makeElementRuns(replicateRuns(runsFor(n.Elem).runs, n.Count, int64(n.Elem.Metrics.Extent)))
	case dtype.KindHVector:
		return decomposeHVector(n)
	case dtype.KindIndexed:
		return decomposeIndexed(n, false)
	case dtype.KindBlockIndexed:
		return decomposeIndexed(n, true)
	case dtype.KindStruct:
		return decomposeStruct(n)
	case dtype.KindSubarray:
		return decomposeSubarray(n)
	default:
		return makeElementRuns(nil)
	}
}

func decomposeHVector(n *dtype.Node) *elementRuns {
	p := n.HVectorInfo
	elemRuns := runsFor(n.Elem).runs
	block := replicateRuns(elemRuns, p.Blocklen, int64(n.Elem.Metrics.Extent))
	return makeElementRuns(replicateRuns(block, n.Count, int64(p.Stride)))
}

func decomposeIndexed(n *dtype.Node, uniform bool) *elementRuns {
	p := n.IndexedInfo
	elemRuns := runsFor(n.Elem).runs
	elemExtent := int64(n.Elem.Metrics.Extent)

	blocklen := func(i int) int {
		if uniform {
			return p.UniformBlock
		}
		return p.Blocklens[i]
	}

	var all []Run
	for i := 0; i < n.Count; i++ {
		block := replicateRuns(elemRuns, blocklen(i), elemExtent)
		block = shiftRuns(block, int64(p.Displs[i]))
		all = append(all, block...)
	}
	return makeElementRuns(mergeAdjacent(all))
}

func decomposeStruct(n *dtype.Node) *elementRuns {
	p := n.StructInfo
	var all []Run
	for i, child := range p.Elems {
		childRuns := runsFor(child).runs
		block := replicateRuns(childRuns, p.Blocklens[i], int64(child.Metrics.Extent))
		block = shiftRuns(block, int64(p.Displs[i]))
		all = append(all, block...)
	}
	return makeElementRuns(mergeAdjacent(all))
}

// decomposeSubarray walks the ndims-dimensional selection directly:
// starting from one source element's own runs, it replicates along
// each dimension innermost-first at that dimension's enclosing byte
// stride, then shifts the whole thing by the start-offset contribution
// of every dimension. This reuses the same compose primitives as
// CONTIG/HVECTOR rather than literally materializing the nested
// HVECTOR/RESIZED chain that §4.1 describes the metrics calculus in
// terms of.
func decomposeSubarray(n *dtype.Node) *elementRuns {
	p := n.SubarrayInfo
	elemExtent := int64(n.Elem.Metrics.Extent)
	ndims := len(p.Sizes)

	enclosing := func(i int) int64 {
		prod := int64(1)
		if p.Order == dtype.OrderC {
			for j := i + 1; j < ndims; j++ {
				prod *= int64(p.Sizes[j])
			}
		} else {
			for j := 0; j < i; j++ {
				prod *= int64(p.Sizes[j])
			}
		}
		return prod
	}

	var order []int
	if p.Order == dtype.OrderC {
		for i := ndims - 1; i >= 0; i-- {
			order = append(order, i)
		}
	} else {
		for i := 0; i < ndims; i++ {
			order = append(order, i)
		}
	}

	current := runsFor(n.Elem).runs
	var baseOffset int64
	for _, dim := range order {
		strideBytes := enclosing(dim) * elemExtent
		current = replicateRuns(current, p.Subsize[dim], strideBytes)
		baseOffset += int64(p.Start[dim]) * strideBytes
	}
	current = shiftRuns(current, baseOffset)
	return makeElementRuns(mergeAdjacent(current))
}
