// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dtype

import (
	"github.com/tinypack/ddt/lib/slices"
)

// Metrics holds the derived layout properties of a Node, computed once
// at construction time per the metrics calculus for each Kind.
type Metrics struct {
	Size      int
	Extent    int
	LB        int
	UB        int
	TrueLB    int
	TrueUB    int
	Alignment int
	IsContig  bool
	NumContig int
	TreeDepth int
}

// computeMetrics fills in n.Metrics from n.Kind and n.Elem/payload,
// assuming those fields (and any children's Metrics) are already set.
func computeMetrics(n *Node) {
	switch n.Kind {
	case KindBuiltin:
		computeBuiltinMetrics(n)
	case KindDup:
		computeDupMetrics(n)
	case KindContig:
		computeContigMetrics(n)
	case KindHVector:
		computeHVectorMetrics(n)
	case KindIndexed:
		computeIndexedMetrics(n, false)
	case KindBlockIndexed:
		computeIndexedMetrics(n, true)
	case KindStruct:
		computeStructMetrics(n)
	case KindResized:
		computeResizedMetrics(n)
	case KindSubarray:
		computeSubarrayMetrics(n)
	}
}

func computeBuiltinMetrics(n *Node) {
	size := n.Builtin.Size
	n.Metrics = Metrics{
		Size:      size,
		Extent:    size,
		LB:        0,
		UB:        size,
		TrueLB:    0,
		TrueUB:    size,
		Alignment: builtinAlignment(size),
		IsContig:  true,
		NumContig: 1,
		TreeDepth: 0,
	}
}

// builtinAlignment mirrors the "alignment per built-in" rule: a
// built-in's natural alignment is the largest power of two dividing its
// size, capped at the size itself.
func builtinAlignment(size int) int {
	if size <= 0 {
		return 1
	}
	align := 1
	for align*2 <= size && (size%(align*2)) == 0 {
		align *= 2
	}
	return align
}

func computeDupMetrics(n *Node) {
	m := n.Elem.Metrics
	m.TreeDepth = n.Elem.Metrics.TreeDepth + 1
	n.Metrics = m
}

func computeContigMetrics(n *Node) {
	in := n.Elem.Metrics
	count := n.Count
	m := Metrics{
		Alignment: in.Alignment,
		TreeDepth: in.TreeDepth + 1,
	}
	if count == 0 {
		m.Extent = 0
		m.IsContig = true
		m.NumContig = 0
		n.Metrics = m
		return
	}
	m.Size = count * in.Size
	m.Extent = count * in.Extent
	m.LB = in.LB
	m.UB = m.LB + m.Extent
	m.TrueLB = in.TrueLB
	m.TrueUB = in.TrueLB + (count-1)*in.Extent + (in.TrueUB - in.TrueLB)
	m.IsContig = in.IsContig && in.Size == in.Extent
	if m.IsContig {
		m.NumContig = in.NumContig
	} else {
		m.NumContig = count * in.NumContig
	}
	n.Metrics = m
}

func computeHVectorMetrics(n *Node) {
	in := n.Elem.Metrics
	p := n.HVectorInfo
	count := n.Count
	m := Metrics{
		Alignment: in.Alignment,
		TreeDepth: in.TreeDepth + 1,
	}
	if count == 0 {
		m.Extent = 0
		m.IsContig = true
		m.NumContig = 0
		n.Metrics = m
		return
	}
	m.Size = count * p.Blocklen * in.Size
	m.Extent = (count-1)*p.Stride + p.Blocklen*in.Extent
	m.LB = in.LB
	m.UB = m.LB + m.Extent

	// true_lb/true_ub must enclose the first/last referenced byte
	// across all blocks, accounting for the sign of the stride and of
	// the child's own true bounds.
	lo, hi := blockExtremes(count, p.Stride, in.TrueLB, in.TrueUB+(p.Blocklen-1)*in.Extent)
	m.TrueLB = lo
	m.TrueUB = hi

	m.IsContig = p.Stride == p.Blocklen*in.Extent && in.IsContig && in.Size == in.Extent
	if m.IsContig {
		m.NumContig = in.NumContig
	} else {
		m.NumContig = count * p.Blocklen * in.NumContig
	}
	n.Metrics = m
}

// blockExtremes finds the tightest [lo, hi) enclosing every block's
// [trueLB, trueUB) window, the blocks being placed at byte offsets
// 0, stride, 2*stride, ..., (count-1)*stride.
func blockExtremes(count, stride, trueLB, trueUB int) (lo, hi int) {
	first := trueLB
	last := trueUB
	other := (count - 1) * stride
	lo = min(first, first+other)
	hi = max(last, last+other)
	return lo, hi
}

func computeIndexedMetrics(n *Node, uniform bool) {
	in := n.Elem.Metrics
	p := n.IndexedInfo
	count := n.Count
	m := Metrics{
		Alignment: in.Alignment,
		TreeDepth: in.TreeDepth + 1,
	}
	if count == 0 {
		m.Extent = 0
		m.IsContig = true
		m.NumContig = 0
		n.Metrics = m
		return
	}

	blocklen := func(i int) int {
		if uniform {
			return p.UniformBlock
		}
		return p.Blocklens[i]
	}

	size := 0
	lo, hi := p.Displs[0]+in.TrueLB, p.Displs[0]+in.TrueUB
	for i := 0; i < count; i++ {
		bl := blocklen(i)
		size += bl * in.Size
		blockLo := p.Displs[i] + in.TrueLB
		blockHi := p.Displs[i] + (bl-1)*in.Extent + in.TrueUB
		lo = min(lo, blockLo)
		hi = max(hi, blockHi)
	}
	m.Size = size
	m.TrueLB = lo
	m.TrueUB = hi
	m.LB = in.LB
	m.UB = m.LB + (hi - lo)
	m.Extent = m.UB - m.LB

	// HINDEXED/BLKHINDEXED are never treated as contiguous by the
	// fast path: a displacement list that happens to be dense is
	// still walked generically, since detecting density is not worth
	// the construction-time cost.
	m.IsContig = false
	total := 0
	for i := 0; i < count; i++ {
		total += blocklen(i) * in.NumContig
	}
	m.NumContig = total
	n.Metrics = m
}

func computeStructMetrics(n *Node) {
	p := n.StructInfo
	m := Metrics{}
	size := 0
	align := 1
	depth := 0
	numContig := 0
	lo, hi := 0, 0
	haveBounds := false
	for i, elem := range p.Elems {
		in := elem.Metrics
		bl := p.Blocklens[i]
		disp := p.Displs[i]
		size += bl * in.Size
		if in.Alignment > align {
			align = in.Alignment
		}
		if in.TreeDepth+1 > depth {
			depth = in.TreeDepth + 1
		}
		numContig += bl * in.NumContig
		if bl > 0 {
			blockLo := disp + in.TrueLB
			blockHi := disp + (bl-1)*in.Extent + in.TrueUB
			if !haveBounds {
				lo, hi = blockLo, blockHi
				haveBounds = true
			} else {
				lo = min(lo, blockLo)
				hi = max(hi, blockHi)
			}
		}
	}
	m.Size = size
	m.Alignment = align
	m.TreeDepth = depth
	m.NumContig = numContig
	m.TrueLB = lo
	m.TrueUB = hi
	m.LB = lo
	m.UB = hi
	m.Extent = hi - lo
	// A struct is contiguous only in the degenerate single-member,
	// densely-packed case; the general case always walks generically.
	m.IsContig = len(p.Elems) == 1 && p.Displs[0] == 0 &&
		p.Elems[0].Metrics.IsContig && p.Elems[0].Metrics.Size == p.Elems[0].Metrics.Extent &&
		size == m.Extent
	if m.IsContig {
		m.NumContig = p.Elems[0].Metrics.NumContig
	}
	n.Metrics = m
}

func computeResizedMetrics(n *Node) {
	in := n.Elem.Metrics
	p := n.ResizedInfo
	m := in
	m.LB = p.LB
	m.UB = p.LB + p.Extent
	m.Extent = p.Extent
	m.Size = in.Size
	m.TrueLB = in.TrueLB
	m.TrueUB = in.TrueUB
	m.TreeDepth = in.TreeDepth + 1
	m.IsContig = in.IsContig && m.Extent == m.Size && m.LB == in.TrueLB
	if m.IsContig {
		m.NumContig = 1
	}
	n.Metrics = m
}

// computeSubarrayMetrics implements §4.1's SUBARRAY rule directly via
// the dimensional formula rather than by literally building the
// nested-HVECTOR/RESIZED chain the calculus describes; see DESIGN.md
// for why the two are equivalent and why the direct form is preferred.
func computeSubarrayMetrics(n *Node) {
	in := n.Elem.Metrics
	p := n.SubarrayInfo
	ndims := len(p.Sizes)

	m := Metrics{
		Alignment: in.Alignment,
		TreeDepth: in.TreeDepth + 1,
	}

	totalElems := 1
	for _, s := range p.Sizes {
		totalElems *= s
	}
	subElems := 1
	for _, s := range p.Subsize {
		subElems *= s
	}
	m.Size = subElems * in.Size
	m.Extent = totalElems * in.Extent

	trueLB, trueUB := 0, 0
	allOrigin := true
	for i := 0; i < ndims; i++ {
		enclosing := 1
		if p.Order == OrderC {
			for j := i + 1; j < ndims; j++ {
				enclosing *= p.Sizes[j]
			}
		} else {
			for j := 0; j < i; j++ {
				enclosing *= p.Sizes[j]
			}
		}
		trueLB += p.Start[i] * enclosing * in.Extent
		trueUB += (p.Start[i] + p.Subsize[i] - 1) * enclosing * in.Extent
		if p.Start[i] != 0 || p.Subsize[i] != p.Sizes[i] {
			allOrigin = false
		}
	}
	trueLB += in.TrueLB
	trueUB += in.TrueUB

	m.TrueLB = trueLB
	m.TrueUB = trueUB
	m.LB = 0
	m.UB = m.Extent

	m.IsContig = in.IsContig && allOrigin && subElems == totalElems
	if m.IsContig {
		m.NumContig = in.NumContig
	} else {
		m.NumContig = subElems * in.NumContig
	}
	n.Metrics = m
}

func min(a, b int) int { return slices.Min(a, b) }

func max(a, b int) int { return slices.Max(a, b) }
