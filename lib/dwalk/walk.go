// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dwalk

import (
	"fmt"

	"github.com/tinypack/ddt/lib/dtype"
	"github.com/tinypack/ddt/lib/slices"
)

// Walk returns the ordered sequence of contiguous source runs covering
// [offsetBytes, offsetBytes+lengthBytes) of the logical packed stream
// formed by elemCount repetitions of n. The sequence is deterministic
// for a given (n, elemCount, offsetBytes, lengthBytes).
func Walk(n *dtype.Node, elemCount int, offsetBytes, lengthBytes int64) ([]Run, error) {
	if lengthBytes < 0 || offsetBytes < 0 {
		return nil, fmt.Errorf("dwalk: negative offset or length")
	}
	if lengthBytes == 0 {
		return nil, nil
	}
	total := int64(elemCount) * int64(n.Metrics.Size)
	if offsetBytes+lengthBytes > total {
		return nil, fmt.Errorf("dwalk: window [%d,%d) exceeds logical stream length %d", offsetBytes, offsetBytes+lengthBytes, total)
	}

	// Mandatory fast path (§4.3): an is_contig type's logical stream
	// maps byte-for-byte onto the source, size == extent, so the
	// window is already a single run.
	if n.Metrics.IsContig {
		return []Run{{Offset: offsetBytes, Length: lengthBytes}}, nil
	}

	e := runsFor(n)
	size := int64(n.Metrics.Size)
	extent := int64(n.Metrics.Extent)

	var out []Run
	pos := offsetBytes
	remaining := lengthBytes
	for remaining > 0 {
		var repIdx, within int64
		if size > 0 {
			repIdx = pos / size
			within = pos % size
		}
		repBase := repIdx * extent

		idx := e.locate(within)
		run := e.runs[idx]
		offsetInRun := within - e.prefix[idx]
		availableInRun := run.Length - offsetInRun
		availableInRep := size - within

		take := slices.Min(remaining, slices.Min(availableInRun, availableInRep))
		if take <= 0 {
			// size == 0 guard: nothing left to produce.
			break
		}

		srcAddr := repBase + run.Offset + offsetInRun
		appendRun(&out, Run{Offset: srcAddr, Length: take})

		pos += take
		remaining -= take
	}
	return out, nil
}

func appendRun(out *[]Run, r Run) {
	if n := len(*out); n > 0 {
		last := &(*out)[n-1]
		if last.Offset+last.Length == r.Offset {
			last.Length += r.Length
			return
		}
	}
	*out = append(*out, r)
}
