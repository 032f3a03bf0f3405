// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dtype

// GetSize reports h's packed size in bytes: the number of bytes a
// Pack of one instance of h actually transfers. Equivalent to
// table.Lookup(h) followed by reading n.Metrics.Size.
func (t *HandleTable) GetSize(h Handle) (int, Errno) {
	n, errno := t.Lookup(h)
	if errno != Success {
		return 0, errno
	}
	return n.Metrics.Size, Success
}

// GetExtent reports h's extent (UB - LB): the span a single instance
// occupies for the purpose of striding an array of them (Contig, for
// example, places its copies one element extent apart).
func (t *HandleTable) GetExtent(h Handle) (int, Errno) {
	n, errno := t.Lookup(h)
	if errno != Success {
		return 0, errno
	}
	return n.Metrics.Extent, Success
}

// GetTrueExtent reports h's true extent: TrueUB - TrueLB, the span h's
// data actually covers ignoring any Resized lb/ub override. A
// destination buffer for Unpack must be sized against this, not
// against GetExtent, since Resized can shrink the advertised extent
// below the data's real footprint.
func (t *HandleTable) GetTrueExtent(h Handle) (int, Errno) {
	n, errno := t.Lookup(h)
	if errno != Success {
		return 0, errno
	}
	return n.Metrics.TrueUB - n.Metrics.TrueLB, Success
}

// Free releases the caller's reference to h, recursively releasing
// its children and returning it to the table once its refcount
// reaches zero. Free on a builtin handle is a no-op, matching
// Node.Release.
func (t *HandleTable) Free(h Handle) Errno {
	n, errno := t.Lookup(h)
	if errno != Success {
		return errno
	}
	n.Release(t)
	return Success
}
