// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dpack implements the pack/unpack engine: non-blocking
// ipack/iunpack, their blocking pack/unpack counterparts, the
// request-wait/test join, and the path selection between host and
// device backends that §4.4 describes.
package dpack

// Phase is a request's position in its NEW → SUBMITTED → {COMPLETE,
// FAILED} lifecycle.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseSubmitted
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseSubmitted:
		return "submitted"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "phase(?)"
	}
}
