// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dpack

import (
	"github.com/tinypack/ddt/lib/containers"
	"github.com/tinypack/ddt/lib/ddev"
)

// KindHint is a caller-supplied, pre-queried memory kind for one side
// of a pack/unpack call. Its presence must not change observable
// output, only whether the engine needs to ask a backend's
// PointerKind at all.
type KindHint struct {
	Kind     ddev.MemKind
	DeviceID int
}

// Info is the optional hint bundle attached to a pack/unpack call.
// The engine reads only SrcKind and DstKind, which SetSrcKind and
// SetDstKind fill in. Keys given to InfoKeyvalAppend, pack_src_kind and
// pack_dst_kind included, are stored as plain strings that the engine
// never reads.
type Info struct {
	SrcKind containers.Optional[KindHint]
	DstKind containers.Optional[KindHint]

	extra map[string]string
}

// InfoCreate returns a fresh, empty Info.
func InfoCreate() *Info {
	return &Info{}
}

// InfoFree releases an Info. Info holds no backend resources, so this
// exists only to mirror the external interface's lifecycle symmetry.
func InfoFree(*Info) {}

// InfoKeyvalAppend records an arbitrary key/value pair, returned later
// by Keyval. No key is interpreted: storing pack_src_kind or
// pack_dst_kind here leaves SrcKind/DstKind unset.
func (i *Info) InfoKeyvalAppend(key, value string) {
	if i.extra == nil {
		i.extra = make(map[string]string)
	}
	i.extra[key] = value
}

func (i *Info) Keyval(key string) (string, bool) {
	v, ok := i.extra[key]
	return v, ok
}

// SetSrcKind/SetDstKind record a pre-queried pointer kind, letting the
// engine skip a PointerKind call for that side.
func (i *Info) SetSrcKind(kind ddev.MemKind, deviceID int) {
	i.SrcKind = containers.Optional[KindHint]{OK: true, Val: KindHint{Kind: kind, DeviceID: deviceID}}
}

func (i *Info) SetDstKind(kind ddev.MemKind, deviceID int) {
	i.DstKind = containers.Optional[KindHint]{OK: true, Val: KindHint{Kind: kind, DeviceID: deviceID}}
}
