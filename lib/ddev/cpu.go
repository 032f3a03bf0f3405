// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ddev

import (
	"fmt"

	"github.com/tinypack/ddt/lib/diskio"
	"github.com/tinypack/ddt/lib/dtype"
)

// CPUBackend is the always-present host backend: its kernels run
// synchronously on the calling goroutine, so every Event it returns is
// already EventDone by the time Pack/Unpack return.
type CPUBackend struct{}

var _ Backend = (*CPUBackend)(nil)

func NewCPUBackend() *CPUBackend { return &CPUBackend{} }

func (*CPUBackend) Name() string { return "cpu" }

// Init is a no-op: the host backend has no process-wide state to
// acquire (no device context, no staging slabs) before it can run
// kernels on the calling goroutine.
func (*CPUBackend) Init() error { return nil }

// Attach/Detach: the host kernel needs no per-type compiled state, so
// these are no-ops that still satisfy dtype.HookCloser.
func (*CPUBackend) Attach(n *dtype.Node) (any, error) { return nil, nil }
func (*CPUBackend) Detach(n *dtype.Node, state any)   {}

func (*CPUBackend) HostAlloc(n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("ddev: negative allocation size %d", n)
	}
	return &Buffer{Kind: Host, file: diskio.NewMemFile("cpu-host", int64(n))}, nil
}

func (*CPUBackend) HostFree(b *Buffer) error { return nil }

func (*CPUBackend) DeviceAlloc(n int, devID int) (*Buffer, error) {
	return nil, dtype.ErrNotSupported
}

func (*CPUBackend) DeviceFree(b *Buffer) error { return dtype.ErrNotSupported }

func (*CPUBackend) Pack(src, dst Pointer, count int, typ *dtype.Node, offset, length int64) (*Event, error) {
	if err := packKernel(src, dst, count, typ, offset, length); err != nil {
		return nil, err
	}
	return nil, nil
}

func (*CPUBackend) Unpack(src, dst Pointer, count int, typ *dtype.Node, offset, length int64) (*Event, error) {
	if err := unpackKernel(src, dst, count, typ, offset, length); err != nil {
		return nil, err
	}
	return nil, nil
}

func (*CPUBackend) PointerKind(p Pointer) (MemKind, int, error) {
	if p.Buf == nil {
		return Host, 0, fmt.Errorf("ddev: nil buffer")
	}
	return p.Buf.Kind, p.Buf.DeviceID, nil
}

func (*CPUBackend) Finalize() error { return nil }
