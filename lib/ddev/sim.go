// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ddev

import (
	"fmt"
	"time"

	"github.com/tinypack/ddt/lib/diskio"
	"github.com/tinypack/ddt/lib/dtype"
)

// SimBackend simulates a device kind without talking to any real
// accelerator: its "device" memory is ordinary host RAM tagged Device,
// and its kernels run on a background goroutine after an artificial
// delay, so that callers genuinely exercise the NEW→SUBMITTED→COMPLETE
// state machine and the non-blocking Test path instead of always
// observing an already-complete event. See DESIGN.md for why a real
// GPU backend is out of scope and this simulation stands in for it.
type SimBackend struct {
	DeviceID int
	Latency  time.Duration
}

var _ Backend = (*SimBackend)(nil)

// NewSimBackend returns a SimBackend for the given simulated device id.
// A zero latency still completes asynchronously (on the next
// scheduler quantum), it just doesn't artificially wait.
func NewSimBackend(deviceID int, latency time.Duration) *SimBackend {
	return &SimBackend{DeviceID: deviceID, Latency: latency}
}

func (b *SimBackend) Name() string { return fmt.Sprintf("sim:%d", b.DeviceID) }

// Init is a no-op: the simulated device needs no connection setup or
// staging slab reservation, unlike a real accelerator backend would.
func (*SimBackend) Init() error { return nil }

func (*SimBackend) Attach(n *dtype.Node) (any, error) { return nil, nil }
func (*SimBackend) Detach(n *dtype.Node, state any)   {}

func (*SimBackend) HostAlloc(n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("ddev: negative allocation size %d", n)
	}
	return &Buffer{Kind: Host, file: diskio.NewMemFile("sim-host", int64(n))}, nil
}

func (*SimBackend) HostFree(b *Buffer) error { return nil }

func (b *SimBackend) DeviceAlloc(n int, devID int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("ddev: negative allocation size %d", n)
	}
	return &Buffer{Kind: Device, DeviceID: devID, file: diskio.NewMemFile(fmt.Sprintf("sim-device-%d", devID), int64(n))}, nil
}

func (*SimBackend) DeviceFree(b *Buffer) error { return nil }

func (b *SimBackend) Pack(src, dst Pointer, count int, typ *dtype.Node, offset, length int64) (*Event, error) {
	return b.launch(func() error {
		return packKernel(src, dst, count, typ, offset, length)
	}), nil
}

func (b *SimBackend) Unpack(src, dst Pointer, count int, typ *dtype.Node, offset, length int64) (*Event, error) {
	return b.launch(func() error {
		return unpackKernel(src, dst, count, typ, offset, length)
	}), nil
}

func (b *SimBackend) launch(work func() error) *Event {
	e := newEvent()
	go func() {
		if b.Latency > 0 {
			time.Sleep(b.Latency)
		}
		e.fire(work())
	}()
	return e
}

func (b *SimBackend) PointerKind(p Pointer) (MemKind, int, error) {
	if p.Buf == nil {
		return Host, 0, fmt.Errorf("ddev: nil buffer")
	}
	return p.Buf.Kind, p.Buf.DeviceID, nil
}

func (*SimBackend) Finalize() error { return nil }
