// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ddev

import (
	"sync"

	"github.com/tinypack/ddt/lib/dtype"
)

// Backend is the function-pointer-record contract every device kind
// implements (§4.5). Backend also satisfies dtype.HookCloser: Attach
// and Detach ARE the type_create/type_free entries of the vtable,
// deliberately given the names dtype already defines so a Backend can
// be handed straight to dtype.RegisterHook.
type Backend interface {
	dtype.HookCloser

	Name() string

	// Init acquires any process-wide state the backend needs before
	// it can service Pack/Unpack (for a real accelerator: device
	// context creation, pre-reserved staging slabs). Called once per
	// backend by InitAll, paired with Finalize.
	Init() error

	HostAlloc(n int) (*Buffer, error)
	HostFree(b *Buffer) error
	DeviceAlloc(n int, devID int) (*Buffer, error)
	DeviceFree(b *Buffer) error

	// Pack produces length bytes of typ's logical packed stream,
	// starting at offset, from src into dst, for count repeats of
	// typ. It returns immediately with an Event that fires once the
	// bytes have actually landed in dst.
	Pack(src, dst Pointer, count int, typ *dtype.Node, offset, length int64) (*Event, error)
	Unpack(src, dst Pointer, count int, typ *dtype.Node, offset, length int64) (*Event, error)

	// PointerKind answers "where does p live", for the engine's path
	// selection; devID is meaningful only when the kind is Device.
	PointerKind(p Pointer) (kind MemKind, devID int, err error)

	// Finalize releases any process-wide state (in particular
	// pre-reserved staging slabs) acquired since registration.
	Finalize() error
}

// registry is the process-wide ordered list of backends, per the "no
// globals beyond backend registry" design rule: it exists, but nothing
// populates it implicitly — callers explicitly call Register (in this
// repository only the tests do; cmd/ddtbench does not).
var (
	registryMu sync.Mutex
	registry   []Backend
)

// Register adds b to the process-wide backend list and to dtype's
// create/free hook registry (so every future type construction fans
// out to b.Attach), returning b's position in both.
func Register(b Backend) int {
	registryMu.Lock()
	registry = append(registry, b)
	registryMu.Unlock()
	return dtype.RegisterHook(b)
}

// Backends returns a snapshot of the registered backends, in
// registration order.
func Backends() []Backend {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]Backend, len(registry))
	copy(out, registry)
	return out
}

// InitAll calls Init on every registered backend, for process startup.
// Call it once after all backends of interest have been Registered
// and before handing the registry to an Engine.
func InitAll() error {
	for _, b := range Backends() {
		if err := b.Init(); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeAll calls Finalize on every registered backend, for process
// shutdown. It does not unregister them: the registry is not meant to
// be mutated outside of process lifetime (§5 "not thread-safe against
// themselves").
func FinalizeAll() error {
	var firstErr error
	for _, b := range Backends() {
		if err := b.Finalize(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
