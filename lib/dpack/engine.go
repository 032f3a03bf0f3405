// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dpack

import (
	"fmt"

	"github.com/tinypack/ddt/lib/containers"
	"github.com/tinypack/ddt/lib/ddev"
	"github.com/tinypack/ddt/lib/dtype"
	"github.com/tinypack/ddt/lib/maps"
)

// Engine owns the backend set a pack/unpack call dispatches across:
// one host backend and zero or more device backends, keyed by device
// id, plus the staging pool used for device-to-device transfers. The
// pool holds nothing up front: each staged transfer takes a slice sized
// to its own length and hands it back when its request is consumed.
type Engine struct {
	Host    ddev.Backend
	Devices map[int]ddev.Backend

	staging containers.SlicePool[byte]
}

// NewEngine builds an Engine around a host backend and an optional set
// of device backends.
func NewEngine(host ddev.Backend, devices map[int]ddev.Backend) *Engine {
	if devices == nil {
		devices = map[int]ddev.Backend{}
	}
	return &Engine{Host: host, Devices: devices}
}

// DeviceIDs reports the engine's device backends in a stable, sorted
// order, for diagnostics and listing commands.
func (e *Engine) DeviceIDs() []int {
	return maps.SortedKeys(e.Devices)
}

func (e *Engine) backendFor(kind ddev.MemKind, devID int) (ddev.Backend, error) {
	if kind == ddev.Host {
		return e.Host, nil
	}
	b, ok := e.Devices[devID]
	if !ok {
		return nil, fmt.Errorf("dpack: no backend registered for device %d", devID)
	}
	return b, nil
}

func (e *Engine) kindOf(hint containers.Optional[KindHint], p ddev.Pointer) (ddev.MemKind, int, error) {
	if hint.OK {
		return hint.Val.Kind, hint.Val.DeviceID, nil
	}
	if p.Buf == nil {
		return ddev.Host, 0, fmt.Errorf("dpack: nil pointer")
	}
	return e.Host.PointerKind(p)
}

// IPack produces at most outMax bytes of inType's logical packed
// stream, starting at byte inOffset of the inCount-element array
// inBuf, into outBuf. actual is the number of bytes the request will
// (or already did) produce; it is bounded by outMax and by the
// remaining bytes of the logical stream.
func (e *Engine) IPack(inBuf ddev.Pointer, inCount int, inType *dtype.Node, inOffset int64, outBuf ddev.Pointer, outMax int64, info *Info) (req *Request, actual int64, errno dtype.Errno) {
	return e.idispatch(inBuf, inOffset, outBuf, outMax, inCount, inType, info, false)
}

// IUnpack is IPack's inverse: up to inBytes contiguous bytes at inBuf
// are scattered into outBuf according to outType, starting at
// outOffset within outType's logical stream.
func (e *Engine) IUnpack(inBuf ddev.Pointer, inBytes int64, outBuf ddev.Pointer, outCount int, outType *dtype.Node, outOffset int64, info *Info) (req *Request, actual int64, errno dtype.Errno) {
	return e.idispatch(outBuf, outOffset, inBuf, inBytes, outCount, outType, info, true)
}

// idispatch is shared by IPack and IUnpack. `typedBuf` always names the
// side addressed through typ (in for pack, out for unpack); `flatBuf`
// always names the plain contiguous packed-bytes side (out for pack,
// in for unpack). `unpack` selects which of backend.Pack/backend.Unpack
// to invoke — the kernel contract is always (src, dst); for pack
// src=typed, dst=flat, for unpack src=flat, dst=typed.
func (e *Engine) idispatch(typedBuf ddev.Pointer, typedOffset int64, flatBuf ddev.Pointer, flatMax int64, count int, typ *dtype.Node, info *Info, unpack bool) (*Request, int64, dtype.Errno) {
	if info == nil {
		info = InfoCreate()
	}
	remaining := int64(count)*int64(typ.Metrics.Size) - typedOffset
	if remaining < 0 {
		return nil, 0, dtype.ErrInvalidArg
	}
	length := flatMax
	if remaining < length {
		length = remaining
	}
	if length < 0 {
		length = 0
	}

	var typedKind, flatKind containers.Optional[KindHint]
	if unpack {
		typedKind, flatKind = info.DstKind, info.SrcKind
	} else {
		typedKind, flatKind = info.SrcKind, info.DstKind
	}

	typedMK, typedDev, err := e.kindOf(typedKind, typedBuf)
	if err != nil {
		return nil, 0, dtype.ErrBackend
	}
	flatMK, flatDev, err := e.kindOf(flatKind, flatBuf)
	if err != nil {
		return nil, 0, dtype.ErrBackend
	}

	req := newRequest()

	switch {
	case typedMK == ddev.Host && flatMK == ddev.Host:
		// Single backend, single kernel call; the walker's is_contig
		// fast path already collapses this to one run when possible.
		e.launch(req, e.Host, typedBuf, typedOffset, flatBuf, count, typ, length, unpack)

	case typedMK != ddev.Host && flatMK != ddev.Host && typedDev != flatDev:
		// Cross-device: stage through a host slab; see
		// launchCrossDevice.
		if err := e.launchCrossDevice(req, typedBuf, typedOffset, flatBuf, typedDev, flatDev, count, typ, length, unpack); err != nil {
			return nil, 0, dtype.ErrBackend
		}

	default:
		// At least one side is a device; dispatch to its backend,
		// which is expected to accept the host-side pointer directly.
		devID, devMK := typedDev, typedMK
		if devMK == ddev.Host {
			devID = flatDev
		}
		backend, err := e.backendFor(ddev.Device, devID)
		if err != nil {
			return nil, 0, dtype.ErrNotSupported
		}
		e.launch(req, backend, typedBuf, typedOffset, flatBuf, count, typ, length, unpack)
	}

	return req, length, dtype.Success
}

// launch runs a single backend kernel call: Pack(typed→flat) or
// Unpack(flat→typed), completing req once the resulting event (if any)
// fires.
func (e *Engine) launch(req *Request, backend ddev.Backend, typedBuf ddev.Pointer, typedOffset int64, flatBuf ddev.Pointer, count int, typ *dtype.Node, length int64, unpack bool) {
	var ev *ddev.Event
	var err error
	if unpack {
		ev, err = backend.Unpack(flatBuf, typedBuf, count, typ, typedOffset, length)
	} else {
		ev, err = backend.Pack(typedBuf, flatBuf, count, typ, typedOffset, length)
	}
	if err != nil {
		req.complete(0, err)
		return
	}
	if ev == nil {
		req.complete(length, nil)
		return
	}
	go func() {
		req.complete(length, ev.Wait())
	}()
}

// launchCrossDevice moves a transfer between two different devices
// through one pooled host staging buffer, behind a single goroutine
// that completes the Request. typ's kernel runs on the typed side's
// backend, between the typed buffer and the staging buffer. The flat
// side is a plain contiguous copy of `length` bytes between the staging
// buffer and the flat buffer, done with ReadAt/WriteAt rather than
// through the flat side's backend, so only one backend event is waited
// on. For pack the kernel runs first and the copy second; for unpack
// the copy runs first. The transfer is not split into smaller pieces.
func (e *Engine) launchCrossDevice(req *Request, typedBuf ddev.Pointer, typedOffset int64, flatBuf ddev.Pointer, typedDev, flatDev int, count int, typ *dtype.Node, length int64, unpack bool) error {
	typedBackend, err := e.backendFor(ddev.Device, typedDev)
	if err != nil {
		return err
	}
	flatBackend, err := e.backendFor(ddev.Device, flatDev)
	if err != nil {
		return err
	}

	slice := e.staging.Get(int(length))
	stage := ddev.WrapHostBuffer("dpack-stage", slice)
	req.addCleanup(func() { e.staging.Put(slice) })

	go func() {
		// Hop 1: move the packed bytes between the typed buffer and
		// the staging slab, using typ's own kernel. For unpack the
		// flat side's bytes are first copied into the slab.
		var hop1 *ddev.Event
		var err error
		if unpack {
			buf := make([]byte, length)
			if _, err = flatBuf.Buf.ReadAt(buf, flatBuf.Offset); err == nil {
				_, err = stage.WriteAt(buf, 0)
			}
			if err == nil {
				hop1, err = typedBackend.Unpack(ddev.Pointer{Buf: stage}, typedBuf, count, typ, typedOffset, length)
			}
		} else {
			hop1, err = typedBackend.Pack(typedBuf, ddev.Pointer{Buf: stage}, count, typ, typedOffset, length)
		}
		if err != nil {
			req.complete(0, err)
			return
		}
		if hop1 != nil {
			if err := hop1.Wait(); err != nil {
				req.complete(0, err)
				return
			}
		}

		// Hop 2 (pack only): the staging slab now holds `length`
		// contiguous packed bytes; move them to the flat side's device
		// with a plain copy. The sim backends' "device" buffers are
		// ordinary memory, so a direct ReadAt/WriteAt suffices.
		var copyErr error
		if !unpack {
			buf := make([]byte, length)
			if _, err := stage.ReadAt(buf, 0); err != nil {
				copyErr = err
			} else if _, err := flatBuf.Buf.WriteAt(buf, flatBuf.Offset); err != nil {
				copyErr = err
			}
		}
		_ = flatBackend // reserved for a real device's DMA path; the simulation copies directly.
		req.complete(length, copyErr)
	}()
	return nil
}

// Pack is IPack with an implicit wait.
func (e *Engine) Pack(inBuf ddev.Pointer, inCount int, inType *dtype.Node, inOffset int64, outBuf ddev.Pointer, outMax int64, info *Info) (actual int64, errno dtype.Errno) {
	req, _, errno := e.IPack(inBuf, inCount, inType, inOffset, outBuf, outMax, info)
	if errno != dtype.Success {
		return 0, errno
	}
	n, err := RequestWait(req)
	if err != nil {
		return n, dtype.ErrBackend
	}
	return n, dtype.Success
}

// Unpack is IUnpack with an implicit wait.
func (e *Engine) Unpack(inBuf ddev.Pointer, inBytes int64, outBuf ddev.Pointer, outCount int, outType *dtype.Node, outOffset int64, info *Info) (actual int64, errno dtype.Errno) {
	req, _, errno := e.IUnpack(inBuf, inBytes, outBuf, outCount, outType, outOffset, info)
	if errno != dtype.Success {
		return 0, errno
	}
	n, err := RequestWait(req)
	if err != nil {
		return n, dtype.ErrBackend
	}
	return n, dtype.Success
}
