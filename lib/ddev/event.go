// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ddev

import (
	"github.com/tinypack/ddt/lib/containers"
)

// EventState is the outcome of a backend operation; it is the
// lower-level analogue of dpack.Phase, reported per-kernel-launch
// rather than per-request.
type EventState int

const (
	EventPending EventState = iota
	EventDone
	EventErr
)

// Event is a backend-issued handle for an in-flight operation. A nil
// *Event denotes an operation that was already complete when issued
// (the host/host/contig fast path never allocates one).
type Event struct {
	state containers.SyncValue[EventState]
	err   error
	done  chan struct{}
}

func newEvent() *Event {
	e := &Event{done: make(chan struct{})}
	e.state.Store(EventPending)
	return e
}

// fire transitions the event to Done (err == nil) or Err, exactly
// once, and unblocks any waiter.
func (e *Event) fire(err error) {
	state := EventDone
	if err != nil {
		state = EventErr
	}
	e.err = err
	e.state.Store(state)
	close(e.done)
}

// Query reports the event's state without blocking.
func (e *Event) Query() EventState {
	if e == nil {
		return EventDone
	}
	st, _ := e.state.Load()
	return st
}

// Wait blocks until the event leaves EventPending, returning the
// backend error (if any) that moved it to EventErr.
func (e *Event) Wait() error {
	if e == nil {
		return nil
	}
	<-e.done
	return e.err
}
