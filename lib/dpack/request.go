// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dpack

import (
	"fmt"
	"sync"

	"github.com/tinypack/ddt/lib/containers"
)

// Request represents a pending pack or unpack. A Request is returned
// already in PhaseSubmitted (construction and launch are atomic from
// the caller's view, per §4.4); RequestWait/RequestTest observe its
// transition to PhaseComplete or PhaseFailed.
type Request struct {
	phase containers.SyncValue[Phase]
	actual int64

	done    chan struct{}
	once    sync.Once
	err     error
	cleanup []func()
}

func newRequest() *Request {
	r := &Request{done: make(chan struct{})}
	r.phase.Store(PhaseSubmitted)
	return r
}

// addCleanup registers a function to run exactly once, when the
// request is finally consumed by RequestWait. Cleanups run in the
// reverse of the order they were added (most-recently-acquired
// resource released first), mirroring the "release acquired resources
// in reverse" discipline used elsewhere in error paths.
func (r *Request) addCleanup(f func()) {
	r.cleanup = append(r.cleanup, f)
}

// complete transitions the request to PhaseComplete (err == nil) or
// PhaseFailed, exactly once, and unblocks any waiter.
func (r *Request) complete(actual int64, err error) {
	r.once.Do(func() {
		r.actual = actual
		r.err = err
		if err != nil {
			r.phase.Store(PhaseFailed)
		} else {
			r.phase.Store(PhaseComplete)
		}
		close(r.done)
	})
}

// RequestTest probes a request's completion without blocking. ok is
// true iff the request has left PhaseSubmitted; in that case the
// request is consumed exactly as RequestWait would consume it.
func RequestTest(req *Request) (actual int64, ok bool, err error) {
	select {
	case <-req.done:
		return req.consume()
	default:
		return 0, false, nil
	}
}

// RequestWait blocks until req completes or fails, then consumes it.
// A waited request must not be waited or tested again.
func RequestWait(req *Request) (actual int64, err error) {
	<-req.done
	actual, _, err = req.consume()
	return actual, err
}

func (r *Request) consume() (int64, bool, error) {
	phase, _ := r.phase.Load()
	if phase != PhaseComplete && phase != PhaseFailed {
		return 0, false, fmt.Errorf("dpack: request not yet complete")
	}
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
	r.cleanup = nil
	return r.actual, true, r.err
}

// Phase reports the request's current lifecycle position, for
// diagnostics; it is not part of the join protocol (use RequestTest).
func (r *Request) Phase() Phase {
	p, _ := r.phase.Load()
	return p
}
