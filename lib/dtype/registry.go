// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dtype

import "sync"

// hookRegistry is the process-wide list of backends that want to be
// notified of node construction/destruction. Registration happens once
// per backend, through an explicit ddev.Register call made by the code
// that sets the backend up (not from the backend's constructor and not
// from an init(), per the package's no-implicit-registration rule),
// and returns a stable slot used to key Node.hookCache.
var (
	registryMu sync.Mutex
	registry   []Hook
)

// RegisterHook adds h to the process-wide set of backends consulted by
// every future node construction/destruction, and returns the slot it
// was assigned.
func RegisterHook(h Hook) int {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, h)
	return len(registry) - 1
}

// hooks returns a snapshot of the currently-registered backends.
func hooks() []Hook {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]Hook, len(registry))
	copy(out, registry)
	return out
}

// invokeCreateHooks runs every registered backend's Attach against n,
// eagerly populating n.hookCache. A failure aborts construction.
func invokeCreateHooks(n *Node) error {
	for slot, h := range hooks() {
		v, err := h.Attach(n)
		if err != nil {
			return err
		}
		n.hookCache.Store(slot, v)
	}
	return nil
}
