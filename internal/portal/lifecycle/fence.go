package lifecycle

import (
	"errors"
	"sync"
)

// ErrStaleResponse means a newer request for the same view was issued
// while this one was in flight; its result was not applied.
var ErrStaleResponse = errors.New("stale response: superseded by a newer request")

type viewKind int

const (
	viewSellerItems viewKind = iota
	viewAvailable
	viewAccepted
)

// fences hands out monotonically increasing tickets per view. A result is
// applied only if its ticket is still the newest issued.
type fences struct {
	mu     sync.Mutex
	issued map[viewKind]uint64
}

func (f *fences) next(v viewKind) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issued == nil {
		f.issued = make(map[viewKind]uint64)
	}
	f.issued[v]++
	return f.issued[v]
}

// apply runs fn under the fence lock when ticket is current.
func (f *fences) apply(v viewKind, ticket uint64, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issued[v] != ticket {
		return ErrStaleResponse
	}
	fn()
	return nil
}

// applyAll runs fn only if every ticket is still current for its view.
func (f *fences) applyAll(tickets map[viewKind]uint64, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for v, t := range tickets {
		if f.issued[v] != t {
			return ErrStaleResponse
		}
	}
	fn()
	return nil
}
