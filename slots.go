package logofy

import (
	"context"
	"sync"
)

// State is the lifecycle of a display slot's current request.
// There is no retry state: a new request starts a new generation.
type State int

const (
	StateIdle           State = iota // nothing requested yet
	StateProbing                     // a resolution is in flight
	StateResolvedWinner              // finished with a logo
	StateResolvedNone                // finished without a logo; render the avatar
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateResolvedWinner:
		return "resolved"
	case StateResolvedNone:
		return "resolved_none"
	default:
		return "unknown"
	}
}

type slot struct {
	gen    uint64
	state  State
	cancel context.CancelFunc
}

// Slots tracks a monotonically increasing generation per display slot (for
// example a card position in a list). Starting a new generation cancels the
// previous one, and a result is only delivered if its generation is still
// the latest. The zero value is ready to use.
type Slots struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// Begin starts a new generation for key, cancelling any in-flight one. The
// returned context is cancelled when a newer generation begins.
func (s *Slots) Begin(ctx context.Context, key string) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots == nil {
		s.slots = make(map[string]*slot)
	}
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{}
		s.slots[key] = sl
	}
	if sl.cancel != nil {
		sl.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	sl.gen++
	sl.state = StateProbing
	sl.cancel = cancel
	return ctx, sl.gen
}

// Finish records the outcome of generation gen. It reports false, and
// changes nothing, when gen has been superseded.
func (s *Slots) Finish(key string, gen uint64, res ResolutionResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok || sl.gen != gen {
		return false
	}
	if sl.cancel != nil {
		sl.cancel()
		sl.cancel = nil
	}
	if res.Winner != nil {
		sl.state = StateResolvedWinner
	} else {
		sl.state = StateResolvedNone
	}
	return true
}

// abandon returns key to StateIdle when gen is still current and ended
// without an outcome.
func (s *Slots) abandon(key string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok || sl.gen != gen {
		return
	}
	if sl.cancel != nil {
		sl.cancel()
		sl.cancel = nil
	}
	sl.state = StateIdle
}

// Current reports whether gen is the latest generation for key.
func (s *Slots) Current(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	return ok && sl.gen == gen
}

// State returns the state of key's latest generation.
func (s *Slots) State(key string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[key]; ok {
		return sl.state
	}
	return StateIdle
}

// Forget drops key, cancelling anything in flight for it.
func (s *Slots) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[key]; ok {
		if sl.cancel != nil {
			sl.cancel()
		}
		delete(s.slots, key)
	}
}

// ResolveSlot resolves req on behalf of a display slot. Any earlier request
// for the same slot is cancelled, and ok is false when this request was
// itself superseded or the caller's context ended before it finished; the
// result must then be discarded. An abandoned request leaves the slot idle.
func (r *Resolver) ResolveSlot(ctx context.Context, slots *Slots, key string, req ResolutionRequest) (ResolutionResult, bool) {
	ctx, gen := slots.Begin(ctx, key)
	res := r.Resolve(ctx, req)
	if res.Incomplete {
		slots.abandon(key, gen)
		return ResolutionResult{}, false
	}
	if !slots.Finish(key, gen, res) {
		return ResolutionResult{}, false
	}
	return res, true
}
