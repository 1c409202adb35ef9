package player

import (
	"fmt"
	"sync/atomic"
)

// State is the playback lifecycle state
type State int32

const (
	StateIdle    State = iota // Sequence loaded or not, nothing playing
	StateStart                // Decoding and rendering
	StatePause                // Rendering frozen on the current frame
	StateStop                 // Stopped by request
	StateEnd                  // Final pass reached its last frame
	StateDestroy              // Torn down, terminal
)

var stateNames = [...]string{"idle", "start", "pause", "stop", "end", "destroy"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further frames will be produced without a
// new Start or SetSequence
func (s State) Terminal() bool {
	return s == StateStop || s == StateEnd || s == StateDestroy
}

// stateCell is an atomic State with transition helpers. Destroy is sticky:
// once stored, no transition can leave it.
type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) load() State {
	return State(c.v.Load())
}

// transition moves from any state in from to to, returning the previous
// state and whether the move happened
func (c *stateCell) transition(to State, from ...State) (State, bool) {
	for {
		cur := State(c.v.Load())
		if cur == StateDestroy {
			return cur, false
		}
		allowed := len(from) == 0
		for _, f := range from {
			if cur == f {
				allowed = true
				break
			}
		}
		if !allowed {
			return cur, false
		}
		if c.v.CompareAndSwap(int32(cur), int32(to)) {
			return cur, true
		}
	}
}

// destroy stores StateDestroy and reports whether this call did it
func (c *stateCell) destroy() bool {
	return State(c.v.Swap(int32(StateDestroy))) != StateDestroy
}
