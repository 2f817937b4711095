// Package coordinator implements the per-meeting serialization primitive
// §4.11 calls for: one mutex per meeting (never a global lock), a
// cancellation token for in-flight work, and the chain-depth counter §4.8
// bounds auto-response chains with.
package coordinator

import (
	"context"
	"sync"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
)

// DefaultMaxChainDepth is §4.8's default depth limit K.
const DefaultMaxChainDepth = 4

// meetingState separates the big per-meeting operation lock (opMu, held for
// the duration of a turn or state-machine call) from the small fieldMu that
// guards cancel/chainDepth so Cancel can reach a running turn without
// blocking behind opMu.
type meetingState struct {
	opMu    sync.Mutex
	fieldMu sync.Mutex
	chainDepth int
	cancel     context.CancelFunc
}

// Coordinator owns one meetingState per meeting id, created on first use.
type Coordinator struct {
	registryMu    sync.Mutex
	meetings      map[string]*meetingState
	maxChainDepth int
}

// New constructs a Coordinator with §4.8's default chain depth limit.
func New() *Coordinator {
	return NewWithMaxChainDepth(DefaultMaxChainDepth)
}

// NewWithMaxChainDepth constructs a Coordinator with a caller-supplied chain
// depth limit, so a deployment can tune §4.8's K via config instead of
// accepting the compiled-in default.
func NewWithMaxChainDepth(maxChainDepth int) *Coordinator {
	if maxChainDepth < 1 {
		maxChainDepth = DefaultMaxChainDepth
	}
	return &Coordinator{meetings: make(map[string]*meetingState), maxChainDepth: maxChainDepth}
}

func (c *Coordinator) state(meetingID string) *meetingState {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()
	st, ok := c.meetings[meetingID]
	if !ok {
		st = &meetingState{}
		c.meetings[meetingID] = st
	}
	return st
}

// Release unlocks a meeting's lock and resets its chain depth, per §4.11
// ("Chain depth is held in the coordinator's per-meeting state, reset to 0
// when the lock is released").
type Release func()

// Acquire blocks until the meeting's lock is free, then holds it. The
// returned context is cancelled if Cancel is called for this meeting while
// held, or when the Release is invoked. Use for explicit, user-issued
// operations: add_user_message, request_turn, run_round, pause, end. An
// auto-response chain (§4.8) is not a separate acquisition — it runs its
// hops under the same Acquire call as its lead turn, incrementing
// IncChainDepth per hop and watching the returned context for the
// preemption Acquire itself triggers below.
//
// Acquire first cancels any in-flight work for the meeting so it does not
// wait behind a chain indefinitely (§4.8: "the per-meeting lock is
// re-entered by a higher-priority explicit request").
func (c *Coordinator) Acquire(ctx context.Context, meetingID string) (context.Context, Release) {
	st := c.state(meetingID)

	c.Cancel(meetingID)

	st.opMu.Lock()
	lockedCtx, cancel := context.WithCancel(ctx)

	st.fieldMu.Lock()
	st.cancel = cancel
	st.fieldMu.Unlock()

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		cancel()
		st.fieldMu.Lock()
		st.chainDepth = 0
		st.cancel = nil
		st.fieldMu.Unlock()
		st.opMu.Unlock()
	}
	return lockedCtx, release
}

// Cancel aborts any in-flight work for meetingID: the current adapter call
// observes ctx.Done() and stops producing; accumulated partials are
// discarded by the caller. A no-op if nothing is in flight.
func (c *Coordinator) Cancel(meetingID string) {
	st := c.state(meetingID)
	st.fieldMu.Lock()
	cancel := st.cancel
	st.fieldMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IncChainDepth increments meetingID's chain depth and reports whether the
// new depth is within the limit. Must be called while the meeting's lock is
// held (i.e. between Acquire and its Release).
func (c *Coordinator) IncChainDepth(meetingID string) error {
	st := c.state(meetingID)
	st.fieldMu.Lock()
	defer st.fieldMu.Unlock()
	st.chainDepth++
	if st.chainDepth > c.maxChainDepth {
		return apperr.StateConflictf("chain depth limit %d exceeded", c.maxChainDepth)
	}
	return nil
}

// ChainDepth reports meetingID's current chain depth, for logging. Must be
// called while the meeting's lock is held, same as IncChainDepth.
func (c *Coordinator) ChainDepth(meetingID string) int {
	st := c.state(meetingID)
	st.fieldMu.Lock()
	defer st.fieldMu.Unlock()
	return st.chainDepth
}

// Forget drops a meeting's state entirely, used when a meeting is deleted.
func (c *Coordinator) Forget(meetingID string) {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()
	delete(c.meetings, meetingID)
}
