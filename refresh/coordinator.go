// Package refresh keeps the visible resource lists current without ever
// blocking interaction. Per (kind, profile, region) tuple it runs at most
// one active background fetch; a newer request supersedes an in-flight one,
// which finishes its current page, notices its stale epoch, and exits
// silently. Results are applied only when their epoch still matches the
// tuple's current epoch; stale results are discarded, never merged.
package refresh

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/spyglass-dev/spyglass/fetch"
)

// Tuple identifies one independently refreshed resource list.
type Tuple struct {
	Kind    string
	Profile string
	Region  string
}

// Phase is the tuple's position in the Idle → Fetching → {Ready, Failed}
// state machine. Any new request moves it back to Fetching.
type Phase int

const (
	Idle Phase = iota
	Fetching
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Update is one applied result, delivered asynchronously.
type Update struct {
	Tuple  Tuple
	Phase  Phase
	Result fetch.Result
}

// tupleState is the only shared mutable state: the current epoch and the
// last applied result, updated together under the lock (compare-and-set).
type tupleState struct {
	mu    sync.Mutex
	epoch uint64
	phase Phase
	last  fetch.Result
}

// Coordinator schedules, supersedes, and cancels background fetches.
type Coordinator struct {
	fetcher *fetch.Fetcher
	logger  zerolog.Logger
	updates chan Update

	mu     sync.Mutex
	tuples map[Tuple]*tupleState
}

// New creates a Coordinator. The updates channel is buffered; consumers
// drain it from their event loop.
func New(fetcher *fetch.Fetcher, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		logger:  logger,
		updates: make(chan Update, 16),
		tuples:  make(map[Tuple]*tupleState),
	}
}

// Updates delivers applied results.
func (c *Coordinator) Updates() <-chan Update {
	return c.updates
}

// Refresh stamps a new epoch for the tuple and starts a background fetch.
// Any in-flight fetch for the same tuple is superseded immediately: it
// keeps running until its next epoch check and then exits without a result.
// Returns the stamped epoch.
func (c *Coordinator) Refresh(ctx context.Context, req fetch.Request) uint64 {
	tuple := Tuple{Kind: req.Kind, Profile: req.Profile, Region: req.Region}
	st := c.state(tuple)

	st.mu.Lock()
	st.epoch++
	st.phase = Fetching
	epoch := st.epoch
	st.mu.Unlock()

	req.Epoch = epoch
	c.logger.Debug().
		Str("kind", tuple.Kind).
		Str("profile", tuple.Profile).
		Str("region", tuple.Region).
		Uint64("epoch", epoch).
		Msg("refresh scheduled")

	go c.run(ctx, tuple, st, req)
	return epoch
}

// run executes one fetch on a background worker, never on the interaction
// path.
func (c *Coordinator) run(ctx context.Context, tuple Tuple, st *tupleState, req fetch.Request) {
	current := func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return st.epoch == req.Epoch
	}

	result := c.fetcher.Paginated(ctx, req, current)

	if !c.apply(st, result) {
		c.logger.Debug().
			Str("kind", tuple.Kind).
			Uint64("epoch", req.Epoch).
			Msg("stale result discarded")
		return
	}

	phase := Ready
	if result.Err != nil {
		phase = Failed
	}
	select {
	case c.updates <- Update{Tuple: tuple, Phase: phase, Result: result}:
	case <-ctx.Done():
	}
}

// apply installs the result only if its epoch is still the tuple's current
// epoch: epoch and last result change together or not at all.
func (c *Coordinator) apply(st *tupleState, result fetch.Result) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.epoch != result.Epoch {
		return false
	}
	if result.Err != nil && len(result.Rows) == 0 {
		// a failed refresh keeps the previously retrieved rows visible;
		// the error rides alongside as an inline state
		result.Rows = st.last.Rows
	}
	st.last = result
	if result.Err != nil {
		st.phase = Failed
	} else {
		st.phase = Ready
	}
	return true
}

// Snapshot returns the tuple's last applied result and phase. Previously
// retrieved rows stay visible through a later failure.
func (c *Coordinator) Snapshot(tuple Tuple) (fetch.Result, Phase, bool) {
	c.mu.Lock()
	st, ok := c.tuples[tuple]
	c.mu.Unlock()
	if !ok {
		return fetch.Result{}, Idle, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.last, st.phase, st.last.Epoch != 0
}

// Epoch returns the tuple's current epoch.
func (c *Coordinator) Epoch(tuple Tuple) uint64 {
	st := c.state(tuple)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.epoch
}

func (c *Coordinator) state(tuple Tuple) *tupleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.tuples[tuple]
	if !ok {
		st = &tupleState{}
		c.tuples[tuple] = st
	}
	return st
}
