package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/circle/internal/clock"
)

// Delta is an incremental counter change emitted after a queue operation.
type Delta struct {
	Pushed       int
	Popped       int
	Packed       int
	Unpacked     int
	Batches      int
	Checkpointed int
	Restored     int
	Degraded     int
}

// Counters is a point-in-time copy of the tracked values.
type Counters struct {
	Rank         int
	StartedAt    time.Time
	Pushed       int
	Popped       int
	Packed       int
	Unpacked     int
	Batches      int
	Checkpointed int
	Restored     int
	Degraded     int
}

// Pending returns the number of items the counters attribute to the queue.
func (c Counters) Pending() int {
	return c.Pushed + c.Unpacked + c.Restored - c.Popped - c.Packed - c.Checkpointed
}

// Progress tracks counters for one queue. It is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker for rank.
func New(rank int) *Progress {
	return &Progress{counters: Counters{Rank: rank, StartedAt: clock.Now()}}
}

// Update applies d. The onChange callback, if any, runs outside the lock
// with a copy of the updated counters.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.counters.Pushed += d.Pushed
	p.counters.Popped += d.Popped
	p.counters.Packed += d.Packed
	p.counters.Unpacked += d.Unpacked
	p.counters.Batches += d.Batches
	p.counters.Checkpointed += d.Checkpointed
	p.counters.Restored += d.Restored
	p.counters.Degraded += d.Degraded
	snapshot := p.counters
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange registers a callback invoked after every Update; nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds tracker in a derived context.
func WithTracker(ctx context.Context, tracker *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
