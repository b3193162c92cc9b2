package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/circle/internal/clock"
)

func TestProgress_Update(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	clock.NowFunc = func() time.Time { return started }
	defer func() { clock.NowFunc = time.Now }()

	tracker := New(3)
	var observed []Counters
	tracker.OnChange(func(c Counters) { observed = append(observed, c) })

	tracker.Update(Delta{Pushed: 5})
	tracker.Update(Delta{Popped: 1, Packed: 2, Batches: 1})
	tracker.Update(Delta{Checkpointed: 2})

	snapshot := tracker.Snapshot()
	assert.Equal(t, 3, snapshot.Rank)
	assert.Equal(t, started, snapshot.StartedAt)
	assert.Equal(t, 5, snapshot.Pushed)
	assert.Equal(t, 0, snapshot.Pending())
	assert.Len(t, observed, 3)
	assert.Equal(t, 2, observed[1].Pending())
}

func TestProgress_Concurrent(t *testing.T) {
	tracker := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tracker.Update(Delta{Pushed: 1})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, tracker.Snapshot().Pushed)
}

func TestProgress_Context(t *testing.T) {
	ctx := context.Background()
	_, ok := FromContext(ctx)
	assert.False(t, ok)
	UpdateCtx(ctx, Delta{Pushed: 1})

	tracker := New(1)
	ctx = WithTracker(ctx, tracker)
	UpdateCtx(ctx, Delta{Restored: 4})
	assert.Equal(t, 4, tracker.Snapshot().Restored)

	var nilTracker *Progress
	nilTracker.Update(Delta{Pushed: 1})
	assert.Equal(t, Counters{}, nilTracker.Snapshot())
}
