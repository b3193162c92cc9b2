package circle_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/circle"
	"github.com/viant/circle/model"
	"github.com/viant/circle/progress"
	"github.com/viant/circle/service/messaging"
	"github.com/viant/circle/service/messaging/memory"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
)

func newService(t *testing.T, rank int) *circle.Service {
	cfg := circle.DefaultConfig()
	cfg.Rank = rank
	cfg.Buffer.Floor = 64
	cfg.Checkpoint.BaseURL = fmt.Sprintf("mem://localhost/circle/%s", t.Name())
	srv, err := circle.New(circle.WithConfig(cfg), circle.WithFs(afs.New()))
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func pushAll(t *testing.T, srv *circle.Service, values ...string) {
	for _, value := range values {
		require.NoError(t, srv.Push([]byte(value)))
	}
}

func drain(srv *circle.Service) []string {
	var ret []string
	for {
		item, err := srv.Pop()
		if errors.Is(err, model.ErrEmpty) {
			return ret
		}
		ret = append(ret, string(item))
	}
}

func TestService_Queue(t *testing.T) {
	srv := newService(t, 0)
	pushAll(t, srv, "alpha", "beta", "gamma")
	assert.Equal(t, 3, srv.Len())

	size, err := srv.PeekSize()
	assert.NoError(t, err)
	assert.Equal(t, 5, size)

	item, err := srv.Pop()
	assert.NoError(t, err)
	assert.Equal(t, "alpha", string(item))
	item, err = srv.Pop()
	assert.NoError(t, err)
	assert.Equal(t, "beta", string(item))
	assert.Equal(t, 1, srv.Len())

	assert.True(t, errors.Is(srv.Push(nil), model.ErrInvalidArgument))
	counters := srv.Progress()
	assert.Equal(t, 3, counters.Pushed)
	assert.Equal(t, 2, counters.Popped)
	assert.Equal(t, 1, counters.Pending())
}

func TestService_Checkpoint(t *testing.T) {
	ctx := context.Background()
	srv := newService(t, 2)
	pushAll(t, srv, "one", "two", "three")

	count, err := srv.CheckpointWrite(ctx, srv.Rank())
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, srv.Len())

	report, err := srv.CheckpointRead(ctx, srv.Rank())
	assert.NoError(t, err)
	assert.Equal(t, 3, report.Items)
	assert.Equal(t, []string{"one", "two", "three"}, drain(srv))

	_, err = srv.CheckpointRead(ctx, 11)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	assert.NoError(t, srv.CheckpointRemove(ctx, srv.Rank()))
	counters := srv.Progress()
	assert.Equal(t, 3, counters.Checkpointed)
	assert.Equal(t, 3, counters.Restored)
}

func TestService_CheckpointSnapshot(t *testing.T) {
	ctx := context.Background()
	srv := newService(t, 1)
	pushAll(t, srv, "keep")
	count, err := srv.CheckpointSnapshot(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, srv.Len())
	assert.Equal(t, [][]byte{[]byte("keep")}, srv.Snapshot())
}

func TestService_PackMulti(t *testing.T) {
	ctx := context.Background()
	srv := newService(t, 0)
	pushAll(t, srv, "x", "yy", "zzz")

	batch, err := srv.PackMulti(ctx, 2)
	assert.NoError(t, err)
	assert.Equal(t, "xyy", string(batch.Data))
	assert.Equal(t, model.Offsets{1, 3}, batch.Offsets)
	assert.Equal(t, 1, srv.Len())

	target := newService(t, 1)
	assert.NoError(t, target.UnpackMulti(ctx, batch))
	assert.Equal(t, []string{"x", "yy"}, drain(target))
	assert.Equal(t, []string{"zzz"}, drain(srv))
}

func TestService_ReceiveBuffer(t *testing.T) {
	ctx := context.Background()
	sender := newService(t, 0)
	pushAll(t, sender, "a", "bc", "def")
	batch, err := sender.PackMulti(ctx, 10)
	require.NoError(t, err)

	receiver := newService(t, 1)
	buf, err := receiver.ReceiveBuffer(batch.Size())
	require.NoError(t, err)
	copy(buf, batch.Data)
	assert.NoError(t, receiver.UnpackMulti(ctx, &model.Batch{Data: buf, Offsets: batch.Offsets}))
	assert.Equal(t, []string{"a", "bc", "def"}, drain(receiver))
}

func TestService_OffloadAccept(t *testing.T) {
	ctx := context.Background()
	exchange := memory.NewQueue[model.Batch](memory.DefaultConfig())

	var observed []progress.Counters
	cfg := circle.DefaultConfig()
	cfg.Checkpoint.BaseURL = "mem://localhost/circle/offload"
	sender, err := circle.New(circle.WithConfig(cfg), circle.WithProgressListener(func(c progress.Counters) {
		observed = append(observed, c)
	}))
	require.NoError(t, err)
	defer sender.Close()
	pushAll(t, sender, "w1", "w2", "w3", "w4")

	sent, err := sender.Offload(ctx, exchange, 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, 1, sender.Len())

	// a second pack reuses the arena, the published batch must not change
	sent, err = sender.Offload(ctx, exchange, 3)
	assert.NoError(t, err)
	assert.Equal(t, 1, sent)

	receiver := newService(t, 1)
	received, err := receiver.Accept(ctx, exchange)
	assert.NoError(t, err)
	assert.Equal(t, 3, received)
	received, err = receiver.Accept(ctx, exchange)
	assert.NoError(t, err)
	assert.Equal(t, 1, received)
	assert.Equal(t, []string{"w1", "w2", "w3", "w4"}, drain(receiver))

	sent, err = sender.Offload(ctx, exchange, 3)
	assert.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.NotEmpty(t, observed)
	assert.Equal(t, 2, sender.Progress().Batches)
}

type rejectingExchange struct{}

func (rejectingExchange) Publish(ctx context.Context, t *model.Batch) error {
	return errors.New("exchange closed")
}

func (rejectingExchange) Consume(ctx context.Context) (messaging.Message[model.Batch], error) {
	return nil, errors.New("exchange closed")
}

func TestService_OffloadRejected(t *testing.T) {
	ctx := context.Background()
	srv := newService(t, 0)
	pushAll(t, srv, "a", "b", "c")

	_, err := srv.Offload(ctx, rejectingExchange{}, 2)
	assert.Error(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, drain(srv))
	assert.Equal(t, 0, srv.Progress().Packed)

	_, err = srv.Accept(ctx, rejectingExchange{})
	assert.Error(t, err)
}

func TestService_AcceptInvalidBatch(t *testing.T) {
	ctx := context.Background()
	config := memory.DefaultConfig()
	config.MaxRetries = 0
	exchange := memory.NewQueue[model.Batch](config)
	require.NoError(t, exchange.Publish(ctx, &model.Batch{Data: []byte("ab"), Offsets: model.Offsets{5}}))

	srv := newService(t, 0)
	_, err := srv.Accept(ctx, exchange)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
	assert.Len(t, exchange.DeadLetters(), 1)
	assert.Equal(t, 0, srv.Len())
}

func TestService_InvalidConfig(t *testing.T) {
	cfg := circle.DefaultConfig()
	cfg.Rank = -1
	_, err := circle.New(circle.WithConfig(cfg))
	assert.Error(t, err)
}

func TestService_TracingExporterError(t *testing.T) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	require.NoError(t, err)
	_, err = circle.New(circle.WithTracingExporter("", "0.1.0", exporter))
	assert.Error(t, err)
}
