package circle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/circle/model"
	"github.com/viant/circle/progress"
	"github.com/viant/circle/service/checkpoint"
	"github.com/viant/circle/service/messaging"
	"github.com/viant/circle/service/queue"
	"github.com/viant/circle/tracing"
)

// Service owns one work queue together with its checkpoint codec.
type Service struct {
	config     *Config
	fs         afs.Service
	logger     *slog.Logger
	onProgress func(progress.Counters)
	queue      *queue.Queue
	checkpoint *checkpoint.Service
	progress   *progress.Progress
	initErr    error
}

// New creates a service with an empty queue.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(ret)
	}
	if ret.initErr != nil {
		return nil, ret.initErr
	}
	if err := ret.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	ret.logger = ret.logger.With("rank", ret.config.Rank)

	if cfg := ret.config.Tracing; cfg.Enabled {
		if err := tracing.Init(cfg.ServiceName, cfg.ServiceVersion, cfg.OutputFile); err != nil {
			return nil, fmt.Errorf("failed to initialise tracing: %w", err)
		}
	}

	checkpointService, err := checkpoint.New(
		checkpoint.WithFs(ret.fs),
		checkpoint.WithBaseURL(ret.config.Checkpoint.BaseURL),
		checkpoint.WithLogger(ret.logger),
		checkpoint.WithMaxReadErrors(ret.config.Checkpoint.MaxReadErrors),
	)
	if err != nil {
		return nil, err
	}
	ret.checkpoint = checkpointService
	ret.queue = queue.New(ret.config.queueOptions()...)
	ret.progress = progress.New(ret.config.Rank)
	ret.progress.OnChange(ret.onProgress)
	return ret, nil
}

// Rank returns the configured rank.
func (s *Service) Rank() int {
	return s.config.Rank
}

// Push appends item as the newest element.
func (s *Service) Push(item []byte) error {
	if err := s.queue.Push(item); err != nil {
		s.logger.Error("failed to push item", "error", err)
		return err
	}
	s.progress.Update(progress.Delta{Pushed: 1})
	return nil
}

// Pop removes and returns the oldest element; model.ErrEmpty when drained.
func (s *Service) Pop() ([]byte, error) {
	item, err := s.queue.Pop()
	if err != nil {
		s.logger.Debug("pop from empty queue")
		return nil, err
	}
	s.progress.Update(progress.Delta{Popped: 1})
	return item, nil
}

// PeekSize returns the byte length of the oldest element.
func (s *Service) PeekSize() (int, error) {
	return s.queue.PeekSize()
}

// Len returns the number of queued items.
func (s *Service) Len() int {
	return s.queue.Len()
}

// Snapshot returns copies of the queued items, oldest first.
func (s *Service) Snapshot() [][]byte {
	return s.queue.Snapshot()
}

// CheckpointWrite persists the queue for rank and clears it.
func (s *Service) CheckpointWrite(ctx context.Context, rank int) (int, error) {
	count, err := s.checkpoint.Write(ctx, s.queue, rank)
	if err != nil {
		return count, err
	}
	s.progress.Update(progress.Delta{Checkpointed: count})
	return count, nil
}

// CheckpointSnapshot persists the queue for rank without clearing it.
func (s *Service) CheckpointSnapshot(ctx context.Context, rank int) (int, error) {
	return s.checkpoint.Snapshot(ctx, s.queue, rank)
}

// CheckpointRead appends the items checkpointed for rank. A degraded read
// returns the report together with an error wrapping model.ErrDegradedRead;
// the items that were read stay queued.
func (s *Service) CheckpointRead(ctx context.Context, rank int) (*checkpoint.Report, error) {
	report, err := s.checkpoint.Read(ctx, s.queue, rank)
	if report != nil && report.Items > 0 {
		delta := progress.Delta{Restored: report.Items}
		if report.Degraded() {
			delta.Degraded = 1
		}
		s.progress.Update(delta)
	}
	return report, err
}

// CheckpointRemove deletes the checkpoint file of rank.
func (s *Service) CheckpointRemove(ctx context.Context, rank int) error {
	return s.checkpoint.Remove(ctx, rank)
}

// PackMulti pops up to max oldest items into one batch. The payload may
// alias the queue arena and is only valid until the next PackMulti or
// ReceiveBuffer call; copy it before retaining.
func (s *Service) PackMulti(ctx context.Context, max int) (batch *model.Batch, err error) {
	_, span := tracing.StartSpan(ctx, "queue.pack", "PRODUCER")
	defer func() { tracing.EndSpan(span, err) }()

	if batch, err = s.queue.PackMulti(max); err != nil {
		s.logger.Error("failed to pack items", "max", max, "error", err)
		return nil, err
	}
	span.WithInt("items", batch.Len()).WithInt("bytes", batch.Size())
	if batch.Len() > 0 {
		s.progress.Update(progress.Delta{Packed: batch.Len(), Batches: 1})
	}
	return batch, nil
}

// UnpackMulti pushes every item of batch in index order.
func (s *Service) UnpackMulti(ctx context.Context, batch *model.Batch) (err error) {
	_, span := tracing.StartSpan(ctx, "queue.unpack", "CONSUMER")
	defer func() { tracing.EndSpan(span, err) }()

	if err = s.queue.UnpackMulti(batch); err != nil {
		s.logger.Error("failed to unpack batch", "error", err)
		return err
	}
	span.WithInt("items", batch.Len()).WithInt("bytes", batch.Size())
	s.progress.Update(progress.Delta{Unpacked: batch.Len()})
	return nil
}

// ReceiveBuffer returns a size byte region of the queue arena for a
// transport to receive a packed payload into before UnpackMulti.
func (s *Service) ReceiveBuffer(size int) ([]byte, error) {
	return s.queue.ReceiveBuffer(size)
}

// Offload packs up to max items and publishes them as one batch. When the
// exchange rejects the batch the items are restored to the front of the queue.
func (s *Service) Offload(ctx context.Context, exchange messaging.Queue[model.Batch], max int) (int, error) {
	batch, err := s.PackMulti(ctx, max)
	if err != nil || batch.Len() == 0 {
		return 0, err
	}
	owned := &model.Batch{Data: bytes.Clone(batch.Data), Offsets: batch.Offsets}
	if err = exchange.Publish(ctx, owned); err != nil {
		if rErr := s.queue.RestoreFront(owned); rErr != nil {
			err = errors.Join(err, rErr)
		} else {
			s.progress.Update(progress.Delta{Packed: -owned.Len(), Batches: -1})
		}
		s.logger.Warn("failed to publish batch", "items", owned.Len(), "error", err)
		return 0, fmt.Errorf("failed to publish batch of %d items: %w", owned.Len(), err)
	}
	return owned.Len(), nil
}

// Accept consumes one batch from the exchange and unpacks it. The message is
// acknowledged on success and rejected when the batch cannot be applied.
func (s *Service) Accept(ctx context.Context, exchange messaging.Queue[model.Batch]) (int, error) {
	message, err := exchange.Consume(ctx)
	if err != nil {
		return 0, err
	}
	if message == nil {
		return 0, nil
	}
	batch := message.T()
	if err = s.UnpackMulti(ctx, batch); err != nil {
		if nErr := message.Nack(err); nErr != nil {
			err = errors.Join(err, nErr)
		}
		return 0, fmt.Errorf("failed to accept batch %s: %w", message.ID(), err)
	}
	if err = message.Ack(); err != nil {
		return batch.Len(), fmt.Errorf("failed to ack batch %s: %w", message.ID(), err)
	}
	return batch.Len(), nil
}

// Progress returns a copy of the operation counters.
func (s *Service) Progress() progress.Counters {
	return s.progress.Snapshot()
}

// Close releases the queue storage and the pack arena.
func (s *Service) Close() {
	s.queue.Close()
}
