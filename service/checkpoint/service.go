package checkpoint

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/circle/model"
	"github.com/viant/circle/tracing"
)

const (
	filePrefix = "circle"
	fileSuffix = ".txt"
	terminator = '\n'
)

// Queue is the part of the work queue the codec reads and fills.
type Queue interface {
	Len() int
	Push(item []byte) error
	Each(fn func(item []byte) bool)
	Clear() int
}

// Service writes and reads per-rank checkpoint files.
type Service struct {
	fs            afs.Service
	baseURL       string
	logger        *slog.Logger
	maxReadErrors int
}

// New creates a checkpoint service. Without WithBaseURL files are resolved
// against the process working directory.
func New(options ...Option) (*Service, error) {
	ret := &Service{maxReadErrors: DefaultMaxReadErrors}
	for _, option := range options {
		option(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.baseURL == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		ret.baseURL = wd
	}
	ret.baseURL = url.Normalize(ret.baseURL, file.Scheme)
	return ret, nil
}

// Filename returns the checkpoint file name for rank.
func Filename(rank int) string {
	return fmt.Sprintf("%s%d%s", filePrefix, rank, fileSuffix)
}

// URL returns the checkpoint location for rank.
func (s *Service) URL(rank int) string {
	return url.Join(s.baseURL, Filename(rank))
}

// Write persists every item oldest first and then clears the queue. An empty
// queue is a no-op that leaves any existing file untouched.
func (s *Service) Write(ctx context.Context, q Queue, rank int) (count int, err error) {
	ctx, span := tracing.StartSpan(ctx, "checkpoint.write", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	if count, err = s.write(ctx, q, rank); err != nil || count == 0 {
		return count, err
	}
	q.Clear()
	return count, nil
}

// Snapshot persists every item oldest first leaving the queue intact.
func (s *Service) Snapshot(ctx context.Context, q Queue, rank int) (count int, err error) {
	ctx, span := tracing.StartSpan(ctx, "checkpoint.snapshot", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	return s.write(ctx, q, rank)
}

func (s *Service) write(ctx context.Context, q Queue, rank int) (int, error) {
	if rank < 0 {
		return 0, fmt.Errorf("%w: negative rank %d", model.ErrInvalidArgument, rank)
	}
	s.logger.Info("writing checkpoint", "rank", rank, "items", q.Len())
	if q.Len() == 0 {
		return 0, nil
	}

	URL := s.URL(rank)
	writer, err := s.fs.NewWriter(ctx, URL, file.DefaultFileOsMode, option.OsFlag(os.O_CREATE|os.O_WRONLY|os.O_TRUNC))
	if err != nil {
		s.logger.Error("unable to open checkpoint file", "url", URL, "error", err)
		return 0, fmt.Errorf("%w: failed to open %s: %v", model.ErrIOFailed, URL, err)
	}

	written, err := writeLines(writer, q)
	if err != nil {
		_ = writer.Close()
		s.logger.Error("failed to write checkpoint", "url", URL, "written", written, "error", err)
		return written, fmt.Errorf("%w: %s after %d of %d items: %v", model.ErrPartialWrite, URL, written, q.Len(), err)
	}
	if err = writer.Close(); err != nil {
		s.logger.Error("failed to close checkpoint file", "url", URL, "error", err)
		return written, fmt.Errorf("%w: failed to close %s: %v", model.ErrIOFailed, URL, err)
	}
	return written, nil
}

// writeLines emits each item followed by the terminator and returns how many
// complete lines were handed to w before a failure.
func writeLines(w io.Writer, q Queue) (int, error) {
	written := 0
	eol := []byte{terminator}
	var err error
	q.Each(func(item []byte) bool {
		if _, err = w.Write(item); err != nil {
			return false
		}
		if _, err = w.Write(eol); err != nil {
			return false
		}
		written++
		return true
	})
	return written, err
}

// Read appends every line of the rank's checkpoint file to q in file order.
// A missing file is reported as model.ErrNotFound. Unreadable lines are
// skipped and returned as model.ErrDegradedRead along with the report.
func (s *Service) Read(ctx context.Context, q Queue, rank int) (report *Report, err error) {
	ctx, span := tracing.StartSpan(ctx, "checkpoint.read", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	if rank < 0 {
		return nil, fmt.Errorf("%w: negative rank %d", model.ErrInvalidArgument, rank)
	}
	URL := s.URL(rank)
	report = &Report{Rank: rank, URL: URL}
	s.logger.Debug("reading checkpoint", "rank", rank, "url", URL)

	if q.Len() != 0 {
		report.AppendedToNonEmpty = true
		s.logger.Warn("reading checkpoint into non-empty queue", "rank", rank, "queued", q.Len())
	}

	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return report, fmt.Errorf("%w: failed to check %s: %v", model.ErrIOFailed, URL, err)
	}
	if !exists {
		return report, fmt.Errorf("%w: %s", model.ErrNotFound, URL)
	}
	reader, err := s.fs.OpenURL(ctx, URL)
	if err != nil {
		s.logger.Error("unable to open checkpoint file", "url", URL, "error", err)
		return report, fmt.Errorf("%w: failed to open %s: %v", model.ErrIOFailed, URL, err)
	}
	defer reader.Close()

	if err = s.readLines(reader, q, report); err != nil {
		return report, err
	}
	if report.Degraded() {
		return report, fmt.Errorf("%w: %s: %d line failures: %w", model.ErrDegradedRead, URL, len(report.LineErrors), errors.Join(report.LineErrors...))
	}
	return report, nil
}

// readLines pushes each line of r onto q. Read failures are recorded on the
// report, reading resumes until maxReadErrors consecutive failures. Bytes of
// a line interrupted by a failure are dropped through its terminator.
func (s *Service) readLines(r io.Reader, q Queue, report *Report) error {
	reader := bufio.NewReader(r)
	consecutive := 0
	broken := false
	for {
		line, err := reader.ReadBytes(terminator)
		switch {
		case err == nil:
			line = line[:len(line)-1]
		case errors.Is(err, io.EOF):
			if len(line) == 0 || broken {
				return nil
			}
		default:
			if len(line) > 0 {
				broken = true
			}
			report.LineErrors = append(report.LineErrors, fmt.Errorf("line %d: %w", report.Items+len(report.LineErrors)+1, err))
			s.logger.Warn("failed to read checkpoint line", "url", report.URL, "error", err)
			if consecutive++; consecutive >= s.maxReadErrors {
				return nil
			}
			continue
		}
		consecutive = 0
		if broken {
			broken = false
			continue
		}
		if pErr := q.Push(line); pErr != nil {
			return fmt.Errorf("failed to push checkpoint item %d: %w", report.Items+1, pErr)
		}
		report.Items++
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// Remove deletes the rank's checkpoint file.
func (s *Service) Remove(ctx context.Context, rank int) error {
	if rank < 0 {
		return fmt.Errorf("%w: negative rank %d", model.ErrInvalidArgument, rank)
	}
	URL := s.URL(rank)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("%w: failed to check %s: %v", model.ErrIOFailed, URL, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", model.ErrNotFound, URL)
	}
	if err = s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("%w: failed to delete %s: %v", model.ErrIOFailed, URL, err)
	}
	return nil
}
