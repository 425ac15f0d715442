// Package historian drains archived sessions from the Redis queue into PostgreSQL in batches.
package historian

import (
	"context"
	"fmt"
	"time"

	"github.com/jason-s-yu/patience/internal/models"
	"github.com/sirupsen/logrus"
)

// Source yields queued session records. ok is false when nothing arrived within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (rec models.SessionRecord, ok bool, err error)
}

// Sink persists a batch of records in one transaction.
type Sink interface {
	ArchiveBatch(ctx context.Context, recs []models.SessionRecord) error
}

// PopTimeout bounds each blocking pop. Redis rounds BLPOP timeouts below one second
// up to a second, so the flush interval is kept on its own ticker.
const PopTimeout = 3 * time.Second

// Service moves records from a Source to a Sink. A batch is flushed once it holds
// batchSize records and on every tick of flushDelay.
type Service struct {
	source     Source
	sink       Sink
	batchSize  int
	flushDelay time.Duration
	logger     *logrus.Logger

	batch []models.SessionRecord
}

// NewService builds a historian. batchSize and flushDelay must be positive.
func NewService(source Source, sink Sink, batchSize int, flushDelay time.Duration, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		source:     source,
		sink:       sink,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     logger,
		batch:      make([]models.SessionRecord, 0, batchSize),
	}
}

// Run pops records until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("patience-historian service started.")

	records := make(chan models.SessionRecord)
	go s.readLoop(ctx, records)

	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	for open := true; open; {
		select {
		case rec, ok := <-records:
			if !ok {
				open = false
				break
			}
			s.batch = append(s.batch, rec)
			if len(s.batch) >= s.batchSize {
				if err := s.flush(ctx); err != nil {
					s.logger.WithError(err).Error("flush batch")
				}
			}
		case <-ticker.C:
			if err := s.flush(ctx); err != nil {
				s.logger.WithError(err).Error("flush batch")
			}
		}
	}

	// The run context is gone; give the final flush its own deadline.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.flush(flushCtx)
	s.logger.Info("patience-historian shutting down.")
	return err
}

// readLoop pops records into out until ctx is cancelled, then closes out. A popped
// record is always delivered, so nothing taken off the queue is lost on shutdown.
func (s *Service) readLoop(ctx context.Context, out chan<- models.SessionRecord) {
	defer close(out)
	for ctx.Err() == nil {
		rec, ok, err := s.source.Pop(ctx, PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.WithError(err).Error("pop session record")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if ok {
			out <- rec
		}
	}
}

// flush writes the pending batch. A failed batch is kept and retried on the next flush.
func (s *Service) flush(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	if err := s.sink.ArchiveBatch(ctx, s.batch); err != nil {
		return fmt.Errorf("archive %d sessions: %w", len(s.batch), err)
	}
	s.logger.WithField("sessions", len(s.batch)).Info("Flushed sessions to DB.")
	s.batch = s.batch[:0]
	return nil
}

// Pending returns the number of records waiting for the next flush.
func (s *Service) Pending() int {
	return len(s.batch)
}
