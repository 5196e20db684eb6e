// Package archive mirrors the accepted sample stream into Postgres so
// a session survives the loss of the host filesystem. Rows are queued
// in memory and flushed in batches by a background goroutine; the
// ingest loop never blocks on the database.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/hsfl/aeris-sees-software/internal/domain"
	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// Overflow policies for Append when the queue is full.
const (
	DropNewest = "drop_newest"
	DropOldest = "drop_oldest"
)

type Sink struct {
	db        *sql.DB
	table     string
	sessionID uuid.UUID
	obs       ports.Observability

	q         *rowQueue
	batchSize int
	onFull    string

	wg sync.WaitGroup
}

// Open connects to Postgres and verifies the connection before the
// session starts producing rows.
func Open(dsn, table string, sessionID uuid.UUID, queueLen, batchSize int, onFull string, obs ports.Observability) (*Sink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive ping: %w", err)
	}
	return New(db, table, sessionID, queueLen, batchSize, onFull, obs), nil
}

// New wraps an existing database handle. Tests use this with sqlmock.
func New(db *sql.DB, table string, sessionID uuid.UUID, queueLen, batchSize int, onFull string, obs ports.Observability) *Sink {
	return &Sink{
		db:        db,
		table:     table,
		sessionID: sessionID,
		obs:       obs,
		q:         newRowQueue(queueLen),
		batchSize: batchSize,
		onFull:    onFull,
	}
}

func (s *Sink) Name() string { return "postgres" }

// Append queues one sample for the next flush. A full queue sheds load
// per the configured policy instead of stalling ingestion.
func (s *Sink) Append(sample domain.Sample) error {
	if s.onFull == DropOldest {
		if s.q.enqueueEvict(sample) {
			s.obs.IncCounter("sees_archive_dropped_total", 1)
		}
		return nil
	}
	if !s.q.enqueue(sample) {
		s.obs.IncCounter("sees_archive_dropped_total", 1)
	}
	return nil
}

// Run flushes queued rows every interval until ctx is cancelled, then
// drains whatever is left. Call it in its own goroutine.
func (s *Sink) Run(ctx context.Context, interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.drain()
				return
			case <-ticker.C:
				if err := s.flushOnce(); err != nil {
					s.obs.LogError("archive_flush_failed", err)
				}
			}
		}
	}()
}

// Close waits for the flusher to drain and closes the database handle.
func (s *Sink) Close() error {
	s.wg.Wait()
	return s.db.Close()
}

// QueueLen reports rows waiting for the next flush.
func (s *Sink) QueueLen() int { return s.q.len() }

func (s *Sink) drain() {
	for s.q.len() > 0 {
		if err := s.flushOnce(); err != nil {
			s.obs.LogError("archive_drain_failed", err)
			return
		}
	}
}

func (s *Sink) flushOnce() error {
	batch := s.q.dequeueBatch(s.batchSize)
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()
	err := s.writeBatch(batch)
	s.obs.ObserveLatency("sees_archive_flush_seconds", time.Since(start).Seconds())
	if err != nil {
		// The batch is lost; the on-disk stream table still has it.
		s.obs.IncCounter("sees_archive_dropped_total", float64(len(batch)))
	}
	return err
}

func (s *Sink) writeBatch(batch []domain.Sample) error {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.table)
	b.WriteString(" (session_id, time_ms, voltage_v, hit, total_hits) VALUES ")

	args := make([]any, 0, len(batch)*5)
	for i, row := range batch {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5))
		args = append(args,
			s.sessionID.String(),
			row.TimeMs,
			row.Voltage,
			row.Hit,
			row.TotalHits,
		)
	}
	b.WriteString(" ON CONFLICT (session_id, time_ms) DO NOTHING")

	_, err := s.db.Exec(b.String(), args...)
	return err
}

var _ ports.StreamSink = (*Sink)(nil)
