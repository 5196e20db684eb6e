// Package session persists everything a capture session produces: the
// raw byte log, the accepted-sample stream table, and one file per
// completed snapshot, all under a timestamped session directory.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hsfl/aeris-sees-software/internal/domain"
	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// StreamHeader is the CSV header of the stream table and of the sample
// section of every snapshot file.
const StreamHeader = "time_ms,voltage_V,hit,total_hits"

// ErrSessionClosed is returned by writes after Close.
var ErrSessionClosed = errors.New("session closed")

// Store owns the open session files. It is used only from the ingest
// loop; Close flushes and closes everything and is safe to call once
// on any exit path.
type Store struct {
	id    uuid.UUID
	dir   string
	stamp string

	logFile   *os.File
	logW      *bufio.Writer
	streamF   *os.File
	streamW   *bufio.Writer
	snapCount int
	closed    bool
}

// Open creates <baseDir>/<YYYYMMDD.HHMM>/ with the raw log and stream
// table inside, naming both after the session timestamp. Failure to
// create any of them aborts the session before ingestion starts.
func Open(baseDir string, now time.Time) (*Store, error) {
	stamp := now.Format("20060102.1504")
	dir := filepath.Join(baseDir, stamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session dir %s: %w", dir, err)
	}

	logPath := filepath.Join(dir, fmt.Sprintf("SEEs.%s.log", stamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("session log: %w", err)
	}

	streamPath := filepath.Join(dir, fmt.Sprintf("SEEs.%s.stream.csv", stamp))
	streamF, err := os.OpenFile(streamPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("stream table: %w", err)
	}

	s := &Store{
		id:      uuid.New(),
		dir:     dir,
		stamp:   stamp,
		logFile: logFile,
		logW:    bufio.NewWriterSize(logFile, 1<<16),
		streamF: streamF,
		streamW: bufio.NewWriterSize(streamF, 1<<16),
	}
	if _, err := s.streamW.WriteString(StreamHeader + "\n"); err != nil {
		s.Close()
		return nil, fmt.Errorf("stream header: %w", err)
	}
	if err := s.streamW.Flush(); err != nil {
		s.Close()
		return nil, fmt.Errorf("stream header: %w", err)
	}
	return s, nil
}

// ID identifies this session; the archive sink keys rows on it.
func (s *Store) ID() uuid.UUID { return s.id }

// Dir returns the session directory path.
func (s *Store) Dir() string { return s.dir }

// WriteRaw appends decoded transport bytes to the session log, flushed
// per write so an interrupted session loses nothing.
func (s *Store) WriteRaw(p []byte) error {
	if s.closed {
		return ErrSessionClosed
	}
	if _, err := s.logW.Write(p); err != nil {
		return err
	}
	return s.logW.Flush()
}

// Append writes one accepted sample to the stream table in arrival
// order. Rows are never rewritten.
func (s *Store) Append(sample domain.Sample) error {
	if s.closed {
		return ErrSessionClosed
	}
	if _, err := s.streamW.WriteString(formatRow(sample)); err != nil {
		return err
	}
	return s.streamW.Flush()
}

func (s *Store) Name() string { return "session" }

// WriteSnapshot persists one snapshot record as its own file with the
// metadata header block ahead of the sample rows.
func (s *Store) WriteSnapshot(rec *domain.SnapshotRecord) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.snapCount++

	name := fmt.Sprintf("SEEs.%s.csv", rec.TriggerAt.Format("20060102.1504.05"))
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		// Two triggers inside one wall-clock second.
		name = fmt.Sprintf("SEEs.%s.%d.csv", rec.TriggerAt.Format("20060102.1504.05"), rec.Seq)
		path = filepath.Join(s.dir, name)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("snapshot file: %w", err)
	}
	w := bufio.NewWriter(f)

	pre := (rec.TriggerMs - rec.WindowStartMs) / 1000
	post := (rec.WindowEndMs - rec.TriggerMs) / 1000
	start := rec.TriggerAt.Add(-time.Duration(pre * float64(time.Second)))
	end := rec.TriggerAt.Add(time.Duration(post * float64(time.Second)))

	fmt.Fprintln(w, "===SEEs SNAP START===")
	fmt.Fprintf(w, "Trigger time: %s\n", rec.TriggerAt.Format("20060102 15:04:05.000"))
	fmt.Fprintf(w, "Window: -%.1fs to +%.1fs (%.1fs total)\n", pre, post, pre+post)
	fmt.Fprintf(w, "Start: %s\n", start.Format("15:04:05.000"))
	fmt.Fprintf(w, "End:   %s\n", end.Format("15:04:05.000"))
	fmt.Fprintf(w, "Frames: %d\n", rec.FrameCount())
	fmt.Fprintf(w, "1:%d 2:%d 3:%d 4:%d\n",
		rec.TierCounts[domain.Tier1], rec.TierCounts[domain.Tier2],
		rec.TierCounts[domain.Tier3], rec.TierCounts[domain.Tier4])
	fmt.Fprintln(w, StreamHeader)
	for _, sample := range rec.Samples {
		w.WriteString(formatRow(sample))
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("snapshot flush: %w", err)
	}
	return f.Close()
}

// SnapshotCount reports how many snapshot files this session wrote.
func (s *Store) SnapshotCount() int { return s.snapCount }

// Close flushes and closes the session files. Later calls are no-ops.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if err := s.logW.Flush(); err != nil {
		firstErr = err
	}
	if err := s.logFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.streamW.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.streamF.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func formatRow(s domain.Sample) string {
	hit := "0"
	if s.Hit {
		hit = "1"
	}
	return strconv.FormatFloat(s.TimeMs, 'f', 1, 64) + "," +
		strconv.FormatFloat(s.Voltage, 'f', 4, 64) + "," +
		hit + "," +
		strconv.Itoa(s.TotalHits) + "\n"
}

var (
	_ ports.RawLog       = (*Store)(nil)
	_ ports.StreamSink   = (*Store)(nil)
	_ ports.SnapshotSink = (*Store)(nil)
)
