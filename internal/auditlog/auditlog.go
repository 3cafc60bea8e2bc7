// Package auditlog is a local, append-only implementation of
// jobstore.Logger for deployments that don't wire an external logging
// database. Grounded on a batch-commit writer (see DESIGN.md): events
// accumulate on a buffered channel and a background goroutine flushes
// them in batches, trading a little latency for far fewer fsync calls.
// This log has no replay-to-rebuild-state responsibility. Claim records
// are a trail, not a source of truth, so there is no Replay, no
// rotation, and no snapshot coordination here.
package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gridmatch/matcher/internal/jobstore"
	"github.com/gridmatch/matcher/pkg/domain"
)

// Record is one logging entry: a job's status transition as performed
// by the matcher.
type Record struct {
	Seq       uint64           `json:"seq"`
	JobID     domain.JobID     `json:"job_id"`
	Status    domain.JobStatus `json:"status"`
	Minor     string           `json:"minor"`
	Source    string           `json:"source"`
	Timestamp int64            `json:"timestamp_ms"`
	Checksum  uint32           `json:"checksum"`
}

func checksum(r Record) uint32 {
	data := fmt.Sprintf("%d|%d|%s|%s|%s|%d", r.Seq, r.JobID, r.Status, r.Minor, r.Source, r.Timestamp)
	return crc32.ChecksumIEEE([]byte(data))
}

type appendRequest struct {
	record Record
	errCh  chan error
}

// Log is an append-only JSON-lines audit log with async batch commit.
type Log struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	seq  uint64

	appendCh      chan appendRequest
	bufferSize    int
	flushInterval time.Duration
	closed        chan struct{}
	wg            sync.WaitGroup
}

// Open creates or appends to the audit log at path, starting the
// background batch writer.
func Open(path string, bufferSize int, flushInterval time.Duration) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("auditlog: creating directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("auditlog: opening %s: %w", path, err)
	}
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Millisecond
	}

	l := &Log{
		file:          file,
		enc:           json.NewEncoder(file),
		appendCh:      make(chan appendRequest, bufferSize*2),
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		closed:        make(chan struct{}),
	}
	l.wg.Add(1)
	go l.batchWriter()
	return l, nil
}

// AddLoggingRecord implements jobstore.Logger: it writes one record,
// returning once it has been flushed (or the flush failed).
func (l *Log) AddLoggingRecord(ctx context.Context, jobID domain.JobID, status domain.JobStatus, minor, source string) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	rec := Record{
		Seq:       seq,
		JobID:     jobID,
		Status:    status,
		Minor:     minor,
		Source:    source,
		Timestamp: time.Now().UnixMilli(),
	}
	rec.Checksum = checksum(rec)

	select {
	case <-l.closed:
		return fmt.Errorf("auditlog: closed")
	default:
	}

	errCh := make(chan error, 1)
	select {
	case l.appendCh <- appendRequest{record: rec, errCh: errCh}:
		return <-errCh
	case <-l.closed:
		return fmt.Errorf("auditlog: closed")
	}
}

func (l *Log) batchWriter() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	batch := make([]appendRequest, 0, l.bufferSize)
	for {
		select {
		case req := <-l.appendCh:
			batch = append(batch, req)
			if len(batch) >= l.bufferSize {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-l.closed:
			if len(batch) > 0 {
				l.flush(batch)
			}
			return
		}
	}
}

func (l *Log) flush(batch []appendRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var flushErr error
	for i := range batch {
		if err := l.enc.Encode(batch[i].record); err != nil {
			flushErr = fmt.Errorf("auditlog: encode: %w", err)
			break
		}
	}
	if flushErr == nil {
		if err := l.file.Sync(); err != nil {
			flushErr = fmt.Errorf("auditlog: sync: %w", err)
		}
	}
	for i := range batch {
		batch[i].errCh <- flushErr
		close(batch[i].errCh)
	}
}

// Close flushes any pending batch and closes the underlying file.
func (l *Log) Close() error {
	close(l.closed)
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

var _ jobstore.Logger = (*Log)(nil)
