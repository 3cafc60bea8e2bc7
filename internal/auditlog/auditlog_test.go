package auditlog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gridmatch/matcher/pkg/domain"
)

func TestAppendWritesFlushedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path, 10, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	if err := l.AddLoggingRecord(context.Background(), 42, domain.StatusMatched, domain.MinorAssigned, "Matcher"); err != nil {
		t.Fatalf("AddLoggingRecord: %v", err)
	}

	records := readRecords(t, path)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].JobID != 42 || records[0].Status != domain.StatusMatched {
		t.Fatalf("record = %+v", records[0])
	}
	if records[0].Checksum != checksum(Record{
		Seq: records[0].Seq, JobID: records[0].JobID, Status: records[0].Status,
		Minor: records[0].Minor, Source: records[0].Source, Timestamp: records[0].Timestamp,
	}) {
		t.Fatalf("checksum mismatch on readback")
	}
}

func TestAppendAssignsIncreasingSeq(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path, 10, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	for i := 0; i < 5; i++ {
		if err := l.AddLoggingRecord(context.Background(), domain.JobID(i), domain.StatusMatched, domain.MinorAssigned, "Matcher"); err != nil {
			t.Fatalf("AddLoggingRecord: %v", err)
		}
	}

	records := readRecords(t, path)
	if len(records) != 5 {
		t.Fatalf("records = %d, want 5", len(records))
	}
	for i, r := range records {
		if r.Seq != uint64(i+1) {
			t.Fatalf("record[%d].Seq = %d, want %d", i, r.Seq, i+1)
		}
	}
}

func TestCloseFlushesPendingBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path, 100, time.Hour) // flush interval long enough that only Close can flush
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// AddLoggingRecord returns only once its record is flushed, so it is
	// issued concurrently and Close is called once the record is pending.
	appendErr := make(chan error, 1)
	go func() {
		appendErr <- l.AddLoggingRecord(context.Background(), 1, domain.StatusMatched, domain.MinorAssigned, "Matcher")
	}()
	for {
		l.mu.Lock()
		seq := l.seq
		l.mu.Unlock()
		if seq >= 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-appendErr; err != nil {
		t.Fatalf("AddLoggingRecord: %v", err)
	}

	records := readRecords(t, path)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (Close must flush pending batch)", len(records))
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path, 10, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := l.AddLoggingRecord(context.Background(), 1, domain.StatusMatched, domain.MinorAssigned, "Matcher"); err == nil {
		t.Fatalf("AddLoggingRecord after Close: want error, got nil")
	}
}

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var out []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal record: %v", err)
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}
