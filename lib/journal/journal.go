// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/yeungp/OpenStack-tools/lib/clock"
	"github.com/yeungp/OpenStack-tools/lib/codec"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

// Record describes one committed removal group.
type Record struct {
	RunID    string              `cbor:"run_id"`
	Time     time.Time           `cbor:"time"`
	Kind     reconcile.PlanKind  `cbor:"kind"`
	Group    string              `cbor:"group"`
	Removals []reconcile.Removal `cbor:"removals"`
	Rows     int64               `cbor:"rows"`
}

// Writer appends records for one run.
type Writer struct {
	mu         sync.Mutex
	file       *os.File
	compressor *zstd.Encoder
	buffered   *bufio.Writer
	encoder    *codec.Encoder
	runID      string
	clock      clock.Clock
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// Open opens path for appending, creating it if needed.
func Open(path, runID string, c clock.Clock) (*Writer, error) {
	if path == "" {
		return nil, errors.New("journal: path is required")
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o640)
	if err != nil {
		return nil, fmt.Errorf("journal: opening %s: %w", path, err)
	}

	writer := &Writer{file: file, runID: runID, clock: c}
	var sink io.Writer = file
	if compressed(path) {
		writer.compressor, err = zstd.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("journal: starting zstd stream: %w", err)
		}
		sink = writer.compressor
	}
	writer.buffered = bufio.NewWriter(sink)
	writer.encoder = codec.NewEncoder(writer.buffered)
	return writer, nil
}

// Record implements reconcile.Recorder.
func (w *Writer) Record(kind reconcile.PlanKind, group reconcile.RemovalGroup, rows int64) error {
	return w.Append(Record{
		RunID:    w.runID,
		Time:     w.clock.Now().UTC(),
		Kind:     kind,
		Group:    group.Key(kind),
		Removals: group.Removals,
		Rows:     rows,
	})
}

// Append writes record and flushes it to the file.
func (w *Writer) Append(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return errors.New("journal: writer is closed")
	}
	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("journal: encoding record: %w", err)
	}
	if err := w.buffered.Flush(); err != nil {
		return fmt.Errorf("journal: writing record: %w", err)
	}
	if w.compressor != nil {
		if err := w.compressor.Flush(); err != nil {
			return fmt.Errorf("journal: flushing zstd stream: %w", err)
		}
	}
	return nil
}

// Close finishes the zstd frame, if any, and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	var errs []error
	errs = append(errs, w.buffered.Flush())
	if w.compressor != nil {
		errs = append(errs, w.compressor.Close())
	}
	errs = append(errs, w.file.Close())
	w.file = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("journal: closing: %w", err)
	}
	return nil
}

// Read returns every record in the journal at path, oldest first.
func Read(path string) ([]Record, error) {
	var records []Record
	err := Scan(path, func(record Record, _ []byte) error {
		records = append(records, record)
		return nil
	})
	return records, err
}

// Scan calls fn for every record in order with the decoded record and
// its raw CBOR encoding. An error from fn stops the scan.
func Scan(path string, fn func(record Record, raw []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("journal: opening %s: %w", path, err)
	}
	defer file.Close()

	var source io.Reader = file
	if compressed(path) {
		decompressor, err := zstd.NewReader(file)
		if err != nil {
			return fmt.Errorf("journal: reading zstd stream: %w", err)
		}
		defer decompressor.Close()
		source = decompressor
	}

	decoder := codec.NewDecoder(bufio.NewReader(source))
	for index := 0; ; index++ {
		var raw codec.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("journal: record %d: %w", index, err)
		}
		var record Record
		if err := codec.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("journal: record %d: %w", index, err)
		}
		if err := fn(record, raw); err != nil {
			return err
		}
	}
}
