package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"yieldConnector/internal/model"
)

// JsonlStorage appends records to JSONL files. Action records and pool
// events go to path, cast failures to failuresPath.
type JsonlStorage struct {
	path         string
	failuresPath string
	mu           sync.Mutex
}

var (
	_ Storage  = (*JsonlStorage)(nil)
	_ CastSink = (*JsonlStorage)(nil)
)

func NewJsonlStorage(path string, failuresPath string) *JsonlStorage {
	return &JsonlStorage{path: path, failuresPath: failuresPath}
}

// PutActionBatch appends a batch of action records as JSON lines.
func (s *JsonlStorage) PutActionBatch(_ context.Context, records []model.ActionRecord) error {
	return appendLines(&s.mu, s.path, records)
}

// PutPoolEventBatch appends a batch of pool events as JSON lines.
func (s *JsonlStorage) PutPoolEventBatch(_ context.Context, events []model.PoolEventRecord) error {
	return appendLines(&s.mu, s.path, events)
}

// PutCastFailure appends one failure record. Without a failures path the
// record is dropped.
func (s *JsonlStorage) PutCastFailure(_ context.Context, failure model.CastFailure) error {
	if s.failuresPath == "" {
		return nil
	}
	return appendLines(&s.mu, s.failuresPath, []model.CastFailure{failure})
}

func appendLines[T any](mu *sync.Mutex, path string, records []T) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
