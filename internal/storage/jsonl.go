package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"swapScope/internal/model"
)

// JsonlStorage appends records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) Path() string {
	return s.path
}

// PutTxBatch appends a batch of transfer records as JSON lines.
func (s *JsonlStorage) PutTxBatch(records []model.TxRecord) error {
	return appendLines(s, records)
}

// PutPoolBatch appends a batch of pool snapshots as JSON lines.
func (s *JsonlStorage) PutPoolBatch(pools []model.PoolDetail) error {
	return appendLines(s, pools)
}

func appendLines[T any](s *JsonlStorage, items []T) error {
	if len(items) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
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

// ReadTxRecords loads every transfer record from a journal file.
func ReadTxRecords(path string) ([]model.TxRecord, error) {
	return readLines[model.TxRecord](path)
}

// ReadPoolSnapshot loads pool snapshots written by PutPoolBatch. When an
// asset appears more than once the last line wins.
func ReadPoolSnapshot(path string) ([]model.PoolDetail, error) {
	details, err := readLines[model.PoolDetail](path)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(details))
	latest := make([]model.PoolDetail, 0, len(details))
	for _, detail := range details {
		if i, ok := index[detail.Asset]; ok {
			latest[i] = detail
			continue
		}
		index[detail.Asset] = len(latest)
		latest = append(latest, detail)
	}
	return latest, nil
}

func readLines[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	var out []T
	decoder := json.NewDecoder(bufio.NewReader(file))
	for {
		var item T
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode line %d: %w", len(out)+1, err)
		}
		out = append(out, item)
	}
	return out, nil
}
