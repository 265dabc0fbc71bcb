// Package pkg provides utilities shared by gorepair commands.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrReadOnly is returned when appending to a journal opened for reading.
var ErrReadOnly = errors.New("journal is read-only")

// Journal is an append-only, gob-encoded sequence of records of type T
// stored in a single file.
type Journal[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileJournal[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// CreateJournal creates (or truncates) the journal at path.
func CreateJournal[T any](path string) (Journal[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	// #nosec G304 - journal path is chosen by the run
	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create journal", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}

	slog.Debug("created journal", "path", path)

	return &fileJournal[T]{path: path, file: file, encoder: gob.NewEncoder(file)}, nil
}

// OpenJournal opens an existing journal for reading and counts its records.
func OpenJournal[T any](path string) (Journal[T], error) {
	j := &fileJournal[T]{path: path}

	err := j.scan(func(uint64, T) error { return nil })
	if err != nil {
		return nil, err
	}

	slog.Debug("opened journal", "path", path, "length", j.length)

	return j, nil
}

// scan decodes records until EOF and updates the length.
func (j *fileJournal[T]) scan(fn func(index uint64, item T) error) error {
	// #nosec G304 - journal path is chosen by the caller
	file, err := os.Open(j.path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close journal", "path", j.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	var i uint64

	for {
		var item T

		err := decoder.Decode(&item)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("failed to decode record %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}

		i++
	}

	j.length = i

	return nil
}

// Path implements Journal.
func (j *fileJournal[T]) Path() string {
	return j.path
}

// Append implements Journal.
func (j *fileJournal[T]) Append(item T) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.encoder == nil {
		return ErrReadOnly
	}

	if err := j.encoder.Encode(item); err != nil {
		slog.Error("failed to encode record", "path", j.path, "index", j.length, "error", err)
		return fmt.Errorf("failed to encode record: %w", err)
	}

	j.length++

	return nil
}

// AppendBatch implements Journal.
func (j *fileJournal[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := j.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Len implements Journal.
func (j *fileJournal[T]) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.length
}

// Get implements Journal. It decodes from the start of the file.
func (j *fileJournal[T]) Get(index uint64) (T, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var (
		zero  T
		found T
	)

	if index >= j.length {
		return zero, fmt.Errorf("index %d out of bounds (length %d)", index, j.length)
	}

	errStop := errors.New("stop")
	length := j.length

	err := j.scan(func(i uint64, item T) error {
		if i == index {
			found = item
			return errStop
		}

		return nil
	})

	j.length = length

	if err != nil && !errors.Is(err, errStop) {
		return zero, err
	}

	return found, nil
}

// Range implements Journal.
func (j *fileJournal[T]) Range(fn func(index uint64, item T) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	length := j.length

	err := j.scan(func(i uint64, item T) error {
		if i >= length {
			return nil
		}

		return fn(i, item)
	})

	j.length = length

	return err
}

// Close implements Journal. Closing a read-only journal is a no-op.
func (j *fileJournal[T]) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}

	err := j.file.Close()
	j.file = nil
	j.encoder = nil

	if err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}

	slog.Debug("closed journal", "path", j.path, "length", j.length)

	return nil
}
