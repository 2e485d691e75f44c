// Package snapshot bootstraps the SQLite grade warehouse from object storage.
// A compressed copy lives in an S3-compatible bucket; a fresh deployment
// downloads it once when the local file is missing.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Download outcomes reported to the recorder.
const (
	StatusOK       = "ok"
	StatusPresent  = "present"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Recorder receives one status per bootstrap or publish attempt.
type Recorder interface {
	RecordSnapshot(status string)
}

// Manager moves the warehouse file between the local disk and the store.
type Manager struct {
	store   Store
	key     string
	metrics Recorder
}

// NewManager returns a manager for the object at key. metrics may be nil.
func NewManager(store Store, key string, metrics Recorder) *Manager {
	return &Manager{store: store, key: key, metrics: metrics}
}

// Key returns the object key the manager reads and writes.
func (m *Manager) Key() string {
	return m.key
}

// EnsureLocal downloads the snapshot to dbPath unless a file is already
// there. It reports whether a download happened. A missing remote object is
// returned as ErrNotFound so the caller can continue with an empty warehouse.
func (m *Manager) EnsureLocal(ctx context.Context, dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); err == nil {
		m.record(StatusPresent)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		m.record(StatusError)
		return false, fmt.Errorf("stat warehouse: %w", err)
	}

	if err := m.Pull(ctx, dbPath); err != nil {
		return false, err
	}
	return true, nil
}

// Pull downloads and decompresses the snapshot over dbPath. The new file is
// staged next to dbPath and renamed into place, so readers never observe a
// partial warehouse.
func (m *Manager) Pull(ctx context.Context, dbPath string) error {
	start := time.Now()

	body, etag, err := m.store.Download(ctx, m.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.record(StatusNotFound)
			return ErrNotFound
		}
		m.record(StatusError)
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.record(StatusError)
		return fmt.Errorf("create warehouse dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dbPath)+".download-*")
	if err != nil {
		m.record(StatusError)
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := decompress(body, tmp)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, dbPath)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		m.record(StatusError)
		return fmt.Errorf("install snapshot: %w", err)
	}

	m.record(StatusOK)
	slog.InfoContext(ctx, "warehouse snapshot installed",
		"key", m.key,
		"etag", etag,
		"bytes", n,
		"path", dbPath,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Push compresses the local warehouse and uploads it, returning the ETag.
// The compressed copy is staged on disk so the upload carries a known
// Content-Length.
func (m *Manager) Push(ctx context.Context, dbPath string) (string, error) {
	staged, size, err := stageCompressed(dbPath)
	if err != nil {
		m.record(StatusError)
		return "", err
	}
	defer func() {
		_ = staged.Close()
		_ = os.Remove(staged.Name())
	}()

	etag, err := m.store.Upload(ctx, m.key, staged, size, "application/zstd")
	if err != nil {
		m.record(StatusError)
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	m.record(StatusOK)
	slog.InfoContext(ctx, "warehouse snapshot published",
		"key", m.key,
		"etag", etag,
		"bytes", size)
	return etag, nil
}

// stageCompressed writes a zstd copy of dbPath to a temp file and returns it
// rewound, together with its size. The caller closes and removes the file.
func stageCompressed(dbPath string) (*os.File, int64, error) {
	src, err := os.Open(dbPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open warehouse: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", filepath.Base(dbPath)+".upload-*.zst")
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	fail := func(err error) (*os.File, int64, error) {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, 0, err
	}

	if _, err := compress(src, tmp); err != nil {
		return fail(err)
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return fail(fmt.Errorf("size compressed snapshot: %w", err))
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fail(fmt.Errorf("rewind compressed snapshot: %w", err))
	}
	return tmp, size, nil
}

func (m *Manager) record(status string) {
	if m.metrics != nil {
		m.metrics.RecordSnapshot(status)
	}
}

// compress writes a zstd stream of r to w.
func compress(r io.Reader, w io.Writer) (int64, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return 0, fmt.Errorf("create encoder: %w", err)
	}
	n, err := io.Copy(enc, r)
	if err != nil {
		_ = enc.Close()
		return n, fmt.Errorf("compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return n, fmt.Errorf("close encoder: %w", err)
	}
	return n, nil
}

// decompress streams a zstd payload from r into w.
func decompress(r io.Reader, w io.Writer) (int64, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("create decoder: %w", err)
	}
	defer dec.Close()

	n, err := io.Copy(w, dec)
	if err != nil {
		return n, fmt.Errorf("decompress: %w", err)
	}
	return n, nil
}
