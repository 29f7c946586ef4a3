package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"moneymate/internal/core"
)

const filePrefix = "moneymate_data_"

// JSONFileRepository stores each ledger in its own JSON document under dir.
// Writes go to a temporary file in the same directory which is then renamed
// over the target, so a crash mid-write leaves the previous file intact.
type JSONFileRepository struct {
	dir string
	mu  sync.Mutex
}

func NewJSONFileRepository(dir string) (*JSONFileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &JSONFileRepository{dir: dir}, nil
}

// Path returns the file backing userID.
func (r *JSONFileRepository) Path(userID string) string {
	return filepath.Join(r.dir, filePrefix+userID+".json")
}

func (r *JSONFileRepository) Load(ctx context.Context, userID string) (*core.Ledger, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, persistenceErr("load", err)
	}

	b, err := os.ReadFile(r.Path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, persistenceErr("read ledger file", err)
	}

	var l core.Ledger
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, persistenceErr("decode ledger file", err)
	}
	l.Normalize()
	return &l, nil
}

func (r *JSONFileRepository) Save(ctx context.Context, userID string, ledger *core.Ledger) error {
	if err := core.ValidateUserID(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return persistenceErr("save", err)
	}

	b, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return persistenceErr("encode ledger", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(r.dir, filePrefix+userID+".*.tmp")
	if err != nil {
		return persistenceErr("create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(b); err != nil {
		cleanup()
		return persistenceErr("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return persistenceErr("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return persistenceErr("close temp file", err)
	}
	if err := os.Rename(tmpName, r.Path(userID)); err != nil {
		os.Remove(tmpName)
		return persistenceErr("rename ledger file", err)
	}

	slog.DebugContext(ctx, "Ledger saved to file", "user_id", userID, "bytes", len(b))
	return nil
}

// Ping checks that the data directory is still reachable.
func (r *JSONFileRepository) Ping(context.Context) error {
	if _, err := os.Stat(r.dir); err != nil {
		return persistenceErr("stat data directory", err)
	}
	return nil
}

func (r *JSONFileRepository) Close() error { return nil }
