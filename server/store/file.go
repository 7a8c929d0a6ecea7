package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// File stores one msgpack file per room under a directory.
type File struct {
	dir string
}

var _ Store = (*File)(nil)

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(room string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, room)
	// The hash keeps rooms that sanitize to the same name apart.
	return filepath.Join(f.dir, fmt.Sprintf("%s-%016x.msgpack", name, xxhash.Sum64String(room)))
}

func (f *File) Load(ctx context.Context, room string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(f.path(room))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: read %s: %w", room, err)
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("store: decode %s: %w", room, err)
	}
	return snap, nil
}

// Save writes to a temp file in the same directory and renames it over the
// previous snapshot, so readers never see a partial file.
func (f *File) Save(ctx context.Context, room string, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", room, err)
	}
	tmp, err := os.CreateTemp(f.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", room, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", room, err)
	}
	if err := os.Rename(tmp.Name(), f.path(room)); err != nil {
		return fmt.Errorf("store: rename %s: %w", room, err)
	}
	return nil
}
