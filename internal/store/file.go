package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/salgsmotor/internal/model"
)

// FileStore keeps one pretty-printed JSON document per company in a
// directory. Writes go to a temp file that is renamed over the target.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "store: create cache dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(orgnr model.OrgNumber) string {
	return filepath.Join(s.dir, orgnr.String()+".json")
}

func (s *FileStore) Get(_ context.Context, orgnr model.OrgNumber) (*model.Record, error) {
	data, err := os.ReadFile(s.path(orgnr))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "store: file read")
	}
	return decodeRecord(data)
}

func (s *FileStore) Put(_ context.Context, orgnr model.OrgNumber, rec *model.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: marshal record")
	}

	tmp, err := os.CreateTemp(s.dir, orgnr.String()+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "store: file create temp")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "store: file write")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "store: file close")
	}
	if err := os.Rename(tmp.Name(), s.path(orgnr)); err != nil {
		return eris.Wrap(err, "store: file rename")
	}
	return nil
}

func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return eris.Wrap(err, "store: file stat dir")
	}
	if !info.IsDir() {
		return eris.Errorf("store: %s is not a directory", s.dir)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Name() string { return "file" }
