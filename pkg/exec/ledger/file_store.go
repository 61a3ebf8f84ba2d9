package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joripage/execution-core/pkg/exec/model"
)

// FileStore keeps the ledger snapshot in one JSON document, written with
// a temp-file-then-rename so a crash mid-write never leaves a truncated
// snapshot behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(positions map[string]*model.Position) error {
	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load reads the snapshot. A missing file is an empty ledger; a corrupt
// one surfaces the error so the caller can log and start empty.
func (s *FileStore) Load() (map[string]*model.Position, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*model.Position), nil
	}
	if err != nil {
		return nil, err
	}

	positions := make(map[string]*model.Position)
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}
