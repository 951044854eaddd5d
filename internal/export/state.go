package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"predictionScope/internal/storage/postgres"
)

// StateStore persists the fingerprint of the last exported projections.
type StateStore interface {
	Load(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, fingerprint string) error
}

// DefaultStateName keys the export fingerprint when no name is configured.
const DefaultStateName = "projections"

// FileStateStore keeps export fingerprints in a local JSON file, one entry per export name, so
// several sync jobs can share a file the way they share the sync_state table.
type FileStateStore struct {
	Path string
	Name string

	now func() time.Time
}

type stateEntry struct {
	Fingerprint string `json:"fingerprint"`
	UpdatedAt   string `json:"updated_at"`
}

type stateFile struct {
	Exports map[string]stateEntry `json:"exports"`
}

func (s *FileStateStore) name() string {
	if s.Name == "" {
		return DefaultStateName
	}
	return s.Name
}

func (s *FileStateStore) read() (stateFile, error) {
	state := stateFile{Exports: map[string]stateEntry{}}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("parse state %s: %w", s.Path, err)
	}
	if state.Exports == nil {
		state.Exports = map[string]stateEntry{}
	}
	return state, nil
}

// Load returns the stored fingerprint for this export. An empty fingerprint counts as absent.
func (s *FileStateStore) Load(_ context.Context) (string, bool, error) {
	if s == nil || s.Path == "" {
		return "", false, nil
	}
	state, err := s.read()
	if err != nil {
		return "", false, err
	}
	entry, ok := state.Exports[s.name()]
	if !ok || entry.Fingerprint == "" {
		return "", false, nil
	}
	return entry.Fingerprint, true, nil
}

// Save records the fingerprint for this export, leaving other exports' entries untouched.
// The file is replaced atomically.
func (s *FileStateStore) Save(_ context.Context, fingerprint string) error {
	if s == nil || s.Path == "" {
		return nil
	}
	state, err := s.read()
	if err != nil {
		return err
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	state.Exports[s.name()] = stateEntry{
		Fingerprint: fingerprint,
		UpdatedAt:   now().UTC().Format(time.RFC3339Nano),
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("create state tmp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state tmp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// DBStateStore stores state in the sync_state table.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (string, bool, error) {
	if s == nil || s.Store == nil {
		return "", false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, fingerprint string) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, fingerprint)
}
