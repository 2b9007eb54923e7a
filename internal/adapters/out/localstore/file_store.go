// backend/internal/adapters/out/localstore/file_store.go
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	devicedom "sripavan/internal/domain/device"
)

// FileFactory keeps one JSON file of slots per device under Dir.
// Used in development; production runs on Redis.
type FileFactory struct {
	Dir string

	mu     sync.Mutex
	stores map[string]*FileStore
}

func NewFileFactory(dir string) (*FileFactory, error) {
	if dir == "" {
		return nil, errors.New("localstore: dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("localstore: create %s: %w", dir, err)
	}
	return &FileFactory{Dir: dir, stores: map[string]*FileStore{}}, nil
}

// ForDevice returns the same *FileStore for repeated calls so writers of
// one device share a lock.
func (f *FileFactory) ForDevice(deviceID string) (devicedom.Store, error) {
	id, err := devicedom.NormalizeID(deviceID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stores[id]; ok {
		return s, nil
	}
	s := &FileStore{path: filepath.Join(f.Dir, id+".json")}
	f.stores[id] = s
	return s, nil
}

// FileStore is a device.Store persisted as {"key":"value"} JSON.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := slots[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.load()
	if err != nil {
		return err
	}
	slots[key] = value
	return s.save(slots)
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := slots[key]; !ok {
		return nil
	}
	delete(slots, key)
	if len(slots) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return s.save(slots)
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	slots := map[string]string{}
	if len(raw) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, fmt.Errorf("localstore: corrupt %s: %w", filepath.Base(s.path), err)
	}
	return slots, nil
}

// save writes a temp file and renames it over the old one.
func (s *FileStore) save(slots map[string]string) error {
	raw, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

var _ devicedom.StoreFactory = (*FileFactory)(nil)
