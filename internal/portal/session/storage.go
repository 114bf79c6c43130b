package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AnshRaj112/ridit-backend/internal/models"
)

// Session is the authenticated identity of the portal user.
type Session struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	Token  string      `json:"token"`
	Name   string      `json:"name,omitempty"`
}

// Storage persists at most one session across restarts.
type Storage interface {
	// Load returns nil, nil when nothing is stored.
	Load() (*Session, error)
	Save(s Session) error
	Clear() error
}

// FileStorage keeps the session in a JSON file readable only by the owner.
type FileStorage struct {
	Path string
}

func (f FileStorage) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session file %s: %w", f.Path, err)
	}
	if s.Token == "" {
		return nil, nil
	}
	return &s, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// half-written session.
func (f FileStorage) Save(s Session) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f FileStorage) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStorage is a process-local Storage.
type MemoryStorage struct {
	mu sync.Mutex
	s  *Session
}

func (m *MemoryStorage) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemoryStorage) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
