// Package auth implements API-key authentication for the panel. Keys live in
// users.json in the config directory, which is watched and reloaded on change.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const usersFileName = "users.json"

// Role decides what a key may do.
type Role string

const (
	// RoleAdmin may read state and perform every action.
	RoleAdmin Role = "admin"
	// RoleViewer may only read state and subscribe to updates.
	RoleViewer Role = "viewer"
)

// User represents a single entry in users.json, keyed by user name.
type User struct {
	Role             Role   `json:"role"`
	AccessKey        string `json:"access_key"`
	AccessKeyUpdated string `json:"access_key_updated,omitempty"`
}

// Service holds the current set of keys.
type Service struct {
	mu        sync.RWMutex
	configDir string
	users     map[string]User
	watcher   *fsnotify.Watcher
}

// NewService creates an auth service watching the given config directory.
// With no users.json (or no keys in it) the panel runs in open mode.
func NewService(configDir string) (*Service, error) {
	s := &Service{
		configDir: configDir,
		users:     make(map[string]User),
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("auth: could not create fsnotify watcher", "err", err)
		return s, nil
	}
	s.watcher = watcher

	usersPath := s.usersPath()
	if err := watcher.Add(filepath.Dir(usersPath)); err != nil {
		slog.Warn("auth: could not watch config dir", "err", err)
	}

	go s.watchLoop(usersPath)
	return s, nil
}

func (s *Service) usersPath() string {
	return filepath.Join(s.configDir, usersFileName)
}

// Reload re-reads users.json. A missing file switches to open mode.
func (s *Service) Reload() error {
	data, err := os.ReadFile(s.usersPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.setUsers(make(map[string]User))
			return nil
		}
		return err
	}

	var users map[string]User
	if err := json.Unmarshal(data, &users); err != nil {
		return err
	}
	for name, u := range users {
		if u.Role == "" {
			u.Role = RoleAdmin
			users[name] = u
		}
	}

	s.setUsers(users)
	slog.Debug("auth: reloaded users", "count", len(users))
	return nil
}

func (s *Service) setUsers(users map[string]User) {
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
}

// IsOpenMode returns true if no user has an access key.
func (s *Service) IsOpenMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.AccessKey != "" {
			return false
		}
	}
	return true
}

// Lookup returns the role of the user owning key. Uses constant-time
// comparison against every key.
func (s *Service) Lookup(key string) (Role, bool) {
	if key == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		role  Role
		found bool
	)
	for _, u := range s.users {
		if u.AccessKey == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(u.AccessKey)) == 1 && !found {
			role, found = u.Role, true
		}
	}
	return role, found
}

// VerifyKey returns true if key belongs to any user.
func (s *Service) VerifyKey(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Close stops the file watcher.
func (s *Service) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *Service) watchLoop(usersPath string) {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != usersPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if err := s.Reload(); err != nil {
					slog.Warn("auth: failed to reload users", "err", err)
				}
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("auth: watcher error", "err", err)
		}
	}
}
