package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is a durable string key/value area. SetMany and DeleteMany must
// apply all keys or none.
type Storage interface {
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, keys []string) error
}

// DefaultNamespace prefixes every key the Store writes.
const DefaultNamespace = "estatehub"

// Store persists a Session under three namespaced keys.
type Store struct {
	Storage   Storage
	Namespace string
}

// NewStore wraps storage with the default namespace.
func NewStore(storage Storage) *Store {
	return &Store{Storage: storage, Namespace: DefaultNamespace}
}

func (s *Store) key(name string) string {
	ns := s.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return ns + ":" + name
}

func (s *Store) keys() []string {
	return []string{s.key("access_token"), s.key("refresh_token"), s.key("user")}
}

// Load returns the persisted session, or false when none is stored.
func (s *Store) Load(ctx context.Context) (Session, bool, error) {
	keys := s.keys()
	vals, err := s.Storage.GetMany(ctx, keys)
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	access, refresh := vals[keys[0]], vals[keys[1]]
	if access == "" || refresh == "" {
		return Session{}, false, nil
	}

	var user *Profile
	if raw := vals[keys[2]]; raw != "" {
		var p Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return Session{}, false, fmt.Errorf("decode stored user: %w", err)
		}
		user = &p
	}
	return newSession(TokenPair{AccessToken: access, RefreshToken: refresh}, user), true, nil
}

// Save writes the session.
func (s *Store) Save(ctx context.Context, sess Session) error {
	user := ""
	if sess.User != nil {
		raw, err := json.Marshal(sess.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		user = string(raw)
	}
	keys := s.keys()
	return s.Storage.SetMany(ctx, map[string]string{
		keys[0]: sess.AccessToken,
		keys[1]: sess.RefreshToken,
		keys[2]: user,
	})
}

// Clear removes all three keys in one operation.
func (s *Store) Clear(ctx context.Context) error {
	return s.Storage.DeleteMany(ctx, s.keys())
}

// MemoryStorage keeps values in process memory.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string]string{}}
}

func (m *MemoryStorage) GetMany(_ context.Context, keys []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryStorage) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryStorage) DeleteMany(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Len is the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// FileStorage keeps values in a JSON file. Every write replaces the file via
// rename so a crash never leaves half the keys behind.
type FileStorage struct {
	Path string
	mu   sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

func (f *FileStorage) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return data, nil
}

func (f *FileStorage) write(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f *FileStorage) GetMany(_ context.Context, keys []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *FileStorage) SetMany(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		data[k] = v
	}
	return f.write(data)
}

func (f *FileStorage) DeleteMany(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	return f.write(data)
}
