// Package allowlist holds the durable set of identities permitted to
// talk to the assistant. Mutations are write-through: a change is not
// reported as applied until the record on disk has been rewritten.
package allowlist

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

type record struct {
	Users []string `json:"users"`
}

// Store is safe for concurrent use. One mutex guards both the
// in-memory set and the file write, so concurrent mutations cannot
// interleave or lose updates.
type Store struct {
	mu    sync.Mutex
	path  string
	users map[string]struct{}
}

// Load reads the record at path. A missing or malformed file yields an
// empty store; any other read error is returned (the caller treats it
// as fatal, since silently starting with an empty list would lock
// everyone out of an existing installation for the wrong reason).
func Load(path string) (*Store, error) {
	s := &Store{path: path, users: map[string]struct{}{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read allowlist %s: %w", path, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Malformed content starts over empty rather than refusing to boot.
		return s, nil
	}
	for _, u := range rec.Users {
		if u == "" {
			continue
		}
		s.users[u] = struct{}{}
	}
	return s, nil
}

func (s *Store) Contains(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[identity]
	return ok
}

// Add inserts identity and persists the updated set. It reports false
// without touching the file when the identity is already present. On a
// write failure the in-memory set is rolled back and the error
// returned, so memory and disk never disagree about a reported success.
func (s *Store) Add(identity string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[identity]; ok {
		return false, nil
	}
	s.users[identity] = struct{}{}
	if err := s.persistLocked(); err != nil {
		delete(s.users, identity)
		return false, err
	}
	return true, nil
}

// Remove deletes identity and persists, symmetric to Add.
func (s *Store) Remove(identity string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[identity]; !ok {
		return false, nil
	}
	delete(s.users, identity)
	if err := s.persistLocked(); err != nil {
		s.users[identity] = struct{}{}
		return false, err
	}
	return true, nil
}

// List returns a sorted snapshot.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.users))
	for u := range s.users {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (s *Store) persistLocked() error {
	rec := record{Users: make([]string, 0, len(s.users))}
	for u := range s.users {
		rec.Users = append(rec.Users, u)
	}
	sort.Strings(rec.Users)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode allowlist: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write allowlist %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write allowlist %s: %w", s.path, err)
	}
	return nil
}
