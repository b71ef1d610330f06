// Package history keeps per-conversation message logs in memory.
package history

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/toolquery/llm"
)

// ErrUnknownSession is returned for a conversation id that does not exist.
var ErrUnknownSession = errors.New("history: unknown session")

// Entry is one message of a conversation.
type Entry struct {
	Role    llm.Role
	Content string
	Time    time.Time
}

// Store is an in-memory keyed log of conversations. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Entry
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{sessions: make(map[string][]Entry), now: time.Now}
}

// NewSession starts a conversation and returns its id.
func (s *Store) NewSession() string {
	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = nil
	s.mu.Unlock()
	return id
}

// Exists reports whether id names a conversation.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Append adds a message to a conversation.
func (s *Store) Append(id string, role llm.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	s.sessions[id] = append(entries, Entry{Role: role, Content: content, Time: s.now()})
	return nil
}

// History returns the last limit entries of a conversation, oldest first.
// limit <= 0 returns every entry.
func (s *Store) History(id string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Messages returns the last limit entries as chat messages.
func (s *Store) Messages(id string, limit int) ([]llm.Message, error) {
	entries, err := s.History(id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]llm.Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, llm.Message{Role: e.Role, Content: e.Content})
	}
	return out, nil
}

// Format renders the last limit entries as a Human/Assistant transcript.
func (s *Store) Format(id string, limit int) (string, error) {
	entries, err := s.History(id, limit)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch e.Role {
		case llm.RoleUser:
			b.WriteString("Human: ")
		case llm.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString(string(e.Role) + ": ")
		}
		b.WriteString(e.Content)
	}
	return b.String(), nil
}

// Delete removes a conversation. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
