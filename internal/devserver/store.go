package devserver

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble/v2"
	"github.com/google/uuid"

	"github.com/stockstorm/widgets-go/livechat"
	"github.com/stockstorm/widgets-go/livechat/rest"
)

// DefaultRetention is how long chat messages are kept.
const DefaultRetention = 24 * time.Hour

// ErrUnknownUser is returned when appending a message for a user id the
// store does not know.
var ErrUnknownUser = errors.New("devserver: unknown user")

// User is a dashboard account.
type User struct {
	ID             int64
	Username       string
	ProfilePicture *string
}

// StoredMessage is one persisted chat line.
type StoredMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Store keeps accounts, sessions and chat history. History is held in
// memory and optionally mirrored to a Pebble database keyed by 8-byte
// big-endian message ids.
type Store struct {
	mu        sync.RWMutex
	db        *pebble.DB
	nextID    int64
	messages  []StoredMessage
	users     map[int64]User
	sessions  map[string]int64
	retention time.Duration
	now       func() time.Time
}

// NewStore returns an in-memory store.
func NewStore() *Store {
	return &Store{
		nextID:    1,
		users:     make(map[int64]User),
		sessions:  make(map[string]int64),
		retention: DefaultRetention,
		now:       time.Now,
	}
}

// OpenStore returns a store persisting history under dir, preloaded with
// whatever history dir already holds.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return OpenStoreWith(filepath.Clean(dir), &pebble.Options{})
}

// OpenStoreWith opens the Pebble database with explicit options.
func OpenStoreWith(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := NewStore()
	s.db = db
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	it, err := s.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("open iterator: %w", err)
	}
	defer func() { _ = it.Close() }()
	for it.First(); it.Valid(); it.Next() {
		var m StoredMessage
		if err := json.Unmarshal(it.Value(), &m); err != nil {
			continue
		}
		s.messages = append(s.messages, m)
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}
	return nil
}

// SetRetention changes the expiry used by Prune.
func (s *Store) SetRetention(d time.Duration) {
	s.mu.Lock()
	s.retention = d
	s.mu.Unlock()
}

// AddUser registers an account and opens a session for it. The returned
// token is the session cookie value.
func (s *Store) AddUser(u User) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.users[u.ID] = u
	s.sessions[token] = u.ID
	s.mu.Unlock()
	return token
}

// UserBySession resolves a session token.
func (s *Store) UserBySession(token string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[token]
	if !ok {
		return User{}, false
	}
	u, ok := s.users[id]
	return u, ok
}

// User looks up an account by id.
func (s *Store) User(id int64) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Append records text from a known user.
func (s *Store) Append(userID int64, text string) (StoredMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return StoredMessage{}, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	m := StoredMessage{ID: s.nextID, UserID: userID, Text: text, Timestamp: s.now()}
	if s.db != nil {
		val, err := json.Marshal(m)
		if err != nil {
			return StoredMessage{}, fmt.Errorf("encode message: %w", err)
		}
		if err := s.db.Set(messageKey(m.ID), val, pebble.Sync); err != nil {
			return StoredMessage{}, fmt.Errorf("persist message: %w", err)
		}
	}
	s.nextID++
	s.messages = append(s.messages, m)
	return m, nil
}

// History returns every stored message oldest first, as seen by viewer.
func (s *Store) History(viewer int64) []rest.MessageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rest.MessageInfo, 0, len(s.messages))
	for _, m := range s.messages {
		u := s.users[m.UserID]
		out = append(out, rest.MessageInfo{
			ID:             m.ID,
			Username:       u.Username,
			UserID:         m.UserID,
			Message:        m.Text,
			Timestamp:      m.Timestamp.Format(livechat.TimestampLayout),
			IsSelf:         m.UserID == viewer,
			ProfilePicture: u.ProfilePicture,
		})
	}
	return out
}

// Prune deletes messages older than the retention period and reports how
// many were removed.
func (s *Store) Prune() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.retention)
	n := 0
	for n < len(s.messages) && s.messages[n].Timestamp.Before(cutoff) {
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if s.db != nil {
		start := messageKey(s.messages[0].ID)
		end := messageKey(s.messages[n-1].ID + 1)
		if err := s.db.DeleteRange(start, end, pebble.Sync); err != nil {
			return 0, fmt.Errorf("delete expired messages: %w", err)
		}
	}
	s.messages = append([]StoredMessage(nil), s.messages[n:]...)
	return n, nil
}

// Close releases the database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func messageKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}
