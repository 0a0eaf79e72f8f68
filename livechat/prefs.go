package livechat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble/v2"
)

// CollapsedKey is the preference key of the collapsed flag.
const CollapsedKey = "chat_collapsed"

// PrefStore persists the widget's collapsed flag between sessions.
type PrefStore interface {
	Collapsed() (bool, error)
	SetCollapsed(collapsed bool) error
}

// MemoryPrefs keeps the flag for the lifetime of the process.
type MemoryPrefs struct {
	mu        sync.Mutex
	collapsed bool
}

func (p *MemoryPrefs) Collapsed() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.collapsed, nil
}

func (p *MemoryPrefs) SetCollapsed(collapsed bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collapsed = collapsed
	return nil
}

// PebblePrefs stores the flag in a PebbleDB directory. Values are the strings
// "true" and "false"; anything else, or a missing key, reads as expanded.
type PebblePrefs struct {
	db *pebble.DB
}

// OpenPebblePrefs opens or creates the store at dir.
func OpenPebblePrefs(dir string) (*PebblePrefs, error) {
	if dir == "" {
		return nil, errors.New("empty prefs directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return OpenPebblePrefsWith(filepath.Clean(dir), &pebble.Options{})
}

// OpenPebblePrefsWith opens the store with explicit options, e.g. an
// in-memory vfs.
func OpenPebblePrefsWith(dir string, opts *pebble.Options) (*PebblePrefs, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}
	return &PebblePrefs{db: db}, nil
}

func (p *PebblePrefs) Collapsed() (bool, error) {
	val, closer, err := p.db.Get([]byte(CollapsedKey))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", CollapsedKey, err)
	}
	defer func() { _ = closer.Close() }()
	return string(val) == "true", nil
}

func (p *PebblePrefs) SetCollapsed(collapsed bool) error {
	val := "false"
	if collapsed {
		val = "true"
	}
	if err := p.db.Set([]byte(CollapsedKey), []byte(val), pebble.Sync); err != nil {
		return fmt.Errorf("write %s: %w", CollapsedKey, err)
	}
	return nil
}

func (p *PebblePrefs) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
