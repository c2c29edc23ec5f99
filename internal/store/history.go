package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/models"
)

const DefaultHistoryLimit = 50

var ErrNoSuchSession = errors.New("No such session")

// Entry is one finished upload.
type Entry struct {
	SessionID string    `json:"session_id"`
	Link      string    `json:"link"`
	Files     []string  `json:"files"`
	TotalSize int64     `json:"total_size"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry records a successful upload under its share link.
func NewEntry(link string, res *models.UploadResult) Entry {
	names := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		names = append(names, f.OriginalName)
	}

	return Entry{
		SessionID: res.URL,
		Link:      link,
		Files:     names,
		TotalSize: res.TotalSize,
		CreatedAt: time.Now(),
	}
}

// History keeps recent uploads, newest first. With a non-empty path every
// change is written through to that JSON file.
type History struct {
	path    string
	limit   int
	entries []Entry
	mu      *sync.RWMutex
}

// OpenHistory loads path if it exists. An empty path gives a memory-only
// history.
func OpenHistory(path string, limit int) (*History, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	h := &History{
		path:    path,
		limit:   limit,
		entries: make([]Entry, 0),
		mu:      &sync.RWMutex{},
	}
	if path == "" {
		return h, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(b, &h.entries); err != nil {
		return nil, err
	}
	if len(h.entries) > limit {
		h.entries = h.entries[:limit]
	}

	return h, nil
}

// DefaultHistoryPath is <user config dir>/cthulhu/history.json.
func DefaultHistoryPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cthulhu", "history.json"), nil
}

func (h *History) Put(e Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	entries := make([]Entry, 0, len(h.entries)+1)
	entries = append(entries, e)
	for _, old := range h.entries {
		if old.SessionID != e.SessionID {
			entries = append(entries, old)
		}
	}
	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	h.entries = entries

	return h.flushLocked()
}

func (h *History) Get(sessionID string) (Entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range h.entries {
		if e.SessionID == sessionID {
			return e, nil
		}
	}
	return Entry{}, ErrNoSuchSession
}

func (h *History) All() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]Entry(nil), h.entries...)
}

func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = make([]Entry, 0)
	return h.flushLocked()
}

func (h *History) flushLocked() error {
	if h.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, h.path)
}
