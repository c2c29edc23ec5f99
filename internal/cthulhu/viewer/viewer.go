package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/constants"
	"github.com/edgarcoime/cthulhu-cli/internal/models"
)

var ErrNoSession = errors.New("Session id is required")

// Lister is the read side of the gateway. *client.Client implements it.
type Lister interface {
	ListSession(ctx context.Context, sessionID string) (*models.SessionListing, error)
	ResolveURL(rel string) string
}

// ViewState is one of Loading, Failed or Loaded.
type ViewState interface {
	Session() string
	isViewState()
}

type Loading struct {
	SessionID string
}

// Failed is terminal for the current load; Retry starts a fresh one.
type Failed struct {
	SessionID string
	Message   string
	Err       error
}

// Loaded holds the listing. Zero files is the empty state, not an error.
type Loaded struct {
	SessionID string
	Files     []models.SessionFile
}

func (s Loading) Session() string { return s.SessionID }
func (s Failed) Session() string  { return s.SessionID }
func (s Loaded) Session() string  { return s.SessionID }

func (Loading) isViewState() {}
func (Failed) isViewState()  {}
func (Loaded) isViewState()  {}

func (s Loaded) Empty() bool {
	return len(s.Files) == 0
}

func (s Loaded) Summary() string {
	return Summary(len(s.Files))
}

func Summary(n int) string {
	switch n {
	case 0:
		return "No files found in this session"
	case 1:
		return "1 file available"
	default:
		return fmt.Sprintf("%d files available", n)
	}
}

// Viewer fetches and holds the file listing of one session at a time.
type Viewer struct {
	lister Lister

	mu     sync.Mutex
	id     string
	gen    uint64
	loaded bool
	state  ViewState
}

func New(lister Lister) *Viewer {
	return &Viewer{
		lister: lister,
		state:  Loading{},
	}
}

func (v *Viewer) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Load fetches the listing of sessionID once. A reply that arrives after a
// newer Load started is discarded.
func (v *Viewer) Load(ctx context.Context, sessionID string) ViewState {
	sessionID = strings.TrimSpace(sessionID)

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.id = sessionID
	v.loaded = true
	if sessionID == "" {
		v.state = Failed{Message: ErrNoSession.Error(), Err: ErrNoSession}
		st := v.state
		v.mu.Unlock()
		return st
	}
	v.state = Loading{SessionID: sessionID}
	v.mu.Unlock()

	listing, err := v.lister.ListSession(ctx, sessionID)

	var next ViewState
	if err != nil {
		next = Failed{SessionID: sessionID, Message: constants.UserMessage(err), Err: err}
	} else {
		files := listing.Files
		if files == nil {
			files = []models.SessionFile{}
		}
		next = Loaded{SessionID: sessionID, Files: files}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return v.state
	}
	v.state = next
	return next
}

// Navigate loads sessionID unless it is the session already shown.
func (v *Viewer) Navigate(ctx context.Context, sessionID string) ViewState {
	v.mu.Lock()
	same := v.loaded && v.id == strings.TrimSpace(sessionID)
	st := v.state
	v.mu.Unlock()

	if same {
		return st
	}
	return v.Load(ctx, sessionID)
}

// Retry reloads the current session from scratch.
func (v *Viewer) Retry(ctx context.Context) ViewState {
	v.mu.Lock()
	id := v.id
	v.mu.Unlock()

	return v.Load(ctx, id)
}

// DownloadURL is the gateway base concatenated with the file's url field.
func (v *Viewer) DownloadURL(f models.SessionFile) string {
	return v.lister.ResolveURL(f.URL)
}
