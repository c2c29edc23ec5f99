package upload

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/constants"
	"github.com/edgarcoime/cthulhu-cli/internal/models"
)

const (
	DefaultSuccessResetDelay = 5 * time.Second
	DefaultErrorResetDelay   = 3 * time.Second
)

var (
	ErrSuperseded = errors.New("Superseded by a newer upload")
	ErrClosed     = errors.New("Upload widget closed")
)

// Uploader is the network side of the widget. *client.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, files []models.TransferFile) (*models.UploadResult, error)
	SessionURL(sessionID string) string
}

type RecentFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Widget is the upload drop zone: a drag flag, a file-selection control and
// the Idle/Uploading/Succeeded/Failed state machine. Each submission gets a
// generation number; a response belonging to an older generation is dropped
// and its request cancelled, so a stale reply never overwrites newer state.
type Widget struct {
	uploader     Uploader
	successDelay time.Duration
	errorDelay   time.Duration
	logger       *slog.Logger

	mu         sync.Mutex
	state      State
	active     bool
	selection  []string
	recent     []RecentFile
	gen        uint64
	cancel     context.CancelFunc
	resetTimer *time.Timer
	closed     bool
	subs       []func(State)
}

type Option func(*Widget)

func WithResetDelays(success, failure time.Duration) Option {
	return func(w *Widget) {
		w.successDelay = success
		w.errorDelay = failure
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Widget) { w.logger = l }
}

func NewWidget(uploader Uploader, opts ...Option) *Widget {
	w := &Widget{
		uploader:     uploader,
		successDelay: DefaultSuccessResetDelay,
		errorDelay:   DefaultErrorResetDelay,
		logger:       slog.Default(),
		state:        Idle{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Active reports whether something is being dragged over the drop target.
func (w *Widget) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// CanSubmit is false while an upload is in flight; surfaces disable their
// trigger on it. Submit itself does not enforce it.
func (w *Widget) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed && w.state.Kind() != KindUploading
}

// Selection is the current value of the file-selection control.
func (w *Widget) Selection() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.selection...)
}

// Recent lists every file of every successful submission, oldest first.
func (w *Widget) Recent() []RecentFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]RecentFile(nil), w.recent...)
}

// Subscribe registers fn to be called after every state transition.
func (w *Widget) Subscribe(fn func(State)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

func (w *Widget) DragEnter() {
	w.setActive(true)
}

func (w *Widget) DragLeave() {
	w.setActive(false)
}

// DragOver keeps the target highlighted. It always returns true: the default
// file-open navigation must be suppressed.
func (w *Widget) DragOver() bool {
	return true
}

func (w *Widget) Drop(ctx context.Context, files []models.TransferFile) State {
	w.setActive(false)
	return w.Submit(ctx, files)
}

// Select is the change event of the hidden file-selection control.
func (w *Widget) Select(ctx context.Context, files []models.TransferFile) State {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}

	w.mu.Lock()
	w.selection = names
	w.mu.Unlock()

	return w.Submit(ctx, files)
}

// Submit uploads files in one request and blocks until the outcome is known.
// An empty selection is a no-op and returns the current state.
func (w *Widget) Submit(ctx context.Context, files []models.TransferFile) State {
	if len(files) == 0 {
		return w.State()
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Failed{Message: ErrClosed.Error(), Err: ErrClosed}
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.stopTimerLocked()
	w.gen++
	gen := w.gen
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	notify := w.setLocked(Uploading{Files: len(files), TotalSize: models.TotalSize(files)})
	w.mu.Unlock()
	notify()

	res, err := w.uploader.Upload(ctx, files)
	cancel()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Failed{Message: ErrClosed.Error(), Err: ErrClosed}
	}
	if gen != w.gen {
		w.mu.Unlock()
		w.logger.Debug("Drop stale upload response", "generation", gen)
		return Failed{Message: ErrSuperseded.Error(), Err: ErrSuperseded}
	}
	w.cancel = nil

	var next State
	if err != nil {
		next = Failed{Message: constants.UserMessage(err), Err: err}
		w.scheduleResetLocked(gen, w.errorDelay)
		w.logger.Warn("Upload failed", "error", err)
	} else {
		next = Succeeded{SessionURL: w.uploader.SessionURL(res.URL), Result: res}
		for _, f := range files {
			w.recent = append(w.recent, RecentFile{Name: f.Name, Size: f.Size})
		}
		w.selection = nil
		w.scheduleResetLocked(gen, w.successDelay)
	}
	notify = w.setLocked(next)
	w.mu.Unlock()
	notify()

	return next
}

// Close cancels an in-flight upload and any pending reset. The widget
// ignores all later events.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.stopTimerLocked()
	w.subs = nil
}

func (w *Widget) setActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.active = active
	}
}

func (w *Widget) setLocked(s State) func() {
	w.state = s
	subs := slices.Clone(w.subs)

	return func() {
		for _, fn := range subs {
			fn(s)
		}
	}
}

func (w *Widget) scheduleResetLocked(gen uint64, d time.Duration) {
	w.stopTimerLocked()
	w.resetTimer = time.AfterFunc(d, func() {
		w.reset(gen)
	})
}

func (w *Widget) stopTimerLocked() {
	if w.resetTimer != nil {
		w.resetTimer.Stop()
		w.resetTimer = nil
	}
}

func (w *Widget) reset(gen uint64) {
	w.mu.Lock()
	if w.closed || gen != w.gen {
		w.mu.Unlock()
		return
	}
	if k := w.state.Kind(); k != KindSucceeded && k != KindFailed {
		w.mu.Unlock()
		return
	}
	w.resetTimer = nil
	notify := w.setLocked(Idle{})
	w.mu.Unlock()
	notify()
}
