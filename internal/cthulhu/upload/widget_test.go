package upload

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/constants"
	"github.com/edgarcoime/cthulhu-cli/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linkBase = "http://localhost:4000/files/s/"

type fakeUploader struct {
	mu     sync.Mutex
	calls  [][]models.TransferFile
	upload func(ctx context.Context, files []models.TransferFile) (*models.UploadResult, error)
}

func (f *fakeUploader) Upload(ctx context.Context, files []models.TransferFile) (*models.UploadResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, files)
	f.mu.Unlock()
	return f.upload(ctx, files)
}

func (f *fakeUploader) SessionURL(id string) string {
	return linkBase + id
}

func (f *fakeUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func succeedWith(id string) func(context.Context, []models.TransferFile) (*models.UploadResult, error) {
	return func(_ context.Context, files []models.TransferFile) (*models.UploadResult, error) {
		return &models.UploadResult{URL: id, FileCount: len(files), TotalSize: models.TotalSize(files)}, nil
	}
}

func twoFiles() []models.TransferFile {
	return []models.TransferFile{
		models.TransferFileFromBytes("a.bin", make([]byte, 500)),
		models.TransferFileFromBytes("b.bin", make([]byte, 2000)),
	}
}

func TestSubmitEmptySelectionIsNoop(t *testing.T) {
	up := &fakeUploader{upload: succeedWith("abc123defg")}
	w := NewWidget(up)
	defer w.Close()

	var transitions int
	w.Subscribe(func(State) { transitions++ })

	st := w.Submit(context.Background(), nil)
	assert.Equal(t, KindIdle, st.Kind())
	st = w.Drop(context.Background(), []models.TransferFile{})
	assert.Equal(t, KindIdle, st.Kind())

	assert.Zero(t, up.callCount())
	assert.Zero(t, transitions)
}

func TestDropTwoFilesSucceeds(t *testing.T) {
	up := &fakeUploader{upload: succeedWith("abc123defg")}
	w := NewWidget(up)
	defer w.Close()

	w.DragEnter()
	assert.True(t, w.Active())
	assert.True(t, w.DragOver())

	st := w.Drop(context.Background(), twoFiles())
	assert.False(t, w.Active())

	require.Equal(t, 1, up.callCount())
	assert.Len(t, up.calls[0], 2)

	ok, isOK := st.(Succeeded)
	require.True(t, isOK, "state %v", st)
	assert.Equal(t, linkBase+"abc123defg", ok.SessionURL)
	assert.Equal(t, 2, ok.Result.FileCount)
	assert.Equal(t, "2 files available at "+linkBase+"abc123defg", ok.String())
	assert.Equal(t, []RecentFile{{"a.bin", 500}, {"b.bin", 2000}}, w.Recent())
}

func TestSelectClearsSelectionOnSuccess(t *testing.T) {
	up := &fakeUploader{upload: succeedWith("abc123defg")}
	w := NewWidget(up)
	defer w.Close()

	w.Select(context.Background(), twoFiles())
	assert.Empty(t, w.Selection())
	assert.Len(t, w.Recent(), 2)

	w.Select(context.Background(), twoFiles()[:1])
	assert.Len(t, w.Recent(), 3)
}

func TestSelectKeepsSelectionOnFailure(t *testing.T) {
	up := &fakeUploader{upload: func(context.Context, []models.TransferFile) (*models.UploadResult, error) {
		return nil, &constants.APIError{StatusCode: 500, Message: "disk full"}
	}}
	w := NewWidget(up)
	defer w.Close()

	st := w.Select(context.Background(), twoFiles())
	failed, isFailed := st.(Failed)
	require.True(t, isFailed)
	assert.Equal(t, "disk full", failed.Message)
	assert.Equal(t, []string{"a.bin", "b.bin"}, w.Selection())
	assert.Empty(t, w.Recent())
}

func TestSubmitTransportFailureMessage(t *testing.T) {
	up := &fakeUploader{upload: func(context.Context, []models.TransferFile) (*models.UploadResult, error) {
		return nil, fmt.Errorf("%w: connection refused", constants.ErrTransport)
	}}
	w := NewWidget(up)
	defer w.Close()

	st := w.Submit(context.Background(), twoFiles())
	assert.Equal(t, Failed{Message: "Network error, please try again", Err: st.(Failed).Err}, st)
}

func TestAutoReset(t *testing.T) {
	up := &fakeUploader{upload: succeedWith("abc123defg")}
	w := NewWidget(up, WithResetDelays(30*time.Millisecond, 10*time.Millisecond))
	defer w.Close()

	var mu sync.Mutex
	var seen []Kind
	w.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s.Kind())
		mu.Unlock()
	})

	w.Submit(context.Background(), twoFiles())
	assert.Equal(t, KindSucceeded, w.State().Kind())

	assert.Eventually(t, func() bool { return w.State().Kind() == KindIdle }, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []Kind{KindUploading, KindSucceeded, KindIdle}, seen)
	mu.Unlock()

	up.upload = func(context.Context, []models.TransferFile) (*models.UploadResult, error) {
		return nil, &constants.APIError{StatusCode: 400, Message: "bad"}
	}
	w.Submit(context.Background(), twoFiles())
	assert.Equal(t, KindFailed, w.State().Kind())
	assert.Eventually(t, func() bool { return w.State().Kind() == KindIdle }, time.Second, 5*time.Millisecond)
}

func TestCloseCancelsPendingReset(t *testing.T) {
	up := &fakeUploader{upload: succeedWith("abc123defg")}
	w := NewWidget(up, WithResetDelays(20*time.Millisecond, 20*time.Millisecond))

	w.Submit(context.Background(), twoFiles())
	w.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, KindSucceeded, w.State().Kind())
	assert.False(t, w.CanSubmit())

	st := w.Submit(context.Background(), twoFiles())
	assert.ErrorIs(t, st.(Failed).Err, ErrClosed)
	assert.Equal(t, 1, up.callCount())
}

func TestStaleResponseIsDropped(t *testing.T) {
	started := make(chan struct{})
	up := &fakeUploader{}
	up.upload = func(ctx context.Context, files []models.TransferFile) (*models.UploadResult, error) {
		if files[0].Name == "slow.bin" {
			close(started)
			<-ctx.Done()
			return &models.UploadResult{URL: "stalestale", FileCount: 1}, nil
		}
		return succeedWith("freshfresh")(ctx, files)
	}
	w := NewWidget(up)
	defer w.Close()

	slowDone := make(chan State, 1)
	go func() {
		slowDone <- w.Submit(context.Background(), []models.TransferFile{models.TransferFileFromBytes("slow.bin", []byte("x"))})
	}()

	<-started
	assert.False(t, w.CanSubmit())

	st := w.Submit(context.Background(), twoFiles())
	assert.Equal(t, linkBase+"freshfresh", st.(Succeeded).SessionURL)

	stale := <-slowDone
	assert.ErrorIs(t, stale.(Failed).Err, ErrSuperseded)
	assert.Equal(t, linkBase+"freshfresh", w.State().(Succeeded).SessionURL)
	assert.Equal(t, 2, up.callCount())
}

func TestDragFlags(t *testing.T) {
	w := NewWidget(&fakeUploader{upload: succeedWith("x")})

	w.DragEnter()
	assert.True(t, w.Active())
	w.DragLeave()
	assert.False(t, w.Active())
	assert.Equal(t, KindIdle, w.State().Kind())

	w.Close()
	w.DragEnter()
	assert.False(t, w.Active())
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindIdle, "idle"},
		{KindUploading, "uploading"},
		{KindSucceeded, "succeeded"},
		{KindFailed, "failed"},
		{Kind(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q; want %q", tt.kind, got, tt.want)
		}
	}
}

func TestSubscribersSeeEveryTransition(t *testing.T) {
	up := &fakeUploader{upload: succeedWith("abc123defg")}
	w := NewWidget(up, WithResetDelays(time.Hour, time.Hour))
	defer w.Close()

	var first, second []Kind
	w.Subscribe(func(s State) { first = append(first, s.Kind()) })
	w.Subscribe(func(s State) {
		second = append(second, s.Kind())
		// registering from inside a callback must not block the widget
		if s.Kind() == KindUploading {
			w.Subscribe(func(State) {})
		}
	})

	st := w.Submit(context.Background(), twoFiles())
	require.Equal(t, KindSucceeded, st.Kind())

	want := []Kind{KindUploading, KindSucceeded}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}
