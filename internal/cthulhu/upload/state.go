package upload

import (
	"fmt"

	"github.com/edgarcoime/cthulhu-cli/internal/models"
)

type Kind int

const (
	KindIdle Kind = iota
	KindUploading
	KindSucceeded
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindUploading:
		return "uploading"
	case KindSucceeded:
		return "succeeded"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the widget state. Exactly one of Idle, Uploading, Succeeded and
// Failed holds at any time.
type State interface {
	Kind() Kind
	String() string
	isState()
}

type Idle struct{}

type Uploading struct {
	Files     int
	TotalSize int64
}

type Succeeded struct {
	SessionURL string
	Result     *models.UploadResult
}

type Failed struct {
	Message string
	Err     error
}

func (Idle) Kind() Kind      { return KindIdle }
func (Uploading) Kind() Kind { return KindUploading }
func (Succeeded) Kind() Kind { return KindSucceeded }
func (Failed) Kind() Kind    { return KindFailed }

func (Idle) String() string { return "Idle" }

func (s Uploading) String() string {
	return fmt.Sprintf("Uploading %d file(s)", s.Files)
}

func (s Succeeded) String() string {
	return fmt.Sprintf("%s available at %s", Summary(s.Result), s.SessionURL)
}

func (s Failed) String() string {
	return "Failed: " + s.Message
}

func (Idle) isState()      {}
func (Uploading) isState() {}
func (Succeeded) isState() {}
func (Failed) isState()    {}

// Summary renders the "N files available" line of a finished upload.
func Summary(res *models.UploadResult) string {
	n := 0
	if res != nil {
		n = res.FileCount
	}
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
