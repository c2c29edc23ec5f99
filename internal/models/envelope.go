package models

import (
	"encoding/json"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/constants"
)

// Envelope is the {status, data, error} wrapper of every gateway JSON response.
type Envelope[T any] struct {
	Status bool         `json:"status"`
	Data   *T           `json:"data"`
	Error  ErrorMessage `json:"error"`
}

// Result checks the envelope invariant and returns its payload.
// A status:false envelope yields an *constants.APIError carrying the gateway
// message (possibly empty, StatusCode unset); a status:true envelope without
// data or with an error yields constants.ErrUnexpectedResponse.
func (e *Envelope[T]) Result() (*T, error) {
	if !e.Status {
		return nil, &constants.APIError{Message: string(e.Error)}
	}
	if e.Data == nil || e.Error != "" {
		return nil, constants.ErrUnexpectedResponse
	}
	return e.Data, nil
}

// ErrorMessage is the envelope error field. Anything other than a JSON string
// (null, or an object some gateway versions emit for Go errors) decodes to "".
type ErrorMessage string

func (m *ErrorMessage) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*m = ""
		return nil
	}
	*m = ErrorMessage(s)
	return nil
}

func (m ErrorMessage) MarshalJSON() ([]byte, error) {
	if m == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

type UploadedFile struct {
	OriginalName string `json:"original_name"`
	FileName     string `json:"file_name"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
}

type UploadResult struct {
	URL       string         `json:"url"` // session identifier
	Files     []UploadedFile `json:"files"`
	TotalSize int64          `json:"total_size"`
	FileCount int            `json:"file_count"`
}

type SessionFile struct {
	Name     string `json:"name"`     // original name
	Filename string `json:"filename"` // stored name
	Size     int64  `json:"size"`
	URL      string `json:"url"` // relative to the gateway base
}

type SessionListing struct {
	SessionID string        `json:"session_id"`
	Files     []SessionFile `json:"files"`
	Count     int           `json:"count"`
}

type (
	UploadEnvelope  = Envelope[UploadResult]
	ListingEnvelope = Envelope[SessionListing]
)
