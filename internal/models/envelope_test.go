package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeResultSuccess(t *testing.T) {
	body := `{"status":true,"data":{"url":"abc123defg","files":[{"original_name":"a.txt","file_name":"x_1_a.txt","size":500,"path":"files/abc123defg/x_1_a.txt"}],"total_size":500,"file_count":1},"error":null}`

	var env UploadEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))

	res, err := env.Result()
	require.NoError(t, err)
	assert.Equal(t, "abc123defg", res.URL)
	assert.Equal(t, 1, res.FileCount)
	assert.Equal(t, int64(500), res.TotalSize)
	assert.Equal(t, "a.txt", res.Files[0].OriginalName)
}

func TestEnvelopeResultFailure(t *testing.T) {
	var env ListingEnvelope
	require.NoError(t, json.Unmarshal([]byte(`{"status":false,"data":null,"error":"session not found"}`), &env))

	_, err := env.Result()
	var apiErr *constants.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "session not found", apiErr.Message)
}

func TestEnvelopeResultMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"success without data", `{"status":true,"data":null,"error":null}`},
		{"success with error", `{"status":true,"data":{"session_id":"x","files":[],"count":0},"error":"odd"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env ListingEnvelope
			require.NoError(t, json.Unmarshal([]byte(tt.body), &env))

			_, err := env.Result()
			assert.ErrorIs(t, err, constants.ErrUnexpectedResponse)
		})
	}
}

func TestErrorMessageNonString(t *testing.T) {
	var env UploadEnvelope
	require.NoError(t, json.Unmarshal([]byte(`{"status":false,"data":null,"error":{}}`), &env))
	assert.Equal(t, ErrorMessage(""), env.Error)

	out, err := json.Marshal(ListingEnvelope{Status: false, Error: ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":false,"data":null,"error":null}`, string(out))
}
