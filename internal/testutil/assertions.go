package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the body shape shared by success and error responses
type Envelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	Data       json.RawMessage `json:"data"`
}

// ReadEnvelope decodes and closes the response body
func ReadEnvelope(t *testing.T, resp *http.Response) Envelope {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env), "failed to unmarshal response: %s", string(body))
	return env
}

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// DecodeData checks for a success envelope and decodes its data into v
func DecodeData(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	env := ReadEnvelope(t, resp)
	require.True(t, env.Success, "expected success envelope, got %d: %s", env.StatusCode, env.Message)
	require.Equal(t, resp.StatusCode, env.StatusCode, "envelope status differs from HTTP status")
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v), "failed to unmarshal data: %s", string(env.Data))
	}
}

// AssertErrorResponse verifies error envelope status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	env := ReadEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, expectedStatus, env.StatusCode)
	assert.Equal(t, expectedMessage, env.Message, "error message mismatch")
	assert.NotNil(t, env.Errors, "errors must be an array")
}
