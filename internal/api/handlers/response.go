package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/domain"
)

type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

type APIError struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Data       any      `json:"data"`
}

// internalErrorBody is written when a response body cannot be encoded.
var internalErrorBody = []byte(`{"statusCode":500,"success":false,"message":"Internal server error","errors":[],"data":null}` + "\n")

// writeJSON encodes body before touching the response so an unencodable
// value still yields a complete error envelope.
func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(internalErrorBody)
		return
	}
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, APIResponse{
		StatusCode: status,
		Success:    status < http.StatusBadRequest,
		Message:    message,
		Data:       data,
	})
}

// ErrorWriter renders err with the error envelope. Server-side failures are
// logged with their cause; client errors are not.
func ErrorWriter(logger *log.Logger) middleware.ErrorWriter {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		status := domain.HTTPStatus(err)
		message, details := domain.PublicMessage(err)
		if status >= http.StatusInternalServerError {
			logger.Error("ERROR [handlers] request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		}
		if details == nil {
			details = []string{}
		}
		writeJSON(w, status, APIError{
			StatusCode: status,
			Success:    false,
			Message:    message,
			Errors:     details,
			Data:       nil,
		})
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return domain.NewValidationError("Request body too large")
	}
	return domain.NewValidationError("Invalid request body")
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func requireCaller(w http.ResponseWriter, r *http.Request, writeError middleware.ErrorWriter) (*domain.Caller, bool) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		writeError(w, r, domain.NewUnauthorizedError("Unauthorized request"))
		return nil, false
	}
	return caller, true
}
