package middleware

import (
	"net/http"

	"github.com/charmbracelet/log"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// redactedParams are query parameters whose values never reach the request
// log. The websocket endpoint accepts its access token as ?token=.
var redactedParams = []string{"token", "accessToken", "refreshToken"}

// RequestLogger is chi's request logger writing through logger, with
// credential query parameters masked.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return chiMiddleware.RequestLogger(&redactingFormatter{
		next: &chiMiddleware.DefaultLogFormatter{Logger: logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}), NoColor: true},
	})
}

type redactingFormatter struct {
	next chiMiddleware.LogFormatter
}

func (f *redactingFormatter) NewLogEntry(r *http.Request) chiMiddleware.LogEntry {
	if r.URL.RawQuery == "" {
		return f.next.NewLogEntry(r)
	}

	query := r.URL.Query()
	changed := false
	for _, name := range redactedParams {
		if query.Has(name) {
			query.Set(name, "redacted")
			changed = true
		}
	}
	if !changed {
		return f.next.NewLogEntry(r)
	}

	u := *r.URL
	u.RawQuery = query.Encode()
	masked := r.Clone(r.Context())
	masked.URL = &u
	masked.RequestURI = u.RequestURI()
	return f.next.NewLogEntry(masked)
}
