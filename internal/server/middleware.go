package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/handlers"
)

// AccessLog logs one line per request through logger.
func AccessLog(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
			logger.Info("request",
				"method", p.Request.Method,
				"path", p.URL.Path,
				"status", p.StatusCode,
				"size", p.Size,
				"duration", time.Since(p.TimeStamp),
			)
		})
	}
}

// recoveryLogger adapts a [log.Logger] to [handlers.RecoveryHandlerLogger].
type recoveryLogger struct {
	logger *log.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("recovered from panic", "panic", v)
}

// Recover turns handler panics into 500 responses carrying the JSON error envelope.
func Recover(logger *log.Logger) Middleware {
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger}),
		handlers.PrintRecoveryStack(false),
	)
	return func(next http.Handler) http.Handler {
		guarded := recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if pw, ok := w.(*panicWriter); ok {
						pw.panicked = true
					}
					panic(v)
				}
			}()
			next.ServeHTTP(w, r)
		}))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guarded.ServeHTTP(&panicWriter{ResponseWriter: w}, r)
		})
	}
}

// panicWriter replaces the bare status the recovery handler writes after a panic
// with the JSON error envelope, unless the handler already started a response.
type panicWriter struct {
	http.ResponseWriter
	panicked    bool
	wroteHeader bool
}

func (w *panicWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if w.panicked {
		WriteDetail(w.ResponseWriter, status, http.StatusText(status))
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *panicWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// CORS allows cross-origin calls from origins. "*" allows any origin.
func CORS(origins []string) Middleware {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
}

// Sentry attaches a hub to every request so [WriteError] can report server errors.
// Register it after [Recover]: it reports a panic and re-panics to the recovery layer.
func Sentry() Middleware {
	h := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return h.Handle
}

// captureError reports err to the request's Sentry hub, if one is attached.
func captureError(r *http.Request, err error) {
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	}
}
