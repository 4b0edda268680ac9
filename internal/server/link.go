package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/musicagent/internal/models"
)

// LinkResult is the outcome of a [LinkHandler] callback.
type LinkResult struct {
	Payload *models.TokenPayload
	err     error
}

func (l *LinkResult) Error() error {
	return l.err
}

// LinkHandler serves a one-shot OAuth callback that stores the tokens on one user.
//
// Only the first callback is processed, so a replayed code is rejected.
type LinkHandler struct {
	tokens      TokenService
	userID      string
	state       string
	path        string
	resultChan  chan LinkResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewLinkHandler creates a [LinkHandler] answering on path for userID.
// The state token should be random; callbacks carrying any other state are rejected.
func NewLinkHandler(tokens TokenService, userID, state, path string) *LinkHandler {
	return &LinkHandler{
		tokens:     tokens,
		userID:     userID,
		state:      state,
		path:       path,
		resultChan: make(chan LinkResult, 1),
	}
}

// Routes returns the callback route.
func (h *LinkHandler) Routes() []Route {
	return []Route{{http.MethodGet, h.path, h.ServeHTTP}}
}

// ServeHTTP validates state, exchanges the code and persists the tokens.
func (h *LinkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		WriteDetail(w, http.StatusBadRequest, "Callback already processed")
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.Send(LinkResult{err: fmt.Errorf("invalid state parameter")})
		WriteDetail(w, http.StatusBadRequest, "Invalid state parameter")
		return
	}

	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization failed: %s - %s", q.Get("error"), q.Get("error_description"))
		h.Send(LinkResult{err: err})
		WriteDetail(w, http.StatusBadRequest, "Authorization failed")
		return
	}

	payload, err := h.tokens.ExchangeCode(r.Context(), code)
	if err != nil {
		h.Send(LinkResult{err: fmt.Errorf("token exchange failed: %w", err)})
		WriteDetail(w, StatusFor(err), "Token exchange failed")
		return
	}

	// The browser may go away once the page renders; persist on a detached context.
	if _, err := h.tokens.Persist(context.WithoutCancel(r.Context()), h.userID, payload); err != nil {
		h.Send(LinkResult{err: fmt.Errorf("failed to store tokens: %w", err)})
		WriteDetail(w, StatusFor(err), "Failed to store tokens")
		return
	}

	h.Send(LinkResult{Payload: payload})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, linkPage)
}

// Send sends the result through the channel (only once).
func (h *LinkHandler) Send(result LinkResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel. It receives exactly one result and is then closed.
func (h *LinkHandler) Result() <-chan LinkResult {
	return h.resultChan
}

const linkPage = `<!DOCTYPE html>
<html>
<head>
    <title>Spotify Linked</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Spotify Linked</h1>
        <p>Tokens are stored. You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
