package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/mvx/internal/shared"
)

// CallbackPath is the route the provider redirects to after the user approves a request token.
const CallbackPath = "/auth/callback"

// ExchangeFunc trades an approved request token for a session id.
type ExchangeFunc func(ctx context.Context, requestToken string) (string, error)

// CallbackResult is the outcome of the provider redirect.
type CallbackResult struct {
	SessionID string
	err       error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler serves [CallbackPath] exactly once per lifetime.
type CallbackHandler struct {
	ctx         context.Context
	state       string
	token       string
	exchange    ExchangeFunc
	resultChan  chan CallbackResult
	once        sync.Once
	mu          sync.Mutex
	callbackHit bool
}

// NewCallbackHandler creates a handler accepting only state and the request token it was issued with.
// The exchange runs on ctx, so nothing is exchanged once the caller has stopped waiting.
func NewCallbackHandler(ctx context.Context, state, requestToken string, exchange ExchangeFunc) *CallbackHandler {
	return &CallbackHandler{
		ctx:        ctx,
		state:      state,
		token:      requestToken,
		exchange:   exchange,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{CallbackPath}
}

// ServeHTTP validates the state and request token, rejects denied approvals and exchanges the token.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	params := callbackParams(r.URL)

	if params.Get("state") != h.state {
		h.Send(CallbackResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if params.Get("denied") == "true" {
		h.Send(CallbackResult{err: shared.ErrAuthDenied})
		http.Error(w, "Authorization denied", http.StatusForbidden)
		return
	}

	token := params.Get("request_token")
	if token == "" {
		h.Send(CallbackResult{err: shared.ErrMissingRequestToken})
		http.Error(w, "Missing request token", http.StatusBadRequest)
		return
	}

	if token != h.token {
		h.Send(CallbackResult{err: fmt.Errorf("%w: unexpected request token", shared.ErrAuthFailed)})
		http.Error(w, "Unexpected request token", http.StatusBadRequest)
		return
	}

	if err := h.ctx.Err(); err != nil {
		h.Send(CallbackResult{err: err})
		http.Error(w, "Sign-in expired", http.StatusGone)
		return
	}

	sessionID, err := h.exchange(h.ctx, token)
	if err != nil {
		h.Send(CallbackResult{err: err})
		http.Error(w, "Session exchange failed", http.StatusBadGateway)
		return
	}

	h.Send(CallbackResult{SessionID: sessionID})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

// callbackParams parses the query, tolerating a second '?' added when the provider appends
// its own parameters to a redirect URL that already has a query.
func callbackParams(u *url.URL) url.Values {
	values, err := url.ParseQuery(strings.ReplaceAll(u.RawQuery, "?", "&"))
	if err != nil {
		return u.Query()
	}
	return values
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Signed In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #0d253f; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #01b4e4; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Signed in to TMDB</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
