// Package auth implements the provider sign-in handshake.
//
// The flow follows the TMDB request-token scheme: a request token is created, the user approves it on the
// provider's site, the provider redirects to the local callback server, and the approved token is exchanged
// for a session id that becomes the external identity. The flow only writes to the session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mvx/internal/server"
	"github.com/desertthunder/mvx/internal/services"
	"github.com/desertthunder/mvx/internal/session"
	"github.com/desertthunder/mvx/internal/shared"
)

const shutdownTimeout = 5 * time.Second

// Authorization is a started handshake.
type Authorization struct {
	URL          string // provider page the user must visit
	RequestToken string
	State        string
	CallbackURL  string
}

// Flow drives the handshake against an [services.Authenticator].
type Flow struct {
	authenticator services.Authenticator
	sessions      *session.Store
	authURL       string
	server        shared.ServerConfig
	auth          shared.AuthConfig
	logger        *log.Logger

	// Browser opens the authorization URL. Defaults to [shared.OpenBrowser].
	Browser func(url string) error
	// RetryDelay is the base backoff between session exchange attempts.
	RetryDelay time.Duration
}

// NewFlow creates a [Flow] from configuration. A nil logger discards output.
func NewFlow(authenticator services.Authenticator, sessions *session.Store, cfg *shared.Config, logger *log.Logger) *Flow {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Flow{
		authenticator: authenticator,
		sessions:      sessions,
		authURL:       strings.TrimRight(cfg.TMDB.AuthURL, "/"),
		server:        cfg.Server,
		auth:          cfg.Auth,
		logger:        shared.WithLogger(logger, "component", "auth"),
		Browser:       shared.OpenBrowser,
		RetryDelay:    500 * time.Millisecond,
	}
}

// Begin requests a token and builds the URL the user must approve it at.
func (f *Flow) Begin(ctx context.Context) (*Authorization, error) {
	return f.authorize(ctx, f.server.Addr())
}

// authorize builds an [Authorization] redirecting to the callback server at addr.
func (f *Flow) authorize(ctx context.Context, addr string) (*Authorization, error) {
	token, err := f.authenticator.RequestToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request token: %w", shared.ErrAuthFailed, err)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	callback := url.URL{
		Scheme:   "http",
		Host:     addr,
		Path:     server.CallbackPath,
		RawQuery: url.Values{"state": {state}}.Encode(),
	}

	authURL := fmt.Sprintf("%s/%s?%s", f.authURL, url.PathEscape(token),
		url.Values{"redirect_to": {callback.String()}}.Encode())

	return &Authorization{
		URL:          authURL,
		RequestToken: token,
		State:        state,
		CallbackURL:  callback.String(),
	}, nil
}

// Complete exchanges an approved request token and stores the session as the external identity.
//
// The exchange is retried up to auth.exchange_attempts times.
func (f *Flow) Complete(ctx context.Context, requestToken string) (string, error) {
	if requestToken == "" {
		return "", shared.ErrMissingRequestToken
	}

	attempts := f.auth.ExchangeAttempts
	if attempts < 1 {
		attempts = 1
	}

	sessionID, err := retry.DoWithData(
		func() (string, error) {
			return f.authenticator.CreateSession(ctx, requestToken)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(f.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, shared.ErrMissingRequestToken) && !errors.Is(err, shared.ErrAuthDenied)
		}),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Warn("session exchange failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := f.sessions.SetExternal(sessionID); err != nil {
		return "", err
	}

	f.logger.Info("external session created")
	return sessionID, nil
}

// Login runs the whole handshake: it starts the callback server, opens the browser and waits for the
// redirect. onURL, when not nil, receives the authorization URL so callers can print it.
//
// The wait is bounded by auth.timeout_seconds and returns [shared.ErrTimeout] when it elapses.
func (f *Flow) Login(ctx context.Context, onURL func(string)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.auth.Timeout())
	defer cancel()

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(f.logger), server.Recover(f.logger))

	srv, err := server.Listen(f.server.Addr(), router, f.logger)
	if err != nil {
		return "", err
	}
	defer srv.Shutdown(shutdownTimeout)

	addr := f.server.Addr()
	if _, port, err := net.SplitHostPort(srv.Addr()); err == nil {
		addr = net.JoinHostPort(f.server.Host, port)
	}

	a, err := f.authorize(ctx, addr)
	if err != nil {
		return "", err
	}

	handler := server.NewCallbackHandler(ctx, a.State, a.RequestToken, f.Complete)
	router.Handler(handler)

	if onURL != nil {
		onURL(a.URL)
	}
	if f.Browser != nil {
		if err := f.Browser(a.URL); err != nil {
			f.logger.Warn("failed to open browser automatically", "error", err)
		}
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			if errors.Is(err, shared.ErrAuthDenied) || errors.Is(err, shared.ErrAuthFailed) {
				return "", err
			}
			return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return result.SessionID, nil
	case err := <-srv.Errors():
		return "", fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: authorization not completed within %s", shared.ErrTimeout, f.auth.Timeout())
		}
		return "", ctx.Err()
	}
}
