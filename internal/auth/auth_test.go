package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/session"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/desertthunder/mvx/internal/storage"
	tu "github.com/desertthunder/mvx/internal/testing"
)

func setupFlow(t *testing.T) (*Flow, *tu.MockProvider, *session.Store) {
	t.Helper()

	cfg := shared.DefaultConfig()
	cfg.Server = shared.ServerConfig{Host: "127.0.0.1", Port: 0}
	cfg.Auth = shared.AuthConfig{TimeoutSeconds: 5, ExchangeAttempts: 3}

	provider := tu.NewMockProvider("req-1", "sess-1")
	sessions := session.New(storage.NewMemoryStore(), nil)

	flow := NewFlow(provider, sessions, cfg, nil)
	flow.RetryDelay = time.Millisecond
	flow.Browser = func(string) error { return nil }
	return flow, provider, sessions
}

// approve simulates the provider redirecting back to the callback URL with extra params.
func approve(t *testing.T, params string) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			t.Errorf("invalid authorization URL: %v", err)
			return err
		}
		callback := u.Query().Get("redirect_to") + "&" + params

		go func() {
			resp, err := http.Get(callback)
			if err != nil {
				t.Errorf("callback request failed: %v", err)
				return
			}
			resp.Body.Close()
		}()
		return nil
	}
}

func TestBegin(t *testing.T) {
	t.Run("builds authorization URL", func(t *testing.T) {
		flow, _, _ := setupFlow(t)
		flow.server = shared.ServerConfig{Host: "localhost", Port: 3000}

		a, err := flow.Begin(context.Background())
		if err != nil {
			t.Fatalf("failed to begin: %v", err)
		}

		if !strings.HasPrefix(a.URL, "https://www.themoviedb.org/authenticate/req-1?redirect_to=") {
			t.Errorf("unexpected authorization URL %s", a.URL)
		}

		u, _ := url.Parse(a.URL)
		callback, err := url.Parse(u.Query().Get("redirect_to"))
		if err != nil {
			t.Fatalf("invalid redirect: %v", err)
		}
		if callback.Host != "localhost:3000" || callback.Path != "/auth/callback" {
			t.Errorf("unexpected callback %s", callback)
		}
		if callback.Query().Get("state") != a.State || a.State == "" {
			t.Errorf("expected state %q in callback, got %s", a.State, callback.RawQuery)
		}
	})

	t.Run("request token failure", func(t *testing.T) {
		flow, provider, _ := setupFlow(t)
		provider.RequestTokenErr = shared.ErrNetworkFailure

		if _, err := flow.Begin(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		flow, provider, _ := setupFlow(t)

		if _, err := flow.Complete(ctx, ""); !errors.Is(err, shared.ErrMissingRequestToken) {
			t.Errorf("expected ErrMissingRequestToken, got %v", err)
		}
		if provider.SessionCalls() != 0 {
			t.Error("provider should not be called without a token")
		}
	})

	t.Run("stores external identity", func(t *testing.T) {
		flow, _, sessions := setupFlow(t)
		_ = sessions.SetLocal("alice")

		sessionID, err := flow.Complete(ctx, "req-1")
		if err != nil {
			t.Fatalf("failed to complete: %v", err)
		}
		if sessionID != "sess-1" {
			t.Errorf("expected sess-1, got %s", sessionID)
		}

		id, _ := sessions.Identity()
		if id != models.External("sess-1") {
			t.Errorf("expected external identity, got %v", id)
		}
	})

	t.Run("cancelled wait does not store identity", func(t *testing.T) {
		flow, _, sessions := setupFlow(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := flow.Complete(cancelled, "req-1"); err == nil {
			t.Fatal("expected an error after cancellation")
		}
		id, _ := sessions.Identity()
		if !id.IsNone() {
			t.Errorf("expected no identity, got %v", id)
		}
	})

	t.Run("retries transient failures", func(t *testing.T) {
		flow, provider, _ := setupFlow(t)
		provider.SessionErrs = []error{shared.ErrNetworkFailure, shared.ErrNetworkFailure}

		if _, err := flow.Complete(ctx, "req-1"); err != nil {
			t.Fatalf("expected success on third attempt, got %v", err)
		}
		if provider.SessionCalls() != 3 {
			t.Errorf("expected 3 attempts, got %d", provider.SessionCalls())
		}
	})

	t.Run("gives up after configured attempts", func(t *testing.T) {
		flow, provider, sessions := setupFlow(t)
		provider.SessionErrs = []error{shared.ErrNetworkFailure, shared.ErrNetworkFailure, shared.ErrNetworkFailure}

		_, err := flow.Complete(ctx, "req-1")
		if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, shared.ErrNetworkFailure) {
			t.Errorf("expected ErrAuthFailed wrapping ErrNetworkFailure, got %v", err)
		}
		if provider.SessionCalls() != 3 {
			t.Errorf("expected 3 attempts, got %d", provider.SessionCalls())
		}

		id, _ := sessions.Identity()
		if !id.IsNone() {
			t.Errorf("failed exchange should not set identity, got %v", id)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		flow, _, sessions := setupFlow(t)
		flow.Browser = approve(t, "request_token=req-1&approved=true")

		var shown string
		sessionID, err := flow.Login(context.Background(), func(u string) { shown = u })
		if err != nil {
			t.Fatalf("failed to login: %v", err)
		}
		if sessionID != "sess-1" {
			t.Errorf("expected sess-1, got %s", sessionID)
		}
		if shown == "" {
			t.Error("authorization URL should be reported")
		}

		id, _ := sessions.Identity()
		if tok, _ := id.SessionToken(); tok != "sess-1" {
			t.Errorf("expected external identity, got %v", id)
		}
	})

	t.Run("denied", func(t *testing.T) {
		flow, provider, _ := setupFlow(t)
		flow.Browser = approve(t, "request_token=req-1&denied=true")

		if _, err := flow.Login(context.Background(), nil); !errors.Is(err, shared.ErrAuthDenied) {
			t.Errorf("expected ErrAuthDenied, got %v", err)
		}
		if provider.SessionCalls() != 0 {
			t.Errorf("denied approvals must not be exchanged, got %d calls", provider.SessionCalls())
		}
	})

	t.Run("token that was not issued", func(t *testing.T) {
		flow, provider, sessions := setupFlow(t)
		flow.Browser = approve(t, "request_token=forged&approved=true")

		if _, err := flow.Login(context.Background(), nil); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if provider.SessionCalls() != 0 {
			t.Errorf("unexpected token must not be exchanged, got %d calls", provider.SessionCalls())
		}
		id, _ := sessions.Identity()
		if !id.IsNone() {
			t.Errorf("expected no identity, got %v", id)
		}
	})

	t.Run("browser failure still waits for callback", func(t *testing.T) {
		flow, _, _ := setupFlow(t)
		redirect := approve(t, "request_token=req-1&approved=true")
		flow.Browser = func(string) error { return shared.ErrInvalidArgument }

		_, err := flow.Login(context.Background(), func(u string) { redirect(u) })
		if err != nil {
			t.Errorf("expected login to complete through printed URL, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		flow, _, sessions := setupFlow(t)
		flow.auth.TimeoutSeconds = 1

		start := time.Now()
		_, err := flow.Login(context.Background(), nil)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		if time.Since(start) > 4*time.Second {
			t.Errorf("timeout took too long: %s", time.Since(start))
		}

		id, _ := sessions.Identity()
		if !id.IsNone() {
			t.Errorf("timed out login should not set identity, got %v", id)
		}
	})
}
