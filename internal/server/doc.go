// Package server provides the short-lived local HTTP server used by the provider sign-in handshake.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] added first wraps outermost and runs first.
// [RequestLogger] and [Recover] are the middleware installed by the auth flow.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// [CallbackHandler] serves /auth/callback, the redirect target handed to the provider when a request token
// is created. It validates the state parameter (CSRF protection), accepts only the request token it was
// created with, rejects denied approvals, exchanges the approved token for a session on the caller's
// context and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Lifetime
//
// [Listen] starts the server in the background; the auth flow shuts it down once a result arrives or the
// handshake times out.
package server
