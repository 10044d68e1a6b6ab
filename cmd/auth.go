package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mvx/internal/auth"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) flow() (*auth.Flow, error) {
	if r.auth == nil {
		return nil, fmt.Errorf("%w: set tmdb.api_key in config.toml or TMDB_API_KEY", shared.ErrMissingCredentials)
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return auth.NewFlow(r.auth, r.sessions, r.config, r.logger), nil
}

// AuthTMDB runs the request token handshake: it serves the callback locally, opens the approval page
// and stores the resulting session as the active identity.
func (r *Runner) AuthTMDB(ctx context.Context, cmd *cli.Command) error {
	flow, err := r.flow()
	if err != nil {
		return err
	}
	if cmd.Bool("no-browser") {
		flow.Browser = func(string) error { return nil }
	}

	_, err = flow.Login(ctx, func(url string) {
		r.writePlain("Approve access in your browser:\n%s\n\n", url)
		r.writePlain("Waiting for TMDB to redirect back (timeout %s)...\n", r.config.Auth.Timeout())
	})
	if err != nil {
		return err
	}

	r.logger.Info("tmdb session created")
	return r.writePlain("✓ Signed in with TMDB\n")
}

// AuthComplete exchanges a request token approved out of band.
func (r *Runner) AuthComplete(ctx context.Context, cmd *cli.Command) error {
	token := cmd.Args().First()
	if token == "" {
		return fmt.Errorf("%w: request token", shared.ErrMissingArgument)
	}

	flow, err := r.flow()
	if err != nil {
		return err
	}
	if _, err := flow.Complete(ctx, token); err != nil {
		return err
	}
	return r.writePlain("✓ Signed in with TMDB\n")
}

// AuthStatus reports the active identity.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	id, err := r.sessions.Identity()
	if err != nil {
		return err
	}

	if username, ok := id.Username(); ok {
		return r.writePlain("Authentication: ✓ local account %s\n", username)
	}
	if _, ok := id.SessionToken(); ok {
		return r.writePlain("Authentication: ✓ TMDB session\n")
	}

	r.writePlain("Authentication: ✗ Not authenticated\n")
	if r.auth == nil {
		r.writePlain("TMDB credentials are not configured\n")
	}
	return nil
}
