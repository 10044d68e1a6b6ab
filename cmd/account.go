package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AccountRegister creates a local account and makes it the active identity.
func (r *Runner) AccountRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	profile, err := r.accounts.Register(models.Candidate{
		Username:  cmd.String("username"),
		Password:  cmd.String("password"),
		Name:      cmd.String("name"),
		Interests: cmd.StringSlice("interest"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("registered account", "username", profile.Username)
	return r.writePlain("✓ Registered %s and signed in\n", profile.Username)
}

// AccountLogin signs in with local credentials.
func (r *Runner) AccountLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	profile, err := r.accounts.Login(cmd.String("username"), cmd.String("password"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s\n", profile.Username)
}

// AccountLogout clears the active session.
func (r *Runner) AccountLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	if err := r.sessions.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return r.writePlain("✓ Signed out\n")
}

type whoami struct {
	Kind      string              `json:"kind"`
	Username  string              `json:"username,omitempty"`
	Profile   *models.UserProfile `json:"profile,omitempty"`
	Favorites int                 `json:"favorites"`
}

// AccountWhoami shows the active identity and, for local accounts, the profile.
func (r *Runner) AccountWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	id, err := r.sessions.Identity()
	if err != nil {
		return err
	}

	info := whoami{Kind: id.Kind().String()}
	if username, ok := id.Username(); ok {
		info.Username = username
		if info.Profile, err = r.accounts.Profile(username); err != nil {
			r.logger.Warn("active user has no profile", "username", username, "error", err)
		} else {
			info.Profile.Password = ""
			info.Favorites = len(info.Profile.Favorites)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}

	switch {
	case id.IsNone():
		return r.writePlain("Not signed in\n")
	case info.Profile != nil:
		r.writePlainHeader(info.Profile.Name)
		r.writePlain("Username:  %s\n", info.Profile.Username)
		if len(info.Profile.Interests) > 0 {
			r.writePlain("Interests: %v\n", info.Profile.Interests)
		}
		return r.writePlain("Favorites: %d\n", info.Favorites)
	case info.Username != "":
		return r.writePlain("Signed in as %s (profile missing)\n", info.Username)
	default:
		return r.writePlain("Signed in with a TMDB session\n")
	}
}

// AccountUpdate patches the active local account's profile.
func (r *Runner) AccountUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	id, err := r.sessions.Identity()
	if err != nil {
		return err
	}
	username, ok := id.Username()
	if !ok {
		return fmt.Errorf("%w: sign in with a local account first", shared.ErrNotAuthenticated)
	}

	var patch models.ProfilePatch
	if cmd.IsSet("name") {
		name := cmd.String("name")
		patch.Name = &name
	}
	if cmd.IsSet("password") {
		password := cmd.String("password")
		patch.Password = &password
	}
	if cmd.IsSet("interest") {
		patch.Interests = cmd.StringSlice("interest")
	}

	profile, err := r.accounts.UpdateProfile(username, patch)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated profile for %s\n", profile.Username)
}
