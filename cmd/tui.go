package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/desertthunder/mvx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive movie explorer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	id, err := r.sessions.Identity()
	if err != nil {
		return err
	}

	route := ui.Resolve(cmd.String("route"), id)
	if !route.RequiresIdentity() {
		return fmt.Errorf("%w: run 'mvx account login' or 'mvx auth tmdb' first", shared.ErrNotAuthenticated)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/mvx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.Deps{
		Catalog:   r.catalog,
		Sessions:  r.sessions,
		Favorites: r.favorites,
		MaxPages:  r.config.Explorer.MaxPages,
		PerPage:   r.config.Explorer.LandingPerPage,
		Logger:    fileLogger,
	}, route)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
