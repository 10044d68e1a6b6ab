// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

// accountCommand handles local account operations
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"acct"},
		Usage:   "Local account operations",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create a local account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.StringSliceFlag{Name: "interest", Usage: "Genre of interest (repeatable)"},
				},
				Action: r.AccountRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in with a local account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", Required: true},
				},
				Action: r.AccountLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear the active session",
				Action: r.AccountLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the active identity",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AccountWhoami,
			},
			{
				Name:  "update",
				Usage: "Update the signed in account's profile",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New display name"},
					&cli.StringFlag{Name: "password", Usage: "New password"},
					&cli.StringSliceFlag{Name: "interest", Usage: "Replace interests (repeatable)"},
				},
				Action: r.AccountUpdate,
			},
		},
	}
}

// authCommand handles TMDB authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with TMDB",
		Commands: []*cli.Command{
			{
				Name:  "tmdb",
				Usage: "Approve a TMDB request token in the browser and create a session",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-browser", Usage: "Print the approval URL without opening a browser"},
				},
				Action: r.AuthTMDB,
			},
			{
				Name:      "complete",
				Usage:     "Exchange an already approved request token for a session",
				ArgsUsage: "<request_token>",
				Action:    r.AuthComplete,
			},
			{
				Name:   "status",
				Usage:  "Show the active identity",
				Action: r.AuthStatus,
			},
		},
	}
}

// moviesCommand handles catalog queries
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Search and browse the catalog",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search movies by title",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Result page", Value: 1},
					jsonFlag(),
				},
				Action: r.MoviesSearch,
			},
			{
				Name:      "detail",
				Usage:     "Show details for a movie",
				ArgsUsage: "<movie_id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.MoviesDetail,
			},
			{
				Name:   "landing",
				Usage:  "Show now playing, top rated movies and top rated series",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.MoviesLanding,
			},
		},
	}
}

// favoritesCommand handles favorites of the active identity
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorites of the active identity",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favorites",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.FavoritesList,
			},
			{
				Name:      "toggle",
				Usage:     "Add a movie to favorites, or remove it when already present",
				ArgsUsage: "<movie_id>",
				Action:    r.FavoritesToggle,
			},
			{
				Name:  "export",
				Usage: "Export favorites to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "text, csv, markdown or json", Value: "text"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path (directory for markdown)"},
					&cli.BoolFlag{Name: "posters", Usage: "Download posters alongside a markdown export"},
				},
				Action: r.FavoritesExport,
			},
		},
	}
}

// tuiCommand launches the interactive explorer
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive movie explorer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "route", Usage: "Screen to open: / or /explorer", Value: "/"},
		},
		Action: r.TUI,
	}
}
