package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mvx/internal/accounts"
	"github.com/desertthunder/mvx/internal/favorites"
	"github.com/desertthunder/mvx/internal/services"
	"github.com/desertthunder/mvx/internal/session"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/desertthunder/mvx/internal/storage"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      storage.Store
	catalog    services.Catalog
	auth       services.Authenticator
	provider   services.AccountProvider
	sessions   *session.Store
	accounts   *accounts.Service
	favorites  *favorites.Reconciler
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Store is opened from the database config on first use when nil.
type RunnerOpts struct {
	Config        *shared.Config
	ConfigPath    string
	Store         storage.Store
	Catalog       services.Catalog
	Authenticator services.Authenticator
	Provider      services.AccountProvider
	HTTPClient    *http.Client
	Logger        *log.Logger
	Output        io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		auth:       opts.Authenticator,
		provider:   opts.Provider,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if opts.Store != nil {
		r.bind(opts.Store)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, accountCommand, authCommand, moviesCommand, favoritesCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and the stores it has opened.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.store != nil {
		r.bind(r.store)
	}
}

func (r *Runner) bind(store storage.Store) {
	r.store = store
	r.sessions = session.New(store, r.logger)
	r.accounts = accounts.NewService(store, r.sessions, r.logger)
	r.favorites = favorites.NewReconciler(store, r.accounts, r.provider, r.config.Favorites, r.logger)
}

// open lazily opens the migrated SQLite store.
func (r *Runner) open() error {
	if r.store != nil {
		return nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	r.bind(storage.NewSQLiteStore(db))
	return nil
}

// Close releases the store when one was opened.
func (r *Runner) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

func (r *Runner) requireCatalog() error {
	if r.catalog == nil {
		return fmt.Errorf("%w: set tmdb.api_key in config.toml or TMDB_API_KEY", shared.ErrMissingCredentials)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
