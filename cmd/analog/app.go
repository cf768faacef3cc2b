package main

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/stefanpenner/analog/pkg/board"
	"github.com/stefanpenner/analog/pkg/config"
	"github.com/stefanpenner/analog/pkg/store"
)

// App carries the global flags and whatever a command opened.
type App struct {
	Dir  string
	JSON bool

	cfg          *config.Config
	logger       *log.Logger
	snapshotPath string // empty unless the file backend is in use
	files        *store.FileStore
	closers      []func() error
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "analog",
		Short:         "A paper-style board with three lists: today, next, someday",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Show the whole board
  analog show

  # Add a task and mark it in progress
  analog add today Write the quarterly summary
  analog toggle today 1

  # End the day, carrying unfinished tasks to next
  analog close
`),
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("ANALOG_DIR", ""), "Data directory (default: OS data dir)")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print JSON instead of text")

	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newSignalCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newAssignCmd(app))
	cmd.AddCommand(newNoteCmd(app))
	cmd.AddCommand(newDotsCmd(app))
	cmd.AddCommand(newCloseCmd(app))
	cmd.AddCommand(newArchiveCmd(app))
	cmd.AddCommand(newSelectCmd(app))
	cmd.AddCommand(newCapacityCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func (app *App) dataDir() string {
	if app.Dir != "" {
		return app.Dir
	}
	return store.DefaultDataDir()
}

// loadConfig reads config.yaml and builds the logger. Log output goes to the
// command's stderr.
func (app *App) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(app.dataDir())
	if err != nil {
		return err
	}
	app.cfg = cfg
	app.logger = config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	return nil
}

// openBoard loads config, opens the configured storage backend and builds the
// board. Callers must defer app.close().
func (app *App) openBoard(cmd *cobra.Command) (*board.Board, error) {
	if err := app.loadConfig(cmd); err != nil {
		return nil, err
	}

	var storage board.Storage
	switch app.cfg.Storage.Backend {
	case config.BackendRedis:
		rc := app.cfg.Storage.Redis
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		rs := store.NewRedisStore(client, rc.Key, rc.Timeout, app.logger)
		app.closers = append(app.closers, rs.Close)
		storage = rs
	default:
		fs, err := store.NewFileStore(app.cfg.SnapshotPath(app.dataDir()), app.logger)
		if err != nil {
			return nil, err
		}
		app.snapshotPath = fs.Path
		app.files = fs
		storage = fs
	}

	seed := board.SampleState
	if !app.cfg.Board.SeedSample {
		seed = board.EmptyState
	}
	return board.New(storage, board.WithLogger(app.logger), board.WithSeed(seed)), nil
}

func (app *App) close() {
	var errs []error
	for _, fn := range app.closers {
		errs = append(errs, fn())
	}
	app.closers = nil
	if err := errors.Join(errs...); err != nil && app.logger != nil {
		app.logger.Warn("closing storage", "err", err)
	}
}
