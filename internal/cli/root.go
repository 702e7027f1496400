package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"tally-cli/internal/config"
	"tally-cli/internal/format"
	"tally-cli/internal/logging"
	"tally-cli/internal/store"
	"tally-cli/internal/todo"
	"tally-cli/internal/tui"
	"tally-cli/internal/view"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// skipConfig marks commands that must run without a loadable config.
const skipConfig = "tally/skip-config"

type App struct {
	ConfigPath string
	Backend    string
	Namespace  string
	Dir        string
	PrettyJSON bool
	Format     string
	Route      string
	NoColor    bool

	cfg      *config.Config
	logger   *log.Logger
	closeLog func() error
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "tally",
		Short:        "tally: a local todo list (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  tally

  # Open the TUI on a filter
  tally '#/active'

  # Scriptable commands
  tally add "buy milk"
  tally list --filter active --format text
  tally toggle 3f2a
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}
		return app.init(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			return app.closeLog()
		}
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigPath, "config", envOr("TALLY_CONFIG", ""), "Config file (default: ~/.tally/config.yaml)")
	pf.StringVar(&app.Backend, "store", "", "Storage backend (sqlite|redis|memory); overrides storage.backend")
	pf.StringVar(&app.Namespace, "namespace", "", "List namespace; overrides storage.namespace")
	pf.StringVar(&app.Dir, "dir", "", "Directory for tally.sqlite; overrides storage.dir")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	pf.StringVar(&app.Format, "format", envOr("TALLY_FORMAT", format.JSON), "Output format (json|edn|text)")
	cmd.Flags().StringVar(&app.Route, "route", "", "Initial route for the TUI (#/, #/active, #/completed)")
	cmd.Flags().BoolVar(&app.NoColor, "no-color", false, "Disable colors in the TUI")

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newToggleAllCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newClearCompletedCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// init loads config, applies flag overrides and sets up logging. The TUI
// owns the terminal, so it only logs when a log file is configured.
func (app *App) init(cmd *cobra.Command) error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return writeErr(cmd, err)
	}
	if app.Backend != "" {
		cfg.Storage.Backend = app.Backend
	}
	if app.Namespace != "" {
		cfg.Storage.Namespace = app.Namespace
	}
	if app.Dir != "" {
		cfg.Storage.Dir = app.Dir
	}
	if err := cfg.Validate(); err != nil {
		return writeErr(cmd, err)
	}
	if _, err := format.Parse(app.Format); err != nil {
		return writeErr(cmd, err)
	}

	var fallback io.Writer = cmd.ErrOrStderr()
	if !cmd.HasParent() {
		fallback = io.Discard
	}
	logger, closeLog, err := logging.Setup(cfg.Log, fallback)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg, app.logger, app.closeLog = cfg, logger, closeLog
	return nil
}

func (app *App) entry(component string) *log.Entry {
	return app.logger.WithFields(log.Fields{
		"component": component,
		"namespace": app.cfg.Storage.Namespace,
	})
}

// session is one opened list plus its headless controllers.
type session struct {
	backend store.Backend
	list    *todo.List
	filter  *todo.FilterState
	view    *view.AppController
}

func (s *session) Close() error {
	s.view.Close()
	return s.backend.Close()
}

// openSession opens the configured store and binds a list, filter and app
// controller to it. fetch loads the list before returning.
func openSession(ctx context.Context, app *App, fetch bool) (*session, error) {
	backend, err := store.Open(ctx, app.cfg.Storage, app.entry("store"))
	if err != nil {
		return nil, err
	}
	list := todo.NewList(backend, todo.WithLogger(app.entry("todo")))
	fs := todo.NewFilterState(list)
	s := &session{
		backend: backend,
		list:    list,
		filter:  fs,
		view: view.NewApp(list, fs, view.NopRenderer{},
			view.WithCommitKey(app.cfg.Keys.Commit),
			view.WithLogger(app.entry("view")),
		),
	}
	if fetch {
		if err := list.Fetch(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, app, false)
	if err != nil {
		return writeErr(cmd, err)
	}
	// The TUI builds its own controller.
	s.view.Close()
	defer s.backend.Close()

	s.filter.Set(view.FilterFromRoute(app.Route))
	return tui.Run(ctx, tui.Options{
		List:      s.list,
		Filter:    s.filter,
		CommitKey: app.cfg.Keys.Commit,
		Glyphs:    app.cfg.TUI.Glyphs,
		NoColor:   app.NoColor,
		Logger:    app.entry("tui"),
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut writes v as {"data": v}. The text format prints Texters bare.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	if f, _ := format.Parse(app.Format); f == format.Text {
		if _, ok := v.(format.Texter); ok {
			return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
		}
	}
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": v}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
