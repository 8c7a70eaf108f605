package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naveenspark/projectdesk/internal/config"
	"github.com/naveenspark/projectdesk/internal/geocode"
	"github.com/naveenspark/projectdesk/internal/logging"
	"github.com/naveenspark/projectdesk/internal/session"
	"github.com/naveenspark/projectdesk/internal/tui"
	"github.com/naveenspark/projectdesk/internal/workflow"
	"github.com/naveenspark/projectdesk/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{v: viper.New(), out: os.Stdout, in: os.Stdin}
	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", explain(err))
		os.Exit(1)
	}
}

// cli holds what every command shares: flag/env bindings and the output
// streams.
type cli struct {
	v   *viper.Viper
	out io.Writer
	in  io.Reader
}

// env is the wired application for one command run.
type env struct {
	cfg    *config.Config
	sess   *session.Store
	client *client.Client
	geo    workflow.Geocoder
	log    *slog.Logger
	closer io.Closer
}

func (e *env) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "projectdesk",
		Short: "Manage projects, their addresses and tasks from the terminal",
		Long: `projectdesk is a terminal client for a project-management API.
Run it without arguments for the interactive interface, or use the
subcommands for scripting. Settings come from ~/.projectdesk/config.yml,
.env files, PROJECTDESK_* environment variables and flags, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI()
		},
	}
	c.initConfig()
	c.addPersistentFlags(root)
	c.registerCommands(root)
	root.SetOut(c.out)
	return root
}

func (c *cli) initConfig() {
	c.v.SetEnvPrefix(config.EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
}

func (c *cli) addPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String("home", "", "config directory (default ~/.projectdesk)")
	flags.String("api-url", "", "API root URL")
	flags.Int("per-page", 0, "projects per page")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("json", false, "output JSON")
	_ = c.v.BindPFlag("home", flags.Lookup("home"))
	_ = c.v.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = c.v.BindPFlag("per_page", flags.Lookup("per-page"))
	_ = c.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("json", flags.Lookup("json"))
}

func (c *cli) registerCommands(root *cobra.Command) {
	root.AddCommand(c.loginCmd())
	root.AddCommand(c.logoutCmd())
	root.AddCommand(c.whoamiCmd())
	root.AddCommand(c.projectsCmd())
	root.AddCommand(c.cepCmd())
	root.AddCommand(c.reportCmd())
	root.AddCommand(c.configCmd())
	root.AddCommand(c.versionCmd())
	root.AddCommand(c.serveDemoCmd())
}

// loadConfig layers environment variables and flags over the config file.
func (c *cli) loadConfig() (*config.Config, error) {
	dir := c.v.GetString("home")
	if dir == "" {
		var err error
		if dir, err = config.Dir(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	for _, key := range config.Keys {
		if !c.v.IsSet(key) {
			continue
		}
		val := c.v.GetString(key)
		if val == "" || val == "0" {
			continue
		}
		if err := cfg.Set(key, val); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup wires config, logging, the session and the API client.
func (c *cli) setup() (*env, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.OpenFile(cfg.LogPath(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	sess, err := session.Open(cfg.TokenPath())
	if err != nil {
		closer.Close() //nolint:errcheck
		return nil, err
	}
	e := &env{cfg: cfg, sess: sess, log: logger, closer: closer}
	e.client = client.New(cfg.APIURL, sess,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logger),
		client.WithOnUnauthorized(func() {
			if err := sess.Clear(); err != nil {
				logger.Warn("clear session failed", "err", err)
			}
		}),
	)
	if cfg.GeocodeKey != "" {
		e.geo = geocode.New(cfg.GeocodeURL, cfg.GeocodeKey, cfg.RequestTimeout)
	}
	logger.Debug("configured", "api_url", cfg.APIURL, "dir", cfg.Dir, "logged_in", sess.LoggedIn())
	return e, nil
}

func (c *cli) runTUI() error {
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck

	app := tui.NewApp(tui.Config{
		API:      e.client,
		Session:  e.sess,
		Geocoder: e.geo,
		PerPage:  e.cfg.PerPage,
		MapZoom:  e.cfg.MapZoom,
		TileURL:  e.cfg.TileURL,
		Version:  version,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// explain turns common failures into an actionable message.
func explain(err error) string {
	switch {
	case errors.Is(err, client.ErrNoSession):
		return "not logged in: run projectdesk login"
	case client.IsUnauthorized(err):
		return "session expired: run projectdesk login"
	case client.IsNotFound(err):
		return "not found: " + client.Message(err)
	}
	return client.Message(err)
}
