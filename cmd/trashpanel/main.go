package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/6ermvH/trashpanel/internal/browser"
	"github.com/6ermvH/trashpanel/internal/config"
	"github.com/6ermvH/trashpanel/internal/fakepanel"
	"github.com/6ermvH/trashpanel/internal/session"
	"github.com/6ermvH/trashpanel/internal/tui"
	"github.com/6ermvH/trashpanel/pkg/client"
	"github.com/6ermvH/trashpanel/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var errNotSignedIn = errors.New("not signed in, run trashpanel to sign in")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// cli carries flag values shared by every command.
type cli struct {
	apiURL  string
	backend string
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "trashpanel",
		Short:         "Admin dashboard for the trash bot",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store, closeStore, err := c.session()
			if err != nil {
				return err
			}
			defer closeStore()
			return runTUI(cfg, cfg.APIURL, store)
		},
	}
	root.SetOut(stdout)
	root.SetVersionTemplate("trashpanel {{.Version}}\n")
	root.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		printHelp(cmd.OutOrStdout())
	})
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "panel API base URL (overrides TRASHPANEL_API_URL)")
	root.PersistentFlags().StringVar(&c.backend, "session-backend", "", "session backend, file or bolt (overrides TRASHPANEL_SESSION_BACKEND)")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "trashpanel "+version)
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Clear the stored session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, store, closeStore, err := c.session()
				if err != nil {
					return err
				}
				defer closeStore()
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			},
		},
		&cobra.Command{
			Use:   "open",
			Short: "Open the panel in a browser",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := c.config()
				if err != nil {
					return err
				}
				return browser.Open(cfg.APIURL)
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print aggregate stats",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withClient(func(api *client.Client) error {
					stats, err := api.GetStats(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), tui.RenderStats(stats))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "chats",
			Short: "Print every chat session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withClient(func(api *client.Client) error {
					chats, err := api.GetChats(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), tui.RenderChats(chats, 0))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "chat <id>",
			Short: "Print one chat session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id := args[0]
				return c.withClient(func(api *client.Client) error {
					chat, err := api.GetChat(cmd.Context(), id)
					if err != nil {
						if client.IsStatus(err, 404) {
							return fmt.Errorf("chat %s not found", id)
						}
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), tui.RenderChats([]domain.Chat{*chat}, 0))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "demo",
			Short: "Run the dashboard against a built-in demo panel",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := c.config()
				if err != nil {
					return err
				}
				return runDemo(cfg, cmd.OutOrStdout())
			},
		},
	)
	return root
}

// config loads .env and the environment, then applies flag overrides.
func (c *cli) config() (*config.Config, error) {
	if err := config.LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.backend != "" {
		cfg.SessionBackend = c.backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session loads the config and the stored token.
func (c *cli) session() (*config.Config, *session.Store, func(), error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, nil, err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if _, err := store.Load(); err != nil {
		closeStore()
		return nil, nil, nil, err
	}
	return cfg, store, closeStore, nil
}

// withClient runs fn with a client bound to the stored session. A rejected
// session is cleared by the client and reported on stderr.
func (c *cli) withClient(fn func(*client.Client) error) error {
	cfg, store, closeStore, err := c.session()
	if err != nil {
		return err
	}
	defer closeStore()
	if !store.Has() {
		return errNotSignedIn
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	api := client.New(cfg.APIURL, store,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithUnauthorizedHandler(func() {
			logger.Warn("panel rejected the stored session, sign in again")
		}),
	)
	return fn(api)
}

// openStore opens the session store on the configured backend. The
// returned func releases the backend.
func openStore(cfg *config.Config) (*session.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.BackendBolt:
		b, err := session.OpenBoltBackend(cfg.BoltFile)
		if err != nil {
			return nil, nil, err
		}
		return session.New(b), func() { _ = b.Close() }, nil
	default:
		return session.New(session.NewFileBackend(cfg.TokenFile)), func() {}, nil
	}
}

// runTUI runs the dashboard against apiURL. Logs go to cfg.LogFile so they
// never draw over the alt screen.
func runTUI(cfg *config.Config, apiURL string, store *session.Store) error {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(cfg.LogFile, "trashpanel")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	logger := slog.New(slog.NewTextHandler(f, nil)).With("version", version)
	api := client.New(apiURL, store, client.WithTimeout(cfg.HTTPTimeout))
	app := tui.NewApp(api, store, logger)

	p := tea.NewProgram(app, tea.WithAltScreen())
	api.OnUnauthorized(func() {
		p.Send(tui.SessionExpiredMsg{})
	})

	logger.Info("starting", "api", apiURL, "signed_in", store.Has())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// runDemo serves a seeded in-process panel and runs the dashboard against
// it with a throwaway session.
func runDemo(cfg *config.Config, stdout io.Writer) error {
	panel := fakepanel.New(fakepanel.Config{Chats: fakepanel.DemoChats()})
	srv := panel.Start()
	defer srv.Close()

	fmt.Fprintf(stdout, "demo panel at %s, sign in with admin / admin\n", srv.URL)
	return runTUI(cfg, srv.URL, session.New(session.NewMemoryBackend()))
}
