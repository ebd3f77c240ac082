package tui

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/6ermvH/trashpanel/internal/browser"
	"github.com/6ermvH/trashpanel/internal/session"
	"github.com/6ermvH/trashpanel/pkg/domain"
)

// API is the part of the panel client the TUI needs.
type API interface {
	Login(ctx context.Context, login, password string) error
	GetStats(ctx context.Context) (*domain.Stats, error)
	GetChats(ctx context.Context) ([]domain.Chat, error)
	BaseURL() string
}

type view int

const (
	viewLogin view = iota
	viewDashboard
)

// SessionExpiredMsg tells the App the backend rejected the session. Send it
// through tea.Program.Send from the client's unauthorized handler.
type SessionExpiredMsg struct{}

type openResultMsg struct {
	err error
}

// App is the root Bubbletea model.
type App struct {
	api       API
	store     *session.Store
	logger    *slog.Logger
	view      view
	login     loginModel
	dashboard dashboardModel
	open      func(string) error
	width     int
	height    int
	frame     int // logo shimmer animation frame
}

// NewApp creates the TUI. It starts on the dashboard when store already
// holds a token, otherwise on the login form.
func NewApp(api API, store *session.Store, logger *slog.Logger) App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := App{
		api:       api,
		store:     store,
		logger:    logger,
		login:     newLoginModel(api),
		dashboard: newDashboardModel(api, logger),
		open:      browser.Open,
	}
	if store.Has() {
		a.view = viewDashboard
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.view == viewDashboard {
		return tea.Batch(shimmerTickCmd(), a.dashboard.load())
	}
	return shimmerTickCmd()
}

// showLogin reveals the login form and hides the dashboard.
func (a App) showLogin() App {
	a.view = viewLogin
	a.login = a.login.reset()
	return a
}

// showDashboard reveals the dashboard and starts a data load.
func (a App) showDashboard() (App, tea.Cmd) {
	a.view = viewDashboard
	return a, a.dashboard.load()
}

// logout drops the session and returns to the login form.
func (a App) logout() App {
	if err := a.store.Clear(); err != nil {
		a.logger.Error("clear session failed", "err", err)
	}
	return a.showLogin()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + blank(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.dashboard, _ = a.dashboard.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case SessionExpiredMsg:
		a.logger.Warn("session expired, returning to login")
		a = a.showLogin()
		a.login.err = "session expired, sign in again"
		return a, nil

	case loginResultMsg:
		a.login, _ = a.login.Update(msg)
		if msg.err != nil {
			a.logger.Info("login rejected", "err", msg.err)
			return a, nil
		}
		a.logger.Info("login succeeded")
		return a.showDashboard()

	// Late results still land in the dashboard model, which stays alive
	// while hidden.
	case statsLoadedMsg, chatsLoadedMsg, copyResultMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.Update(msg)
		return a, cmd

	case openResultMsg:
		if msg.err != nil {
			a.logger.Error("open browser failed", "err", msg.err)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.view == viewLogin {
			if msg.String() == "esc" {
				return a, tea.Quit
			}
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, cmd
		}
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "l":
			return a.logout(), nil
		case "o":
			target := a.api.BaseURL()
			openFn := a.open
			return a, func() tea.Msg {
				return openResultMsg{err: openFn(target)}
			}
		}
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) View() string {
	header := centerLine(renderShimmerLogo(a.frame), a.width)
	sub := metaStyle.Render(panelHost(a.api))
	if a.view == viewDashboard {
		sub += metaStyle.Render(" · ") + okStyle.Render("signed in")
	}
	header += "\n" + centerLine(sub, a.width)

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = helpBar(helpEntry("tab", "next"), helpEntry("enter", "sign in"), helpEntry("esc", "quit"))
	case viewDashboard:
		body = a.dashboard.View()
		help = a.dashboard.helpKeys()
	}

	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")
	return header + "\n" + body + "\n\n" + help
}

// panelHost returns the host part of the API base URL for the header.
func panelHost(api API) string {
	if api == nil {
		return ""
	}
	u, err := url.Parse(api.BaseURL())
	if err != nil || u.Host == "" {
		return api.BaseURL()
	}
	return u.Host
}
