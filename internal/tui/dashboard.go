package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/6ermvH/trashpanel/pkg/client"
	"github.com/6ermvH/trashpanel/pkg/domain"
)

// placeholder is shown for values that cannot be resolved.
const placeholder = "-"

// dashboardChrome counts the body lines around the chat rows: blank, stat
// cards(4), blank, section header, table borders and header(4), blank and
// the status line.
const dashboardChrome = 13

// Cell caps keep every table row on one line.
const (
	maxIDCell   = 24
	maxUserCell = 20
)

// -- messages --

type statsLoadedMsg struct {
	stats *domain.Stats
	err   error
}

type chatsLoadedMsg struct {
	chats []domain.Chat
	err   error
}

type copyResultMsg struct {
	id  string
	err error
}

// -- model --

type dashboardModel struct {
	api         API
	logger      *slog.Logger
	copy        func(string) error
	stats       *domain.Stats
	chats       []domain.Chat
	chatsLoaded bool
	chatsFailed bool
	cursor      int
	offset      int // first chat row on screen
	status      string
	width       int
	height      int
}

func newDashboardModel(api API, logger *slog.Logger) dashboardModel {
	return dashboardModel{api: api, logger: logger, copy: clipboard.WriteAll}
}

// load fetches stats and chats concurrently. Each result arrives as its own
// message, so one failing never holds back the other.
func (m dashboardModel) load() tea.Cmd {
	return tea.Batch(m.loadStats(), m.loadChats())
}

func (m dashboardModel) loadStats() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		stats, err := api.GetStats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func (m dashboardModel) loadChats() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		chats, err := api.GetChats(context.Background())
		return chatsLoadedMsg{chats: chats, err: err}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.scrolled()

	case statsLoadedMsg:
		if msg.err != nil {
			m.logFailure("load stats", msg.err)
			return m, nil
		}
		m.stats = msg.stats

	case chatsLoadedMsg:
		if msg.err != nil {
			m.logFailure("load chats", msg.err)
			if !m.chatsLoaded {
				m.chatsFailed = true
			}
			return m, nil
		}
		m.chats = msg.chats
		m.chatsLoaded = true
		m.chatsFailed = false
		if m.cursor >= len(m.chats) {
			m.cursor = 0
		}
		m = m.scrolled()

	case copyResultMsg:
		if msg.err != nil {
			m.logFailure("copy chat id", msg.err)
			m.status = "clipboard unavailable"
		} else {
			m.status = "copied " + sanitize(msg.id)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.chats)-1 {
			m.cursor++
		}
		m = m.scrolled()
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		m = m.scrolled()
	case "y":
		if m.cursor < len(m.chats) {
			id := m.chats[m.cursor].ID.String()
			copyFn := m.copy
			return m, func() tea.Msg {
				return copyResultMsg{id: id, err: copyFn(id)}
			}
		}
	case "r":
		return m, m.load()
	}
	return m, nil
}

// visibleRows is how many chat rows fit on screen. Unknown height shows all.
func (m dashboardModel) visibleRows() int {
	if m.height <= 0 {
		return len(m.chats)
	}
	return max(m.height-dashboardChrome, 1)
}

// scrolled moves the window of visible rows so the cursor stays on screen.
func (m dashboardModel) scrolled() dashboardModel {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	m.offset = max(min(m.offset, len(m.chats)-visible), 0)
	return m
}

// logFailure records a load error on the diagnostic log. The view keeps
// whatever it showed before.
func (m dashboardModel) logFailure(op string, err error) {
	if m.logger == nil {
		return
	}
	attrs := []any{"err", err, "unauthorized", errors.Is(err, client.ErrUnauthorized)}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		attrs = append(attrs, "status", httpErr.StatusCode, "request_id", httpErr.RequestID)
	}
	m.logger.Error(op+" failed", attrs...)
}

func (m dashboardModel) View() string {
	var b strings.Builder

	b.WriteString("\n" + renderStats(m.stats) + "\n\n")
	b.WriteString(" " + sectionHeaderStyle.Render("chats") + "\n")

	switch {
	case !m.chatsLoaded && m.chatsFailed:
		b.WriteString(" " + dimStyle.Render("chats unavailable (r to retry)") + "\n")
		return b.String()
	case !m.chatsLoaded:
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
		return b.String()
	}

	end := min(m.offset+m.visibleRows(), len(m.chats))
	b.WriteString(renderChats(m.chats[m.offset:end], m.cursor-m.offset, m.width))

	switch {
	case m.status != "":
		b.WriteString("\n " + okStyle.Render(m.status) + "\n")
	case end-m.offset < len(m.chats):
		b.WriteString("\n " + metaStyle.Render(fmt.Sprintf("%d-%d of %d", m.offset+1, end, len(m.chats))) + "\n")
	}
	return b.String()
}

func (m dashboardModel) helpKeys() string {
	return helpBar(
		helpEntry("j/k", "nav"),
		helpEntry("y", "copy id"),
		helpEntry("r", "refresh"),
		helpEntry("o", "web"),
		helpEntry("l", "logout"),
		helpEntry("q", "quit"),
	)
}

// statsFields formats total chats, total users and the average with one
// decimal place. Nil stats yield placeholders.
func statsFields(stats *domain.Stats) [3]string {
	if stats == nil {
		return [3]string{placeholder, placeholder, placeholder}
	}
	return [3]string{
		fmt.Sprintf("%d", stats.TotalChats),
		fmt.Sprintf("%d", stats.TotalUsers),
		fmt.Sprintf("%.1f", stats.AvgUsersPerChat),
	}
}

// renderStats paints the three stat cards on one line.
func renderStats(stats *domain.Stats) string {
	fields := statsFields(stats)
	labels := [3]string{"total chats", "total users", "avg users / chat"}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 2)

	cards := make([]string, 0, len(fields))
	for i := range fields {
		cards = append(cards, card.Render(statValueStyle.Render(fields[i])+"\n"+metaStyle.Render(labels[i])))
	}
	return " " + lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// chatRow resolves one table row: id, the user on duty (or the placeholder
// when the index does not resolve) and every user, comma separated.
func chatRow(chat domain.Chat) []string {
	current := placeholder
	if name, ok := chat.Current(); ok && name != "" {
		current = sanitize(name)
	}
	users := make([]string, len(chat.ActiveUsers))
	for i, u := range chat.ActiveUsers {
		users[i] = sanitize(u)
	}
	return []string{sanitize(chat.ID.String()), current, strings.Join(users, ", ")}
}

// chatRows builds exactly one row per chat.
func chatRows(chats []domain.Chat) [][]string {
	rows := make([][]string, 0, len(chats))
	for _, c := range chats {
		rows = append(rows, chatRow(c))
	}
	return rows
}

// fitRows caps cells so each row fits on one line of width. Zero width
// leaves rows untouched.
func fitRows(rows [][]string, width int) [][]string {
	if width <= 4 {
		return rows
	}
	// Borders and cell padding take ten columns.
	maxUsers := max(width-2-maxIDCell-maxUserCell-10, 8)
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{truncStr(r[0], maxIDCell), truncStr(r[1], maxUserCell), truncStr(r[2], maxUsers)}
	}
	return out
}

// renderChats paints the chats table, or the empty state when there are no
// chats. The two are never shown together.
func renderChats(chats []domain.Chat, cursor, width int) string {
	if len(chats) == 0 {
		return "\n " + dimStyle.Render("no chats yet, add the bot to a group to see it here") + "\n"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("CHAT", "ON DUTY", "USERS").
		Rows(fitRows(chatRows(chats), width)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row == cursor:
				return tableSelectedStyle
			default:
				return tableCellStyle
			}
		})
	if width > 4 {
		t = t.Width(width - 2)
	}

	var b strings.Builder
	for _, line := range strings.Split(t.Render(), "\n") {
		b.WriteString(" " + line + "\n")
	}
	return b.String()
}
