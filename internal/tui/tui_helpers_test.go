package tui

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/6ermvH/trashpanel/internal/session"
	"github.com/6ermvH/trashpanel/pkg/domain"
)

// fakeAPI is an in-memory API. Login stores a token the way the real
// client does.
type fakeAPI struct {
	mu       sync.Mutex
	store    *session.Store
	loginErr error
	stats    *domain.Stats
	statsErr error
	chats    []domain.Chat
	chatsErr error
	logins   []string
}

func (f *fakeAPI) Login(_ context.Context, login, _ string) error {
	f.mu.Lock()
	f.logins = append(f.logins, login)
	f.mu.Unlock()
	if f.loginErr != nil {
		return f.loginErr
	}
	return f.store.Set("issued-token")
}

func (f *fakeAPI) GetStats(context.Context) (*domain.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeAPI) GetChats(context.Context) ([]domain.Chat, error) {
	return f.chats, f.chatsErr
}

func (f *fakeAPI) BaseURL() string {
	return "http://panel.test:8080"
}

func newTestStore(t *testing.T, token string) *session.Store {
	t.Helper()
	s := session.New(session.NewMemoryBackend())
	if token != "" {
		if err := s.Set(token); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

// newLogger returns a logger writing text records into buf.
func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

// runCmd executes cmd and any batched commands it expands to, returning
// the produced messages. Never pass a command containing a tick.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeText feeds each rune of s as a key press.
func typeText(m loginModel, s string) loginModel {
	for _, r := range s {
		m, _ = m.Update(key(string(r)))
	}
	return m
}
