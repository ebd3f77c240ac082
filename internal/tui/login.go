package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type loginField int

const (
	fieldLogin loginField = iota
	fieldPassword
	numLoginFields
)

// loginResultMsg carries the outcome of a login attempt.
type loginResultMsg struct {
	err error
}

type loginModel struct {
	api        API
	fields     [numLoginFields]string
	focus      loginField
	err        string
	submitting bool
}

func newLoginModel(api API) loginModel {
	return loginModel{api: api}
}

// reset clears the password, the error region and any pending submit.
// The login name is kept so a returning admin only retypes the password.
func (m loginModel) reset() loginModel {
	m.fields[fieldPassword] = ""
	m.focus = fieldLogin
	if m.fields[fieldLogin] != "" {
		m.focus = fieldPassword
	}
	m.err = ""
	m.submitting = false
	return m
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.fields[fieldPassword] = ""

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m loginModel) handleKey(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	switch msg.String() {
	case "enter":
		return m.submit()
	case "tab", "down":
		m.focus = (m.focus + 1) % numLoginFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
	default:
		f := &m.fields[m.focus]
		*f = editRune(*f, msg.String())
	}
	return m, nil
}

// submit clears the error region and starts a login. Blank fields are
// rejected without a request.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	m.err = ""
	login := m.fields[fieldLogin]
	password := m.fields[fieldPassword]
	if strings.TrimSpace(login) == "" || password == "" {
		m.err = "login and password are required"
		return m, nil
	}

	m.submitting = true
	api := m.api
	return m, func() tea.Msg {
		return loginResultMsg{err: api.Login(context.Background(), login, password)}
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	b.WriteString("\n " + sectionHeaderStyle.Render("sign in to the panel") + "\n\n")

	labels := [numLoginFields]string{"login", "password"}
	for i := loginField(0); i < numLoginFields; i++ {
		value := m.fields[i]
		if i == fieldPassword {
			value = mask(value)
		}
		cursor := " "
		label := metaStyle.Render(fmt.Sprintf("%-9s", labels[i]))
		if i == m.focus {
			cursor = inputPromptStyle.Render(">")
			label = selectedStyle.Render(fmt.Sprintf("%-9s", labels[i]))
			value += accentStyle.Render("█")
		} else if value == "" {
			value = inputPlaceholderStyle.Render("...")
		}
		fmt.Fprintf(&b, " %s %s %s\n", cursor, label, normalStyle.Render(value))
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("signing in...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(sanitize(m.err)) + "\n")
	}
	return b.String()
}
