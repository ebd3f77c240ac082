package tui

import (
	"errors"
	"strings"
	"testing"
)

func TestLoginTypingAndFocus(t *testing.T) {
	m := newLoginModel(nil)
	m = typeText(m, "admin")
	m, _ = m.Update(key("tab"))
	m = typeText(m, "pw")

	if m.fields[fieldLogin] != "admin" {
		t.Errorf("login field = %q, want %q", m.fields[fieldLogin], "admin")
	}
	if m.fields[fieldPassword] != "pw" {
		t.Errorf("password field = %q, want %q", m.fields[fieldPassword], "pw")
	}
	if m.focus != fieldPassword {
		t.Errorf("focus = %d, want password", m.focus)
	}

	m, _ = m.Update(key("tab"))
	if m.focus != fieldLogin {
		t.Errorf("tab should wrap focus back to login, got %d", m.focus)
	}
}

func TestLoginPasswordMasked(t *testing.T) {
	m := newLoginModel(nil)
	m.fields[fieldLogin] = "admin"
	m.fields[fieldPassword] = "hunter2"

	view := m.View()
	if strings.Contains(view, "hunter2") {
		t.Errorf("password leaked into view:\n%s", view)
	}
	if !strings.Contains(view, mask("hunter2")) {
		t.Errorf("expected masked password in view, got:\n%s", view)
	}
}

func TestLoginPresenceCheck(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
	}{
		{"both empty", "", ""},
		{"no password", "admin", ""},
		{"blank login", "   ", "pw"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			m := newLoginModel(api)
			m.fields[fieldLogin] = tc.login
			m.fields[fieldPassword] = tc.password

			m, cmd := m.Update(key("enter"))
			if cmd != nil {
				t.Error("expected no request for incomplete form")
			}
			if !strings.Contains(m.err, "required") {
				t.Errorf("err = %q, want presence error", m.err)
			}
		})
	}
}

func TestLoginSubmitClearsPriorError(t *testing.T) {
	api := &fakeAPI{store: newTestStore(t, "")}
	m := newLoginModel(api)
	m.err = "invalid credentials"
	m.fields[fieldLogin] = "admin"
	m.fields[fieldPassword] = "pw"

	m, cmd := m.Update(key("enter"))
	if m.err != "" {
		t.Errorf("err = %q, want cleared on submit", m.err)
	}
	if !m.submitting {
		t.Error("expected submitting=true")
	}
	if cmd == nil {
		t.Fatal("expected login command")
	}
	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if res, ok := msgs[0].(loginResultMsg); !ok || res.err != nil {
		t.Errorf("result = %#v, want successful loginResultMsg", msgs[0])
	}
	if len(api.logins) != 1 || api.logins[0] != "admin" {
		t.Errorf("logins = %v, want [admin]", api.logins)
	}
}

func TestLoginSendsLoginAsTyped(t *testing.T) {
	api := &fakeAPI{store: newTestStore(t, "")}
	m := newLoginModel(api)
	m.fields[fieldLogin] = " admin "
	m.fields[fieldPassword] = "pw"

	_, cmd := m.Update(key("enter"))
	runCmd(cmd)
	if len(api.logins) != 1 || api.logins[0] != " admin " {
		t.Errorf("logins = %q, want [\" admin \"]", api.logins)
	}
}

func TestLoginIgnoresKeysWhileSubmitting(t *testing.T) {
	m := newLoginModel(&fakeAPI{})
	m.submitting = true
	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("expected no second submit while one is in flight")
	}
	m, _ = m.Update(key("x"))
	if m.fields[fieldLogin] != "" {
		t.Errorf("typing while submitting changed field to %q", m.fields[fieldLogin])
	}
}

func TestLoginFailureShowsMessage(t *testing.T) {
	m := newLoginModel(nil)
	m.submitting = true
	m, _ = m.Update(loginResultMsg{err: errors.New("invalid credentials")})

	if m.submitting {
		t.Error("expected submitting=false after result")
	}
	view := m.View()
	if !strings.Contains(view, "invalid credentials") {
		t.Errorf("expected error message in view, got:\n%s", view)
	}
}

func TestLoginResetKeepsLoginName(t *testing.T) {
	m := newLoginModel(nil)
	m.fields[fieldLogin] = "admin"
	m.fields[fieldPassword] = "pw"
	m.err = "boom"

	m = m.reset()
	if m.fields[fieldLogin] != "admin" {
		t.Errorf("login name = %q, want kept", m.fields[fieldLogin])
	}
	if m.fields[fieldPassword] != "" || m.err != "" {
		t.Errorf("reset left password %q / err %q", m.fields[fieldPassword], m.err)
	}
	if m.focus != fieldPassword {
		t.Errorf("focus = %d, want password", m.focus)
	}
}
