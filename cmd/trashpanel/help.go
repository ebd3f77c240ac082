package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

type command struct{ cmd, desc string }

var commands = []command{
	{"trashpanel", "Open the dashboard (interactive TUI)"},
	{"trashpanel stats", "Print aggregate stats"},
	{"trashpanel chats", "Print every chat session"},
	{"trashpanel chat -- <id>", "Print one chat session"},
	{"trashpanel open", "Open the panel in a browser"},
	{"trashpanel logout", "Clear the stored session"},
	{"trashpanel demo", "Run the dashboard against a built-in demo panel"},
	{"trashpanel --version", "Show version"},
	{"trashpanel help", "You are here"},
}

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f5b942")).
		Bold(true).
		Render("T R A S H P A N E L")

	sub := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("admin dashboard for the trash bot")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	fmt.Fprintf(w, "\n  %s\n  %s\n\n  Commands:\n", title, sub)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", c.cmd)), descStyle.Render(c.desc))
	}

	env := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).
		Render("env: TRASHPANEL_API_URL, TRASHPANEL_SESSION_BACKEND (file|bolt), TRASHPANEL_HTTP_TIMEOUT")
	fmt.Fprintf(w, "\n  %s\n\n", env)
}
