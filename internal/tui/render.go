package tui

import "github.com/6ermvH/trashpanel/pkg/domain"

// RenderStats renders the stat cards for non-interactive output.
func RenderStats(stats *domain.Stats) string {
	return renderStats(stats)
}

// RenderChats renders the chats table, or the empty state, with no row
// selected. width <= 4 lets the table size itself.
func RenderChats(chats []domain.Chat, width int) string {
	return renderChats(chats, -1, width)
}
