package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ChatID identifies a chat for display. The backend emits Telegram chat ids
// as JSON integers; other deployments may send strings.
type ChatID string

// UnmarshalJSON accepts either a JSON string or a JSON integer.
func (id *ChatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("chat id: %w", err)
		}
		*id = ChatID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("chat id: want string or integer, got %s", data)
	}
	*id = ChatID(strconv.FormatInt(n, 10))
	return nil
}

func (id ChatID) String() string {
	return string(id)
}

// Chat is one chat managed by the bot: a rotation of users and the index of
// whoever is currently on duty.
type Chat struct {
	ID          ChatID   `json:"id"`
	CurrentUser int      `json:"currentUser"`
	ActiveUsers []string `json:"activeUsers"`
}

// Current returns the user at CurrentUser, or false when the index does not
// resolve to a name.
func (c Chat) Current() (string, bool) {
	if c.CurrentUser < 0 || c.CurrentUser >= len(c.ActiveUsers) {
		return "", false
	}
	return c.ActiveUsers[c.CurrentUser], true
}
