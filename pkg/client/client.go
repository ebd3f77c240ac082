package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/6ermvH/trashpanel/internal/session"
	"github.com/6ermvH/trashpanel/pkg/domain"
)

// basePath prefixes every panel endpoint.
const basePath = "/api"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 1 << 20

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Client is the trash-bot panel API client.
type Client struct {
	baseURL    string
	session    *session.Store
	httpClient *http.Client

	mu             sync.RWMutex
	onUnauthorized []func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request. Zero (the default) means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUnauthorizedHandler registers fn to run after a 401 clears the session.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = append(c.onUnauthorized, fn)
	}
}

// New creates a new API client. The bearer token is read from store on
// every request, so Login and logout take effect immediately.
func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    store,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers fn to run after a 401 clears the session.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
	c.mu.Unlock()
}

// BaseURL returns the panel origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a bearer token and stores it in the
// session. A rejected login returns *LoginError and leaves the session alone.
func (c *Client) Login(ctx context.Context, login, password string) error {
	data, err := json.Marshal(LoginRequest{Login: login, Password: password})
	if err != nil {
		return fmt.Errorf("client.Login: marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+basePath+"/login", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("client.Login: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client.Login: do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := loginFallback
		if apiMsg := readAPIError(resp.Body); apiMsg != "" {
			msg = apiMsg
		}
		return &LoginError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("client.Login: %w", malformed("decode login response: %v", err))
	}
	if out.Token == "" {
		return fmt.Errorf("client.Login: %w", malformed("login response has no token"))
	}
	if err := c.session.Set(out.Token); err != nil {
		return fmt.Errorf("client.Login: %w", err)
	}
	return nil
}

// GetStats returns the aggregate panel stats.
func (c *Client) GetStats(ctx context.Context) (*domain.Stats, error) {
	var wire struct {
		TotalChats      *int     `json:"totalChats"`
		TotalUsers      *int     `json:"totalUsers"`
		AvgUsersPerChat *float64 `json:"avgUsersPerChat"`
	}
	if err := c.get(ctx, "/stats", &wire); err != nil {
		return nil, fmt.Errorf("client.GetStats: %w", err)
	}
	switch {
	case wire.TotalChats == nil:
		return nil, fmt.Errorf("client.GetStats: %w", malformed("missing totalChats"))
	case wire.TotalUsers == nil:
		return nil, fmt.Errorf("client.GetStats: %w", malformed("missing totalUsers"))
	case wire.AvgUsersPerChat == nil:
		return nil, fmt.Errorf("client.GetStats: %w", malformed("missing avgUsersPerChat"))
	}
	return &domain.Stats{
		TotalChats:      *wire.TotalChats,
		TotalUsers:      *wire.TotalUsers,
		AvgUsersPerChat: *wire.AvgUsersPerChat,
	}, nil
}

// GetChats returns every chat known to the bot.
func (c *Client) GetChats(ctx context.Context) ([]domain.Chat, error) {
	var wire []wireChat
	if err := c.get(ctx, "/chats", &wire); err != nil {
		return nil, fmt.Errorf("client.GetChats: %w", err)
	}
	chats := make([]domain.Chat, 0, len(wire))
	for i, w := range wire {
		chat, err := w.toDomain()
		if err != nil {
			return nil, fmt.Errorf("client.GetChats: chat %d: %w", i, err)
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

// GetChat fetches a single chat by ID.
func (c *Client) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	var wire wireChat
	if err := c.get(ctx, "/chats/"+url.PathEscape(id), &wire); err != nil {
		return nil, fmt.Errorf("client.GetChat: %w", err)
	}
	chat, err := wire.toDomain()
	if err != nil {
		return nil, fmt.Errorf("client.GetChat: %w", err)
	}
	return &chat, nil
}

type wireChat struct {
	ID          *domain.ChatID `json:"id"`
	CurrentUser *int           `json:"currentUser"`
	ActiveUsers *[]string      `json:"activeUsers"`
}

func (w wireChat) toDomain() (domain.Chat, error) {
	switch {
	case w.ID == nil:
		return domain.Chat{}, malformed("missing id")
	case w.CurrentUser == nil:
		return domain.Chat{}, malformed("missing currentUser")
	case w.ActiveUsers == nil:
		return domain.Chat{}, malformed("missing activeUsers")
	}
	return domain.Chat{ID: *w.ID, CurrentUser: *w.CurrentUser, ActiveUsers: *w.ActiveUsers}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

// doRequest performs an authenticated call. A 401 clears the session and
// notifies the unauthorized handlers before the error is returned.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode == http.StatusUnauthorized {
		c.expire()
		msg := readAPIError(resp.Body)
		if msg == "" {
			msg = "Unauthorized"
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg, RequestID: reqID}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr), RequestID: reqID}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error, RequestID: reqID}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody)), RequestID: reqID}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("decode response: %w", ctxErr)
			}
			return malformed("decode response: %v", err)
		}
	}
	return nil
}

// expire clears the session and runs the unauthorized handlers.
func (c *Client) expire() {
	_ = c.session.Clear() //nolint:errcheck // in-memory token is dropped regardless

	c.mu.RLock()
	handlers := append([]func(){}, c.onUnauthorized...)
	c.mu.RUnlock()
	for _, fn := range handlers {
		fn()
	}
}

// readAPIError extracts the "error" field of a JSON error body, or "".
func readAPIError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &apiErr) != nil {
		return ""
	}
	return apiErr.Error
}
