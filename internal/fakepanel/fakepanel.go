// Package fakepanel is an in-process stand-in for the trash-bot panel API.
// It backs the client tests and the demo command.
package fakepanel

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/6ermvH/trashpanel/pkg/domain"
)

const tokenTTL = 24 * time.Hour

// Config holds the admin credentials and the seeded chats.
type Config struct {
	Login    string
	Password string
	Secret   string
	Chats    []domain.Chat
}

// Server serves the panel API from memory.
type Server struct {
	cfg Config

	mu       sync.Mutex
	chats    []domain.Chat
	failures map[string]int
	hits     map[string]int
}

// DemoChats is a small seed used by the demo command.
func DemoChats() []domain.Chat {
	return []domain.Chat{
		{ID: "-1001934200001", CurrentUser: 1, ActiveUsers: []string{"anya", "boris", "vera"}},
		{ID: "-1001934200002", CurrentUser: 0, ActiveUsers: []string{"kolya", "masha"}},
		{ID: "-1001934200003", CurrentUser: 0, ActiveUsers: []string{"petya"}},
	}
}

// New creates a Server. Empty credentials default to admin/admin.
func New(cfg Config) *Server {
	if cfg.Login == "" {
		cfg.Login = "admin"
	}
	if cfg.Password == "" {
		cfg.Password = "admin"
	}
	if cfg.Secret == "" {
		cfg.Secret = "fakepanel-secret"
	}
	return &Server{
		cfg:      cfg,
		chats:    append([]domain.Chat(nil), cfg.Chats...),
		failures: make(map[string]int),
		hits:     make(map[string]int),
	}
}

// Start serves the API on an ephemeral localhost port. Close the returned
// server when done.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.Handler())
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(s.auth)
			r.Get("/stats", s.stats)
			r.Get("/chats", s.listChats)
			r.Get("/chats/{id}", s.chatByID)
		})
	})
	return r
}

// FailNext makes the next n requests to endpoint ("stats", "chats",
// "chat", "login") answer with status. n < 0 fails forever.
func (s *Server) FailNext(endpoint string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint+":status"] = status
	s.failures[endpoint] = n
}

// SetChats replaces the seeded chats.
func (s *Server) SetChats(chats []domain.Chat) {
	s.mu.Lock()
	s.chats = append([]domain.Chat(nil), chats...)
	s.mu.Unlock()
}

// Hits returns how many requests reached endpoint.
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

// Token mints a valid bearer token for tests.
func (s *Server) Token() (string, error) {
	return s.sign(s.cfg.Login)
}

func (s *Server) sign(login string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"login": login,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString([]byte(s.cfg.Secret))
}

// injected reports a forced failure for endpoint, if any.
func (s *Server) injected(endpoint string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[endpoint]++
	n := s.failures[endpoint]
	if n == 0 {
		return 0, false
	}
	if n > 0 {
		s.failures[endpoint] = n - 1
	}
	return s.failures[endpoint+":status"], true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if status, ok := s.injected("login"); ok {
		writeError(w, status, "injected failure")
		return
	}
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Login != s.cfg.Login || req.Password != s.cfg.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	tok, err := s.sign(req.Login)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		scheme, raw, found := strings.Cut(header, " ")
		if !found || scheme != "Bearer" {
			writeError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}
		token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return []byte(s.cfg.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	if status, ok := s.injected("stats"); ok {
		writeError(w, status, "failed to load stats")
		return
	}
	s.mu.Lock()
	stats := computeStats(s.chats)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) listChats(w http.ResponseWriter, _ *http.Request) {
	if status, ok := s.injected("chats"); ok {
		writeError(w, status, "failed to load chats")
		return
	}
	s.mu.Lock()
	chats := append([]domain.Chat{}, s.chats...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) chatByID(w http.ResponseWriter, r *http.Request) {
	if status, ok := s.injected("chat"); ok {
		writeError(w, status, "failed to load chat")
		return
	}
	chat, err := s.find(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

var errNotFound = errors.New("chat not found")

func (s *Server) find(id string) (domain.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if string(c.ID) == id {
			return c, nil
		}
	}
	return domain.Chat{}, errNotFound
}

// computeStats mirrors the bot: users are counted per chat, the average is
// users over chats and zero when there are no chats.
func computeStats(chats []domain.Chat) domain.Stats {
	var users int
	for _, c := range chats {
		users += len(c.ActiveUsers)
	}
	stats := domain.Stats{TotalChats: len(chats), TotalUsers: users}
	if len(chats) > 0 {
		stats.AvgUsersPerChat = float64(users) / float64(len(chats))
	}
	return stats
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
