package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreSetLoadClear(t *testing.T) {
	s := New(NewMemoryBackend())
	if s.Has() {
		t.Fatal("new store should not hold a token")
	}

	if err := s.Set("abc.def"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got := s.Token(); got != "abc.def" {
		t.Errorf("Token() = %q, want %q", got, "abc.def")
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if s.Has() {
		t.Error("expected no token after Clear")
	}
}

func TestStoreSetRejectsEmpty(t *testing.T) {
	for _, tok := range []string{"", "   ", "\n\t"} {
		s := New(NewMemoryBackend())
		if err := s.Set(tok); !errors.Is(err, ErrEmptyToken) {
			t.Errorf("Set(%q) error = %v, want ErrEmptyToken", tok, err)
		}
		if s.Has() {
			t.Errorf("Set(%q) left a token in memory", tok)
		}
	}
}

func TestStoreTokenSurvivesFileReloadUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	s := New(NewFileBackend(path))
	if err := s.Set("  abc.def\n"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	before := s.Token()

	reloaded := New(NewFileBackend(path))
	after, err := reloaded.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if before != "abc.def" || after != before {
		t.Errorf("token before reload = %q, after = %q, want %q both", before, after, "abc.def")
	}
}

func TestStoreSurvivesReload(t *testing.T) {
	backend := NewMemoryBackend()
	if err := New(backend).Set("tok"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	reloaded := New(backend)
	tok, err := reloaded.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "tok" || reloaded.Token() != "tok" {
		t.Errorf("Load() = %q, Token() = %q, want %q", tok, reloaded.Token(), "tok")
	}
}

type failingBackend struct{ err error }

func (b failingBackend) Get(string) (string, error) { return "", b.err }
func (b failingBackend) Put(string, string) error   { return b.err }
func (b failingBackend) Delete(string) error        { return b.err }

func TestStoreClearDropsMemoryOnBackendError(t *testing.T) {
	s := New(failingBackend{err: errors.New("disk gone")})
	s.token = "held"
	if err := s.Clear(); err == nil {
		t.Fatal("expected error from failing backend")
	}
	if s.Has() {
		t.Error("in-memory token should be dropped even when the backend fails")
	}
}

func TestStoreSetKeepsMemoryOnBackendError(t *testing.T) {
	s := New(failingBackend{err: errors.New("read-only")})
	if err := s.Set("tok"); err == nil {
		t.Fatal("expected error from failing backend")
	}
	if s.Has() {
		t.Error("token should not be held when persisting failed")
	}
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	b := NewFileBackend(path)

	got, err := b.Get(tokenKey)
	if err != nil || got != "" {
		t.Fatalf("Get() on missing file = (%q, %v), want (\"\", nil)", got, err)
	}

	if err := b.Put(tokenKey, "secret"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}

	got, err = b.Get(tokenKey)
	if err != nil || got != "secret" {
		t.Errorf("Get() = (%q, %v), want (%q, nil)", got, err, "secret")
	}

	if err := b.Delete(tokenKey); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("token file still exists after Delete: %v", err)
	}
	if err := b.Delete(tokenKey); err != nil {
		t.Errorf("Delete() on missing file should succeed, got %v", err)
	}
}

func TestFileBackendTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  tok\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewFileBackend(path).Get(tokenKey)
	if err != nil || got != "tok" {
		t.Errorf("Get() = (%q, %v), want (%q, nil)", got, err, "tok")
	}
}

func TestFileBackendRejectsOtherKeys(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "token"))
	if err := b.Put("other", "x"); err == nil {
		t.Error("expected error for unsupported key")
	}
}

func TestBoltBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	b, err := OpenBoltBackend(path)
	if err != nil {
		t.Fatalf("OpenBoltBackend() error: %v", err)
	}
	if err := New(b).Set("bolt-token"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	b, err = OpenBoltBackend(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer b.Close() //nolint:errcheck

	s := New(b)
	tok, err := s.Load()
	if err != nil || tok != "bolt-token" {
		t.Fatalf("Load() after reopen = (%q, %v), want (%q, nil)", tok, err, "bolt-token")
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	tok, err = s.Load()
	if err != nil || tok != "" {
		t.Errorf("Load() after Clear = (%q, %v), want (\"\", nil)", tok, err)
	}
}
