package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erazemk/invman/internal/auth"
	"github.com/erazemk/invman/internal/model"
)

func testSession(t *testing.T) *Session {
	t.Helper()
	pair, err := auth.GenerateTokenPair("secret", &model.User{
		ID: 1, Email: "keeper@example.com", Username: "keeper", Privileges: model.RoleStockKeeper,
	})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	return &Session{
		Tokens: pair,
		User:   User{Email: "keeper@example.com", Username: "keeper", Privileges: model.RoleStockKeeper},
	}
}

func testProvider(t *testing.T, p Provider) {
	t.Helper()
	got, err := p.Get()
	if err != nil || got != nil {
		t.Fatalf("empty Get = %v, %v; want nil, nil", got, err)
	}

	s := testSession(t)
	if err := p.Set(s); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = p.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Tokens.AccessToken != s.Tokens.AccessToken || got.User != s.User {
		t.Errorf("Get = %+v, want %+v", got, s)
	}

	if err := p.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := p.Get(); got != nil {
		t.Errorf("Get after Clear = %+v, want nil", got)
	}
	if err := p.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestMemoryProvider(t *testing.T) {
	testProvider(t, &Memory{})
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	testProvider(t, NewFile(path))

	f := NewFile(path)
	if err := f.Set(testSession(t)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}
}

func TestFileProviderCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	os.WriteFile(path, []byte("{not json"), 0o600)

	if _, err := NewFile(path).Get(); err == nil {
		t.Error("expected error for corrupt session file")
	}
}

func TestExpiry(t *testing.T) {
	s := testSession(t)
	now := time.Now()

	if s.AccessExpired(now) {
		t.Error("fresh access token reported expired")
	}
	if !s.AccessExpired(now.Add(auth.AccessTokenExpiry + time.Minute)) {
		t.Error("access token not expired after its lifetime")
	}
	if s.RefreshExpired(now.Add(auth.AccessTokenExpiry + time.Minute)) {
		t.Error("refresh token expired with the access token")
	}
	if !(&Session{}).AccessExpired(now) {
		t.Error("empty token not reported expired")
	}
}
