package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/invman/internal/auth"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/session"
)

type loginResponse struct {
	auth.TokenPair
	User session.User `json:"user"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	Privileges model.Role `json:"privileges"`
}

// Login signs in and stores the new session. Admins must set admin.
func (c *Client) Login(ctx context.Context, email, password string, admin bool) (*session.Session, error) {
	var resp loginResponse
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]any{"email": email, "password": password, "isAdmin": admin},
		public: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	s := &session.Session{Tokens: resp.TokenPair, User: resp.User}
	if err := c.Session.Set(s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// Signup registers a new user. It does not sign in.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*model.User, error) {
	var user model.User
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/auth/signup", body: req, public: true}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges the stored refresh token for a new session.
func (c *Client) Refresh(ctx context.Context) (*session.Session, error) {
	s, err := c.Session.Get()
	if err != nil {
		return nil, err
	}
	if s == nil || s.Tokens.RefreshToken == "" {
		return nil, ErrNotSignedIn
	}
	return c.refresh(ctx, s)
}

func (c *Client) refresh(ctx context.Context, s *session.Session) (*session.Session, error) {
	var resp loginResponse
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/auth/refresh",
		body:   map[string]string{"refresh_token": s.Tokens.RefreshToken},
		public: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	next := &session.Session{Tokens: resp.TokenPair, User: resp.User}
	if err := c.Session.Set(next); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return next, nil
}

// Logout revokes the session's tokens on the server and clears it locally.
// The local session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	s, err := c.Session.Get()
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}

	err = c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   map[string]string{"refresh_token": s.Tokens.RefreshToken},
	}, nil)
	if err != nil {
		slog.Warn("server logout failed", "error", err)
	}
	return c.Session.Clear()
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/users/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Users lists all users. Admin only.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/users"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ChangePassword changes the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/users/change-password",
		body:   map[string]string{"current_password": current, "new_password": next},
	}, nil)
}
