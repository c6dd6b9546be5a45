package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/invman/internal/auth"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/store"
)

// AuthHandler handles authentication and account endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type signupRequest struct {
	Email      string     `json:"email" validate:"required,email"`
	Username   string     `json:"username" validate:"required,max=100"`
	Password   string     `json:"password" validate:"required"`
	Privileges model.Role `json:"privileges" validate:"required,min=1,max=3"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	IsAdmin  bool   `json:"isAdmin"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// UserInfo is the user summary returned with tokens.
type UserInfo struct {
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	Privileges model.Role `json:"privileges"`
}

// LoginResponse is returned by login and refresh.
type LoginResponse struct {
	auth.TokenPair
	User UserInfo `json:"user"`
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Email, req.Username, string(hash), req.Privileges)
	if err != nil {
		storeError(w, err, "failed to create user")
		return
	}

	slog.Info("user signed up", "email", user.Email, "privileges", user.Privileges)
	jsonResponse(w, http.StatusCreated, user)
}

// Login handles POST /auth/login. Admins must use the admin panel and only admins may.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	isAdmin := user.Privileges == model.RoleAdmin
	if req.IsAdmin && !isAdmin {
		jsonError(w, http.StatusForbidden, "Access denied. Admin privileges required.")
		return
	}
	if !req.IsAdmin && isAdmin {
		jsonError(w, http.StatusForbidden, "Please use admin login.")
		return
	}

	h.issue(w, user)
	slog.Info("user logged in", "email", user.Email, "privileges", user.Privileges)
}

func (h *AuthHandler) issue(w http.ResponseWriter, user *model.User) {
	pair, err := auth.GenerateTokenPair(h.JWTSecret, user)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	jsonResponse(w, http.StatusOK, LoginResponse{
		TokenPair: pair,
		User:      UserInfo{Email: user.Email, Username: user.Username, Privileges: user.Privileges},
	})
}

// Refresh handles POST /auth/refresh. The used refresh token is revoked.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeValid(w, r, &req) {
		return
	}

	claims, err := auth.ValidateToken(h.JWTSecret, req.RefreshToken, auth.TypeRefresh)
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	revoked, err := store.IsTokenRevoked(r.Context(), h.DB, claims.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if revoked {
		jsonError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, claims.Subject)
	if err != nil || user == nil {
		jsonError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("revoking refresh token", "error", err)
	}
	h.issue(w, user)
}

// Logout handles POST /auth/logout. It revokes the access token and, when
// supplied, the refresh token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req refreshRequest
	_ = decodeJSON(r, &req)

	expiresAt := time.Now().Add(auth.AccessTokenExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to logout")
		return
	}

	if req.RefreshToken != "" {
		if rc, err := auth.ValidateToken(h.JWTSecret, req.RefreshToken, auth.TypeRefresh); err == nil && rc.Subject == claims.Subject {
			if err := store.RevokeToken(r.Context(), h.DB, rc.ID, rc.ExpiresAt.Time); err != nil {
				slog.Error("failed to revoke refresh token", "error", err)
			}
		}
	}

	slog.Info("user logged out", "email", claims.Subject)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// ChangePassword handles POST /users/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req changePasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, string(hash)); err != nil {
		storeError(w, err, "failed to update password")
		return
	}

	slog.Info("user changed own password", "email", user.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
