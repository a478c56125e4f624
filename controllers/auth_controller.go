package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"blog-api/middlewares"
	"blog-api/models"
	"blog-api/utils"
	"blog-api/validation"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	accessTokenTTL     = 15 * time.Minute
	refreshTokenTTL    = 7 * 24 * time.Hour
	refreshTokenCookie = "refresh_token"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error
}

type SessionRepository interface {
	middlewares.SessionLookup
	Create(ctx context.Context, userID int64, ttl time.Duration) (uuid.UUID, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type AuthHandler struct {
	Users    UserRepository
	Sessions SessionRepository
	Tokens   *utils.TokenMaker
	Log      *slog.Logger
}

func (h *AuthHandler) SetupUserRoutes(r *mux.Router) {
	usersRouter := r.PathPrefix("/auth").Subrouter()
	usersRouter.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	usersRouter.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	usersRouter.HandleFunc("/logoff", h.Logoff).Methods(http.MethodPost)
	usersRouter.HandleFunc("/refresh-token", h.RefreshToken).Methods(http.MethodPost)
	usersRouter.Handle("/change-password", middlewares.RequireUser(http.HandlerFunc(h.ChangePassword))).Methods(http.MethodPost)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		middlewares.HttpError(w, h.Log, "Invalid request body", http.StatusBadRequest, err)
		return
	}

	if err := validation.ValidateUserData(user); err != nil {
		middlewares.HttpError(w, h.Log, err.Error(), http.StatusBadRequest, err)
		return
	}

	if err := user.HashPassword(); err != nil {
		middlewares.HttpError(w, h.Log, "Failed to create user", http.StatusInternalServerError, err)
		return
	}

	if err := h.Users.Create(r.Context(), &user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			middlewares.HttpError(w, h.Log, err.Error(), http.StatusConflict, err)
			return
		}
		middlewares.HttpError(w, h.Log, "Failed to create user", http.StatusInternalServerError, err)
		return
	}

	h.Log.Info("user registered", "user_id", user.ID)
	middlewares.RespondJSON(w, user.Public(), http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		middlewares.HttpError(w, h.Log, "Invalid request body", http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	user, err := h.Users.GetByUsername(ctx, credentials.Username)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		middlewares.HttpError(w, h.Log, "Failed to retrieve user", http.StatusInternalServerError, err)
		return
	}
	if user == nil || !user.CheckPassword(credentials.Password) {
		middlewares.HttpError(w, h.Log, "Invalid username or password", http.StatusUnauthorized, err)
		return
	}

	sessionID, err := h.Sessions.Create(ctx, user.ID, refreshTokenTTL)
	if err != nil {
		middlewares.HttpError(w, h.Log, "Failed to start session", http.StatusInternalServerError, err)
		return
	}

	accessToken, _, err := h.Tokens.GeneratePASETO(user.ID, sessionID, utils.AccessToken, accessTokenTTL)
	if err != nil {
		middlewares.HttpError(w, h.Log, "Failed to generate access token", http.StatusInternalServerError, err)
		return
	}

	refreshToken, _, err := h.Tokens.GeneratePASETO(user.ID, sessionID, utils.RefreshToken, refreshTokenTTL)
	if err != nil {
		middlewares.HttpError(w, h.Log, "Failed to generate refresh token", http.StatusInternalServerError, err)
		return
	}

	setAuthCookies(w, accessToken, refreshToken)
	middlewares.RespondJSON(w, map[string]string{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	}, http.StatusOK)
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var refreshTokenRequest struct {
		RefreshToken string `json:"refreshToken"`
	}
	// An empty body is allowed; the cookie is used instead.
	if err := json.NewDecoder(r.Body).Decode(&refreshTokenRequest); err != nil && !errors.Is(err, io.EOF) {
		middlewares.HttpError(w, h.Log, "Invalid request body", http.StatusBadRequest, err)
		return
	}
	if refreshTokenRequest.RefreshToken == "" {
		if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
			refreshTokenRequest.RefreshToken = cookie.Value
		}
	}

	claims, err := h.Tokens.ValidatePASETO(refreshTokenRequest.RefreshToken)
	if err != nil {
		middlewares.HttpError(w, h.Log, "Invalid refresh token", http.StatusUnauthorized, err)
		return
	}
	if claims.Kind != utils.RefreshToken {
		middlewares.HttpError(w, h.Log, "Invalid refresh token", http.StatusUnauthorized, errors.New("not a refresh token"))
		return
	}

	userID, ok, err := h.Sessions.Lookup(r.Context(), claims.SessionID)
	if err != nil {
		middlewares.HttpError(w, h.Log, "Failed to verify session", http.StatusInternalServerError, err)
		return
	}
	if !ok || userID != claims.UserID {
		middlewares.HttpError(w, h.Log, "Invalid refresh token", http.StatusUnauthorized, errors.New("session revoked"))
		return
	}

	accessToken, _, err := h.Tokens.GeneratePASETO(claims.UserID, claims.SessionID, utils.AccessToken, accessTokenTTL)
	if err != nil {
		middlewares.HttpError(w, h.Log, "Failed to generate new access token", http.StatusInternalServerError, err)
		return
	}

	http.SetCookie(w, authCookie(middlewares.AccessTokenCookie, accessToken, time.Now().Add(accessTokenTTL)))
	middlewares.RespondJSON(w, map[string]string{"accessToken": accessToken}, http.StatusOK)
}

// Logoff revokes the caller's session, if any, and clears the cookies.
func (h *AuthHandler) Logoff(w http.ResponseWriter, r *http.Request) {
	if user, ok := middlewares.CurrentUserFrom(r.Context()); ok {
		if err := h.Sessions.Revoke(r.Context(), user.SessionID); err != nil {
			middlewares.HttpError(w, h.Log, "Failed to end session", http.StatusInternalServerError, err)
			return
		}
	}

	clearAuthCookies(w)
	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var data struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		middlewares.HttpError(w, h.Log, "Invalid request body", http.StatusBadRequest, err)
		return
	}

	current, _ := middlewares.CurrentUserFrom(r.Context())
	ctx := r.Context()
	user, err := h.Users.GetByID(ctx, current.ID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			middlewares.HttpError(w, h.Log, "User not found", http.StatusNotFound, err)
			return
		}
		middlewares.HttpError(w, h.Log, "Failed to retrieve user", http.StatusInternalServerError, err)
		return
	}

	if !user.CheckPassword(data.OldPassword) {
		middlewares.HttpError(w, h.Log, "Old password is incorrect", http.StatusUnauthorized, nil)
		return
	}

	if err := validation.ValidatePasswordChange(data.OldPassword, data.NewPassword); err != nil {
		middlewares.HttpError(w, h.Log, err.Error(), http.StatusBadRequest, err)
		return
	}

	user.Password = data.NewPassword
	if err := user.HashPassword(); err != nil {
		middlewares.HttpError(w, h.Log, "Failed to hash new password", http.StatusInternalServerError, err)
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		middlewares.HttpError(w, h.Log, "Failed to update password", http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func authCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	}
}

func setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	now := time.Now()
	http.SetCookie(w, authCookie(middlewares.AccessTokenCookie, accessToken, now.Add(accessTokenTTL)))
	http.SetCookie(w, authCookie(refreshTokenCookie, refreshToken, now.Add(refreshTokenTTL)))
}

func clearAuthCookies(w http.ResponseWriter) {
	expired := time.Now().Add(-1 * time.Hour)
	http.SetCookie(w, authCookie(middlewares.AccessTokenCookie, "", expired))
	http.SetCookie(w, authCookie(refreshTokenCookie, "", expired))
}
