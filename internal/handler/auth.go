package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workodr/marketplace-api/internal/auth"
	"github.com/workodr/marketplace-api/internal/config"
	"github.com/workodr/marketplace-api/internal/middleware"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/queue"
	"github.com/workodr/marketplace-api/internal/repository"
	"github.com/workodr/marketplace-api/internal/response"
)

const dbTimeout = 5 * time.Second

// invalidCredentials is the single message for both unknown identifier and
// wrong password, so responses never reveal which one failed.
const invalidCredentials = "Invalid email or password"

// AuthHandler bundles dependencies for the auth endpoints.  Publish is the
// fire-and-forget audit event sink; a nil Publish disables event emission
// (used by tests).
type AuthHandler struct {
	Cfg     config.Config
	Log     zerolog.Logger
	Users   *repository.UserRepo
	Tokens  *repository.TokenRepo
	Logs    *repository.LoginLogRepo
	Publish func(ctx context.Context, ev queue.AuthEvent) error
}

func NewAuthHandler(cfg config.Config, log zerolog.Logger, u *repository.UserRepo, t *repository.TokenRepo, l *repository.LoginLogRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Log: log, Users: u, Tokens: t, Logs: l}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"` // AGENT | CONTRACTOR
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type googleLoginReq struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	GoogleUserID string `json:"googleUserId"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
type resetRequestReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type loginData struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"accessToken"`
	IsNewUser   bool       `json:"isNewUser,omitempty"`
}

// Register handles POST /v1/auth/register.  Creates the user and its
// PASSWORD auth method in one transaction; no auto-login.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return response.Fail(c, http.StatusBadRequest, "Name, email, role, and password are required")
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleAgent && role != model.RoleContractor {
		return response.Fail(c, http.StatusBadRequest, "Invalid role. Must be AGENT or CONTRACTOR")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		h.Log.Error().Err(err).Msg("password hash failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	uid, err := h.Users.CreateWithPassword(ctx, req.Name, req.Email, req.Phone, role, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return response.Fail(c, http.StatusBadRequest, "User with this email already exists")
		}
		h.Log.Error().Err(err).Msg("create user failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	h.logAttempt(ctx, c, &uid, model.ProviderPassword, repository.LoginSuccess, "")
	h.emit(queue.AuthEvent{Type: queue.EventRegistered, UserID: uid, Email: req.Email, Provider: model.ProviderPassword, IP: c.RealIP()})

	return response.OK(c, http.StatusCreated, "User registered successfully", echo.Map{
		"id": uid, "email": req.Email, "role": role,
	})
}

// Login handles POST /v1/auth/login: password credential verification, token
// issuance and ledger recording.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return response.Fail(c, http.StatusBadRequest, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.logAttempt(ctx, c, nil, model.ProviderPassword, repository.LoginFailure, "User not found")
			h.emit(queue.AuthEvent{Type: queue.EventLoginFailure, Email: req.Email, Provider: model.ProviderPassword, IP: c.RealIP()})
			return response.Fail(c, http.StatusUnauthorized, invalidCredentials)
		}
		h.Log.Error().Err(err).Msg("user lookup failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if !u.IsActive {
		return response.Fail(c, http.StatusForbidden, "Account is deactivated")
	}

	m, err := h.Users.GetAuthMethod(ctx, u.ID, model.ProviderPassword)
	if err != nil {
		if errors.Is(err, repository.ErrMethodNotFound) {
			return response.Fail(c, http.StatusUnauthorized, "Password login not available for this account")
		}
		h.Log.Error().Err(err).Msg("auth method lookup failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if m.PasswordHash == nil || !auth.VerifyPassword(*m.PasswordHash, req.Password) {
		h.logAttempt(ctx, c, &u.ID, model.ProviderPassword, repository.LoginFailure, "Incorrect password")
		h.emit(queue.AuthEvent{Type: queue.EventLoginFailure, UserID: u.ID, Email: u.Email, Provider: model.ProviderPassword, IP: c.RealIP()})
		return response.Fail(c, http.StatusUnauthorized, invalidCredentials)
	}

	token, err := h.issueSession(ctx, u)
	if err != nil {
		h.Log.Error().Err(err).Msg("session issue failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	h.logAttempt(ctx, c, &u.ID, model.ProviderPassword, repository.LoginSuccess, "")
	h.emit(queue.AuthEvent{Type: queue.EventLoginSuccess, UserID: u.ID, Email: u.Email, Provider: model.ProviderPassword, IP: c.RealIP()})

	return response.OK(c, http.StatusOK, "Login successful", loginData{User: u, AccessToken: token})
}

// GoogleLogin handles POST /v1/auth/google-login.
//
// Trust boundary: the server accepts the caller's assertion that the email
// was verified by Google sign-in on the client; it performs no server-side
// verification of a Google ID token.  Unknown emails become CONTRACTOR
// accounts; a known email without a GOOGLE method gets one attached
// (account linking).
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req googleLoginReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.GoogleUserID == "" {
		return response.Fail(c, http.StatusBadRequest, "Email and Google user ID are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	isNew := false
	u, err := h.Users.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = strings.SplitN(req.Email, "@", 2)[0]
		}
		uid, err := h.Users.CreateFederated(ctx, name, req.Email, model.RoleContractor, model.ProviderGoogle, req.GoogleUserID)
		if err != nil {
			h.Log.Error().Err(err).Msg("federated create failed")
			return response.Fail(c, http.StatusInternalServerError, "Server error")
		}
		u, err = h.Users.GetByID(ctx, uid)
		if err != nil {
			h.Log.Error().Err(err).Msg("load created user failed")
			return response.Fail(c, http.StatusInternalServerError, "Server error")
		}
		isNew = true
	case err != nil:
		h.Log.Error().Err(err).Msg("user lookup failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	default:
		if _, err := h.Users.GetAuthMethod(ctx, u.ID, model.ProviderGoogle); errors.Is(err, repository.ErrMethodNotFound) {
			if err := h.Users.AttachMethod(ctx, u.ID, model.ProviderGoogle, req.GoogleUserID); err != nil {
				h.Log.Error().Err(err).Msg("attach google method failed")
				return response.Fail(c, http.StatusInternalServerError, "Server error")
			}
		} else if err != nil {
			h.Log.Error().Err(err).Msg("auth method lookup failed")
			return response.Fail(c, http.StatusInternalServerError, "Server error")
		}
	}

	if !u.IsActive {
		return response.Fail(c, http.StatusForbidden, "Account is deactivated")
	}

	token, err := h.issueSession(ctx, u)
	if err != nil {
		h.Log.Error().Err(err).Msg("session issue failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	h.logAttempt(ctx, c, &u.ID, model.ProviderGoogle, repository.LoginSuccess, "")
	h.emit(queue.AuthEvent{Type: queue.EventLoginSuccess, UserID: u.ID, Email: u.Email, Provider: model.ProviderGoogle, IP: c.RealIP()})

	msg := "Login successful"
	if isNew {
		msg = "Account created and logged in successfully"
	}
	return response.OK(c, http.StatusOK, msg, loginData{User: u, AccessToken: token, IsNewUser: isNew})
}

// Logout handles POST /v1/auth/logout.  Revokes the presented token's
// fingerprint in the ledger.  Idempotent from the caller's perspective:
// revoking an already-dead or absent token still answers success.
func (h *AuthHandler) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw != "" {
			ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
			defer cancel()
			if err := h.Tokens.Revoke(ctx, auth.Fingerprint(raw)); err != nil {
				h.Log.Error().Err(err).Msg("token revoke failed")
				return response.Fail(c, http.StatusInternalServerError, "Server error")
			}
		}
	}
	return response.OK(c, http.StatusOK, "Logged out successfully", nil)
}

// Me handles GET /v1/auth/me (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return response.Fail(c, http.StatusUnauthorized, "Access token required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return response.Fail(c, http.StatusNotFound, "User not found")
		}
		h.Log.Error().Err(err).Msg("user lookup failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", u)
}

// ChangePassword handles POST /v1/auth/change-password (protected).  On
// success every other session of the user is revoked; the presented token
// stays live.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return response.Fail(c, http.StatusUnauthorized, "Access token required")
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return response.Fail(c, http.StatusBadRequest, "Current and new passwords are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	m, err := h.Users.GetAuthMethod(ctx, claims.UserID, model.ProviderPassword)
	if err != nil {
		if errors.Is(err, repository.ErrMethodNotFound) {
			return response.Fail(c, http.StatusBadRequest, "Password authentication not set up")
		}
		h.Log.Error().Err(err).Msg("auth method lookup failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if m.PasswordHash == nil || !auth.VerifyPassword(*m.PasswordHash, req.CurrentPassword) {
		return response.Fail(c, http.StatusUnauthorized, "Current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		h.Log.Error().Err(err).Msg("password hash failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if err := h.Users.UpdatePasswordHash(ctx, claims.UserID, hash); err != nil {
		h.Log.Error().Err(err).Msg("password update failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if err := h.Tokens.RevokeAllForUserExcept(ctx, claims.UserID, auth.Fingerprint(middleware.TokenFrom(c))); err != nil {
		h.Log.Warn().Err(err).Msg("revoke other sessions failed")
	}

	h.logPasswordChange(ctx, c, claims.UserID)
	h.emit(queue.AuthEvent{Type: queue.EventPasswordChange, UserID: claims.UserID, Email: claims.Email, IP: c.RealIP()})

	return response.OK(c, http.StatusOK, "Password changed successfully", nil)
}

// RequestPasswordReset handles POST /v1/auth/request-password-reset.  The
// response is success-shaped whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	const msg = "If the email exists, a reset link has been sent"

	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return response.Fail(c, http.StatusBadRequest, "Email is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return response.OK(c, http.StatusOK, msg, nil)
		}
		h.Log.Error().Err(err).Msg("user lookup failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	token, err := auth.NewResetToken()
	if err != nil {
		h.Log.Error().Err(err).Msg("reset token generation failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	exp := time.Now().UTC().Add(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
	if err := h.Tokens.RecordReset(ctx, u.ID, auth.Fingerprint(token), exp); err != nil {
		h.Log.Error().Err(err).Msg("reset token store failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	// TODO(mail): deliver the raw token by email once the mailer service
	// lands; until then it only reaches the logs in dev.
	h.Log.Debug().Uint64("user_id", u.ID).Msg("password reset token issued")

	return response.OK(c, http.StatusOK, msg, nil)
}

// ResetPassword handles POST /v1/auth/reset-password.  The token consume is
// a single conditional update, so a token can never be spent twice even
// under concurrent identical requests.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return response.Fail(c, http.StatusBadRequest, "Token and new password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	userID, err := h.Tokens.ConsumeReset(ctx, auth.Fingerprint(req.Token))
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			return response.Fail(c, http.StatusBadRequest, "Invalid or expired token")
		}
		h.Log.Error().Err(err).Msg("reset token consume failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	hash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		h.Log.Error().Err(err).Msg("password hash failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if err := h.Users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		h.Log.Error().Err(err).Msg("password update failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	h.logPasswordChange(ctx, c, userID)
	h.emit(queue.AuthEvent{Type: queue.EventPasswordChange, UserID: userID, IP: c.RealIP()})

	return response.OK(c, http.StatusOK, "Password reset successfully", nil)
}

// issueSession mints an access token for the user and records its
// fingerprint in the ledger.  Ledger recording is not best-effort: a token
// the ledger does not know is a token that can never be revoked, so a
// failed insert fails the login.
func (h *AuthHandler) issueSession(ctx context.Context, u model.User) (string, error) {
	claims := auth.Claims{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		Roles:  []string{u.Role},
	}
	ttl := time.Duration(h.Cfg.AccessTTLHours) * time.Hour
	token, exp, err := auth.Issue(h.Cfg.JWTSecret, claims, ttl)
	if err != nil {
		return "", err
	}
	if err := h.Tokens.Record(ctx, u.ID, auth.Fingerprint(token), exp); err != nil {
		return "", err
	}
	return token, nil
}

// logAttempt writes a login_logs row.  Best-effort: failures are logged and
// swallowed so auditing never blocks authentication.
func (h *AuthHandler) logAttempt(ctx context.Context, c echo.Context, userID *uint64, provider, status, reason string) {
	if err := h.Logs.LogAttempt(ctx, userID, provider, status, c.RealIP(), c.Request().UserAgent(), reason); err != nil {
		h.Log.Warn().Err(err).Msg("login log insert failed")
	}
}

func (h *AuthHandler) logPasswordChange(ctx context.Context, c echo.Context, userID uint64) {
	if err := h.Logs.LogPasswordChange(ctx, userID, c.RealIP(), c.Request().UserAgent()); err != nil {
		h.Log.Warn().Err(err).Msg("password change log insert failed")
	}
}

// emit publishes an audit event in the background.  Fire-and-forget: the
// publisher already logs its own failures.
func (h *AuthHandler) emit(ev queue.AuthEvent) {
	if h.Publish == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Publish(ctx, ev)
	}()
}
