package handler

import (
	"context"
	"errors"
	"go-music-api/common"
	"go-music-api/metrics"
	"go-music-api/model"
	"go-music-api/service"
	"net/http"
	"strings"
	"time"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// Authenticator is the session lifecycle used by the HTTP layer.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, token string) error
	VerifyBearerToken(ctx context.Context, token string) (*model.User, error)
}

type AuthHandler struct {
	auth       Authenticator
	metrics    *metrics.Collector
	refreshTTL time.Duration
}

func NewAuthHandler(auth Authenticator, collector *metrics.Collector, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, metrics: collector, refreshTTL: refreshTTL}
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for an access token and sets the refresh token cookie.
// @Description  Accepts a JSON body or an OAuth2 password form (username, password).
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      model.LoginRequest  true  "Login credentials"
// @Success      200          {object}  model.TokenResponse
// @Failure      400          {object}  common.AppError
// @Failure      401          {object}  common.AppError
// @Failure      429          {object}  common.AppError
// @Failure      503          {object}  common.AppError
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	req, appErr := decodeLoginRequest(r)
	if appErr != nil {
		return appErr
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.RecordLogin(metrics.ResultRejected)
			return common.NewAppError(http.StatusUnauthorized, "Incorrect email or password", nil).
				WithHeader("WWW-Authenticate", "Bearer")
		}
		h.metrics.RecordLogin(metrics.ResultError)
		return serviceError(err)
	}
	h.metrics.RecordLogin(metrics.ResultSuccess)

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	common.WriteJSON(w, http.StatusOK, model.TokenResponse{AccessToken: pair.AccessToken, TokenType: "bearer"})
	return nil
}

// decodeLoginRequest reads a JSON body, or an OAuth2 password form where the
// email travels in the username field.
func decodeLoginRequest(r *http.Request) (model.LoginRequest, *common.AppError) {
	var req model.LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return req, common.NewAppError(http.StatusBadRequest, "Invalid request body", nil)
		}
		req.Email = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		return req, common.ValidateStruct(&req)
	}
	return req, common.ValidateAndDecode(r, &req)
}

// Refresh godoc
// @Summary      Refresh the access token
// @Description  Issues a new access token from the refresh token cookie. The refresh token is not rotated.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  model.TokenResponse
// @Failure      403  {object}  common.AppError
// @Failure      503  {object}  common.AppError
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		h.metrics.RecordRefresh(metrics.ResultRejected)
		return common.NewAppError(http.StatusForbidden, "Refresh token missing", nil)
	}

	access, err := h.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			h.metrics.RecordRefresh(metrics.ResultRejected)
			return common.NewAppError(http.StatusForbidden, "Invalid refresh token", nil)
		}
		h.metrics.RecordRefresh(metrics.ResultError)
		return serviceError(err)
	}

	h.metrics.RecordRefresh(metrics.ResultSuccess)
	common.WriteJSON(w, http.StatusOK, model.TokenResponse{AccessToken: access, TokenType: "bearer"})
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the bearer token and the refresh token cookie, then clears the cookie.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.MessageResponse
// @Failure      401  {object}  common.AppError
// @Failure      503  {object}  common.AppError
// @Router       /logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	token, ok := bearerToken(r)
	if !ok {
		h.metrics.RecordLogout(metrics.ResultRejected)
		return unauthenticated()
	}

	tokens := []string{token}
	if cookie, err := r.Cookie(RefreshCookieName); err == nil && cookie.Value != "" && cookie.Value != token {
		tokens = append(tokens, cookie.Value)
	}
	for _, t := range tokens {
		if err := h.auth.Logout(r.Context(), t); err != nil {
			h.metrics.RecordLogout(metrics.ResultError)
			return serviceError(err)
		}
	}
	h.metrics.RecordLogout(metrics.ResultSuccess)

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	common.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
	return nil
}

func unauthenticated() *common.AppError {
	return common.NewAppError(http.StatusUnauthorized, "Could not validate credentials", nil).
		WithHeader("WWW-Authenticate", "Bearer")
}

// serviceError maps errors that are not a credential verdict.
func serviceError(err error) *common.AppError {
	if errors.Is(err, service.ErrServiceUnavailable) {
		return common.NewAppError(http.StatusServiceUnavailable, "Service temporarily unavailable", err)
	}
	return common.NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
