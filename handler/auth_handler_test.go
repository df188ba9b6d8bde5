package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"go-music-api/common"
	"go-music-api/metrics"
	"go-music-api/model"
	"go-music-api/service"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthenticator struct{ mock.Mock }

func (m *mockAuthenticator) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *mockAuthenticator) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *mockAuthenticator) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockAuthenticator) VerifyBearerToken(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newTestCollector() *metrics.Collector {
	return metrics.NewCollector(prometheus.NewRegistry())
}

func serve(h func(http.ResponseWriter, *http.Request) *common.AppError, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ErrorHandlingMiddleware(h).ServeHTTP(rr, req)
	return rr
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	pair := model.TokenPair{AccessToken: "access", RefreshToken: "refresh"}

	t.Run("json body", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Login", mock.Anything, "a@x.com", "secret123").Return(pair, nil).Once()
		h := NewAuthHandler(auth, newTestCollector(), 7*24*time.Hour)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@x.com","password":"secret123"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := serve(h.Login, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"access_token":"access","token_type":"bearer"}`, rr.Body.String())

		cookie := findCookie(rr, RefreshCookieName)
		require.NotNil(t, cookie)
		assert.Equal(t, "refresh", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, 7*24*60*60, cookie.MaxAge)
		auth.AssertExpectations(t)
	})

	t.Run("oauth2 password form", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Login", mock.Anything, "a@x.com", "secret123").Return(pair, nil).Once()
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		form := url.Values{"username": {"a@x.com"}, "password": {"secret123"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := serve(h.Login, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		auth.AssertExpectations(t)
	})

	t.Run("wrong credentials", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Login", mock.Anything, "a@x.com", "wrong-pass").Return(model.TokenPair{}, service.ErrInvalidCredentials).Once()
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@x.com","password":"wrong-pass"}`))
		rr := serve(h.Login, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
		assert.JSONEq(t, `{"code":401,"message":"Incorrect email or password"}`, rr.Body.String())
		assert.Nil(t, findCookie(rr, RefreshCookieName))
	})

	t.Run("invalid body", func(t *testing.T) {
		auth := new(mockAuthenticator)
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"not-an-email","password":"x"}`))
		rr := serve(h.Login, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store unavailable", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Login", mock.Anything, "a@x.com", "secret123").
			Return(model.TokenPair{}, fmt.Errorf("%w: find user by email", service.ErrServiceUnavailable)).Once()
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@x.com","password":"secret123"}`))
		rr := serve(h.Login, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.NotContains(t, rr.Body.String(), "find user")
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		h := NewAuthHandler(new(mockAuthenticator), newTestCollector(), time.Hour)

		rr := serve(h.Refresh, httptest.NewRequest(http.MethodPost, "/refresh", nil))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.JSONEq(t, `{"code":403,"message":"Refresh token missing"}`, rr.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Refresh", mock.Anything, "stale").Return("", service.ErrUnauthenticated).Once()
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "stale"})
		rr := serve(h.Refresh, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.JSONEq(t, `{"code":403,"message":"Invalid refresh token"}`, rr.Body.String())
	})

	t.Run("success", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Refresh", mock.Anything, "refresh").Return("new-access", nil).Once()
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh"})
		rr := serve(h.Refresh, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body model.TokenResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "new-access", body.AccessToken)
		assert.Equal(t, "bearer", body.TokenType)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("requires bearer header", func(t *testing.T) {
		auth := new(mockAuthenticator)
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		rr := serve(h.Logout, httptest.NewRequest(http.MethodPost, "/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
		auth.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})

	t.Run("revokes bearer and cookie tokens", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Logout", mock.Anything, "access").Return(nil).Once()
		auth.On("Logout", mock.Anything, "refresh").Return(nil).Once()
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Bearer access")
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh"})
		rr := serve(h.Logout, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Logged out successfully"}`, rr.Body.String())
		cookie := findCookie(rr, RefreshCookieName)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Less(t, cookie.MaxAge, 0)
		auth.AssertExpectations(t)
	})

	t.Run("store unavailable", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Logout", mock.Anything, "access").Return(fmt.Errorf("%w: insert revocation", service.ErrServiceUnavailable)).Once()
		h := NewAuthHandler(auth, newTestCollector(), time.Hour)

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Bearer access")
		rr := serve(h.Logout, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Nil(t, findCookie(rr, RefreshCookieName))
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc", token: "abc", ok: true},
		{header: "bearer abc", token: "abc", ok: true},
		{header: "BEARER abc", token: "abc", ok: true},
		{header: "", ok: false},
		{header: "Bearer", ok: false},
		{header: "Basic abc", ok: false},
		{header: "Bearer abc def", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			token, ok := bearerToken(req)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}
