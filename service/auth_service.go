package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"go-music-api/common"
	"go-music-api/logger"
	"go-music-api/model"
	"go-music-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// fallbackDummyHash is a valid cost-10 bcrypt hash used when no dummy hash
// can be generated at startup.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// SessionConfig is the immutable token lifetime configuration of an AuthService.
type SessionConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// Now is the clock used for issuance and expiry checks. Defaults to time.Now.
	Now func() time.Time
}

// AuthService issues, verifies and revokes tokens and checks credentials.
// It keeps no state between calls; revocations live in the revocation repository.
type AuthService struct {
	users       repository.IUserRepository
	revocations repository.IRevocationRepository
	hasher      *PasswordHasher
	codec       *TokenCodec
	cfg         SessionConfig
	// dummyHash is verified against when the email is unknown, so both
	// failure paths of Authenticate cost one bcrypt comparison.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repository.IUserRepository,
	revocations repository.IRevocationRepository,
	hasher *PasswordHasher,
	codec *TokenCodec,
	cfg SessionConfig,
) *AuthService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthService{
		users:       users,
		revocations: revocations,
		hasher:      hasher,
		codec:       codec,
		cfg:         cfg,
		dummyHash:   newDummyHash(hasher, rand.Reader),
	}
}

func newDummyHash(hasher *PasswordHasher, random io.Reader) string {
	buf := make([]byte, 16)
	if _, err := io.ReadFull(random, buf); err != nil {
		logger.Log.WithError(err).Warn("Failed to read random bytes for dummy hash, using fallback")
		return fallbackDummyHash
	}
	hash, err := hasher.Hash(hex.EncodeToString(buf))
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to generate dummy hash, using fallback")
		return fallbackDummyHash
	}
	return hash
}

// Authenticate checks an email/password pair. ok is false for an unknown email
// and for a wrong password alike; err is only set when the store failed.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (user *model.User, ok bool, err error) {
	user, err = s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, false, nil
		}
		return nil, false, s.unavailable("find user by email", err)
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, false, nil
	}
	return user, true, nil
}

// IssueAccessToken creates a short-lived token for subject.
func (s *AuthService) IssueAccessToken(subject string) (string, error) {
	return s.issue(subject, model.TokenUseAccess, s.cfg.AccessTokenTTL)
}

// IssueRefreshToken creates a long-lived token for subject.
func (s *AuthService) IssueRefreshToken(subject string) (string, error) {
	return s.issue(subject, model.TokenUseRefresh, s.cfg.RefreshTokenTTL)
}

func (s *AuthService) issue(subject, use string, ttl time.Duration) (string, error) {
	now := s.cfg.Now()
	token, err := s.codec.Encode(model.Claims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Use:       use,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to issue token")
		return "", err
	}
	return token, nil
}

// Login authenticates the user and issues an access/refresh token pair.
// Nothing is written to the store.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	user, ok, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !ok {
		logger.Log.Info("Login rejected")
		return model.TokenPair{}, ErrInvalidCredentials
	}

	access, err := s.IssueAccessToken(user.Email)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(user.Email)
	if err != nil {
		return model.TokenPair{}, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyBearerToken resolves an access token to its user. Revoked, expired,
// malformed and orphaned tokens all fail with ErrUnauthenticated, as do refresh tokens.
func (s *AuthService) VerifyBearerToken(ctx context.Context, token string) (*model.User, error) {
	return s.resolve(ctx, token, model.TokenUseAccess)
}

// Refresh issues a new access token for the subject of a valid refresh token.
// The refresh token itself stays valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.resolve(ctx, refreshToken, model.TokenUseRefresh)
	if err != nil {
		return "", err
	}
	return s.IssueAccessToken(user.Email)
}

// Logout revokes an access or refresh token. It is idempotent, and a token that is malformed or
// already expired is accepted without a store write since it cannot be used anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	log := logger.Log.WithField("token_fp", common.ShortFingerprint(token))

	revoked, err := s.isRevoked(ctx, token)
	if err != nil {
		return err
	}
	if revoked {
		log.Debug("Token already revoked")
		return nil
	}

	claims, err := s.codec.Decode(token)
	if err != nil {
		log.WithError(err).Debug("Logout with undecodable token, nothing to revoke")
		return nil
	}
	if s.expired(claims) {
		log.Debug("Logout with expired token, nothing to revoke")
		return nil
	}

	if err := s.revocations.Insert(ctx, token, claims.ExpiresAt); err != nil {
		return s.unavailable("insert revocation", err)
	}
	log.Info("Token revoked")
	return nil
}

func (s *AuthService) resolve(ctx context.Context, token, use string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	log := logger.Log.WithField("token_fp", common.ShortFingerprint(token))

	revoked, err := s.isRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		log.Info("Rejected revoked token")
		return nil, ErrUnauthenticated
	}

	claims, err := s.codec.Decode(token)
	if err != nil {
		log.WithError(err).Debug("Rejected invalid token")
		return nil, ErrUnauthenticated
	}
	if claims.Use != use {
		log.WithField("token_use", claims.Use).Info("Rejected token used outside its purpose")
		return nil, ErrUnauthenticated
	}
	if s.expired(claims) {
		log.WithField("expires_at", claims.ExpiresAt).Debug("Rejected expired token")
		return nil, ErrUnauthenticated
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("Rejected token for unknown subject")
			return nil, ErrUnauthenticated
		}
		return nil, s.unavailable("find token subject", err)
	}
	return user, nil
}

func (s *AuthService) isRevoked(ctx context.Context, token string) (bool, error) {
	_, err := s.revocations.Find(ctx, token)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, s.unavailable("find revocation", err)
}

func (s *AuthService) expired(claims model.Claims) bool {
	return !s.cfg.Now().Before(claims.ExpiresAt)
}

// unavailable logs the store error and replaces it with ErrServiceUnavailable,
// keeping driver error types inside the service.
func (s *AuthService) unavailable(op string, err error) error {
	logger.Log.WithFields(logrus.Fields{
		"operation": op,
	}).WithError(err).Error("Credential store call failed")
	return fmt.Errorf("%w: %s", ErrServiceUnavailable, op)
}
