package service

import (
	"errors"
	"fmt"
	"go-music-api/model"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by TokenCodec.Decode for any token it cannot trust.
// It never leaves the service package; AuthService maps it to ErrUnauthenticated.
var ErrInvalidToken = errors.New("invalid token")

// tokenClaims is the JWT payload: the registered claims plus the token use.
type tokenClaims struct {
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

func validUse(use string) bool {
	return use == model.TokenUseAccess || use == model.TokenUseRefresh
}

// TokenCodec signs and verifies HS256 JWTs carrying model.Claims.
// The payload is signed, not encrypted.
type TokenCodec struct {
	secret []byte
	parser *jwt.Parser
}

func NewTokenCodec(secretKey string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secretKey),
		// Expiry is compared against the clock by the caller, so that logout
		// can still read the expiry of a token.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

func (c *TokenCodec) Encode(claims model.Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("cannot encode token without subject")
	}
	if claims.ID == "" {
		return "", errors.New("cannot encode token without id")
	}
	if !validUse(claims.Use) {
		return "", fmt.Errorf("cannot encode token with use %q", claims.Use)
	}

	payload := tokenClaims{
		TokenUse: claims.Use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.ID,
			Subject:   claims.Subject,
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}
	if !claims.IssuedAt.IsZero() {
		payload.IssuedAt = jwt.NewNumericDate(claims.IssuedAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}
	return tokenString, nil
}

// Decode verifies the signature and structure of tokenString and returns its claims.
// It does not check the expiry against the current time.
func (c *TokenCodec) Decode(tokenString string) (model.Claims, error) {
	payload := &tokenClaims{}
	token, err := c.parser.ParseWithClaims(tokenString, payload, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return model.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return model.Claims{}, ErrInvalidToken
	}
	if payload.Subject == "" {
		return model.Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if payload.ID == "" {
		return model.Claims{}, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}
	if payload.ExpiresAt == nil {
		return model.Claims{}, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	if !validUse(payload.TokenUse) {
		return model.Claims{}, fmt.Errorf("%w: unknown token use %q", ErrInvalidToken, payload.TokenUse)
	}

	claims := model.Claims{
		ID:        payload.ID,
		Subject:   payload.Subject,
		Use:       payload.TokenUse,
		ExpiresAt: payload.ExpiresAt.Time,
	}
	if payload.IssuedAt != nil {
		claims.IssuedAt = payload.IssuedAt.Time
	}
	return claims, nil
}
