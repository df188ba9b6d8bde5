// file: model/token.go

package model

import "time"

// RevokedToken is a blacklist entry for a token invalidated before its natural expiry.
type RevokedToken struct {
	Token     string    `json:"-"` // The raw token is never exposed in JSON responses.
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenResponse is the JSON body returned by /login and /refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
