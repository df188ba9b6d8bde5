package model

import "time"

// Token uses. An access token authenticates API requests; a refresh token
// only mints new access tokens.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims is the closed set of data carried by access and refresh tokens.
// Subject is the user's email. ID is unique per issued token, so two tokens
// minted for the same subject in the same second never collide.
type Claims struct {
	ID        string
	Subject   string
	Use       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
