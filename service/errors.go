package service

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for a wrong email/password pair.
	// Unknown email and wrong password share this error.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrUnauthenticated covers missing, malformed, expired and revoked tokens alike.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrServiceUnavailable means the credential store could not be consulted.
	// It never means the credential itself is bad.
	ErrServiceUnavailable = errors.New("authentication service unavailable")
	// ErrEmailTaken is returned by registration for a duplicate email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrUsernameTaken is returned by registration for a duplicate username.
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
)
