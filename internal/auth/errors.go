package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrInvalidRole           = errors.New("Invalid role")
	ErrAdminExists           = errors.New("An account with this email already exists")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters")
	ErrInvalidToken          = errors.New("Invalid or expired token")
)
