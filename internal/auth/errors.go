package auth

import "errors"

var (
	// ErrInvalidCredentials es deliberadamente genérico: no indica si falló el
	// email o la contraseña.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProviderNotFound   = errors.New("auth provider not found")
	ErrOAuthExchange      = errors.New("oauth exchange failed")
	ErrAccountNotLinked   = errors.New("email already registered with another sign-in method")
)
