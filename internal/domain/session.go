package domain

import "time"

// Token es el payload firmado que viaja en la cookie de sesión.
type Token struct {
	Sub     string    `json:"sub"`
	Email   string    `json:"email"`
	Name    string    `json:"name,omitempty"`
	Picture string    `json:"picture,omitempty"`
	Expires time.Time `json:"-"`
}

// SessionUser es la parte del usuario visible para el cliente.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session es lo que devuelve /api/auth/session.
type Session struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}
