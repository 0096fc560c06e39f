package auth

import "edge-auth/internal/domain"

// Callbacks transforman el token y la sesión en cada paso del flujo.
type Callbacks interface {
	JWT(token domain.Token, user *domain.Identity) domain.Token
	Session(session domain.Session, token domain.Token) domain.Session
}

// DefaultCallbacks copia la identidad al token solo en el primer login y
// del token a la sesión en cada lectura.
type DefaultCallbacks struct{}

func (DefaultCallbacks) JWT(token domain.Token, user *domain.Identity) domain.Token {
	if user == nil {
		return token
	}
	token.Sub = user.ID
	token.Email = user.Email
	token.Name = user.Name
	token.Picture = user.Image
	return token
}

func (DefaultCallbacks) Session(session domain.Session, token domain.Token) domain.Session {
	session.User = domain.SessionUser{
		ID:    token.Sub,
		Email: token.Email,
		Name:  token.Name,
		Image: token.Picture,
	}
	return session
}
