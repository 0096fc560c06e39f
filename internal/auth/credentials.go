package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"edge-auth/internal/domain"
	"edge-auth/internal/repository"
)

// PasswordVerifier compara una contraseña en claro contra su hash.
type PasswordVerifier func(password, hash string) bool

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// CredentialsProvider autentica con email y contraseña.
type CredentialsProvider struct {
	users  UserFinder
	verify PasswordVerifier
}

func NewCredentialsProvider(users UserFinder, verify PasswordVerifier) *CredentialsProvider {
	if verify == nil {
		verify = VerifyPassword
	}
	return &CredentialsProvider{users: users, verify: verify}
}

func (p *CredentialsProvider) ID() string   { return "credentials" }
func (p *CredentialsProvider) Type() string { return "credentials" }
func (p *CredentialsProvider) Name() string { return "Credentials" }

// Authorize devuelve la proyección mínima del usuario o ErrInvalidCredentials.
func (p *CredentialsProvider) Authorize(ctx context.Context, email, password string) (domain.Identity, error) {
	if p.users == nil {
		return domain.Identity{}, errors.New("credentials provider not configured")
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Identity{}, ErrInvalidCredentials
	}

	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}
	if user.PasswordHash == "" {
		return domain.Identity{}, ErrInvalidCredentials
	}
	if !p.verify(password, user.PasswordHash) {
		return domain.Identity{}, ErrInvalidCredentials
	}
	return user.Identity(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
