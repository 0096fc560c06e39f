package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edge-auth/internal/domain"
)

// SessionMaxAge es la vida máxima de una sesión.
const SessionMaxAge = 30 * 24 * time.Hour

var (
	ErrTokenInvalid = errors.New("session token invalid")
	ErrTokenExpired = errors.New("session token expired")
)

// SessionTokenService firma y valida el token de sesión. No hay estado en el
// servidor: el token es la única fuente de verdad hasta que expira.
type SessionTokenService struct {
	secret []byte
	maxAge time.Duration
	issuer string
	now    func() time.Time
}

type sessionClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func NewSessionTokenService(secret string, maxAge time.Duration) *SessionTokenService {
	if maxAge <= 0 {
		maxAge = SessionMaxAge
	}
	return &SessionTokenService{
		secret: []byte(secret),
		maxAge: maxAge,
		issuer: "edge-auth",
		now:    time.Now,
	}
}

func (s *SessionTokenService) MaxAge() time.Duration {
	return s.maxAge
}

// Issue firma el token y devuelve su fecha de expiración.
func (s *SessionTokenService) Issue(token domain.Token) (string, time.Time, error) {
	if len(s.secret) == 0 || strings.TrimSpace(token.Sub) == "" {
		return "", time.Time{}, ErrTokenInvalid
	}
	now := s.now().UTC()
	expires := now.Add(s.maxAge)
	claims := sessionClaims{
		Email:   token.Email,
		Name:    token.Name,
		Picture: token.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   token.Sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (s *SessionTokenService) Parse(raw string) (domain.Token, error) {
	if len(s.secret) == 0 || strings.TrimSpace(raw) == "" {
		return domain.Token{}, ErrTokenInvalid
	}
	var claims sessionClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(raw, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Token{}, ErrTokenExpired
		}
		return domain.Token{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ExpiresAt == nil {
		return domain.Token{}, ErrTokenInvalid
	}
	return domain.Token{
		Sub:     claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		Expires: claims.ExpiresAt.Time.UTC(),
	}, nil
}
