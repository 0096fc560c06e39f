package auth

import (
	"context"
	"errors"
	"testing"

	"edge-auth/internal/domain"
)

func seededStore(t *testing.T) *mockUserStore {
	t.Helper()
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store := newMockUserStore()
	store.add(domain.User{ID: "u1", Email: "user@example.com", Name: "User", Image: "https://img/u1.png", PasswordHash: hash})
	store.add(domain.User{ID: "u2", Email: "oauth@example.com", Name: "OAuth Only"})
	return store
}

func TestCredentialsProviderAuthorize_Success(t *testing.T) {
	provider := NewCredentialsProvider(seededStore(t), nil)

	identity, err := provider.Authorize(context.Background(), " User@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	want := domain.Identity{ID: "u1", Email: "user@example.com", Name: "User", Image: "https://img/u1.png"}
	if identity != want {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestCredentialsProviderAuthorize_GenericErrors(t *testing.T) {
	provider := NewCredentialsProvider(seededStore(t), nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "correct-horse"},
		{"wrong password", "user@example.com", "wrong"},
		{"no password hash", "oauth@example.com", "anything"},
		{"empty email", "", "correct-horse"},
		{"empty password", "user@example.com", ""},
	}

	var messages []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := provider.Authorize(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			messages = append(messages, err.Error())
		})
	}
	for _, msg := range messages {
		if msg != "invalid email or password" {
			t.Fatalf("expected identical generic message, got %q", msg)
		}
	}
}

func TestCredentialsProviderAuthorize_StoreError(t *testing.T) {
	store := newMockUserStore()
	store.err = errors.New("db down")
	provider := NewCredentialsProvider(store, nil)

	_, err := provider.Authorize(context.Background(), "user@example.com", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestCredentialsProviderAuthorize_CustomVerifier(t *testing.T) {
	store := newMockUserStore()
	store.add(domain.User{ID: "u1", Email: "user@example.com", PasswordHash: "plain:pw"})
	var gotPassword, gotHash string
	provider := NewCredentialsProvider(store, func(password, hash string) bool {
		gotPassword, gotHash = password, hash
		return hash == "plain:"+password
	})

	if _, err := provider.Authorize(context.Background(), "user@example.com", "pw"); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if gotPassword != "pw" || gotHash != "plain:pw" {
		t.Fatalf("verifier received unexpected args: %q %q", gotPassword, gotHash)
	}
}
