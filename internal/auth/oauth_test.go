package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"

	"edge-auth/internal/domain"
)

func TestGoogleProviderAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "client-secret", nil)

	raw := p.AuthCodeURL("state-123", "https://app.example.com/api/auth/callback/google")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := u.Query()
	if q.Get("access_type") != "offline" {
		t.Fatalf("expected offline access, got %q", q.Get("access_type"))
	}
	if q.Get("prompt") != "consent" {
		t.Fatalf("expected forced consent, got %q", q.Get("prompt"))
	}
	if q.Get("state") != "state-123" || q.Get("client_id") != "client-id" {
		t.Fatalf("unexpected query: %v", q)
	}
	if q.Get("redirect_uri") != "https://app.example.com/api/auth/callback/google" {
		t.Fatalf("unexpected redirect uri: %q", q.Get("redirect_uri"))
	}
}

func newFakeGoogle(t *testing.T, profile OAuthProfile) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fakeGoogleProvider(srv *httptest.Server) *GoogleProvider {
	p := NewGoogleProvider("client-id", "client-secret", srv.Client())
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	p.userInfoURL = srv.URL + "/userinfo"
	return p
}

func TestGoogleProviderExchange(t *testing.T) {
	srv := newFakeGoogle(t, OAuthProfile{Subject: "g-1", Email: "g@example.com", EmailVerified: true, Name: "G"})
	p := fakeGoogleProvider(srv)

	profile, token, err := p.Exchange(context.Background(), "good-code", "http://localhost/cb")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if profile.Subject != "g-1" || profile.Email != "g@example.com" || !profile.EmailVerified {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if token.RefreshToken != "rt" {
		t.Fatalf("expected refresh token from offline access, got %q", token.RefreshToken)
	}

	if _, _, err := p.Exchange(context.Background(), "bad-code", "http://localhost/cb"); !errors.Is(err, ErrOAuthExchange) {
		t.Fatalf("expected ErrOAuthExchange, got %v", err)
	}
}

func TestResolveOAuthUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and links new user", func(t *testing.T) {
		store := newMockUserStore()
		profile := OAuthProfile{Subject: "g-1", Email: "New@Example.com", EmailVerified: true, Name: "New", Picture: "https://img/new.png"}

		identity, err := ResolveOAuthUser(ctx, store, "google", profile, &oauth2.Token{RefreshToken: "rt"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if identity.Email != "new@example.com" || identity.Name != "New" || identity.ID == "" {
			t.Fatalf("unexpected identity: %+v", identity)
		}
		if len(store.linked) != 1 || store.linked[0].RefreshToken != "rt" {
			t.Fatalf("expected linked account with refresh token, got %+v", store.linked)
		}
		if store.usersByID[identity.ID].EmailVerifiedAt == nil {
			t.Fatalf("expected verified email")
		}

		again, err := ResolveOAuthUser(ctx, store, "google", profile, nil)
		if err != nil {
			t.Fatalf("resolve again: %v", err)
		}
		if again.ID != identity.ID {
			t.Fatalf("expected same user on repeat sign-in")
		}
	})

	t.Run("existing email is not linked", func(t *testing.T) {
		store := newMockUserStore()
		store.add(domain.User{ID: "u1", Email: "taken@example.com", PasswordHash: "hash"})

		_, err := ResolveOAuthUser(ctx, store, "google", OAuthProfile{Subject: "g-2", Email: "taken@example.com"}, nil)
		if !errors.Is(err, ErrAccountNotLinked) {
			t.Fatalf("expected ErrAccountNotLinked, got %v", err)
		}
	})

	t.Run("failed write leaves retry possible", func(t *testing.T) {
		store := newMockUserStore()
		store.createErr = errors.New("transient db error")
		profile := OAuthProfile{Subject: "g-3", Email: "retry@example.com"}

		if _, err := ResolveOAuthUser(ctx, store, "google", profile, nil); err == nil {
			t.Fatalf("expected write error")
		}
		if len(store.usersByID) != 0 || len(store.accounts) != 0 {
			t.Fatalf("expected no partial state, got users=%v accounts=%v", store.usersByID, store.accounts)
		}

		store.createErr = nil
		identity, err := ResolveOAuthUser(ctx, store, "google", profile, nil)
		if err != nil {
			t.Fatalf("expected retry to succeed, got %v", err)
		}
		if identity.Email != "retry@example.com" {
			t.Fatalf("unexpected identity: %+v", identity)
		}
	})
}
