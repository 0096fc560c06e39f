package auth

import (
	"context"
	"errors"

	"edge-auth/internal/domain"
	"edge-auth/internal/repository"
)

type mockUserStore struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	accounts     map[string]string
	linked       []domain.Account
	err          error
	createErr    error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		accounts:     make(map[string]string),
	}
}

func (m *mockUserStore) add(user domain.User) {
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	if m.err != nil {
		return domain.User{}, m.err
	}
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return m.usersByID[id], nil
}

func (m *mockUserStore) GetByAccount(_ context.Context, provider, providerAccountID string) (domain.User, error) {
	if m.err != nil {
		return domain.User{}, m.err
	}
	id, ok := m.accounts[provider+"|"+providerAccountID]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return m.usersByID[id], nil
}

func (m *mockUserStore) CreateWithAccount(_ context.Context, user domain.User, account domain.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	if account.UserID != user.ID {
		return errors.New("account does not belong to user")
	}
	m.add(user)
	m.accounts[account.Provider+"|"+account.ProviderAccountID] = account.UserID
	m.linked = append(m.linked, account)
	return nil
}
