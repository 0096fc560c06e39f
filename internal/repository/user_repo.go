package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"edge-auth/internal/domain"
)

// ErrNotFound se devuelve cuando la fila buscada no existe.
var ErrNotFound = errors.New("not found")

// PgUserRepository guarda usuarios y cuentas OAuth en postgres.
type PgUserRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPgUserRepository(pool *pgxpool.Pool, timeout time.Duration) *PgUserRepository {
	return &PgUserRepository{pool: pool, timeout: timeout}
}

func (r *PgUserRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// CreateWithAccount inserta el usuario y su cuenta OAuth en una sola
// transacción. Si el enlace falla no queda un usuario huérfano.
func (r *PgUserRepository) CreateWithAccount(ctx context.Context, user domain.User, account domain.Account) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if err := upsertAccount(ctx, tx, account); err != nil {
			return fmt.Errorf("link account: %w", err)
		}
		return nil
	})
}

func insertUser(ctx context.Context, tx pgx.Tx, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, name, image, password_hash, email_verified_at, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Image,
		user.PasswordHash,
		user.EmailVerifiedAt,
		user.CreatedAt,
	)
	return err
}

func upsertAccount(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	const query = `
		INSERT INTO accounts (user_id, provider, provider_account_id, refresh_token, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (provider, provider_account_id)
		DO UPDATE SET refresh_token = COALESCE(EXCLUDED.refresh_token, accounts.refresh_token)
	`
	_, err := tx.Exec(ctx, query,
		account.UserID,
		account.Provider,
		account.ProviderAccountID,
		account.RefreshToken,
		account.CreatedAt,
	)
	return err
}

const selectUser = `
	SELECT u.id, u.email, COALESCE(u.name, ''), COALESCE(u.image, ''),
	       COALESCE(u.password_hash, ''), u.email_verified_at, u.created_at
	FROM users u
`

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.queryOne(ctx, selectUser+`WHERE u.email = $1`, email)
}

func (r *PgUserRepository) GetByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error) {
	return r.queryOne(ctx, selectUser+`
		JOIN accounts a ON a.user_id = u.id
		WHERE a.provider = $1 AND a.provider_account_id = $2`,
		provider, providerAccountID,
	)
}

func (r *PgUserRepository) queryOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Image,
		&u.PasswordHash,
		&u.EmailVerifiedAt,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
