package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByHogwartsID(ctx context.Context, hogwartsID string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id int64, t time.Time) error
	// CompleteUpgrade stores hash and clears the legacy secret. It reports
	// false if the credential had already been upgraded.
	CompleteUpgrade(ctx context.Context, id int64, hash string) (bool, error)
	ListPendingUpgrade(ctx context.Context) ([]*User, error)
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{pool: pool}
}

const selectUser = `
	SELECT id, hogwarts_id, password_hash, legacy_password, credential_state, role, created_at, last_login_at
	FROM public.users
`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(
		&u.ID,
		&u.HogwartsID,
		&u.PasswordHash,
		&u.LegacyPassword,
		&u.CredentialState,
		&u.Role,
		&u.CreatedAt,
		&u.LastLoginAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *pgxUserRepository) GetByHogwartsID(ctx context.Context, hogwartsID string) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+"WHERE hogwarts_id = $1", hogwartsID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByHogwartsID query failed: %w", err)
	}
	return u, nil
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+"WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID query failed: %w", err)
	}
	return u, nil
}

func (r *pgxUserRepository) Create(ctx context.Context, u *User) error {
	const query = `
		INSERT INTO public.users (hogwarts_id, password_hash, legacy_password, credential_state, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if u.CredentialState == "" {
		u.CredentialState = CredentialHashed
	}
	if u.Role == "" {
		u.Role = RoleUser
	}

	err := r.pool.QueryRow(ctx, query,
		u.HogwartsID, u.PasswordHash, u.LegacyPassword, u.CredentialState, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrHogwartsIDTaken
		}
		return fmt.Errorf("insert user failed: %w", err)
	}
	return nil
}

func (r *pgxUserRepository) UpdateLastLogin(ctx context.Context, id int64, t time.Time) error {
	const query = `UPDATE public.users SET last_login_at = $2 WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id, t)
	if err != nil {
		return fmt.Errorf("update last_login_at failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxUserRepository) CompleteUpgrade(ctx context.Context, id int64, hash string) (bool, error) {
	const query = `
		UPDATE public.users
		SET password_hash = $2, legacy_password = NULL, credential_state = 'hashed'
		WHERE id = $1 AND credential_state = 'pending_upgrade'
	`

	ct, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return false, fmt.Errorf("complete credential upgrade failed: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgxUserRepository) ListPendingUpgrade(ctx context.Context) ([]*User, error) {
	rows, err := r.pool.Query(ctx, selectUser+"WHERE credential_state = 'pending_upgrade' ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list pending upgrades failed: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user failed: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
