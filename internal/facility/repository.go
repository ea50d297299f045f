package facility

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	List(ctx context.Context) ([]*Facility, error)
	GetByID(ctx context.Context, id int64) (*Facility, error)
	GetByName(ctx context.Context, name string) (*Facility, error)
	Create(ctx context.Context, f *Facility) error
	// Ensure inserts name if missing and returns the stored row either way.
	Ensure(ctx context.Context, name string) (*Facility, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *pgxRepository) List(ctx context.Context) ([]*Facility, error) {
	query, args, err := r.psql.Select("id", "name", "created_at").
		From("public.facilities").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list facilities query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list facilities failed: %w", err)
	}
	defer rows.Close()

	var out []*Facility
	for rows.Next() {
		var f Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan facility failed: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Facility, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetByName(ctx context.Context, name string) (*Facility, error) {
	return r.getOne(ctx, squirrel.Expr("lower(name) = lower(?)", name))
}

func (r *pgxRepository) getOne(ctx context.Context, pred squirrel.Sqlizer) (*Facility, error) {
	query, args, err := r.psql.Select("id", "name", "created_at").
		From("public.facilities").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get facility query failed: %w", err)
	}

	var f Facility
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get facility failed: %w", err)
	}
	return &f, nil
}

func (r *pgxRepository) Create(ctx context.Context, f *Facility) error {
	query, args, err := r.psql.Insert("public.facilities").
		Columns("name").
		Values(f.Name).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create facility query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&f.ID, &f.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrNameTaken
		}
		return fmt.Errorf("create facility failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Ensure(ctx context.Context, name string) (*Facility, error) {
	// the no-op update makes RETURNING yield the existing row on conflict
	query, args, err := r.psql.Insert("public.facilities").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, name, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ensure facility query failed: %w", err)
	}

	var f Facility
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("ensure facility failed: %w", err)
	}
	return &f, nil
}
