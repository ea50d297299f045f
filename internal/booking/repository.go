package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create checks for overlaps and inserts atomically per (facility, date).
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	// ListBooked returns the held intervals for a facility and day, ordered by start.
	ListBooked(ctx context.Context, facilityID int64, date time.Time) ([]Interval, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
	Stats(ctx context.Context) ([]FacilityCount, error)
	Count(ctx context.Context) (int, error)
	// Update moves b in place, re-checking overlaps against every other booking.
	Update(ctx context.Context, b *Booking) error
	// Delete removes the booking. A non-zero ownerID restricts it to that owner.
	Delete(ctx context.Context, id, ownerID int64) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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

var bookingColumns = []string{
	"b.id", "b.facility_id", "f.name", "b.owner_id", "u.hogwarts_id",
	"b.booking_date", "b.start_time", "b.end_time", "b.created_at", "b.updated_at",
}

func (r *pgxRepository) selectBookings() squirrel.SelectBuilder {
	return r.psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.facilities f ON f.id = b.facility_id").
		Join("public.users u ON u.id = b.owner_id")
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b          Booking
		start, end pgtype.Time
	)
	if err := row.Scan(
		&b.ID, &b.FacilityID, &b.FacilityName, &b.OwnerID, &b.OwnerHogwartsID,
		&b.Date, &start, &end, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Slot = Interval{Start: ClockFromPgTime(start), End: ClockFromPgTime(end)}
	return &b, nil
}

// lockDay serialises writers touching the same facility and day until the
// surrounding transaction ends.
func lockDay(ctx context.Context, q querier, facilityID int64, date time.Time) error {
	key := fmt.Sprintf("booking:%d:%s", facilityID, date.Format(DateLayout))
	if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
		return fmt.Errorf("lock booking day failed: %w", err)
	}
	return nil
}

// lockRow holds booking id until the surrounding transaction ends.
func (r *pgxRepository) lockRow(ctx context.Context, q querier, id int64) error {
	query, args, err := r.psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lock booking query failed: %w", err)
	}

	var one int
	if err := q.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock booking failed: %w", err)
	}
	return nil
}

// hasOverlap reports whether any booking other than excludeID intersects slot:
// existing.start < new.end AND existing.end > new.start.
func (r *pgxRepository) hasOverlap(ctx context.Context, q querier, facilityID int64, date time.Time, slot Interval, excludeID int64) (bool, error) {
	sub := r.psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"facility_id": facilityID, "booking_date": date}).
		Where(squirrel.Lt{"start_time": slot.End.PgTime()}).
		Where(squirrel.Gt{"end_time": slot.Start.PgTime()})
	if excludeID != 0 {
		sub = sub.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := sub.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockDay(ctx, tx, b.FacilityID, b.Date); err != nil {
			return err
		}

		conflict, err := r.hasOverlap(ctx, tx, b.FacilityID, b.Date, b.Slot, 0)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotConflict
		}

		query, args, err := r.psql.Insert("public.bookings").
			Columns("facility_id", "owner_id", "booking_date", "start_time", "end_time").
			Values(b.FacilityID, b.OwnerID, b.Date, b.Slot.Start.PgTime(), b.Slot.End.PgTime()).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create booking query failed: %w", err)
		}
		return tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	})
	if err != nil {
		return mapWriteError(err, "create booking")
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	query, args, err := r.selectBookings().Where(squirrel.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) ListBooked(ctx context.Context, facilityID int64, date time.Time) ([]Interval, error) {
	query, args, err := r.psql.Select("start_time", "end_time").
		From("public.bookings").
		Where(squirrel.Eq{"facility_id": facilityID, "booking_date": date}).
		OrderBy("start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list booked query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list booked failed: %w", err)
	}
	defer rows.Close()

	var out []Interval
	for rows.Next() {
		var start, end pgtype.Time
		if err := rows.Scan(&start, &end); err != nil {
			return nil, fmt.Errorf("scan booked interval failed: %w", err)
		}
		out = append(out, Interval{Start: ClockFromPgTime(start), End: ClockFromPgTime(end)})
	}
	return out, rows.Err()
}

func (r *pgxRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*Booking, error) {
	return r.list(ctx, r.selectBookings().
		Where(squirrel.Eq{"b.owner_id": ownerID}).
		OrderBy("b.booking_date DESC", "b.start_time DESC", "b.id DESC"))
}

func (r *pgxRepository) ListAll(ctx context.Context) ([]*Booking, error) {
	return r.list(ctx, r.selectBookings().
		OrderBy("b.booking_date", "b.start_time", "f.name", "b.id"))
}

func (r *pgxRepository) list(ctx context.Context, sb squirrel.SelectBuilder) ([]*Booking, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *pgxRepository) Stats(ctx context.Context) ([]FacilityCount, error) {
	query, args, err := r.psql.Select("f.id", "f.name", "count(b.id) AS cnt").
		From("public.bookings b").
		Join("public.facilities f ON f.id = b.facility_id").
		GroupBy("f.id", "f.name").
		OrderBy("cnt DESC", "f.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booking stats query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("booking stats failed: %w", err)
	}
	defer rows.Close()

	var out []FacilityCount
	for rows.Next() {
		var fc FacilityCount
		if err := rows.Scan(&fc.FacilityID, &fc.FacilityName, &fc.Count); err != nil {
			return nil, fmt.Errorf("scan booking stats failed: %w", err)
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

func (r *pgxRepository) Count(ctx context.Context) (int, error) {
	query, args, err := r.psql.Select("count(*)").From("public.bookings").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count bookings query failed: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// a missing row is NotFound even when the target slot is taken
		if err := r.lockRow(ctx, tx, b.ID); err != nil {
			return err
		}
		if err := lockDay(ctx, tx, b.FacilityID, b.Date); err != nil {
			return err
		}

		conflict, err := r.hasOverlap(ctx, tx, b.FacilityID, b.Date, b.Slot, b.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotConflict
		}

		query, args, err := r.psql.Update("public.bookings").
			Set("facility_id", b.FacilityID).
			Set("booking_date", b.Date).
			Set("start_time", b.Slot.Start.PgTime()).
			Set("end_time", b.Slot.End.PgTime()).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": b.ID}).
			Suffix("RETURNING owner_id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build update booking query failed: %w", err)
		}

		if err := tx.QueryRow(ctx, query, args...).Scan(&b.OwnerID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return mapWriteError(err, "update booking")
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id, ownerID int64) error {
	del := r.psql.Delete("public.bookings").Where(squirrel.Eq{"id": id})
	if ownerID != 0 {
		del = del.Where(squirrel.Eq{"owner_id": ownerID})
	}

	query, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	// missing and not-owned are deliberately the same answer
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// mapWriteError turns constraint violations into domain errors. The exclusion
// constraint and unique index back up the in-transaction overlap check.
func mapWriteError(err error, op string) error {
	switch {
	case errors.Is(err, ErrSlotConflict):
		return ErrSlotConflict
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation, pgerrcode.UniqueViolation:
			return ErrSlotConflict
		case pgerrcode.ForeignKeyViolation:
			if pgErr.ConstraintName == "bookings_owner_id_fkey" {
				return ErrUserNotFound
			}
			return ErrFacilityNotFound
		case pgerrcode.CheckViolation:
			return ErrInvalidSlot
		}
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
