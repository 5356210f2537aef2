package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"daybook/internal/domain"
	"daybook/internal/store"
)

type BookingRepo struct {
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) ListMonth(ctx context.Context, year int, month time.Month) ([]domain.Booking, error) {
	return listMonth(ctx, r.db, year, month)
}

func (r *BookingRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("account_id = ?", accountID).
		OrderExpr("booking_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) Delete(ctx context.Context, accountID string, bookingID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("id = ?", bookingID).
		Where("account_id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// InCalendarTransaction serializes concurrent admission sweeps by taking an
// advisory transaction lock per touched month. Locks are acquired in sorted
// key order so two sweeps over overlapping month sets cannot deadlock.
func (r *BookingRepo) InCalendarTransaction(ctx context.Context, months []domain.YearMonth, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	keys := make([]string, 0, len(months))
	for _, ym := range months {
		keys = append(keys, ym.String())
	}
	sort.Strings(keys)

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, key := range keys {
			if err := lockCalendarMonth(ctx, tx, key); err != nil {
				return err
			}
		}
		return fn(ctx, calendarTx{tx: tx})
	})
}

func lockCalendarMonth(ctx context.Context, tx bun.Tx, key string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx)
	return err
}

type calendarTx struct {
	tx bun.Tx
}

func (r calendarTx) ListMonth(ctx context.Context, year int, month time.Month) ([]domain.Booking, error) {
	return listMonth(ctx, r.tx, year, month)
}

func (r calendarTx) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	m := domain.Booking{
		ID:        b.ID,
		AccountID: b.AccountID,
		Nickname:  b.Nickname,
		Date:      b.Date,
		CreatedAt: b.CreatedAt,
	}

	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// bookings_one_per_account_day backs the duplicate rule the
			// admission sweep already enforces under the month lock.
			return domain.Booking{}, store.ErrConflict
		}
		return domain.Booking{}, err
	}
	return m, nil
}

func listMonth(ctx context.Context, db bun.IDB, year int, month time.Month) ([]domain.Booking, error) {
	start, next := domain.MonthBounds(year, month)
	var rows []domain.Booking
	err := db.NewSelect().
		Model(&rows).
		Where("booking_date >= ?", start).
		Where("booking_date < ?", next).
		OrderExpr("booking_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
