package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"daybook/internal/domain"
)

type BookingRepository interface {
	ListMonth(ctx context.Context, year int, month time.Month) ([]domain.Booking, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Booking, error)
	Delete(ctx context.Context, accountID string, bookingID uuid.UUID) error

	// InCalendarTransaction runs fn in one transaction that serializes
	// against every other calendar transaction touching any of the given
	// months. All reads and writes of an admission sweep go through the
	// CalendarTx it is handed.
	InCalendarTransaction(ctx context.Context, months []domain.YearMonth, fn func(ctx context.Context, tx CalendarTx) error) error
}
