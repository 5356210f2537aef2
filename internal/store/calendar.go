package store

import (
	"context"
	"time"

	"daybook/internal/domain"
)

type CalendarTx interface {
	ListMonth(ctx context.Context, year int, month time.Month) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
}
