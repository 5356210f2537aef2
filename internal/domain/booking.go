package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MaxCapacityPerDay is the number of bookings a single calendar day can
// hold across all accounts.
const MaxCapacityPerDay = 8

// Booking is one reservation of one Seoul calendar day by one account. The
// nickname is snapshotted from the identity provider at creation time and
// never re-synced.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	AccountID string    `bun:"account_id,notnull"`
	Nickname  string    `bun:"nickname,notnull"`
	Date      Day       `bun:"booking_date,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}
