package bookings

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"daybook/internal/domain"
	"daybook/internal/identity"
	"daybook/internal/store"
)

type Service struct {
	repo  store.BookingRepository
	users identity.Reader
	now   func() time.Time
}

func NewService(repo store.BookingRepository, users identity.Reader) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

type CreateInput struct {
	AccountID string
	From      time.Time
	To        time.Time
}

// CreateBookings books every Seoul calendar day in [From, To) for one
// account. The whole request is admitted or rejected as a unit: every day
// is validated against the month's existing bookings before the first row
// is written, and the sweep and the writes share one calendar transaction.
func (s *Service) CreateBookings(ctx context.Context, in CreateInput) ([]domain.Booking, error) {
	if in.AccountID == "" {
		return nil, validationError("account_id is required")
	}

	days := domain.SplitRange(in.From, in.To)
	if len(days) == 0 {
		return nil, nil
	}

	nickname, err := s.users.Nickname(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(nickname) == "" {
		return nil, ErrMissingNickname
	}

	months := distinctMonths(days)

	var created []domain.Booking
	err = s.repo.InCalendarTransaction(ctx, months, func(ctx context.Context, tx store.CalendarTx) error {
		counts := make(map[domain.Day]int, len(days))
		owned := make(map[domain.Day]bool, len(days))
		for _, ym := range months {
			existing, err := tx.ListMonth(ctx, ym.Year, ym.Month)
			if err != nil {
				return err
			}
			for _, b := range existing {
				counts[b.Date]++
				if b.AccountID == in.AccountID {
					owned[b.Date] = true
				}
			}
		}

		accepted := make(map[domain.Day]bool, len(days))
		for _, day := range days {
			if owned[day] || accepted[day] {
				return &DuplicateBookingError{Date: day}
			}
			if counts[day] >= domain.MaxCapacityPerDay {
				return &CapacityExceededError{
					Date:         day,
					CurrentCount: counts[day],
					MaxCapacity:  domain.MaxCapacityPerDay,
				}
			}
			accepted[day] = true
		}

		created = make([]domain.Booking, 0, len(days))
		for _, day := range days {
			b, err := tx.CreateBooking(ctx, domain.Booking{
				AccountID: in.AccountID,
				Nickname:  nickname,
				Date:      day,
			})
			if err != nil {
				return err
			}
			created = append(created, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteBooking cancels one of the account's bookings unless its day has
// already passed. The delete itself is filtered on both id and account, so
// ownership is enforced by the store even if the lookup raced.
func (s *Service) DeleteBooking(ctx context.Context, accountID string, bookingID uuid.UUID) error {
	if accountID == "" {
		return validationError("account_id is required")
	}
	if bookingID == uuid.Nil {
		return validationError("booking_id is required")
	}

	rows, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return err
	}

	var target *domain.Booking
	for i := range rows {
		if rows[i].ID == bookingID {
			target = &rows[i]
			break
		}
	}
	if target == nil {
		return &BookingNotFoundError{BookingID: bookingID}
	}

	if target.Date < domain.DayOf(s.now()) {
		return &PastBookingDeletionError{BookingID: bookingID, Date: target.Date}
	}

	if err := s.repo.Delete(ctx, accountID, bookingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &BookingNotFoundError{BookingID: bookingID}
		}
		return err
	}
	return nil
}

func (s *Service) ListMonth(ctx context.Context, year int, month time.Month) ([]domain.Booking, error) {
	if year < 1 {
		return nil, validationError("year is required")
	}
	if month < time.January || month > time.December {
		return nil, validationError("month must be between 1 and 12")
	}
	return s.repo.ListMonth(ctx, year, month)
}

// ListUpcoming returns the account's bookings from today onward, ascending
// by date.
func (s *Service) ListUpcoming(ctx context.Context, accountID string) ([]domain.Booking, error) {
	if accountID == "" {
		return nil, validationError("account_id is required")
	}

	rows, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	today := domain.DayOf(s.now())
	out := make([]domain.Booking, 0, len(rows))
	for _, b := range rows {
		if b.Date >= today {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// distinctMonths preserves the chronological order of the day tokens.
func distinctMonths(days []domain.Day) []domain.YearMonth {
	seen := make(map[domain.YearMonth]struct{}, 2)
	out := make([]domain.YearMonth, 0, 2)
	for _, d := range days {
		ym := d.YearMonth()
		if _, ok := seen[ym]; ok {
			continue
		}
		seen[ym] = struct{}{}
		out = append(out, ym)
	}
	return out
}
