package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"daybook/internal/domain"
	"daybook/internal/identity"
	"daybook/internal/service/bookings"
)

type bookingService interface {
	CreateBookings(ctx context.Context, in bookings.CreateInput) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, accountID string, bookingID uuid.UUID) error
	ListMonth(ctx context.Context, year int, month time.Month) ([]domain.Booking, error)
	ListUpcoming(ctx context.Context, accountID string) ([]domain.Booking, error)
}

type BookingHandler struct {
	svc bookingService
	log *slog.Logger
}

func NewBookingHandler(svc bookingService, log *slog.Logger) *BookingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingHandler{
		svc: svc,
		log: log.With(slog.String("component", "web.bookings")),
	}
}

type bookingJSON struct {
	BookingID string `json:"bookingId"`
	Date      int64  `json:"date"`
	Nickname  string `json:"nickname"`
}

func toBookingJSON(b domain.Booking) bookingJSON {
	return bookingJSON{
		BookingID: b.ID.String(),
		Date:      b.Date.Unix(),
		Nickname:  b.Nickname,
	}
}

type bookingListJSON struct {
	Bookings []bookingJSON `json:"bookings"`
}

func toBookingListJSON(rows []domain.Booking) bookingListJSON {
	out := make([]bookingJSON, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBookingJSON(b))
	}
	return bookingListJSON{Bookings: out}
}

// GET /api/v1/bookings?year=&month=
func (h *BookingHandler) ListMonth(c *gin.Context) {
	log := h.log.With(slog.String("handler", "ListMonth"))

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "year must be an integer"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "month must be an integer"})
		return
	}

	rows, err := h.svc.ListMonth(c.Request.Context(), year, time.Month(month))
	if err != nil {
		h.writeError(c, log, err)
		return
	}

	log.Debug("month listed", slog.Int("year", year), slog.Int("month", month), slog.Int("count", len(rows)))
	c.JSON(http.StatusOK, toBookingListJSON(rows))
}

// POST /api/v1/booking
func (h *BookingHandler) Create(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Create"))

	var req struct {
		From *int64 `json:"from"`
		To   *int64 `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "request body must be JSON with from and to"})
		return
	}
	if req.From == nil || req.To == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "from and to are required"})
		return
	}

	acct := accountID(c)
	created, err := h.svc.CreateBookings(c.Request.Context(), bookings.CreateInput{
		AccountID: acct,
		From:      time.Unix(*req.From, 0),
		To:        time.Unix(*req.To, 0),
	})
	if err != nil {
		h.writeError(c, log, err)
		return
	}

	if len(created) > 0 {
		c.Header("Location", c.Request.URL.Path+"/"+created[0].ID.String())
	}
	log.Info("bookings created", slog.String("account_id", acct), slog.Int("count", len(created)))
	c.JSON(http.StatusCreated, toBookingListJSON(created))
}

// DELETE /api/v1/booking/:id
func (h *BookingHandler) Delete(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Delete"))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "booking id must be a UUID"})
		return
	}

	acct := accountID(c)
	if err := h.svc.DeleteBooking(c.Request.Context(), acct, id); err != nil {
		h.writeError(c, log, err)
		return
	}

	log.Info("booking deleted", slog.String("account_id", acct), slog.String("booking_id", id.String()))
	c.Status(http.StatusNoContent)
}

// GET /api/v1/bookings/me
func (h *BookingHandler) ListMine(c *gin.Context) {
	log := h.log.With(slog.String("handler", "ListMine"))

	acct := accountID(c)
	rows, err := h.svc.ListUpcoming(c.Request.Context(), acct)
	if err != nil {
		h.writeError(c, log, err)
		return
	}

	log.Debug("upcoming listed", slog.String("account_id", acct), slog.Int("count", len(rows)))
	c.JSON(http.StatusOK, toBookingListJSON(rows))
}

func (h *BookingHandler) writeError(c *gin.Context, log *slog.Logger, err error) {
	var dupErr *bookings.DuplicateBookingError
	if errors.As(err, &dupErr) {
		log.Info("duplicate booking rejected", slog.String("date", dupErr.Date.String()))
		c.JSON(http.StatusConflict, gin.H{"message": "a booking already exists on " + dupErr.Date.String()})
		return
	}
	var capErr *bookings.CapacityExceededError
	if errors.As(err, &capErr) {
		log.Info("capacity exceeded",
			slog.String("date", capErr.Date.String()),
			slog.Int("current", capErr.CurrentCount),
			slog.Int("max", capErr.MaxCapacity),
		)
		c.JSON(http.StatusConflict, gin.H{
			"message": capErr.Date.String() + " is fully booked",
			"current": capErr.CurrentCount,
			"max":     capErr.MaxCapacity,
		})
		return
	}
	var pastErr *bookings.PastBookingDeletionError
	if errors.As(err, &pastErr) {
		log.Info("past deletion rejected", slog.String("booking_id", pastErr.BookingID.String()), slog.String("date", pastErr.Date.String()))
		c.JSON(http.StatusBadRequest, gin.H{"message": "past bookings cannot be cancelled"})
		return
	}
	var nfErr *bookings.BookingNotFoundError
	if errors.As(err, &nfErr) {
		log.Info("booking not found", slog.String("booking_id", nfErr.BookingID.String()))
		c.JSON(http.StatusNotFound, gin.H{"message": "booking not found"})
		return
	}
	var vErr *bookings.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", slog.Any("err", err))
		c.JSON(http.StatusBadRequest, gin.H{"message": vErr.Error()})
		return
	}
	if errors.Is(err, identity.ErrNoSession) {
		log.Info("no provider session")
		c.JSON(http.StatusUnauthorized, gin.H{"message": "login required"})
		return
	}
	log.Error("request failed", slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
}
