package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/cinepass/booking-api/internal/model"
	"github.com/cinepass/booking-api/internal/repository"
	"github.com/cinepass/booking-api/internal/service"
)

// BookingHandler exposes the booking flow.  All endpoints require an
// authenticated user; the admin listing additionally requires the
// admin role (enforced in the router).
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	if bookings == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings}
}

type createBookingReq struct {
	ShowID        uint64             `json:"show_id"`
	Seats         []model.BookedSeat `json:"seats"`
	PaymentMethod string             `json:"payment_method"`
}

// Create handles POST /v1/bookings.  Seats are reserved and the
// booking starts pending payment.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.ShowID == 0 {
		return fail(c, http.StatusBadRequest, "show_id is required")
	}
	if len(req.Seats) == 0 {
		return fail(c, http.StatusBadRequest, "at least one seat is required")
	}
	for _, s := range req.Seats {
		if strings.TrimSpace(s.Label) == "" || strings.TrimSpace(s.Row) == "" {
			return fail(c, http.StatusBadRequest, "every seat needs a seat_label and a row")
		}
	}
	switch req.PaymentMethod {
	case "", model.PayStripe, model.PayPaypal, model.PayCash:
	default:
		return fail(c, http.StatusBadRequest, "payment_method must be stripe, paypal or cash")
	}

	detail, err := h.Bookings.CreateBooking(c.Request().Context(), userID, req.ShowID, req.Seats, req.PaymentMethod)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusCreated, detail)
}

// paymentIntentPayload carries the gateway's client confirmation
// token alongside the booking.
type paymentIntentPayload struct {
	ClientSecret string               `json:"client_secret"`
	Booking      *model.BookingDetail `json:"booking"`
}

// CreatePaymentIntent handles POST /v1/bookings/:bookingId/payment-intent.
func (h *BookingHandler) CreatePaymentIntent(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	bookingID, valid := pathID(c, "bookingId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	secret, detail, err := h.Bookings.CreatePaymentIntent(c.Request().Context(), bookingID)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, paymentIntentPayload{ClientSecret: secret, Booking: detail})
}

// ConfirmPayment handles POST /v1/bookings/:bookingId/confirm.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	bookingID, valid := pathID(c, "bookingId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	detail, err := h.Bookings.ConfirmPayment(c.Request().Context(), bookingID)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, detail)
}

// MyBookings handles GET /v1/bookings/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	bookings, err := h.Bookings.UserBookings(c.Request().Context(), userID)
	if err != nil {
		return failErr(c, err)
	}
	return okList(c, bookings, len(bookings))
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	detail, err := h.Bookings.BookingByID(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, detail)
}

// Cancel handles PUT /v1/bookings/:id/cancel.  Only the owner may
// cancel; a booking someone else owns reads as not found.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	booking, err := h.Bookings.CancelBooking(c.Request().Context(), id, userID)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, booking)
}

// Ticket handles GET /v1/bookings/:id/ticket.  It renders the booking
// reference as a QR PNG for scanning at the door.  Only confirmed
// bookings have a ticket.
func (h *BookingHandler) Ticket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	detail, err := h.Bookings.BookingByID(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	if detail.UserID != userID {
		return fail(c, http.StatusNotFound, repository.ErrBookingNotFound.Error())
	}
	if detail.Status != model.BookingConfirmed && detail.Status != model.BookingCompleted {
		return fail(c, http.StatusConflict, "ticket is only available for confirmed bookings")
	}
	png, err := qrcode.Encode(detail.Reference, qrcode.Medium, 256)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "render ticket failed")
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// All handles GET /v1/admin/bookings with optional status and
// payment_status query parameters.
func (h *BookingHandler) All(c echo.Context) error {
	bookings, err := h.Bookings.AllBookings(c.Request().Context(), repository.BookingFilter{
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
	})
	if err != nil {
		return failErr(c, err)
	}
	return okList(c, bookings, len(bookings))
}
