package handler

import (
	"net/http"

	"paradisian/internal/bookings/service"
	"paradisian/internal/bookings/validator"
	"paradisian/pkg/auth"
	apperrors "paradisian/pkg/errors"
	httputil "paradisian/pkg/http"
	"paradisian/pkg/logger"
	"paradisian/pkg/model"
	"paradisian/pkg/validation"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service   service.BookingService
	validator *validator.BookingValidator
	log       *logger.Logger
}

func NewBookingHandler(service service.BookingService, validator *validator.BookingValidator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:   service,
		validator: validator,
		log:       log,
	}
}

// Create books a room. Guests book for themselves; administrators may book
// on behalf of any user by naming user_id.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := auth.FromContext(r.Context())

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if req.UserID == "" {
		req.UserID = caller.UserID
	}
	if req.UserID != caller.UserID && !caller.IsAdmin() {
		h.writeError(w, "Create", apperrors.Forbidden("You can only book for yourself"))
		return
	}

	stay, err := h.validator.ValidateRequest(&req)
	if err != nil {
		h.writeError(w, "Create", validationError(err))
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), req.RoomID, req.UserID, stay, req.Guests())
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	if err := h.authorizeOwner(r, booking); err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetByConfirmationCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.FindByConfirmationCode(r.Context(), ps.ByName("code"))
	if err != nil {
		h.writeError(w, "GetByConfirmationCode", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByConfirmationCode", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	if err := h.authorizeOwner(r, booking); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := h.service.CancelBooking(r.Context(), id); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", auth.Authenticated(h.log, h.Create))
	router.GET("/api/v1/bookings", auth.AdminOnly(h.log, h.GetAll))
	router.GET("/api/v1/bookings/id/:id", auth.Authenticated(h.log, h.GetByID))
	router.DELETE("/api/v1/bookings/id/:id", auth.Authenticated(h.log, h.Cancel))
	router.GET("/api/v1/bookings/confirmation/:code", h.GetByConfirmationCode)
}

func (h *BookingHandler) authorizeOwner(r *http.Request, booking *model.Booking) error {
	caller, _ := auth.FromContext(r.Context())
	if caller.IsAdmin() || caller.UserID == booking.UserID {
		return nil
	}
	return apperrors.Forbidden("This booking belongs to another user")
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func validationError(err error) error {
	return apperrors.Validation("Booking validation failed", validation.DetailsOf(err))
}
