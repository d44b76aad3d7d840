package reconciler

import (
	"net/http"

	"paradisian/pkg/auth"
	apperrors "paradisian/pkg/errors"
	httputil "paradisian/pkg/http"
	"paradisian/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Handler lets administrators trigger a pass without waiting for the ticker.
type Handler struct {
	reconciler *Reconciler
	log        *logger.Logger
}

func NewHandler(reconciler *Reconciler, log *logger.Logger) *Handler {
	return &Handler{reconciler: reconciler, log: log}
}

func (h *Handler) ReconcileAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	report, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		h.log.Error("Manual reconcile pass failed", "error", err)
		h.writeError(w, "ReconcileAll", apperrors.Internal("Reconcile pass failed", err))
		return
	}
	h.writeSuccess(w, "ReconcileAll", report)
}

func (h *Handler) ReconcileBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	report, err := h.reconciler.ReconcileBooking(r.Context(), id)
	if err != nil {
		h.log.Error("Manual booking reconcile failed", "booking_id", id, "error", err)
		h.writeError(w, "ReconcileBooking", apperrors.Internal("Reconcile failed", err))
		return
	}
	h.writeSuccess(w, "ReconcileBooking", report)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reconcile", auth.AdminOnly(h.log, h.ReconcileAll))
	router.POST("/api/v1/reconcile/bookings/:id", auth.AdminOnly(h.log, h.ReconcileBooking))
}

func (h *Handler) writeSuccess(w http.ResponseWriter, handler string, report ReconcileReport) {
	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
