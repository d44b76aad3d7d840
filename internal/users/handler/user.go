package handler

import (
	"net/http"

	"paradisian/internal/users/service"
	"paradisian/pkg/auth"
	apperrors "paradisian/pkg/errors"
	httputil "paradisian/pkg/http"
	"paradisian/pkg/logger"
	"paradisian/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

// Register creates an account. Only an authenticated administrator may
// choose a role; everyone else is registered as a regular user.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Register", err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	if !caller.IsAdmin() {
		req.Role = ""
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Login", err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	users, err := h.service.GetAll(r.Context())
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteSuccess(w, users); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := auth.FromContext(r.Context())

	user, err := h.service.GetMyInfo(r.Context(), caller.Email)
	if err != nil {
		h.writeError(w, "GetMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMe", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if err := authorizeSelf(r, id); err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) GetBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if err := authorizeSelf(r, id); err != nil {
		h.writeError(w, "GetBookings", err)
		return
	}

	bookings, err := h.service.GetBookingHistory(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetBookings", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBookings", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, _ := auth.FromContext(r.Context())

	var update model.ProfileUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateProfile", err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), ps.ByName("id"), &update, caller.Email)
	if err != nil {
		h.writeError(w, "UpdateProfile", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateProfile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/register", h.Register)
	router.POST("/api/v1/auth/login", h.Login)

	router.GET("/api/v1/users", auth.AdminOnly(h.log, h.GetAll))
	router.GET("/api/v1/users/me", auth.Authenticated(h.log, h.GetMe))
	router.GET("/api/v1/users/id/:id", auth.Authenticated(h.log, h.GetByID))
	router.GET("/api/v1/users/id/:id/bookings", auth.Authenticated(h.log, h.GetBookings))
	router.PATCH("/api/v1/users/id/:id", auth.Authenticated(h.log, h.UpdateProfile))
	router.DELETE("/api/v1/users/id/:id", auth.AdminOnly(h.log, h.Delete))
}

func authorizeSelf(r *http.Request, userID string) error {
	caller, _ := auth.FromContext(r.Context())
	if caller.IsAdmin() || caller.UserID == userID {
		return nil
	}
	return apperrors.Forbidden("You can only access your own account")
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
