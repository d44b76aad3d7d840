package handler

import (
	"net/http"

	"paradisian/internal/rooms/service"
	"paradisian/pkg/auth"
	apperrors "paradisian/pkg/errors"
	httputil "paradisian/pkg/http"
	"paradisian/pkg/logger"
	"paradisian/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RoomHandler struct {
	service service.RoomService
	log     *logger.Logger
}

func NewRoomHandler(service service.RoomService, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		log:     log,
	}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	room, err := h.service.AddRoom(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, room); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.service.GetAllRooms(r.Context())
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.service.GetRoomByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetTypes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	types, err := h.service.GetRoomTypes(r.Context())
	if err != nil {
		h.writeError(w, "GetTypes", err)
		return
	}

	if err := httputil.WriteSuccess(w, types); err != nil {
		h.log.Error("failed to write success response", "handler", "GetTypes", "operation", "WriteSuccess", "error", err)
	}
}

// GetAvailable expects check_in, check_out (YYYY-MM-DD) and room_type query parameters.
func (h *RoomHandler) GetAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	checkIn, checkOut, roomType := q.Get("check_in"), q.Get("check_out"), q.Get("room_type")
	if checkIn == "" || checkOut == "" || roomType == "" {
		h.writeError(w, "GetAvailable", apperrors.InvalidInput("check_in, check_out and room_type are required"))
		return
	}

	stay, err := model.ParseStayRange(checkIn, checkOut)
	if err != nil {
		h.writeError(w, "GetAvailable", apperrors.InvalidInput(err.Error()))
		return
	}

	rooms, err := h.service.FindAvailableRooms(r.Context(), stay, roomType)
	if err != nil {
		h.writeError(w, "GetAvailable", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailable", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetUnbooked(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.service.ListFullyAvailableRooms(r.Context())
	if err != nil {
		h.writeError(w, "GetUnbooked", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "GetUnbooked", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.RoomUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	room, err := h.service.UpdateRoom(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteRoom(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/rooms", h.GetAll)
	router.GET("/api/v1/rooms/types", h.GetTypes)
	router.GET("/api/v1/rooms/available", h.GetAvailable)
	router.GET("/api/v1/rooms/unbooked", h.GetUnbooked)
	router.GET("/api/v1/rooms/id/:id", h.GetByID)

	router.POST("/api/v1/rooms", auth.AdminOnly(h.log, h.Create))
	router.PATCH("/api/v1/rooms/id/:id", auth.AdminOnly(h.log, h.Update))
	router.DELETE("/api/v1/rooms/id/:id", auth.AdminOnly(h.log, h.Delete))
}

func (h *RoomHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
