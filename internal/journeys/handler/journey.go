package handler

import (
	"encoding/json"
	"net/http"

	"tourdesk/internal/journeys/service"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type JourneyHandler struct {
	service service.JourneyService
	log     *logger.Logger
}

func NewJourneyHandler(service service.JourneyService, log *logger.Logger) *JourneyHandler {
	return &JourneyHandler{
		service: service,
		log:     log,
	}
}

type assignGuideRequest struct {
	GuideID string `json:"guide_id"`
	Notes   string `json:"notes,omitempty"`
}

type statusRequest struct {
	Status model.JourneyStatus `json:"status"`
}

func (h *JourneyHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if !role.CanManage() {
		h.writeError(w, "Create", apperrors.Forbidden("manager role required"))
		return
	}

	var journey model.Journey
	if err := json.NewDecoder(r.Body).Decode(&journey); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), &journey, actorID)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *JourneyHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	journey, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, journey); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *JourneyHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	journeys, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, journeys, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *JourneyHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	if !role.IsStaff() {
		h.writeError(w, "Update", apperrors.Forbidden("staff role required"))
		return
	}

	var patch model.JourneyPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("invalid request body"))
		return
	}

	journey, err := h.service.Update(r.Context(), ps.ByName("id"), &patch, actorID)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, journey); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *JourneyHandler) AssignGuide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "AssignGuide", err)
		return
	}
	if !role.IsStaff() {
		h.writeError(w, "AssignGuide", apperrors.Forbidden("staff role required"))
		return
	}

	var req assignGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "AssignGuide", apperrors.InvalidInput("invalid request body"))
		return
	}

	journey, err := h.service.AssignGuide(r.Context(), ps.ByName("id"), req.GuideID, req.Notes, actorID)
	if err != nil {
		h.writeError(w, "AssignGuide", err)
		return
	}

	if err := httputil.WriteSuccess(w, journey); err != nil {
		h.log.Error("failed to write success response", "handler", "AssignGuide", "error", err)
	}
}

func (h *JourneyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "UpdateStatus", apperrors.InvalidInput("invalid request body"))
		return
	}

	journey, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), req.Status, actorID, role)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, journey); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "error", err)
	}
}

func (h *JourneyHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	if !role.CanManage() {
		h.writeError(w, "Delete", apperrors.Forbidden("manager role required"))
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("id"), actorID); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteNoContent(w); err != nil {
		h.log.Error("failed to write response", "handler", "Delete", "error", err)
	}
}

func (h *JourneyHandler) Restore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Restore", err)
		return
	}
	if !role.CanManage() {
		h.writeError(w, "Restore", apperrors.Forbidden("manager role required"))
		return
	}

	journey, err := h.service.Restore(r.Context(), ps.ByName("id"), actorID)
	if err != nil {
		h.writeError(w, "Restore", err)
		return
	}

	if err := httputil.WriteSuccess(w, journey); err != nil {
		h.log.Error("failed to write success response", "handler", "Restore", "error", err)
	}
}

func (h *JourneyHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *JourneyHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/journeys", h.Create)
	router.GET("/journeys", h.GetAll)
	router.GET("/journeys/:id", h.GetByID)
	router.PATCH("/journeys/:id", h.Update)
	router.DELETE("/journeys/:id", h.Delete)
	router.POST("/journeys/:id/restore", h.Restore)
	router.PUT("/journeys/:id/guide", h.AssignGuide)
	router.PUT("/journeys/:id/status", h.UpdateStatus)
	router.GET("/stats/journeys", h.Stats)
}

func (h *JourneyHandler) writeError(w http.ResponseWriter, operation string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", operation, "error", writeErr)
	}
}
