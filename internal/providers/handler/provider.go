package handler

import (
	"encoding/json"
	"net/http"

	"tourdesk/internal/providers/service"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ProviderHandler struct {
	service service.ProviderService
	log     *logger.Logger
}

func NewProviderHandler(service service.ProviderService, log *logger.Logger) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		log:     log,
	}
}

func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if !role.IsStaff() {
		h.writeError(w, "Create", apperrors.Forbidden("staff role required"))
		return
	}

	var provider model.Provider
	if err := json.NewDecoder(r.Body).Decode(&provider); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), &provider, actorID)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ProviderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	provider, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, provider); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *ProviderHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	providers, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, providers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	if !role.IsStaff() {
		h.writeError(w, "Update", apperrors.Forbidden("staff role required"))
		return
	}

	var patch model.ProviderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("invalid request body"))
		return
	}

	updated, err := h.service.Update(r.Context(), ps.ByName("id"), &patch, actorID)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *ProviderHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *ProviderHandler) Restore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Restore", err)
		return
	}
	if !role.CanManage() {
		h.writeError(w, "Restore", apperrors.Forbidden("manager role required"))
		return
	}

	restored, err := h.service.Restore(r.Context(), ps.ByName("id"), actorID)
	if err != nil {
		h.writeError(w, "Restore", err)
		return
	}

	if err := httputil.WriteSuccess(w, restored); err != nil {
		h.log.Error("failed to write success response", "handler", "Restore", "error", err)
	}
}

func (h *ProviderHandler) AddRating(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, _, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "AddRating", err)
		return
	}

	var body struct {
		Value int `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "AddRating", apperrors.InvalidInput("invalid request body"))
		return
	}

	rated, err := h.service.AddRating(r.Context(), ps.ByName("id"), body.Value, actorID)
	if err != nil {
		h.writeError(w, "AddRating", err)
		return
	}

	if err := httputil.WriteSuccess(w, rated); err != nil {
		h.log.Error("failed to write success response", "handler", "AddRating", "error", err)
	}
}

func (h *ProviderHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *ProviderHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *ProviderHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/providers", h.Create)
	router.GET("/providers", h.GetAll)
	router.GET("/providers/:id", h.GetByID)
	router.PATCH("/providers/:id", h.Update)
	router.DELETE("/providers/:id", h.Delete)
	router.POST("/providers/:id/restore", h.Restore)
	router.POST("/providers/:id/ratings", h.AddRating)
	router.GET("/stats/providers", h.Stats)
}
