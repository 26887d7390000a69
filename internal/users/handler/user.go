package handler

import (
	"encoding/json"
	"net/http"

	"tourdesk/internal/users/service"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

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

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if !role.IsStaff() {
		h.writeError(w, "Create", apperrors.Forbidden("staff role required"))
		return
	}

	var user model.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), &user, actorID)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	id := ps.ByName("id")
	if !role.IsStaff() && id != actorID {
		h.writeError(w, "GetByID", apperrors.Forbidden("cannot view another user"))
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	_, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	if !role.IsStaff() {
		h.writeError(w, "GetAll", apperrors.Forbidden("staff role required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	users, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, users, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	if !role.IsStaff() {
		h.writeError(w, "Update", apperrors.Forbidden("staff role required"))
		return
	}
	// Role changes are a manager decision.
	var patch model.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("invalid request body"))
		return
	}
	if patch.Role != nil && !role.CanManage() {
		h.writeError(w, "Update", apperrors.Forbidden("manager role required to change roles"))
		return
	}

	user, err := h.service.Update(r.Context(), ps.ByName("id"), &patch, actorID)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *UserHandler) Restore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Restore", err)
		return
	}
	if !role.CanManage() {
		h.writeError(w, "Restore", apperrors.Forbidden("manager role required"))
		return
	}

	user, err := h.service.Restore(r.Context(), ps.ByName("id"), actorID)
	if err != nil {
		h.writeError(w, "Restore", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Restore", "error", err)
	}
}

func (h *UserHandler) RecordFailedLogin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := h.service.RecordFailedLogin(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "RecordFailedLogin", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "RecordFailedLogin", "error", err)
	}
}

func (h *UserHandler) RecordLogin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := h.service.RecordLogin(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "RecordLogin", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "RecordLogin", "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/users", h.Create)
	router.GET("/users", h.GetAll)
	router.GET("/users/:id", h.GetByID)
	router.PATCH("/users/:id", h.Update)
	router.DELETE("/users/:id", h.Delete)
	router.POST("/users/:id/restore", h.Restore)
	router.POST("/users/:id/login-failure", h.RecordFailedLogin)
	router.POST("/users/:id/login-success", h.RecordLogin)
}

func (h *UserHandler) writeError(w http.ResponseWriter, operation string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", operation, "error", writeErr)
	}
}
