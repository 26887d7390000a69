package handler

import (
	"encoding/json"
	"net/http"

	"tourdesk/internal/bookings/service"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type statusRequest struct {
	Status model.BookingStatus `json:"status"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var booking model.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), &booking, actorID, role)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"), actorID, role)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

// GetByCustomer lists a customer's bookings. Customers may only list
// their own; staff may list anyone's.
func (h *BookingHandler) GetByCustomer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "GetByCustomer", err)
		return
	}

	customerID := ps.ByName("id")
	if !role.IsStaff() && customerID != actorID {
		h.writeError(w, "GetByCustomer", apperrors.Forbidden("cannot list another customer's bookings"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetByCustomer", err)
		return
	}

	bookings, total, err := h.service.GetByCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		h.writeError(w, "GetByCustomer", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByCustomer", "error", err)
	}
}

// Update dispatches on the caller's role: staff get the full patch
// surface, customers the restricted one.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if role.IsStaff() {
		var patch model.BookingPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			h.writeError(w, "Update", apperrors.InvalidInput("invalid request body"))
			return
		}

		booking, err := h.service.Update(r.Context(), ps.ByName("id"), &patch, actorID)
		if err != nil {
			h.writeError(w, "Update", err)
			return
		}
		if err := httputil.WriteSuccess(w, booking); err != nil {
			h.log.Error("failed to write success response", "handler", "Update", "error", err)
		}
		return
	}

	var patch model.BookingCustomerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("invalid request body"))
		return
	}

	booking, err := h.service.UpdateMine(r.Context(), ps.ByName("id"), &patch, actorID)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), req.Status, actorID, role)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"), actorID, role)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *BookingHandler) Restore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Restore", err)
		return
	}
	if !role.CanManage() {
		h.writeError(w, "Restore", apperrors.Forbidden("manager role required"))
		return
	}

	booking, err := h.service.Restore(r.Context(), ps.ByName("id"), actorID)
	if err != nil {
		h.writeError(w, "Restore", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Restore", "error", err)
	}
}

func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	_, role, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}
	if !role.IsStaff() {
		h.writeError(w, "Stats", apperrors.Forbidden("staff role required"))
		return
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/bookings", h.Create)
	router.GET("/bookings", h.GetAll)
	router.GET("/bookings/:id", h.GetByID)
	router.PATCH("/bookings/:id", h.Update)
	router.PUT("/bookings/:id/status", h.UpdateStatus)
	router.POST("/bookings/:id/cancel", h.Cancel)
	router.DELETE("/bookings/:id", h.Delete)
	router.POST("/bookings/:id/restore", h.Restore)
	router.GET("/customers/:id/bookings", h.GetByCustomer)
	router.GET("/stats/bookings", h.Stats)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, operation string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", operation, "error", writeErr)
	}
}
