package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"spadesk/internal/bookings/service"
	"spadesk/pkg/auth"
	apperrors "spadesk/pkg/errors"
	httputil "spadesk/pkg/http"
	"spadesk/pkg/logger"
	"spadesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	loc     *time.Location
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, loc *time.Location, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		loc:     loc,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), &req, auth.OperatorFromContext(r.Context()))
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

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
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

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r, h.loc)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	bookings, err := h.service.SearchByDate(r.Context(), start, end)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Today(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.Today(r.Context())
	if err != nil {
		h.writeError(w, "Today", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "Today", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) ChangeStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var change model.StatusChange
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		h.writeError(w, "ChangeStatus", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.ChangeStatus(r.Context(), ps.ByName("id"), &change)
	if err != nil {
		h.writeError(w, "ChangeStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "ChangeStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var payment model.PaymentConfirmation
	if err := json.NewDecoder(r.Body).Decode(&payment); err != nil {
		h.writeError(w, "ConfirmPayment", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.ConfirmPayment(r.Context(), ps.ByName("id"), &payment)
	if err != nil {
		h.writeError(w, "ConfirmPayment", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "ConfirmPayment", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) SpawnVisit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	visit, err := h.service.SpawnVisit(r.Context(), ps.ByName("id"), auth.OperatorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "SpawnVisit", err)
		return
	}

	if err := httputil.WriteCreated(w, visit); err != nil {
		h.log.Error("failed to write created response", "handler", "SpawnVisit", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/search", h.Search)
	router.GET("/api/v1/bookings/today", h.Today)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
	router.POST("/api/v1/bookings/id/:id/status", h.ChangeStatus)
	router.POST("/api/v1/bookings/id/:id/confirm-payment", h.ConfirmPayment)
	router.POST("/api/v1/bookings/id/:id/visit", h.SpawnVisit)
}
