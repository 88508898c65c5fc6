package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"spadesk/internal/visits/service"
	"spadesk/pkg/auth"
	apperrors "spadesk/pkg/errors"
	httputil "spadesk/pkg/http"
	"spadesk/pkg/logger"
	"spadesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type VisitHandler struct {
	service service.VisitService
	loc     *time.Location
	log     *logger.Logger
}

func NewVisitHandler(service service.VisitService, loc *time.Location, log *logger.Logger) *VisitHandler {
	return &VisitHandler{
		service: service,
		loc:     loc,
		log:     log,
	}
}

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	visit, err := h.service.Create(r.Context(), &req, auth.OperatorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, visit); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *VisitHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	visit, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, visit); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VisitHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	visits, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, visits, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

// Search filters by date only when start or end is given.
func (h *VisitHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	var start, end *time.Time
	if query.Get("start") != "" || query.Get("end") != "" {
		s, e, err := httputil.ExtractDateRange(r, h.loc)
		if err != nil {
			h.writeError(w, "Search", err)
			return
		}
		start, end = &s, &e
	}

	visits, err := h.service.Search(r.Context(), start, end, query.Get("q"))
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, visits); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VisitHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.VisitUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	visit, err := h.service.Update(r.Context(), ps.ByName("id"), &updates, auth.OperatorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, visit); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id"), auth.OperatorFromContext(r.Context())); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VisitHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VisitHandler) ByCustomer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	visits, err := h.service.ByCustomer(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ByCustomer", err)
		return
	}

	if err := httputil.WriteSuccess(w, visits); err != nil {
		h.log.Error("failed to write success response", "handler", "ByCustomer", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VisitHandler) CustomerStats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	stats, err := h.service.CustomerStats(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "CustomerStats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "CustomerStats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VisitHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *VisitHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/visits", h.Create)
	router.GET("/api/v1/visits", h.GetAll)
	router.GET("/api/v1/visits/search", h.Search)
	router.GET("/api/v1/visits/stats", h.Stats)
	router.GET("/api/v1/visits/id/:id", h.GetByID)
	router.PATCH("/api/v1/visits/id/:id", h.Update)
	router.DELETE("/api/v1/visits/id/:id", h.Delete)
	router.GET("/api/v1/customers/id/:id/visits", h.ByCustomer)
	router.GET("/api/v1/customers/id/:id/visit-stats", h.CustomerStats)
}
