package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"spadesk/internal/customers/service"
	"spadesk/pkg/auth"
	apperrors "spadesk/pkg/errors"
	httputil "spadesk/pkg/http"
	"spadesk/pkg/logger"
	"spadesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CustomerHandler struct {
	service service.CustomerService
	log     *logger.Logger
}

func NewCustomerHandler(service service.CustomerService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		log:     log,
	}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var customer model.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), &customer); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, customer); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customer, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, customer); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CustomerHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	customers, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, customers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		var err error
		if limit, err = strconv.Atoi(s); err != nil {
			h.writeError(w, "Search", apperrors.InvalidInput("invalid limit parameter: "+s))
			return
		}
	}

	customers, err := h.service.Search(r.Context(), query.Get("q"), limit)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, customers); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.CustomerUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CustomerHandler) ApproveVIP(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	operator := auth.OperatorFromContext(r.Context())

	customer, err := h.service.ApproveVIP(r.Context(), ps.ByName("id"), operator)
	if err != nil {
		h.writeError(w, "ApproveVIP", err)
		return
	}

	if err := httputil.WriteSuccess(w, customer); err != nil {
		h.log.Error("failed to write success response", "handler", "ApproveVIP", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CustomerHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CustomerHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/customers", h.Create)
	router.GET("/api/v1/customers", h.GetAll)
	router.GET("/api/v1/customers/search", h.Search)
	router.GET("/api/v1/customers/id/:id", h.GetByID)
	router.PATCH("/api/v1/customers/id/:id", h.Update)
	router.DELETE("/api/v1/customers/id/:id", h.Delete)
	router.POST("/api/v1/customers/id/:id/vip/approve", h.ApproveVIP)
}
