package handler

import (
	"encoding/json"
	"net/http"

	"spadesk/internal/pricing"
	apperrors "spadesk/pkg/errors"
	httputil "spadesk/pkg/http"
	"spadesk/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type PricingHandler struct {
	quoter *pricing.Quoter
	log    *logger.Logger
}

func NewPricingHandler(quoter *pricing.Quoter, log *logger.Logger) *PricingHandler {
	return &PricingHandler{
		quoter: quoter,
		log:    log,
	}
}

type quoteResponse struct {
	pricing.Quote
	CustomerName      string `json:"customer_name"`
	ServiceName       string `json:"service_name"`
	AdditionalService string `json:"additional_service,omitempty"`
}

func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req pricing.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Quote", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if req.CustomerID == "" || req.ServiceID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("customer_id and service_id are required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Quote", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	priced, err := h.quoter.Price(r.Context(), req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Quote", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	resp := quoteResponse{
		Quote:        priced.Quote,
		CustomerName: priced.Customer.Name,
		ServiceName:  priced.Service.Name,
	}
	if priced.Addon != nil {
		resp.AdditionalService = priced.Addon.Name
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Quote", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PricingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/pricing/quote", h.Quote)
}
