package handler

import (
	"encoding/json"
	"net/http"

	"spadesk/internal/ledger/service"
	"spadesk/pkg/auth"
	apperrors "spadesk/pkg/errors"
	httputil "spadesk/pkg/http"
	"spadesk/pkg/logger"
	"spadesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type LedgerHandler struct {
	service service.LedgerService
	log     *logger.Logger
}

func NewLedgerHandler(service service.LedgerService, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: service,
		log:     log,
	}
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Deposit", apperrors.InvalidInput("Invalid request body"))
		return
	}

	record, err := h.service.Deposit(r.Context(), ps.ByName("id"), &req, auth.OperatorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "Deposit", err)
		return
	}

	if err := httputil.WriteCreated(w, record); err != nil {
		h.log.Error("failed to write created response", "handler", "Deposit", "operation", "WriteCreated", "error", err)
	}
}

func (h *LedgerHandler) ListDeposits(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	records, err := h.service.ListDeposits(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ListDeposits", err)
		return
	}

	if err := httputil.WriteSuccess(w, records); err != nil {
		h.log.Error("failed to write success response", "handler", "ListDeposits", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LedgerHandler) ListUsage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	records, err := h.service.ListUsage(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ListUsage", err)
		return
	}

	if err := httputil.WriteSuccess(w, records); err != nil {
		h.log.Error("failed to write success response", "handler", "ListUsage", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LedgerHandler) PurchaseVIP(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.VIPPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "PurchaseVIP", apperrors.InvalidInput("Invalid request body"))
		return
	}

	purchase, err := h.service.PurchaseVIP(r.Context(), ps.ByName("id"), &req, auth.OperatorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "PurchaseVIP", err)
		return
	}

	if err := httputil.WriteCreated(w, purchase); err != nil {
		h.log.Error("failed to write created response", "handler", "PurchaseVIP", "operation", "WriteCreated", "error", err)
	}
}

func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.Reconcile(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Reconcile", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Reconcile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LedgerHandler) VerifySignature(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	record, err := h.service.VerifyDepositSignature(r.Context(), ps.ByName("id"), auth.OperatorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "VerifySignature", err)
		return
	}

	if err := httputil.WriteSuccess(w, record); err != nil {
		h.log.Error("failed to write success response", "handler", "VerifySignature", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LedgerHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *LedgerHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/customers/id/:id/deposits", h.Deposit)
	router.GET("/api/v1/customers/id/:id/deposits", h.ListDeposits)
	router.GET("/api/v1/customers/id/:id/usage", h.ListUsage)
	router.POST("/api/v1/customers/id/:id/vip/purchase", h.PurchaseVIP)
	router.GET("/api/v1/customers/id/:id/reconcile", h.Reconcile)
	router.POST("/api/v1/deposits/id/:id/verify-signature", h.VerifySignature)
}
