package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"spadesk/internal/reports/service"
	apperrors "spadesk/pkg/errors"
	httputil "spadesk/pkg/http"
	"spadesk/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type ReportHandler struct {
	service service.ReportService
	loc     *time.Location
	log     *logger.Logger
}

func NewReportHandler(service service.ReportService, loc *time.Location, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		loc:     loc,
		log:     log,
	}
}

func (h *ReportHandler) Revenue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r, h.loc)
	if err != nil {
		h.writeError(w, "Revenue", err)
		return
	}

	report, err := h.service.Revenue(r.Context(), start, end)
	if err != nil {
		h.writeError(w, "Revenue", err)
		return
	}
	h.writeSuccess(w, "Revenue", report)
}

func (h *ReportHandler) Ranking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r, h.loc)
	if err != nil {
		h.writeError(w, "Ranking", err)
		return
	}
	limit, err := rankingLimit(r)
	if err != nil {
		h.writeError(w, "Ranking", err)
		return
	}

	ranking, err := h.service.Ranking(r.Context(), start, end, limit)
	if err != nil {
		h.writeError(w, "Ranking", err)
		return
	}
	h.writeSuccess(w, "Ranking", ranking)
}

func (h *ReportHandler) Services(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r, h.loc)
	if err != nil {
		h.writeError(w, "Services", err)
		return
	}

	services, err := h.service.Services(r.Context(), start, end)
	if err != nil {
		h.writeError(w, "Services", err)
		return
	}
	h.writeSuccess(w, "Services", services)
}

func (h *ReportHandler) Membership(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	dist, err := h.service.Membership(r.Context())
	if err != nil {
		h.writeError(w, "Membership", err)
		return
	}
	h.writeSuccess(w, "Membership", dist)
}

func (h *ReportHandler) Full(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r, h.loc)
	if err != nil {
		h.writeError(w, "Full", err)
		return
	}
	limit, err := rankingLimit(r)
	if err != nil {
		h.writeError(w, "Full", err)
		return
	}

	report, err := h.service.Full(r.Context(), start, end, limit)
	if err != nil {
		h.writeError(w, "Full", err)
		return
	}
	h.writeSuccess(w, "Full", report)
}

func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r, h.loc)
	if err != nil {
		h.writeError(w, "Export", err)
		return
	}

	export, err := h.service.Export(r.Context(), ps.ByName("type"), start, end)
	if err != nil {
		h.writeError(w, "Export", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Data); err != nil {
		h.log.Error("failed to write csv response", "handler", "Export", "operation", "Write", "error", err)
	}
}

func (h *ReportHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReportHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReportHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/reports/revenue", h.Revenue)
	router.GET("/api/v1/reports/ranking", h.Ranking)
	router.GET("/api/v1/reports/services", h.Services)
	router.GET("/api/v1/reports/membership", h.Membership)
	router.GET("/api/v1/reports/full", h.Full)
	router.GET("/api/v1/reports/export/:type", h.Export)
}

func rankingLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid limit parameter: " + s)
	}
	return limit, nil
}
