package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"calibops-data/internal/service"

	"go.uber.org/zap"
)

// StandsHandler 台架档案 API
type StandsHandler struct {
	stands service.StandService
	logger *zap.Logger
}

func NewStandsHandler(stands service.StandService, logger *zap.Logger) *StandsHandler {
	return &StandsHandler{stands: stands, logger: logger}
}

// List GET /api/stands
func (h *StandsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.stands.List(r.Context(), service.ListStandsRequest{
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Page:   parseInt(q.Get("page"), 1),
		Limit:  parseInt(q.Get("limit"), 10),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	items := make([]map[string]any, 0, len(resp.Stands))
	for _, s := range resp.Stands {
		items = append(items, s.ToJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stands":      items,
		"totalStands": resp.Total,
		"totalPages":  resp.TotalPages,
		"currentPage": resp.CurrentPage,
	})
}

// Create POST /api/stands
func (h *StandsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateStandRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	stand, err := h.stands.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, stand.ToJSON())
}

// Get GET /api/stands/{id}
func (h *StandsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	stand, err := h.stands.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stand.ToJSON())
}

// GetByStandID GET /api/stands/by-stand-id/{standId}
func (h *StandsHandler) GetByStandID(w http.ResponseWriter, r *http.Request, standID string) {
	stand, err := h.stands.GetByStandID(r.Context(), standID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stand.ToJSON())
}

// Update PUT /api/stands/{id}
func (h *StandsHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var req service.UpdateStandRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	stand, err := h.stands.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stand.ToJSON())
}

// AddRepair POST /api/stands/{id}/repair
func (h *StandsHandler) AddRepair(w http.ResponseWriter, r *http.Request, id string) {
	var req service.RepairRecordRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	stand, err := h.stands.AddRepairRecord(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stand.ToJSON())
}

// Delete DELETE /api/stands/{id}
func (h *StandsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.stands.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "stand deleted")
}

// Export GET /api/stands/export — 全量导出为 Excel
func (h *StandsHandler) Export(w http.ResponseWriter, r *http.Request) {
	stands, err := h.stands.ExportAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	data, err := GenerateStandsExport(stands)
	if err != nil {
		h.logger.Error("stands excel generation failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "failed to generate export")
		return
	}
	fileName := fmt.Sprintf("stands_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
