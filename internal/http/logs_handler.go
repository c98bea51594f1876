package httpapi

import (
	"net/http"

	"calibops-data/internal/service"

	"go.uber.org/zap"
)

// LogsHandler 遥测会话 API
type LogsHandler struct {
	ingest   service.IngestService
	sessions service.SessionService
	logger   *zap.Logger
}

func NewLogsHandler(ingest service.IngestService, sessions service.SessionService, logger *zap.Logger) *LogsHandler {
	return &LogsHandler{ingest: ingest, sessions: sessions, logger: logger}
}

// Create POST /api/logs — 台架软件上报入口
func (h *LogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLogRequest
	if err := readBodyJSON(r, 32<<20, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.ingest.Ingest(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"log":          result.Session.ToJSON(),
		"entriesCount": result.EntriesCount,
		"hasErrors":    result.HasErrors,
	})
}

// List GET /api/logs
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListSessionsRequest{
		OperatorName:         q.Get("operator_name"),
		SoftwareVersionStand: q.Get("software_version_stand"),
		HardwareVersionStand: q.Get("hardware_version_stand"),
		SerialNumberObJlink:  q.Get("serial_number_ob_jlink"),
		StandID:              q.Get("stand_id"),
		DeviceType:           q.Get("device_type"),
		FirmwareVersionMin:   q.Get("firmware_version_min"),
		FirmwareVersionMax:   q.Get("firmware_version_max"),
		StartDate:            q.Get("start_date"),
		EndDate:              q.Get("end_date"),
		Sort:                 q.Get("sort"),
		Page:                 parseInt(q.Get("page"), 1),
		Limit:                parseInt(q.Get("limit"), 10),
	}

	resp, err := h.sessions.List(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	logs := make([]map[string]any, 0, len(resp.Sessions))
	for _, v := range resp.Sessions {
		item := v.Session.ToJSON()
		item["entriesCount"] = v.EntriesCount
		item["hasErrors"] = v.HasErrors
		logs = append(logs, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":        logs,
		"totalLogs":   resp.Total,
		"totalPages":  resp.TotalPages,
		"currentPage": resp.CurrentPage,
	})
}

// Get GET /api/logs/{id}
func (h *LogsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	view, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	item := view.Session.ToJSON()
	item["entriesCount"] = view.EntriesCount
	item["hasErrors"] = view.HasErrors
	writeJSON(w, http.StatusOK, item)
}

// ListEntries GET /api/logs/{id}/calibration-entries
func (h *LogsHandler) ListEntries(w http.ResponseWriter, r *http.Request, id string) {
	q := r.URL.Query()
	resp, err := h.sessions.ListEntries(r.Context(), id, parseInt(q.Get("page"), 1), parseInt(q.Get("limit"), 20))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	entries := make([]map[string]any, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, e.ToJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":     entries,
		"total":       resp.Total,
		"totalPages":  resp.TotalPages,
		"currentPage": resp.CurrentPage,
	})
}

// Delete DELETE /api/logs/{id} — 级联删除会话及其子记录
func (h *LogsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "log deleted")
}
