package httpapi

import (
	"net/http"

	"calibops-data/internal/service"

	"go.uber.org/zap"
)

// ErrorLogsHandler 错误记录 API
type ErrorLogsHandler struct {
	errLogs service.ErrorLogService
	logger  *zap.Logger
}

func NewErrorLogsHandler(errLogs service.ErrorLogService, logger *zap.Logger) *ErrorLogsHandler {
	return &ErrorLogsHandler{errLogs: errLogs, logger: logger}
}

// List GET /api/logs-errors
func (h *ErrorLogsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListErrorLogsRequest{
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

	resp, err := h.errLogs.List(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	items := make([]map[string]any, 0, len(resp.ErrorLogs))
	for _, e := range resp.ErrorLogs {
		items = append(items, e.ToJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"errors":      items,
		"totalErrors": resp.Total,
		"totalPages":  resp.TotalPages,
		"currentPage": resp.CurrentPage,
	})
}

// Unviewed GET /api/logs-errors/unviewed — 仪表盘红点
func (h *ErrorLogsHandler) Unviewed(w http.ResponseWriter, r *http.Request) {
	ok, err := h.errLogs.HasUnviewed(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasUnviewed": ok})
}

// MarkViewed PUT /api/logs-errors/mark-viewed
func (h *ErrorLogsHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	n, err := h.errLogs.MarkAllViewed(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "all errors marked as viewed",
		"modifiedCount": n,
	})
}
