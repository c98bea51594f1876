package httpapi

import (
	"net/http"

	"calibops-data/internal/service"

	"go.uber.org/zap"
)

// LookupHandler 自动补全字典 API
type LookupHandler struct {
	lookups service.LookupService
	logger  *zap.Logger
}

func NewLookupHandler(lookups service.LookupService, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{lookups: lookups, logger: logger}
}

// Operators GET /api/operators
func (h *LookupHandler) Operators(w http.ResponseWriter, r *http.Request) {
	names, err := h.lookups.ListOperatorNames(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// StandIDs GET /api/stand-ids
func (h *LookupHandler) StandIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.lookups.ListStandIDs(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}
