package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"calibops-data/internal/service"

	"go.uber.org/zap"
)

// 固件上传 multipart 表单上限
const maxFirmwareUploadBytes = 256 << 20

// FirmwareHandler 固件库 API
type FirmwareHandler struct {
	firmwares service.FirmwareService
	updates   service.UpdateService
	logger    *zap.Logger
}

func NewFirmwareHandler(firmwares service.FirmwareService, updates service.UpdateService, logger *zap.Logger) *FirmwareHandler {
	return &FirmwareHandler{firmwares: firmwares, updates: updates, logger: logger}
}

// Upload POST /api/firmware — multipart 表单，file 字段为固件二进制
func (h *FirmwareHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFirmwareUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req := service.UploadFirmwareRequest{
		Name:        r.FormValue("name"),
		Version:     r.FormValue("version"),
		Type:        r.FormValue("type"),
		SubType:     r.FormValue("subType"),
		Description: r.FormValue("description"),
		CreatedDate: r.FormValue("created_date"),
	}
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		req.File = file
		req.FileName = header.Filename
	}

	fw, err := h.firmwares.Upload(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, fw.ToJSON())
}

// List GET /api/firmware
func (h *FirmwareHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.firmwares.List(r.Context(), service.ListFirmwaresRequest{
		Type:          q.Get("type"),
		SubType:       q.Get("subType"),
		Version:       q.Get("version"),
		Name:          q.Get("name"),
		MinUploadDate: q.Get("min_upload_date"),
		MaxUploadDate: q.Get("max_upload_date"),
		Sort:          q.Get("sort"),
		Page:          parseInt(q.Get("page"), 1),
		Limit:         parseInt(q.Get("limit"), 10),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	items := make([]map[string]any, 0, len(resp.Firmwares))
	for _, fw := range resp.Firmwares {
		items = append(items, fw.ToJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"firmwares":   items,
		"total":       resp.Total,
		"totalPages":  resp.TotalPages,
		"currentPage": resp.CurrentPage,
	})
}

// CheckForUpdates GET /api/firmware/check — 升级链计算
func (h *FirmwareHandler) CheckForUpdates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.updates.CheckForUpdates(r.Context(), service.CheckForUpdatesRequest{
		FirmwareType:   q.Get("firmware_type"),
		SubType:        q.Get("subType"),
		CurrentVersion: q.Get("current_version"),
		TargetVersion:  q.Get("target_version"),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Get GET /api/firmware/{id}
func (h *FirmwareHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	fw, err := h.firmwares.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fw.ToJSON())
}

// Download GET /api/firmware/download/{id} — 返回固件二进制流
func (h *FirmwareHandler) Download(w http.ResponseWriter, r *http.Request, id string) {
	fw, rc, err := h.firmwares.Download(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.DownloadFileName(fw)))
	if fw.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(fw.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("firmware download interrupted", zap.String("id", id), zap.Error(err))
	}
}

// Delete DELETE /api/firmware/{id}
func (h *FirmwareHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.firmwares.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "firmware deleted")
}
