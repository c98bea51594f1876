package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterLogRoutes 遥测会话路由
func (r *Router) RegisterLogRoutes(h *LogsHandler) {
	r.Handle("/api/logs", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /api/logs/{id} 与 /api/logs/{id}/calibration-entries
	r.Handle("/api/logs/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/logs/")
		if rest == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if id, ok := strings.CutSuffix(rest, "/calibration-entries"); ok {
			if req.Method != http.MethodGet || id == "" || strings.Contains(id, "/") {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.ListEntries(w, req, id)
			return
		}
		if strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodGet:
			h.Get(w, req, rest)
		case http.MethodDelete:
			h.Delete(w, req, rest)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterErrorLogRoutes 错误记录路由
func (r *Router) RegisterErrorLogRoutes(h *ErrorLogsHandler) {
	r.Handle("/api/logs-errors", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.List(w, req)
	})
	r.Handle("/api/logs-errors/unviewed", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Unviewed(w, req)
	})
	r.Handle("/api/logs-errors/mark-viewed", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.MarkViewed(w, req)
	})
}

// RegisterLookupRoutes 自动补全字典路由
func (r *Router) RegisterLookupRoutes(h *LookupHandler) {
	r.Handle("/api/operators", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Operators(w, req)
	})
	r.Handle("/api/stand-ids", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.StandIDs(w, req)
	})
}

// RegisterStandRoutes 台架档案路由
func (r *Router) RegisterStandRoutes(h *StandsHandler) {
	r.Handle("/api/stands", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/stands/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	})
	r.Handle("/api/stands/by-stand-id/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		standID := strings.TrimPrefix(req.URL.Path, "/api/stands/by-stand-id/")
		if standID == "" || strings.Contains(standID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetByStandID(w, req, standID)
	})

	// /api/stands/{id} 与 /api/stands/{id}/repair
	r.Handle("/api/stands/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/stands/")
		if rest == "" || strings.HasPrefix(rest, "by-stand-id/") || rest == "export" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if id, ok := strings.CutSuffix(rest, "/repair"); ok {
			if req.Method != http.MethodPost || id == "" || strings.Contains(id, "/") {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.AddRepair(w, req, id)
			return
		}
		if strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodGet:
			h.Get(w, req, rest)
		case http.MethodPut:
			h.Update(w, req, rest)
		case http.MethodDelete:
			h.Delete(w, req, rest)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterFirmwareRoutes 固件库路由
func (r *Router) RegisterFirmwareRoutes(h *FirmwareHandler) {
	r.Handle("/api/firmware", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Upload(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/firmware/check", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.CheckForUpdates(w, req)
	})
	r.Handle("/api/firmware/download/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, "/api/firmware/download/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Download(w, req, id)
	})
	r.Handle("/api/firmware/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/firmware/")
		if rest == "" || rest == "check" || strings.HasPrefix(rest, "download/") || strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodGet:
			h.Get(w, req, rest)
		case http.MethodDelete:
			h.Delete(w, req, rest)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
