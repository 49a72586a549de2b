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

// RegisterLimitRoutes 注册限值管理路由
func (r *Router) RegisterLimitRoutes(h *LimitsHandler) {
	r.Handle("/ehs/api/v1/exposure-limits", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.GetLimits(w, req)
		case http.MethodPut, http.MethodPost:
			h.UpsertLimit(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterExposureRoutes 注册暴露记录路由
func (r *Router) RegisterExposureRoutes(h *ExposureHandler) {
	r.Handle("/ehs/api/v1/exposure-records/recompute", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Recompute(w, req)
	})

	r.Handle("/ehs/api/v1/exposure-records/history", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetRecomputeHistory(w, req)
	})

	// persons/{id}/exposure-records 与 persons/{id}/exposure-summary
	r.Handle("/ehs/api/v1/persons/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, "/ehs/api/v1/persons/")
		switch {
		case strings.HasSuffix(rest, "/exposure-records"):
			personID := strings.TrimSuffix(rest, "/exposure-records")
			if personID == "" || strings.Contains(personID, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.GetPersonRecords(w, req, personID)
		case strings.HasSuffix(rest, "/exposure-summary"):
			personID := strings.TrimSuffix(rest, "/exposure-summary")
			if personID == "" || strings.Contains(personID, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.GetPersonSummary(w, req, personID)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterIdentityRoutes 注册身份归属查询路由
func (r *Router) RegisterIdentityRoutes(h *IdentityHandler) {
	r.Handle("/ehs/api/v1/monitor-names/stats", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetMonitorNameStats(w, req)
	})

	r.Handle("/ehs/api/v1/monitor-names/samples", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetSamplesForMonitorName(w, req)
	})

	r.Handle("/ehs/api/v1/persons/sample-stats", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetPersonStats(w, req)
	})
}

// RegisterLabImportRoutes 注册实验室导入路由
func (r *Router) RegisterLabImportRoutes(h *LabImportHandler) {
	r.Handle("/ehs/api/v1/lab-imports/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		jobID := strings.TrimPrefix(req.URL.Path, "/ehs/api/v1/lab-imports/")
		if jobID == "" || strings.Contains(jobID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.ImportJob(w, req, jobID)
	})
}
