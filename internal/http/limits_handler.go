package httpapi

import (
	"net/http"

	"ehs-data/internal/domain"
	"ehs-data/internal/repository"
	"ehs-data/internal/service"

	"go.uber.org/zap"
)

// LimitsHandler 暴露限值管理 Handler
type LimitsHandler struct {
	limitService service.LimitService
	logger       *zap.Logger
}

// NewLimitsHandler 创建 LimitsHandler
func NewLimitsHandler(limitService service.LimitService, logger *zap.Logger) *LimitsHandler {
	return &LimitsHandler{
		limitService: limitService,
		logger:       logger,
	}
}

// upsertLimitRequest 限值写入请求体
type upsertLimitRequest struct {
	ProfileKey  string   `json:"profile_key"`
	Analyte     string   `json:"analyte"`
	Units       string   `json:"units"`
	ActionLevel *float64 `json:"action_level"`
	PEL         *float64 `json:"pel"`
	REL         *float64 `json:"rel"`
}

// UpsertLimit 写入/更新限值
// PUT /ehs/api/v1/exposure-limits
func (h *LimitsHandler) UpsertLimit(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}

	var req upsertLimitRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if req.ProfileKey == "" || req.Analyte == "" {
		writeJSON(w, http.StatusOK, Fail("profile_key and analyte are required"))
		return
	}

	limit := &domain.ExposureLimit{
		OrgID:       orgID,
		ProfileKey:  req.ProfileKey,
		Analyte:     req.Analyte,
		Units:       req.Units,
		ActionLevel: req.ActionLevel,
		PEL:         req.PEL,
		REL:         req.REL,
	}

	id, err := h.limitService.UpsertLimit(r.Context(), orgID, limit)
	if err != nil {
		h.logger.Error("UpsertLimit failed",
			zap.String("org_id", orgID),
			zap.String("profile_key", req.ProfileKey),
			zap.String("analyte", req.Analyte),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to upsert limit"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"limit_id": id}))
}

// GetLimits 解析单个限值或列出全部
// GET /ehs/api/v1/exposure-limits?profile=xxx&analyte=yyy
// GET /ehs/api/v1/exposure-limits
func (h *LimitsHandler) GetLimits(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}

	profile := r.URL.Query().Get("profile")
	analyte := r.URL.Query().Get("analyte")

	if profile != "" && analyte != "" {
		limit, err := h.limitService.ResolveLimit(r.Context(), orgID, profile, analyte)
		if err != nil {
			if err == repository.ErrLimitNotFound {
				writeJSON(w, http.StatusOK, Fail("limit not configured"))
				return
			}
			h.logger.Error("ResolveLimit failed", zap.String("org_id", orgID), zap.Error(err))
			writeJSON(w, http.StatusOK, Fail("failed to resolve limit"))
			return
		}
		writeJSON(w, http.StatusOK, Ok(limit))
		return
	}

	limits, err := h.limitService.ListLimits(r.Context(), orgID)
	if err != nil {
		h.logger.Error("ListLimits failed", zap.String("org_id", orgID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list limits"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(limits))
}
