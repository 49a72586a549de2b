package httpapi

import (
	"net/http"

	"ehs-data/internal/service"

	"go.uber.org/zap"
)

// IdentityHandler 样本身份归属查询 Handler
type IdentityHandler struct {
	identityService service.IdentityService
	logger          *zap.Logger
}

// NewIdentityHandler 创建 IdentityHandler
func NewIdentityHandler(identityService service.IdentityService, logger *zap.Logger) *IdentityHandler {
	return &IdentityHandler{
		identityService: identityService,
		logger:          logger,
	}
}

// GetMonitorNameStats 未关联样本按 monitor 名聚合（回填建议数据源）
// GET /ehs/api/v1/monitor-names/stats
func (h *IdentityHandler) GetMonitorNameStats(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}

	stats, err := h.identityService.GetUnlinkedMonitorCandidates(r.Context(), orgID)
	if err != nil {
		h.logger.Error("GetMonitorNameStats failed", zap.String("org_id", orgID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to aggregate monitor names"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// GetPersonStats 已关联样本按人员聚合
// GET /ehs/api/v1/persons/sample-stats
func (h *IdentityHandler) GetPersonStats(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}

	stats, err := h.identityService.GetPersonSampleStats(r.Context(), orgID)
	if err != nil {
		h.logger.Error("GetPersonStats failed", zap.String("org_id", orgID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to aggregate person samples"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// GetSamplesForMonitorName 姓名回退路径的样本明细
// GET /ehs/api/v1/monitor-names/samples?name=John+Smith
func (h *IdentityHandler) GetSamplesForMonitorName(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusOK, Fail("name is required"))
		return
	}

	samples, err := h.identityService.GetAirSamplesForMonitorName(r.Context(), orgID, name)
	if err != nil {
		h.logger.Error("GetSamplesForMonitorName failed",
			zap.String("org_id", orgID),
			zap.String("name", name),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to list samples"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(samples))
}
