package httpapi

import (
	"net/http"

	"ehs-data/internal/service"

	"go.uber.org/zap"
)

// LabImportHandler 实验室结果导入 Handler
type LabImportHandler struct {
	importService service.LabImportService
	logger        *zap.Logger
}

// NewLabImportHandler 创建 LabImportHandler
// importService 为 nil 表示未配置 LIMS（接口返回失败而不是 404）
func NewLabImportHandler(importService service.LabImportService, logger *zap.Logger) *LabImportHandler {
	return &LabImportHandler{
		importService: importService,
		logger:        logger,
	}
}

// ImportJob 拉取并导入一个 job 的实验室结果
// POST /ehs/api/v1/lab-imports/{jobId}?profile=osha_construction
func (h *LabImportHandler) ImportJob(w http.ResponseWriter, r *http.Request, jobID string) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}
	if h.importService == nil {
		writeJSON(w, http.StatusOK, Fail("LIMS import is not configured"))
		return
	}

	var profileKey *string
	if p := r.URL.Query().Get("profile"); p != "" {
		profileKey = &p
	}

	summary, err := h.importService.ImportJobResults(r.Context(), orgID, userID, jobID, profileKey)
	if err != nil {
		h.logger.Error("ImportJob failed",
			zap.String("org_id", orgID),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to import lab results"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}
