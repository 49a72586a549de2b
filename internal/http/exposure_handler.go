package httpapi

import (
	"net/http"
	"time"

	"ehs-data/internal/repository"
	"ehs-data/internal/service"

	"go.uber.org/zap"
)

// ExposureHandler 暴露记录计算/查询 Handler
type ExposureHandler struct {
	exposureService service.ExposureService
	summaryService  service.SummaryService
	logger          *zap.Logger
}

// NewExposureHandler 创建 ExposureHandler
func NewExposureHandler(exposureService service.ExposureService, summaryService service.SummaryService, logger *zap.Logger) *ExposureHandler {
	return &ExposureHandler{
		exposureService: exposureService,
		summaryService:  summaryService,
		logger:          logger,
	}
}

// recomputeRequest 暴露重算请求体（AirSample 形状的载荷）
// date 接受 epoch 毫秒或日期字符串；缺项按"未判定"落库，不报错
type recomputeRequest struct {
	PersonID        string   `json:"person_id"`
	JobID           string   `json:"job_id"`
	AirSampleID     *string  `json:"air_sample_id"`
	SampleRunID     *string  `json:"sample_run_id"`
	Date            any      `json:"date"`
	Analyte         string   `json:"analyte"`
	DurationMinutes int      `json:"duration_minutes"`
	Concentration   *float64 `json:"concentration"`
	Units           string   `json:"units"`
	Method          *string  `json:"method"`
	SampleType      *string  `json:"sample_type"`
	ProfileKey      *string  `json:"profile_key"`
	SourceRefs      any      `json:"source_refs"`
}

// Recompute 由采样数据计算并写入暴露记录（幂等）
// POST /ehs/api/v1/exposure-records/recompute
func (h *ExposureHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	var req recomputeRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}

	record, err := h.exposureService.UpsertFromAirSample(r.Context(), service.UpsertExposureRequest{
		OrgID:           orgID,
		UserID:          userID,
		PersonID:        req.PersonID,
		JobID:           req.JobID,
		AirSampleID:     req.AirSampleID,
		SampleRunID:     req.SampleRunID,
		Date:            req.Date,
		Analyte:         req.Analyte,
		DurationMinutes: req.DurationMinutes,
		Concentration:   req.Concentration,
		Units:           req.Units,
		Method:          req.Method,
		SampleType:      req.SampleType,
		ProfileKey:      req.ProfileKey,
		SourceRefs:      req.SourceRefs,
	})
	if err != nil {
		h.logger.Error("Recompute failed",
			zap.String("org_id", orgID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(record))
}

// filtersFromQuery 解析 window / from / to / analyte 查询参数
// window（last12m/ytd/all）优先；显式 from/to 次之，格式 2006-01-02
func filtersFromQuery(r *http.Request) repository.ExposureRecordFilters {
	q := r.URL.Query()
	filters := repository.ExposureRecordFilters{Analyte: q.Get("analyte")}

	if window := q.Get("window"); window != "" {
		filters.From, filters.To = service.ResolveWindow(window, time.Now().UTC())
		return filters
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.From = &t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.To = &t
		}
	}
	return filters
}

// GetPersonRecords 人员暴露记录列表
// GET /ehs/api/v1/persons/{id}/exposure-records?window=last12m&analyte=asbestos
func (h *ExposureHandler) GetPersonRecords(w http.ResponseWriter, r *http.Request, personID string) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}

	records, err := h.summaryService.GetExposureRecordsForPerson(r.Context(), orgID, personID, filtersFromQuery(r))
	if err != nil {
		h.logger.Error("GetPersonRecords failed",
			zap.String("org_id", orgID),
			zap.String("person_id", personID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to list exposure records"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(records))
}

// GetPersonSummary 人员暴露汇总（按 analyte 分组）
// GET /ehs/api/v1/persons/{id}/exposure-summary?window=ytd
func (h *ExposureHandler) GetPersonSummary(w http.ResponseWriter, r *http.Request, personID string) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}

	rows, err := h.summaryService.GetPersonExposureSummary(r.Context(), orgID, personID, filtersFromQuery(r))
	if err != nil {
		h.logger.Error("GetPersonSummary failed",
			zap.String("org_id", orgID),
			zap.String("person_id", personID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to summarize exposure records"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(rows))
}

// GetRecomputeHistory 样本的历史判定
// GET /ehs/api/v1/exposure-records/history?air_sample_id=xxx
func (h *ExposureHandler) GetRecomputeHistory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromReq(w, r)
	if !ok {
		return
	}
	sampleID := r.URL.Query().Get("air_sample_id")
	if sampleID == "" {
		writeJSON(w, http.StatusOK, Fail("air_sample_id is required"))
		return
	}

	entries, err := h.exposureService.GetRecomputeHistory(r.Context(), orgID, sampleID)
	if err != nil {
		h.logger.Error("GetRecomputeHistory failed",
			zap.String("org_id", orgID),
			zap.String("air_sample_id", sampleID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to list recompute history"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(entries))
}
