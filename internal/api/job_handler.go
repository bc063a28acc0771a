package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/jobd/internal/api/shared"
	"github.com/phrazzld/jobd/internal/domain"
	"github.com/phrazzld/jobd/internal/platform/logger"
	"github.com/phrazzld/jobd/internal/redact"
	"github.com/phrazzld/jobd/internal/service"
)

// DefaultRetryAfter is advertised to clients whose submission was refused
// for capacity.
const DefaultRetryAfter = time.Second

// JobService is the part of the job service the handlers use.
type JobService interface {
	Submit(ctx context.Context, payload []byte, mode domain.Mode) (string, error)
	GetStatus(key string) (domain.JobStatus, bool)
	GetResult(key string) (domain.Result, bool)
	Stats() (service.Stats, error)
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobs       JobService
	validator  *validator.Validate
	retryAfter time.Duration
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobs JobService) *JobHandler {
	return &JobHandler{
		jobs:       jobs,
		validator:  validator.New(),
		retryAfter: DefaultRetryAfter,
	}
}

// SubmitJob handles POST /api/jobs requests
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	payload, err := req.PayloadBytes()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid payload", err)
		return
	}

	key, err := h.jobs.Submit(r.Context(), payload, domain.Mode(req.Mode))
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", strconv.Itoa(max(int(h.retryAfter.Seconds()), 1)))
		}
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	logger.FromContext(r.Context()).Debug("job accepted", "job_key", key, "mode", req.Mode)

	// 202 Accepted since processing happens asynchronously
	w.Header().Set("Location", "/api/jobs/"+key+"/status")
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitJobResponse{Key: key})
}

// GetJobStatus handles GET /api/jobs/{key}/status requests
func (h *JobHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	status, ok := h.jobs.GetStatus(key)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, JobStatusResponse{
		Key:    key,
		Status: string(status),
	})
}

// GetJobResult handles GET /api/jobs/{key}/result requests. A job that is
// still pending has no result yet and is reported as not found, the same as
// an unknown or expired key.
func (h *JobHandler) GetJobResult(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	result, ok := h.jobs.GetResult(key)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Job result not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resultToResponse(key, result, redact.String(result.Reason)))
}

// GetStats handles GET /api/stats requests
func (h *JobHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.Stats()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to read job statistics", errors.Wrap(err, "get stats"))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Health handles GET /health requests
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
