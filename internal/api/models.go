package api

import (
	"encoding/json"

	"github.com/phrazzld/jobd/internal/domain"
)

// SubmitJobRequest defines the payload for the job submission endpoint.
//
// Payload may be any JSON value. A JSON string is handed to the computation
// as its decoded text; any other value is handed over as raw JSON.
type SubmitJobRequest struct {
	Mode    string          `json:"mode"    validate:"required,max=64"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// PayloadBytes returns the bytes the computation receives.
func (r SubmitJobRequest) PayloadBytes() ([]byte, error) {
	var s string
	if len(r.Payload) > 0 && r.Payload[0] == '"' {
		if err := json.Unmarshal(r.Payload, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return []byte(r.Payload), nil
}

// SubmitJobResponse is returned with 202 Accepted.
type SubmitJobResponse struct {
	Key string `json:"key"`
}

// JobStatusResponse reports a job's status.
type JobStatusResponse struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}

// JobResultResponse reports a finished job's outcome. Output is embedded as
// JSON when the computation produced valid JSON and as a string otherwise.
type JobResultResponse struct {
	Key    string          `json:"key"`
	Failed bool            `json:"failed"`
	Error  string          `json:"error,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

func resultToResponse(key string, result domain.Result, reason string) JobResultResponse {
	resp := JobResultResponse{
		Key:    key,
		Failed: result.IsFailure(),
		Error:  reason,
	}
	if len(result.Output) == 0 {
		return resp
	}
	if json.Valid(result.Output) {
		resp.Output = json.RawMessage(result.Output)
		return resp
	}
	// Non-JSON output is returned as a JSON string.
	encoded, err := json.Marshal(string(result.Output))
	if err == nil {
		resp.Output = encoded
	}
	return resp
}
