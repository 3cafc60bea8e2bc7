package httpapi

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/gridmatch/matcher/pkg/domain"
)

// envelope is the RPC result wrapper from spec.md §6: successful
// outcomes carry OK=true and Value; failures carry OK=false and a
// human-readable Message.
type envelope struct {
	OK    bool        `json:"OK"`
	Value interface{} `json:"Value"`
	// Message carries a human-readable failure reason; omitted on success.
	Message string `json:"Message,omitempty"`
}

func (e *envelope) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func ok(value interface{}) render.Renderer {
	return &envelope{OK: true, Value: value}
}

func fail(message string) render.Renderer {
	return &envelope{OK: false, Message: message}
}

// ErrResponse carries an HTTP status code alongside an envelope,
// grounded on fulcrumproject-core's ErrResponse pattern.
type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	OK             bool   `json:"OK"`
	Message        string `json:"Message"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest reports a malformed or unparseable resource
// descriptor, spec.md's IllegalResource outcome.
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, Message: err.Error()}
}

// ErrInternal reports a job-store or other unexpected internal failure.
func ErrInternal(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusInternalServerError, Message: "internal error"}
}

// ErrTooManyRequests reports a rate-limited caller.
func ErrTooManyRequests() render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limit exceeded"}
}

// jobPayloadResponse flattens a JobPayload per spec.md §6: JDL, DN, and
// Group alongside every optional parameter merged at top level.
func jobPayloadResponse(p domain.JobPayload) map[string]string {
	return p.Merge()
}

type taskQueueResponse struct {
	QueueID      domain.QueueID `json:"QueueID"`
	Requirements string         `json:"Requirements"`
	Priority     int            `json:"Priority"`
}

func taskQueueReportResponse(report domain.TaskQueueReport) []taskQueueResponse {
	out := make([]taskQueueResponse, 0, len(report.Queues))
	for _, q := range report.Queues {
		out = append(out, taskQueueResponse{QueueID: q.QueueID, Requirements: q.RequirementsText, Priority: q.Priority})
	}
	return out
}
