// Package httpapi exposes the matcher service's two RPCs over HTTP,
// grounded on fulcrumproject-core's chi.Router + go-chi/render handler
// pattern (see handlers_agent_type.go, response_error.go, DESIGN.md).
// The wire envelope is spec.md §6's {OK, Value, Message} wrapper, not
// a resource-oriented REST shape.
package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/gridmatch/matcher/internal/matcher"
	"github.com/gridmatch/matcher/pkg/classad"
)

var log = slog.Default()

// Handler adapts matcher.Service to HTTP.
type Handler struct {
	svc     *matcher.Service
	limiter *siteLimiter
}

// New builds a Handler. requestsPerSecond of zero or less disables
// per-site rate limiting.
func New(svc *matcher.Service, requestsPerSecond float64) *Handler {
	return &Handler{svc: svc, limiter: newSiteLimiter(requestsPerSecond)}
}

// Routes registers the matcher's two RPCs.
func (h *Handler) Routes() func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/requestJob", h.handleRequestJob)
		r.Post("/checkForJobs", h.handleCheckForJobs)
	}
}

type rpcRequest struct {
	ResourceJDL string `json:"resourceJDL"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return "", false
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return "", false
	}
	return req.ResourceJDL, true
}

func siteOf(resourceJDL string) string {
	desc, err := classad.Parse(resourceJDL)
	if err != nil {
		return ""
	}
	v, ok := desc.GetAttribute("Site")
	if !ok || v.Kind != classad.KindString {
		return ""
	}
	return v.Str
}

func (h *Handler) handleRequestJob(w http.ResponseWriter, r *http.Request) {
	resourceJDL, valid := h.decode(w, r)
	if !valid {
		return
	}
	if !h.limiter.allow(siteOf(resourceJDL)) {
		render.Render(w, r, ErrTooManyRequests())
		return
	}

	res := h.svc.RequestJob(r.Context(), resourceJDL)
	switch res.Outcome {
	case matcher.OutcomeMatched:
		render.Render(w, r, ok(jobPayloadResponse(res.Payload)))
	case matcher.OutcomeNoMatch:
		render.Render(w, r, fail(res.Message))
	case matcher.OutcomeIllegalResource:
		render.Render(w, r, ErrInvalidRequest(errString(res.Message)))
	default:
		log.Error("httpapi: requestJob internal error", "message", res.Message)
		render.Render(w, r, ErrInternal(errString(res.Message)))
	}
}

func (h *Handler) handleCheckForJobs(w http.ResponseWriter, r *http.Request) {
	resourceJDL, valid := h.decode(w, r)
	if !valid {
		return
	}

	res := h.svc.CheckForJobs(r.Context(), resourceJDL)
	switch res.Outcome {
	case matcher.OutcomeMatched:
		// Matched carries the (possibly empty) report; checkForJobs never
		// surfaces NoMatch — an empty list is success, not failure.
		render.Render(w, r, ok(taskQueueReportResponse(res.Report)))
	case matcher.OutcomeIllegalResource:
		render.Render(w, r, ErrInvalidRequest(errString(res.Message)))
	default:
		log.Error("httpapi: checkForJobs internal error", "message", res.Message)
		render.Render(w, r, ErrInternal(errString(res.Message)))
	}
}

type errString string

func (e errString) Error() string { return string(e) }
