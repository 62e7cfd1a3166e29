// Package webhook exposes the HTTP surface: lead intake, booking and PDF
// email endpoints, with JSON or HTML responses by content negotiation.
package webhook

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bhtechnology/snapshot-intake/internal/intake"
	"github.com/bhtechnology/snapshot-intake/internal/lead"
	"github.com/bhtechnology/snapshot-intake/internal/mailer"
	"github.com/bhtechnology/snapshot-intake/internal/metrics"
	"github.com/bhtechnology/snapshot-intake/pkg/servicem8"
)

const docLink = "https://developer.servicem8.com/llms.txt"

// Handler serves the webhook routes.
type Handler struct {
	codec      *lead.Codec
	pipeline   *intake.Pipeline
	mailer     *mailer.Mailer
	crmBaseURL string
	siteURL    string
	configured bool
}

// NewHandler creates the webhook handler. configured reports whether the CRM
// API key and signing secret are both present; when false the intake route
// fails fast with 503 before any processing.
func NewHandler(codec *lead.Codec, pipeline *intake.Pipeline, m *mailer.Mailer, crmBaseURL, siteURL string, configured bool) *Handler {
	return &Handler{
		codec:      codec,
		pipeline:   pipeline,
		mailer:     m,
		crmBaseURL: crmBaseURL,
		siteURL:    siteURL,
		configured: configured,
	}
}

// Routes builds the chi router for the webhook surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/webhook/jobs", h.Jobs)
	r.Post("/webhook/jobs", h.Jobs)
	r.Post("/webhook/booking", h.Booking)
	r.Post("/webhook/send-pdf", h.SendPDF)

	return r
}

// jobsRequest is the POST body for the intake route. An inline payload plus
// signature may stand in for a pre-encoded lead_id.
type jobsRequest struct {
	LeadID    string          `json:"lead_id"`
	Timestamp string          `json:"timestamp"`
	Sig       string          `json:"sig"`
	Payload   json.RawMessage `json:"payload"`
}

// Jobs handles a signed lead submission end to end: extract credentials,
// verify, decode, run the upsert pipeline, render.
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	log := zap.L().With(zap.String("request_id", uuid.NewString()[:8]))
	wantsHTML := strings.Contains(r.Header.Get("Accept"), "text/html")

	if !h.configured {
		log.Error("intake not configured: api key or signing secret missing")
		h.fail(w, wantsHTML, http.StatusServiceUnavailable, "Service not configured")
		return
	}

	leadID, timestamp, sig, ok := extractCredentials(r)
	if !ok {
		h.fail(w, wantsHTML, http.StatusBadRequest, "Invalid request body")
		return
	}
	if leadID == "" || timestamp == "" || sig == "" {
		log.Warn("missing lead_id, timestamp or sig")
		metrics.IntakeRequests.WithLabelValues("rejected").Inc()
		h.fail(w, wantsHTML, http.StatusBadRequest, "Missing lead_id, timestamp or sig")
		return
	}

	if err := h.codec.Verify(leadID, timestamp, sig); err != nil {
		switch {
		case errors.Is(err, lead.ErrNotConfigured):
			log.Error("signing secret not configured")
			h.fail(w, wantsHTML, http.StatusServiceUnavailable, "Service not configured")
		default:
			log.Warn("invalid signature")
			metrics.IntakeRequests.WithLabelValues("rejected").Inc()
			h.fail(w, wantsHTML, http.StatusForbidden, "Invalid signature")
		}
		return
	}

	sub, err := h.decode(leadID)
	if err != nil {
		log.Warn("invalid lead payload")
		metrics.IntakeRequests.WithLabelValues("rejected").Inc()
		h.fail(w, wantsHTML, http.StatusBadRequest, "Invalid lead_id")
		return
	}

	log.Info("processing submission", zap.String("lead_id_prefix", prefix(leadID, 20)))

	result, err := h.pipeline.Run(r.Context(), sub)
	if err != nil {
		log.Error("pipeline failed", zap.Error(err))
		metrics.IntakeRequests.WithLabelValues("failed").Inc()
		h.fail(w, wantsHTML, pipelineStatus(err), pipelineMessage(err))
		return
	}

	outcome := "created"
	if result.CompanyReused {
		outcome = "reused"
	}
	metrics.IntakeRequests.WithLabelValues(outcome).Inc()
	for _, warning := range result.Warnings {
		metrics.PipelineWarnings.WithLabelValues(warning).Inc()
	}

	if wantsHTML {
		h.renderSuccess(w, result)
		return
	}
	writeJSON(w, http.StatusOK, successBody(result))
}

// decode picks the token format: sealed tokens are versioned and dotted,
// plaintext ones are a single base64url segment.
func (h *Handler) decode(token string) (*lead.Submission, error) {
	if lead.IsSealed(token) {
		return h.codec.Open(token)
	}
	return h.codec.Decode(token)
}

// extractCredentials reads lead_id/timestamp/sig from query parameters (GET)
// or the JSON body (POST). A POST body may carry an inline payload, which is
// encoded into a token on the fly.
func extractCredentials(r *http.Request) (leadID, timestamp, sig string, ok bool) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		return q.Get("lead_id"), q.Get("timestamp"), q.Get("sig"), true
	}

	var req jobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", "", "", false
	}
	leadID, timestamp, sig = req.LeadID, req.Timestamp, req.Sig
	if leadID == "" && len(req.Payload) > 0 && sig != "" {
		raw := req.Payload
		// A JSON-string payload is taken verbatim; anything else re-encodes
		// its compact JSON form.
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			raw = []byte(s)
		}
		leadID = base64.RawURLEncoding.EncodeToString(raw)
		if timestamp == "" {
			timestamp = fmt.Sprintf("%d", time.Now().UnixMilli())
		}
	}
	return leadID, timestamp, sig, true
}

// pipelineStatus maps a fatal pipeline error to an HTTP status using the CRM
// client's typed categories.
func pipelineStatus(err error) int {
	switch servicem8.CategoryOf(err) {
	case servicem8.CategoryValidation, servicem8.CategoryConflict, servicem8.CategoryNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// pipelineMessage appends the API documentation hint unless the upstream
// message already carries one.
func pipelineMessage(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "developer.servicem8") {
		return msg
	}
	return msg + " See " + docLink
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
