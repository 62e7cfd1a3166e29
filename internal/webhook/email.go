package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bhtechnology/snapshot-intake/internal/mailer"
	"github.com/bhtechnology/snapshot-intake/internal/metrics"
)

// bookingRequest mirrors the form's booking POST body.
type bookingRequest struct {
	Type         string `json:"type"`
	Lang         string `json:"lang"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Suburb       string `json:"suburb"`
	DateReadable string `json:"dateReadable"`
	Window       string `json:"window"`
	Address      string `json:"address"`
	Slot         string `json:"slot"`
	Note         string `json:"note"`
	Notes        string `json:"notes"`
	Summary      string `json:"summary"`
	UTM          string `json:"utm"`
	Page         string `json:"page"`
}

// Booking emails a booking or quick-call enquiry to the office inbox.
func (h *Handler) Booking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid JSON"})
		return
	}

	id, err := h.mailer.SendBooking(r.Context(), mailer.BookingRequest{
		Type:         req.Type,
		Lang:         req.Lang,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Suburb:       req.Suburb,
		DateReadable: req.DateReadable,
		Window:       req.Window,
		Address:      req.Address,
		Slot:         req.Slot,
		Note:         req.Note,
		Notes:        req.Notes,
		Summary:      req.Summary,
		UTM:          req.UTM,
		Page:         req.Page,
	})
	if err != nil {
		h.emailError(w, err, "booking email failed")
		return
	}

	metrics.EmailsSent.WithLabelValues("booking").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// pdfRequest is the send-pdf POST body.
type pdfRequest struct {
	Email string `json:"email"`
	Lang  string `json:"lang"`
}

// SendPDF emails the checklist PDF to the lead.
func (h *Handler) SendPDF(w http.ResponseWriter, r *http.Request) {
	var req pdfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid JSON"})
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = h.siteURL
	}

	id, err := h.mailer.SendPDF(r.Context(), mailer.PDFRequest{
		Email:  req.Email,
		Lang:   req.Lang,
		Origin: origin,
	})
	if err != nil {
		h.emailError(w, err, "pdf email failed")
		return
	}

	metrics.EmailsSent.WithLabelValues("pdf").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (h *Handler) emailError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, mailer.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid email"})
	case errors.Is(err, mailer.ErrNotConfigured):
		zap.L().Error(msg, zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "Email service not configured"})
	default:
		zap.L().Error(msg, zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": "Failed to send"})
	}
}
