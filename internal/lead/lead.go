// Package lead decodes and verifies signed lead tokens produced by the
// snapshot form. Tokens come in two formats: plaintext (base64url JSON) and
// sealed (versioned AES-256-GCM). Both are bound to a timestamp by an
// HMAC-SHA256 signature that must be checked before decoding.
package lead

import (
	"encoding/json"
	"time"
)

// Submission is one decoded lead submission. Email and Name are required;
// everything else is optional and may be empty.
type Submission struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Address     string   `json:"address,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	RiskBand    string   `json:"risk_band,omitempty"`
	Triggers    string   `json:"triggers,omitempty"`
	ReviewURL   string   `json:"review_url,omitempty"`
	SubmittedAt FlexTime `json:"submitted_at,omitempty"`
}

// FlexTime is a submission timestamp that arrives either as a preformatted
// string or as epoch milliseconds. It is normalized to a string on decode.
type FlexTime string

// UnmarshalJSON accepts a JSON string verbatim, or a number interpreted as
// epoch milliseconds and rendered as RFC 3339 UTC.
func (t *FlexTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = FlexTime(s)
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*t = FlexTime(time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339))
	return nil
}

// OrNow returns the timestamp string, defaulting to the current time in
// RFC 3339 UTC when the submission carried none.
func (t FlexTime) OrNow() string {
	if t != "" {
		return string(t)
	}
	return time.Now().UTC().Format(time.RFC3339)
}
