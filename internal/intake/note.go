package intake

import (
	"strings"

	"github.com/bhtechnology/snapshot-intake/internal/lead"
)

// NoteBody renders the submission's optional fields as labeled paragraphs.
// Absent fields are omitted; the source tag and timestamp are always present.
func NoteBody(sub *lead.Submission) string {
	parts := []string{
		"Source: Snapshot",
		"Submission: " + sub.SubmittedAt.OrNow(),
	}
	if sub.RiskBand != "" {
		parts = append(parts, "Risk/Result: "+sub.RiskBand)
	}
	if sub.Summary != "" {
		parts = append(parts, "Summary:\n"+sub.Summary)
	}
	if sub.Triggers != "" {
		parts = append(parts, "Triggers/Notes: "+sub.Triggers)
	}
	if sub.Notes != "" {
		parts = append(parts, "Notes: "+sub.Notes)
	}
	if sub.ReviewURL != "" {
		parts = append(parts, "Review: "+sub.ReviewURL)
	}
	return strings.Join(parts, "\n")
}
