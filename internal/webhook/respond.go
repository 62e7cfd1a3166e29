package webhook

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bhtechnology/snapshot-intake/internal/intake"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encoding failed", zap.Error(err))
	}
}

func successBody(res *intake.Result) map[string]any {
	var jobNumber any
	if res.JobNumber != "" {
		jobNumber = res.JobNumber
	}
	return map[string]any{
		"ok":             true,
		"company_uuid":   res.CompanyUUID,
		"job_uuid":       res.JobUUID,
		"job_number":     jobNumber,
		"company_reused": res.CompanyReused,
		"warnings":       res.Warnings,
	}
}

// fail renders an error response as JSON or HTML.
func (h *Handler) fail(w http.ResponseWriter, wantsHTML bool, status int, message string) {
	if wantsHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := errorPage.Execute(w, map[string]any{
			"Message": message,
			"DocLink": docLink,
		}); err != nil {
			zap.L().Error("error page rendering failed", zap.Error(err))
		}
		return
	}
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}

// renderSuccess renders the browser-facing success page.
func (h *Handler) renderSuccess(w http.ResponseWriter, res *intake.Result) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := successPage.Execute(w, map[string]any{
		"Result":  res,
		"CRMLink": strings.Replace(h.crmBaseURL, "/api_1.0", "", 1),
	}); err != nil {
		zap.L().Error("success page rendering failed", zap.Error(err))
	}
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"/><title>Create Job</title></head>
<body>
  <h1>Success</h1>
  <p>Job created successfully.</p>
  <ul>
    <li>Company: {{.Result.CompanyUUID}} {{if .Result.CompanyReused}}(reused){{else}}(new){{end}}</li>
    <li>Job: {{.Result.JobUUID}}</li>
  </ul>
  <p><a href="{{.CRMLink}}">Open ServiceM8</a></p>
</body>
</html>`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"/><title>Create Job</title></head>
<body>
  <h1>Error</h1>
  <p>Error: {{.Message}}</p>
  <p><a href="{{.DocLink}}">ServiceM8 docs</a></p>
</body>
</html>`))
