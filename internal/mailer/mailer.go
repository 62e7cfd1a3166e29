// Package mailer sends the snapshot follow-up emails (booking requests and
// the PDF checklist) through the Resend API.
package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rotisserie/eris"
)

// ErrNotConfigured means the Resend API key is unset.
var ErrNotConfigured = eris.New("mailer: resend api key not configured")

// ErrInvalid rejects a request with missing or malformed recipient details.
var ErrInvalid = eris.New("mailer: invalid request")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Mailer sends transactional emails.
type Mailer struct {
	client    *resend.Client
	from      string
	bookingTo string
	http      *http.Client
}

// Option configures the Mailer.
type Option func(*Mailer)

// WithHTTPClient sets the HTTP client used to fetch PDF attachments.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Mailer) {
		m.http = hc
	}
}

// New creates a Mailer. An empty apiKey is allowed; sends then fail with
// ErrNotConfigured.
func New(apiKey, fromName, fromEmail, bookingTo string, opts ...Option) *Mailer {
	m := &Mailer{
		from:      fmt.Sprintf("%s <%s>", fromName, fromEmail),
		bookingTo: bookingTo,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var (
	pdfFileEN = "investment property check guide.pdf"
	pdfFileZH = "investment property check guide CN.pdf"

	pdfBodyEN = `Thank you for completing the Electrical Risk Snapshot.

As promised, please find attached the Investment Property Electrical Risk Checklist. We hope it helps you plan ahead and spot potential issues early.

If you'd like to discuss your results or book an independent assessment, just reply to this email or contact us at info@bhtechnology.com.au.

Best regards,
Better Home Technology`

	pdfBodyZH = `感谢您完成电路风险快照。

随信附上《投资房电气风险自查指南》，希望对您提前规划和排查潜在问题有帮助。

如需解读结果或预约独立评估，直接回复本邮件或联系 info@bhtechnology.com.au。

此致，
Better Home Technology`
)

// PDFRequest asks for the checklist PDF to be emailed to a lead.
type PDFRequest struct {
	Email string
	Lang  string
	// Origin is the site base URL the checklist is fetched from.
	Origin string
}

// SendPDF fetches the language-appropriate checklist from the site origin and
// emails it as an attachment. Returns the provider message id.
func (m *Mailer) SendPDF(ctx context.Context, req PDFRequest) (string, error) {
	email := strings.TrimSpace(req.Email)
	if !emailPattern.MatchString(email) {
		return "", ErrInvalid
	}
	if m.client == nil {
		return "", ErrNotConfigured
	}

	lang := "en"
	if strings.EqualFold(req.Lang, "zh") {
		lang = "zh"
	}

	file, body, subject, filename := pdfFileEN, pdfBodyEN,
		"Your Investment Property Electrical Risk Checklist",
		"Investment_Property_Electrical_Risk_Checklist.pdf"
	if lang == "zh" {
		file, body = pdfFileZH, pdfBodyZH
		subject = "您的《投资房电气风险自查指南》"
		filename = "Investment_Property_Electrical_Risk_Checklist_CN.pdf"
	}

	pdf, err := m.fetchPDF(ctx, req.Origin, file)
	if err != nil {
		return "", err
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email},
		Subject: subject,
		Text:    body,
		Attachments: []*resend.Attachment{
			{Filename: filename, Content: pdf},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "mailer: send pdf email")
	}
	return sent.Id, nil
}

func (m *Mailer) fetchPDF(ctx context.Context, origin, file string) ([]byte, error) {
	base := strings.TrimRight(origin, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/"+url.PathEscape(file), nil)
	if err != nil {
		return nil, eris.Wrap(err, "mailer: create pdf request")
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "mailer: fetch pdf")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("mailer: pdf fetch failed with status %d", resp.StatusCode)
	}
	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "mailer: read pdf")
	}
	return pdf, nil
}
