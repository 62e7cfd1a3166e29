package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rotisserie/eris"
)

// BookingRequest is a booking or quick-call enquiry from the snapshot form.
type BookingRequest struct {
	Type  string // "lead" (default) or "quickcall"
	Lang  string // "en" (default) or "zh"
	Name  string
	Phone string
	Email string

	// quickcall fields
	Suburb       string
	DateReadable string
	Window       string
	Address      string
	Slot         string
	Note         string

	Notes   string
	Summary string
	UTM     string
	Page    string
}

// SendBooking emails the enquiry to the configured inbox. Name, phone and a
// well-formed email are required.
func (m *Mailer) SendBooking(ctx context.Context, req BookingRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Phone == "" || req.Email == "" {
		return "", ErrInvalid
	}
	if !emailPattern.MatchString(req.Email) {
		return "", ErrInvalid
	}
	if m.client == nil {
		return "", ErrNotConfigured
	}

	var subject, text string
	switch {
	case req.Type != "quickcall":
		subject = "Request for Independent Electrical Risk Assessment"
		text = leadEmailEN(req)
	case strings.EqualFold(req.Lang, "zh"):
		subject = "预约 15 分钟免费解读快照结果"
		text = quickCallEmailZH(req)
	default:
		subject = "Request a quick suitability call"
		text = quickCallEmailEN(req)
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.bookingTo},
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return "", eris.Wrap(err, "mailer: send booking email")
	}
	return sent.Id, nil
}

func leadEmailEN(req BookingRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Hello,

I've just completed the Electrical Risk Snapshot on your website and would like to request an independent electrical assessment.

My details are below:

Name: %s
Phone: %s
Email: %s

Property type:
• Investment property

Reason for enquiry:
• I would like clearer visibility and independent advice before making future electrical decisions.

`, req.Name, req.Phone, req.Email)
	if req.Notes != "" {
		fmt.Fprintf(&b, "Additional notes:\n• %s\n\n", req.Notes)
	}
	fmt.Fprintf(&b, "Snapshot summary (for reference):\n%s\n\nPlease let me know the next steps.\n\nKind regards,\n%s\n", orNone(req.Summary), req.Name)
	return b.String()
}

func quickCallEmailEN(req BookingRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Hello,

I've just completed the Electrical Risk Snapshot and would like to request a quick suitability call.

My details are below:

Name: %s
Phone: %s
Email: %s
`, req.Name, req.Phone, req.Email)
	if req.Suburb != "" {
		fmt.Fprintf(&b, "Property area: %s\n", req.Suburb)
	}
	fmt.Fprintf(&b, "\nPreferred call time (Adelaide):\nDate: %s\nWindow: %s\n\n", orNotSet(req.DateReadable), orNotSet(req.Window))
	if req.Notes != "" {
		fmt.Fprintf(&b, "Notes:\n%s\n\n", req.Notes)
	}
	fmt.Fprintf(&b, "Snapshot summary (for reference):\n%s\n\nKind regards,\n%s\n", orNone(req.Summary), req.Name)
	return b.String()
}

func quickCallEmailZH(req BookingRequest) string {
	var b strings.Builder
	b.WriteString("您好，BH Technology 团队：\n\n")
	b.WriteString("我刚完成【电路风险快照】，希望预约 15 分钟免费解读快照结果。\n\n")
	b.WriteString("【联系方式】\n")
	fmt.Fprintf(&b, "姓名：%s\n电话：%s\n邮箱：%s\n", req.Name, req.Phone, req.Email)
	if req.Address != "" {
		fmt.Fprintf(&b, "地址：%s\n", req.Address)
	}
	if req.Slot != "" {
		fmt.Fprintf(&b, "期望通话时间：%s\n", req.Slot)
	}
	if req.Note != "" {
		fmt.Fprintf(&b, "备注：%s\n", req.Note)
	}
	b.WriteString("\n【快照选择结果】\n")
	if req.Summary != "" {
		b.WriteString(req.Summary)
	} else {
		b.WriteString("(无)")
	}
	b.WriteString("\n\n【我的来源】\n")
	utm := req.UTM
	if utm == "" {
		utm = "未标记"
	}
	fmt.Fprintf(&b, "utm：%s\n页面：%s\n\n谢谢！\n", utm, req.Page)
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
