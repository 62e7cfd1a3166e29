package intake

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bhtechnology/snapshot-intake/internal/lead"
	"github.com/bhtechnology/snapshot-intake/pkg/servicem8"
)

// Settings are the fixed per-deployment field values used on created records.
type Settings struct {
	JobStatus          string
	JobDescription     string
	CompanyContactType string
	JobContactType     string
	NoteRelatedObject  string
}

// Result is the outcome of one intake run. Warnings record non-fatal step
// failures; they never change the success verdict.
type Result struct {
	CompanyUUID   string   `json:"company_uuid"`
	JobUUID       string   `json:"job_uuid"`
	JobNumber     string   `json:"job_number,omitempty"`
	CompanyReused bool     `json:"company_reused"`
	Warnings      []string `json:"warnings"`
}

// Notifier pushes a created job link to a downstream system.
type Notifier interface {
	Configured() bool
	PushJobLink(ctx context.Context, jobUUID, jobNumber string) error
}

// Pipeline orchestrates the upsert sequence: company, contact, job, note,
// job contact, downstream push. Company resolution and job creation are
// fatal; every other step degrades to a warning.
type Pipeline struct {
	crm      servicem8.Client
	resolver *Resolver
	notifier Notifier
	settings Settings
}

// NewPipeline creates a Pipeline. notifier may be nil when no downstream
// push is configured.
func NewPipeline(crm servicem8.Client, resolver *Resolver, notifier Notifier, settings Settings) *Pipeline {
	return &Pipeline{crm: crm, resolver: resolver, notifier: notifier, settings: settings}
}

// Run executes the pipeline for one submission. There is no rollback: records
// created before a fatal failure remain in the CRM and are found and reused
// on retry.
func (p *Pipeline) Run(ctx context.Context, sub *lead.Submission) (*Result, error) {
	res := &Result{Warnings: []string{}}

	companyUUID, reused, err := p.resolver.ResolveCompany(ctx, sub)
	if err != nil {
		return nil, err
	}
	res.CompanyUUID = companyUUID
	res.CompanyReused = reused

	contactUUID := p.upsertCompanyContact(ctx, companyUUID, sub, res)

	jobAddress := strings.TrimSpace(sub.Address)
	if jobAddress == "" {
		jobAddress = "Address not provided"
	}
	created, err := p.crm.CreateJob(ctx, servicem8.Job{
		CompanyUUID:    companyUUID,
		JobAddress:     jobAddress,
		JobDescription: p.settings.JobDescription,
		Status:         p.settings.JobStatus,
	})
	if err != nil {
		return nil, eris.Wrap(err, "intake: create job")
	}
	res.JobUUID = created.UUID
	res.JobNumber = created.JobNumber
	zap.L().Info("job created",
		zap.String("job_uuid", created.UUID),
		zap.String("job_number", created.JobNumber))

	if res.JobNumber == "" {
		num, err := p.crm.FetchJobNumber(ctx, created.UUID)
		if err != nil || num == "" {
			zap.L().Warn("job number lookup failed", zap.String("job_uuid", created.UUID), zap.Error(err))
			res.Warnings = append(res.Warnings, "job_number not found after create")
		} else {
			res.JobNumber = num
		}
	}

	if body := NoteBody(sub); body != "" {
		_, err := p.crm.CreateNote(ctx, servicem8.Note{
			RelatedObject:     p.settings.NoteRelatedObject,
			RelatedObjectUUID: created.UUID,
			Note:              body,
		})
		if err != nil {
			zap.L().Warn("note creation failed", zap.String("job_uuid", created.UUID), zap.Error(err))
			res.Warnings = append(res.Warnings, "note creation failed")
		}
	}

	p.createJobContact(ctx, created.UUID, sub, contactUUID, res)

	if res.JobNumber != "" {
		p.pushJobLink(ctx, res)
	}

	return res, nil
}

// upsertCompanyContact matches the company's contacts by normalized email and
// updates the first hit, creating a contact otherwise. Non-fatal throughout:
// an update failure still returns the existing contact (stale beats none),
// and a create failure returns "" with a warning.
func (p *Pipeline) upsertCompanyContact(ctx context.Context, companyUUID string, sub *lead.Submission, res *Result) string {
	contacts, err := p.crm.ListCompanyContacts(ctx, companyUUID)
	if err != nil {
		zap.L().Warn("company contact list failed", zap.Error(err))
	}

	first, last := SplitName(sub.Name)
	phone := strings.TrimSpace(sub.Phone)
	contact := servicem8.CompanyContact{
		CompanyUUID:      companyUUID,
		First:            first,
		Last:             last,
		Email:            strings.TrimSpace(sub.Email),
		Phone:            phone,
		Mobile:           phone,
		Type:             p.settings.CompanyContactType,
		IsPrimaryContact: "1",
	}

	want := Normalize(sub.Email)
	for _, existing := range contacts {
		if existing.UUID == "" || Normalize(existing.Email) != want {
			continue
		}
		if err := p.crm.UpdateCompanyContact(ctx, existing.UUID, contact); err != nil {
			zap.L().Warn("company contact update failed",
				zap.String("company_contact_uuid", existing.UUID), zap.Error(err))
		}
		return existing.UUID
	}

	contactUUID, err := p.crm.CreateCompanyContact(ctx, contact)
	if err != nil {
		zap.L().Warn("company contact creation failed", zap.Error(err))
		res.Warnings = append(res.Warnings, "company contact creation failed")
		return ""
	}
	return contactUUID
}

// createJobContact links the company contact to the job by reference when
// known, falling back to embedded details. Non-fatal.
func (p *Pipeline) createJobContact(ctx context.Context, jobUUID string, sub *lead.Submission, contactUUID string, res *Result) {
	jc := servicem8.JobContact{
		JobUUID: jobUUID,
		Type:    p.settings.JobContactType,
	}
	if contactUUID != "" {
		jc.CompanyContactUUID = contactUUID
	} else {
		first, last := SplitName(sub.Name)
		phone := strings.TrimSpace(sub.Phone)
		jc.First = first
		jc.Last = last
		jc.Email = strings.TrimSpace(sub.Email)
		jc.Phone = phone
		jc.Mobile = phone
	}

	if _, err := p.crm.CreateJobContact(ctx, jc); err != nil {
		zap.L().Warn("job contact creation failed", zap.String("job_uuid", jobUUID), zap.Error(err))
		res.Warnings = append(res.Warnings, "job contact creation failed")
	}
}

// pushJobLink notifies the downstream system of the created job. Non-fatal;
// a missing configuration is reported as a warning, not an error.
func (p *Pipeline) pushJobLink(ctx context.Context, res *Result) {
	if p.notifier == nil || !p.notifier.Configured() {
		res.Warnings = append(res.Warnings, "inspection push skipped: endpoint not configured")
		return
	}
	if err := p.notifier.PushJobLink(ctx, res.JobUUID, res.JobNumber); err != nil {
		zap.L().Warn("inspection push failed", zap.String("job_uuid", res.JobUUID), zap.Error(err))
		res.Warnings = append(res.Warnings, "inspection push failed")
		return
	}
	zap.L().Info("inspection push succeeded",
		zap.String("job_uuid", res.JobUUID),
		zap.String("job_number", res.JobNumber))
}
