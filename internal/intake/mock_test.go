package intake

import (
	"context"

	"github.com/bhtechnology/snapshot-intake/pkg/servicem8"
)

// fakeCRM implements servicem8.Client with per-method function hooks. Unset
// hooks return zero values so tests only wire the calls they care about.
type fakeCRM struct {
	listCompanies        func(ctx context.Context) ([]servicem8.Company, error)
	findCompanyByName    func(ctx context.Context, name string) (*servicem8.Company, error)
	findContactByEmail   func(ctx context.Context, email string) (*servicem8.CompanyContact, error)
	listContacts         func(ctx context.Context) ([]servicem8.CompanyContact, error)
	listCompanyContacts  func(ctx context.Context, companyUUID string) ([]servicem8.CompanyContact, error)
	createCompany        func(ctx context.Context, c servicem8.Company) (string, error)
	createCompanyContact func(ctx context.Context, cc servicem8.CompanyContact) (string, error)
	updateCompanyContact func(ctx context.Context, uuid string, cc servicem8.CompanyContact) error
	createJob            func(ctx context.Context, j servicem8.Job) (*servicem8.CreatedJob, error)
	fetchJobNumber       func(ctx context.Context, jobUUID string) (string, error)
	createNote           func(ctx context.Context, n servicem8.Note) (string, error)
	createJobContact     func(ctx context.Context, jc servicem8.JobContact) (string, error)
}

func (f *fakeCRM) ListCompanies(ctx context.Context) ([]servicem8.Company, error) {
	if f.listCompanies == nil {
		return nil, nil
	}
	return f.listCompanies(ctx)
}

func (f *fakeCRM) FindCompanyByName(ctx context.Context, name string) (*servicem8.Company, error) {
	if f.findCompanyByName == nil {
		return nil, nil
	}
	return f.findCompanyByName(ctx, name)
}

func (f *fakeCRM) FindContactByEmail(ctx context.Context, email string) (*servicem8.CompanyContact, error) {
	if f.findContactByEmail == nil {
		return nil, nil
	}
	return f.findContactByEmail(ctx, email)
}

func (f *fakeCRM) ListContacts(ctx context.Context) ([]servicem8.CompanyContact, error) {
	if f.listContacts == nil {
		return nil, nil
	}
	return f.listContacts(ctx)
}

func (f *fakeCRM) ListCompanyContacts(ctx context.Context, companyUUID string) ([]servicem8.CompanyContact, error) {
	if f.listCompanyContacts == nil {
		return nil, nil
	}
	return f.listCompanyContacts(ctx, companyUUID)
}

func (f *fakeCRM) CreateCompany(ctx context.Context, c servicem8.Company) (string, error) {
	if f.createCompany == nil {
		return "company-uuid", nil
	}
	return f.createCompany(ctx, c)
}

func (f *fakeCRM) CreateCompanyContact(ctx context.Context, cc servicem8.CompanyContact) (string, error) {
	if f.createCompanyContact == nil {
		return "contact-uuid", nil
	}
	return f.createCompanyContact(ctx, cc)
}

func (f *fakeCRM) UpdateCompanyContact(ctx context.Context, uuid string, cc servicem8.CompanyContact) error {
	if f.updateCompanyContact == nil {
		return nil
	}
	return f.updateCompanyContact(ctx, uuid, cc)
}

func (f *fakeCRM) CreateJob(ctx context.Context, j servicem8.Job) (*servicem8.CreatedJob, error) {
	if f.createJob == nil {
		return &servicem8.CreatedJob{UUID: "job-uuid", JobNumber: "JN-1"}, nil
	}
	return f.createJob(ctx, j)
}

func (f *fakeCRM) FetchJobNumber(ctx context.Context, jobUUID string) (string, error) {
	if f.fetchJobNumber == nil {
		return "", nil
	}
	return f.fetchJobNumber(ctx, jobUUID)
}

func (f *fakeCRM) CreateNote(ctx context.Context, n servicem8.Note) (string, error) {
	if f.createNote == nil {
		return "note-uuid", nil
	}
	return f.createNote(ctx, n)
}

func (f *fakeCRM) CreateJobContact(ctx context.Context, jc servicem8.JobContact) (string, error) {
	if f.createJobContact == nil {
		return "job-contact-uuid", nil
	}
	return f.createJobContact(ctx, jc)
}

// fakeNotifier records PushJobLink calls.
type fakeNotifier struct {
	configured bool
	err        error
	pushed     [][2]string
}

func (f *fakeNotifier) Configured() bool { return f.configured }

func (f *fakeNotifier) PushJobLink(_ context.Context, jobUUID, jobNumber string) error {
	f.pushed = append(f.pushed, [2]string{jobUUID, jobNumber})
	return f.err
}
