package intake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhtechnology/snapshot-intake/internal/lead"
	"github.com/bhtechnology/snapshot-intake/pkg/servicem8"
)

func testSettings() Settings {
	return Settings{
		JobStatus:          "Quote",
		JobDescription:     "Whole house electric health check",
		CompanyContactType: "Job Contact",
		JobContactType:     "Job Contact",
		NoteRelatedObject:  "job",
	}
}

func testSubmission() *lead.Submission {
	return &lead.Submission{
		Name:        "Jane Doe",
		Email:       "jane@x.com",
		Phone:       "0400 000 000",
		Address:     "1 Test St",
		Summary:     "summary",
		SubmittedAt: "2026-01-02T03:04:05Z",
	}
}

func TestRun_FreshSubmissionCreatesEverything(t *testing.T) {
	t.Parallel()

	var gotJob servicem8.Job
	var gotContact servicem8.CompanyContact
	var gotNote servicem8.Note
	var gotJobContact servicem8.JobContact

	crm := &fakeCRM{
		createCompany: func(_ context.Context, _ servicem8.Company) (string, error) {
			return "c-1", nil
		},
		createCompanyContact: func(_ context.Context, cc servicem8.CompanyContact) (string, error) {
			gotContact = cc
			return "cc-1", nil
		},
		createJob: func(_ context.Context, j servicem8.Job) (*servicem8.CreatedJob, error) {
			gotJob = j
			return &servicem8.CreatedJob{UUID: "j-1", JobNumber: "JN-1"}, nil
		},
		createNote: func(_ context.Context, n servicem8.Note) (string, error) {
			gotNote = n
			return "n-1", nil
		},
		createJobContact: func(_ context.Context, jc servicem8.JobContact) (string, error) {
			gotJobContact = jc
			return "jc-1", nil
		},
	}
	notifier := &fakeNotifier{configured: true}
	p := NewPipeline(crm, NewResolver(crm), notifier, testSettings())

	res, err := p.Run(context.Background(), testSubmission())
	require.NoError(t, err)

	assert.Equal(t, "c-1", res.CompanyUUID)
	assert.Equal(t, "j-1", res.JobUUID)
	assert.Equal(t, "JN-1", res.JobNumber)
	assert.False(t, res.CompanyReused)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, "c-1", gotJob.CompanyUUID)
	assert.Equal(t, "1 Test St", gotJob.JobAddress)
	assert.Equal(t, "Quote", gotJob.Status)
	assert.Equal(t, "Whole house electric health check", gotJob.JobDescription)

	assert.Equal(t, "Jane", gotContact.First)
	assert.Equal(t, "Doe", gotContact.Last)
	assert.Equal(t, "jane@x.com", gotContact.Email)
	assert.Equal(t, "1", gotContact.IsPrimaryContact)

	assert.Equal(t, "job", gotNote.RelatedObject)
	assert.Equal(t, "j-1", gotNote.RelatedObjectUUID)
	assert.Contains(t, gotNote.Note, "Source: Snapshot")

	assert.Equal(t, "cc-1", gotJobContact.CompanyContactUUID)
	assert.Empty(t, gotJobContact.Email)

	require.Len(t, notifier.pushed, 1)
	assert.Equal(t, [2]string{"j-1", "JN-1"}, notifier.pushed[0])
}

func TestRun_ReusedCompanyUpdatesExistingContact(t *testing.T) {
	t.Parallel()

	var updatedUUID string
	crm := &fakeCRM{
		findContactByEmail: func(_ context.Context, _ string) (*servicem8.CompanyContact, error) {
			return &servicem8.CompanyContact{UUID: "cc-1", CompanyUUID: "c-1"}, nil
		},
		listCompanyContacts: func(_ context.Context, companyUUID string) ([]servicem8.CompanyContact, error) {
			assert.Equal(t, "c-1", companyUUID)
			return []servicem8.CompanyContact{{UUID: "cc-1", Email: "JANE@x.com"}}, nil
		},
		updateCompanyContact: func(_ context.Context, uuid string, _ servicem8.CompanyContact) error {
			updatedUUID = uuid
			return nil
		},
		createCompanyContact: func(_ context.Context, _ servicem8.CompanyContact) (string, error) {
			t.Fatal("contact should be updated, not created")
			return "", nil
		},
	}
	p := NewPipeline(crm, NewResolver(crm), &fakeNotifier{configured: true}, testSettings())

	res, err := p.Run(context.Background(), testSubmission())
	require.NoError(t, err)

	assert.True(t, res.CompanyReused)
	assert.Equal(t, "cc-1", updatedUUID)
	assert.Empty(t, res.Warnings)
}

func TestRun_MissingAddressUsesPlaceholder(t *testing.T) {
	t.Parallel()

	var gotJob servicem8.Job
	crm := &fakeCRM{
		createJob: func(_ context.Context, j servicem8.Job) (*servicem8.CreatedJob, error) {
			gotJob = j
			return &servicem8.CreatedJob{UUID: "j-1", JobNumber: "JN-1"}, nil
		},
	}
	p := NewPipeline(crm, NewResolver(crm), &fakeNotifier{configured: true}, testSettings())

	sub := testSubmission()
	sub.Address = "  "
	_, err := p.Run(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "Address not provided", gotJob.JobAddress)
}

func TestRun_JobNumberFollowUpFetch(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		createJob: func(_ context.Context, _ servicem8.Job) (*servicem8.CreatedJob, error) {
			return &servicem8.CreatedJob{UUID: "j-1"}, nil
		},
		fetchJobNumber: func(_ context.Context, jobUUID string) (string, error) {
			assert.Equal(t, "j-1", jobUUID)
			return "JN-42", nil
		},
	}
	p := NewPipeline(crm, NewResolver(crm), &fakeNotifier{configured: true}, testSettings())

	res, err := p.Run(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, "JN-42", res.JobNumber)
	assert.Empty(t, res.Warnings)
}

func TestRun_MissingJobNumberWarnsAndSkipsPush(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		createJob: func(_ context.Context, _ servicem8.Job) (*servicem8.CreatedJob, error) {
			return &servicem8.CreatedJob{UUID: "j-1"}, nil
		},
	}
	notifier := &fakeNotifier{configured: true}
	p := NewPipeline(crm, NewResolver(crm), notifier, testSettings())

	res, err := p.Run(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Empty(t, res.JobNumber)
	assert.Contains(t, res.Warnings, "job_number not found after create")
	assert.Empty(t, notifier.pushed)
}

func TestRun_JobCreationFailureIsFatal(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		createJob: func(_ context.Context, _ servicem8.Job) (*servicem8.CreatedJob, error) {
			return nil, &servicem8.APIError{StatusCode: 400, Message: "bad", Category: servicem8.CategoryValidation}
		},
	}
	p := NewPipeline(crm, NewResolver(crm), &fakeNotifier{configured: true}, testSettings())

	res, err := p.Run(context.Background(), testSubmission())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, servicem8.CategoryValidation, servicem8.CategoryOf(err))
}

func TestRun_NonFatalStepFailuresBecomeWarnings(t *testing.T) {
	t.Parallel()

	fail := &servicem8.APIError{StatusCode: 500, Message: "boom", Category: servicem8.CategoryTransient}
	crm := &fakeCRM{
		createCompanyContact: func(_ context.Context, _ servicem8.CompanyContact) (string, error) {
			return "", fail
		},
		createNote: func(_ context.Context, _ servicem8.Note) (string, error) {
			return "", fail
		},
		createJobContact: func(_ context.Context, _ servicem8.JobContact) (string, error) {
			return "", fail
		},
	}
	notifier := &fakeNotifier{configured: true, err: fail}
	p := NewPipeline(crm, NewResolver(crm), notifier, testSettings())

	res, err := p.Run(context.Background(), testSubmission())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"company contact creation failed",
		"note creation failed",
		"job contact creation failed",
		"inspection push failed",
	}, res.Warnings)
}

func TestRun_JobContactFallsBackToEmbeddedDetails(t *testing.T) {
	t.Parallel()

	var gotJobContact servicem8.JobContact
	crm := &fakeCRM{
		createCompanyContact: func(_ context.Context, _ servicem8.CompanyContact) (string, error) {
			return "", &servicem8.APIError{StatusCode: 500, Message: "boom", Category: servicem8.CategoryTransient}
		},
		createJobContact: func(_ context.Context, jc servicem8.JobContact) (string, error) {
			gotJobContact = jc
			return "jc-1", nil
		},
	}
	p := NewPipeline(crm, NewResolver(crm), &fakeNotifier{configured: true}, testSettings())

	_, err := p.Run(context.Background(), testSubmission())
	require.NoError(t, err)

	assert.Empty(t, gotJobContact.CompanyContactUUID)
	assert.Equal(t, "Jane", gotJobContact.First)
	assert.Equal(t, "Doe", gotJobContact.Last)
	assert.Equal(t, "jane@x.com", gotJobContact.Email)
}

func TestRun_UnconfiguredNotifierWarns(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{}
	p := NewPipeline(crm, NewResolver(crm), &fakeNotifier{configured: false}, testSettings())

	res, err := p.Run(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, "inspection push skipped: endpoint not configured")
}
