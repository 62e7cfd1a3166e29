package intake

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhtechnology/snapshot-intake/internal/lead"
	"github.com/bhtechnology/snapshot-intake/pkg/servicem8"
)

func conflictErr() error {
	return &servicem8.APIError{
		StatusCode: 400,
		Message:    "Name must be unique",
		Category:   servicem8.CategoryConflict,
	}
}

func TestResolveCompany_ReusesViaContactEmail(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		findContactByEmail: func(_ context.Context, email string) (*servicem8.CompanyContact, error) {
			assert.Equal(t, "jane@x.com", email)
			return &servicem8.CompanyContact{UUID: "cc-1", CompanyUUID: "c-1"}, nil
		},
		createCompany: func(_ context.Context, _ servicem8.Company) (string, error) {
			t.Fatal("create should not be reached on an email hit")
			return "", nil
		},
	}

	uuid, reused, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe", Email: "jane@x.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-1", uuid)
	assert.True(t, reused)
}

func TestResolveCompany_EmailScanFallbackNormalizes(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		findContactByEmail: func(_ context.Context, _ string) (*servicem8.CompanyContact, error) {
			return nil, nil
		},
		listContacts: func(_ context.Context) ([]servicem8.CompanyContact, error) {
			return []servicem8.CompanyContact{
				{UUID: "cc-0", CompanyUUID: "", Email: "jane@x.com"}, // orphan, skipped
				{UUID: "cc-1", CompanyUUID: "c-1", Email: "  JANE@X.COM "},
			}, nil
		},
	}

	uuid, reused, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe", Email: "jane@x.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-1", uuid)
	assert.True(t, reused)
}

func TestResolveCompany_ReusesViaNameAndAddress(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		listCompanies: func(_ context.Context) ([]servicem8.Company, error) {
			return []servicem8.Company{
				{UUID: "c-other", Name: "Jane Doe", Address: "9 Wrong Rd"},
				{UUID: "c-1", Name: "  jane   DOE ", AddressStreet: "1 Test St"},
			}, nil
		},
	}

	uuid, reused, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe", Address: "1 test st",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-1", uuid)
	assert.True(t, reused)
}

func TestResolveCompany_EmptyAddressMatchesOnNameAlone(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		listCompanies: func(_ context.Context) ([]servicem8.Company, error) {
			return []servicem8.Company{{UUID: "c-1", Name: "Jane Doe", Address: "1 Test St"}}, nil
		},
	}

	uuid, reused, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-1", uuid)
	assert.True(t, reused)
}

func TestResolveCompany_CreatesWhenNoMatch(t *testing.T) {
	t.Parallel()

	var createdName string
	crm := &fakeCRM{
		createCompany: func(_ context.Context, c servicem8.Company) (string, error) {
			createdName = c.Name
			assert.Equal(t, "123 Long Example Street, Adelaide SA 5000", c.Address)
			return "c-new", nil
		},
	}

	uuid, reused, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name:    "Jane Doe",
		Email:   "jane@x.com",
		Address: "123 Long Example Street, Adelaide SA 5000",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-new", uuid)
	assert.False(t, reused)
	// Address portion truncated to its prefix.
	assert.Equal(t, "Jane Doe - 123 Long Example Street,", createdName)
}

func TestResolveCompany_ConflictReusesConcurrentCreate(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		createCompany: func(_ context.Context, _ servicem8.Company) (string, error) {
			return "", conflictErr()
		},
		findCompanyByName: func(_ context.Context, name string) (*servicem8.Company, error) {
			return &servicem8.Company{UUID: "c-existing", Name: name}, nil
		},
	}

	uuid, reused, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe", Email: "jane@x.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-existing", uuid)
	assert.True(t, reused)
}

func TestResolveCompany_ConflictRetriesWithSuffix(t *testing.T) {
	t.Parallel()

	var attempts []string
	crm := &fakeCRM{
		createCompany: func(_ context.Context, c servicem8.Company) (string, error) {
			attempts = append(attempts, c.Name)
			if len(attempts) == 1 {
				return "", conflictErr()
			}
			return "c-suffixed", nil
		},
	}

	uuid, reused, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe", Email: "jane@x.com", Address: "1 Test St",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-suffixed", uuid)
	assert.False(t, reused)
	require.Len(t, attempts, 2)
	assert.Equal(t, "Jane Doe - 1 Test St", attempts[0])
	assert.True(t, strings.HasPrefix(attempts[1], "Jane Doe - 1 Test St - "))
	assert.Len(t, strings.TrimPrefix(attempts[1], "Jane Doe - 1 Test St - "), 4)
}

func TestResolveCompany_ConflictExhaustsAttempts(t *testing.T) {
	t.Parallel()

	var calls int
	crm := &fakeCRM{
		createCompany: func(_ context.Context, _ servicem8.Company) (string, error) {
			calls++
			return "", conflictErr()
		},
	}

	_, _, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe", Email: "jane@x.com",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "name conflict persisted")
	assert.Equal(t, maxCreateAttempts, calls)
}

func TestResolveCompany_NonConflictCreateErrorIsFatal(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{
		createCompany: func(_ context.Context, _ servicem8.Company) (string, error) {
			return "", &servicem8.APIError{StatusCode: 401, Message: "Invalid API key", Category: servicem8.CategoryAuth}
		},
	}

	_, _, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe", Email: "jane@x.com",
	})

	require.Error(t, err)
	assert.Equal(t, servicem8.CategoryAuth, servicem8.CategoryOf(err))
}

func TestResolveCompany_LookupFailuresDegradeToCreate(t *testing.T) {
	t.Parallel()

	lookupErr := &servicem8.APIError{StatusCode: 500, Message: "boom", Category: servicem8.CategoryTransient}
	crm := &fakeCRM{
		findContactByEmail: func(_ context.Context, _ string) (*servicem8.CompanyContact, error) {
			return nil, lookupErr
		},
		listContacts: func(_ context.Context) ([]servicem8.CompanyContact, error) {
			return nil, lookupErr
		},
		listCompanies: func(_ context.Context) ([]servicem8.Company, error) {
			return nil, lookupErr
		},
		createCompany: func(_ context.Context, _ servicem8.Company) (string, error) {
			return "c-new", nil
		},
	}

	uuid, reused, err := NewResolver(crm).ResolveCompany(context.Background(), &lead.Submission{
		Name: "Jane Doe", Email: "jane@x.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-new", uuid)
	assert.False(t, reused)
}
