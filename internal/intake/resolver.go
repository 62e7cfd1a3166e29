package intake

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bhtechnology/snapshot-intake/internal/lead"
	"github.com/bhtechnology/snapshot-intake/pkg/servicem8"
)

// maxCreateAttempts bounds the name-collision retry loop.
const maxCreateAttempts = 3

// Resolver finds or creates the CRM company for a submission.
type Resolver struct {
	crm servicem8.Client
}

// NewResolver creates a Resolver backed by the given CRM client.
func NewResolver(crm servicem8.Client) *Resolver {
	return &Resolver{crm: crm}
}

// ResolveCompany returns the company UUID for the submission, creating the
// company when no match exists. Lookup strategies run in order (contact
// email, then normalized name+address) and stop at the first hit. Lookups
// are best-effort: a failed lookup degrades to no-match rather than aborting,
// since creation plus the CRM's uniqueness constraint still converge.
func (r *Resolver) ResolveCompany(ctx context.Context, sub *lead.Submission) (string, bool, error) {
	if email := strings.TrimSpace(sub.Email); email != "" {
		if companyUUID := r.findByEmail(ctx, email); companyUUID != "" {
			zap.L().Info("company reused via contact email",
				zap.String("company_uuid", companyUUID))
			return companyUUID, true, nil
		}
	}

	companies, err := r.crm.ListCompanies(ctx)
	if err != nil {
		zap.L().Warn("company list failed, skipping name+address match", zap.Error(err))
	}
	if companyUUID := matchByNameAddress(companies, sub.Name, sub.Address); companyUUID != "" {
		zap.L().Info("company reused via name+address",
			zap.String("company_uuid", companyUUID))
		return companyUUID, true, nil
	}

	return r.createWithUniqueName(ctx, sub)
}

// createWithUniqueName creates the company, regenerating the name with a
// short random suffix when the CRM reports a uniqueness conflict. Before
// retrying it re-queries the attempted name, since the conflict may mean the
// record was created concurrently.
func (r *Resolver) createWithUniqueName(ctx context.Context, sub *lead.Submission) (string, bool, error) {
	addr := strings.TrimSpace(sub.Address)
	name := UniqueClientName(sub.Name, addr, "")

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		company := servicem8.Company{Name: name}
		if addr != "" {
			company.Address = addr
			company.AddressStreet = addr
		}

		companyUUID, err := r.crm.CreateCompany(ctx, company)
		if err == nil {
			zap.L().Info("company created",
				zap.String("company_uuid", companyUUID),
				zap.Int("attempt", attempt+1))
			return companyUUID, false, nil
		}
		if !servicem8.IsConflict(err) {
			return "", false, eris.Wrap(err, "intake: create company")
		}

		existing, findErr := r.crm.FindCompanyByName(ctx, name)
		if findErr == nil && existing != nil {
			zap.L().Info("company reused after name conflict",
				zap.String("company_uuid", existing.UUID))
			return existing.UUID, true, nil
		}

		name = UniqueClientName(sub.Name, addr, uuid.NewString()[:4])
	}

	return "", false, eris.New("intake: could not create company: name conflict persisted after retries")
}

// findByEmail looks up a company through its contacts: filtered query first,
// then an unfiltered scan with normalized comparison as fallback.
func (r *Resolver) findByEmail(ctx context.Context, email string) string {
	contact, err := r.crm.FindContactByEmail(ctx, email)
	if err == nil && contact != nil {
		return contact.CompanyUUID
	}
	if err != nil {
		zap.L().Warn("contact email filter failed, falling back to scan", zap.Error(err))
	}

	contacts, err := r.crm.ListContacts(ctx)
	if err != nil {
		zap.L().Warn("contact scan failed", zap.Error(err))
		return ""
	}
	want := Normalize(email)
	for _, c := range contacts {
		if c.CompanyUUID != "" && Normalize(c.Email) == want {
			return c.CompanyUUID
		}
	}
	return ""
}

// matchByNameAddress scans companies for a normalized name match. A missing
// submitted address does not block the match; a present one must also agree.
func matchByNameAddress(companies []servicem8.Company, name, address string) string {
	nName := Normalize(name)
	nAddr := Normalize(address)
	if nName == "" {
		return ""
	}
	for _, c := range companies {
		if c.UUID == "" || Normalize(c.Name) != nName {
			continue
		}
		if nAddr == "" || Normalize(companyAddress(c)) == nAddr {
			return c.UUID
		}
	}
	return ""
}

func companyAddress(c servicem8.Company) string {
	if c.Address != "" {
		return c.Address
	}
	if c.AddressStreet != "" {
		return c.AddressStreet
	}
	return c.Address1
}
