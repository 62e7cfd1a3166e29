package servicem8

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// Company is a client organization. The API enforces name uniqueness; the
// address may appear under any of three field names depending on tenant age.
type Company struct {
	UUID          string `json:"uuid,omitempty"`
	Name          string `json:"name"`
	Address       string `json:"address,omitempty"`
	AddressStreet string `json:"address_street,omitempty"`
	Address1      string `json:"address_1,omitempty"`
}

// CompanyContact belongs to exactly one Company.
type CompanyContact struct {
	UUID             string `json:"uuid,omitempty"`
	CompanyUUID      string `json:"company_uuid"`
	First            string `json:"first,omitempty"`
	Last             string `json:"last,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Mobile           string `json:"mobile,omitempty"`
	Type             string `json:"type,omitempty"`
	IsPrimaryContact string `json:"is_primary_contact,omitempty"`
}

// Job is a service request scoped to a company.
type Job struct {
	UUID           string `json:"uuid,omitempty"`
	CompanyUUID    string `json:"company_uuid"`
	JobAddress     string `json:"job_address,omitempty"`
	JobDescription string `json:"job_description,omitempty"`
	Status         string `json:"status,omitempty"`
}

// CreatedJob is the outcome of a job creation. JobNumber may be empty when
// the creation response did not surface it; callers follow up with
// FetchJobNumber.
type CreatedJob struct {
	UUID      string
	JobNumber string
}

// Note is attached to another record via related object reference.
type Note struct {
	RelatedObject     string `json:"related_object"`
	RelatedObjectUUID string `json:"related_object_uuid"`
	Note              string `json:"note"`
}

// JobContact links a person to a job, either by company contact reference or
// by embedded details.
type JobContact struct {
	JobUUID            string `json:"job_uuid"`
	CompanyContactUUID string `json:"company_contact_uuid,omitempty"`
	First              string `json:"first,omitempty"`
	Last               string `json:"last,omitempty"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Mobile             string `json:"mobile,omitempty"`
	Type               string `json:"type,omitempty"`
}

// filterPath builds "<resource>.json?$filter=<field> eq '<value>'" with the
// value escaped against quote injection.
func filterPath(resource, field, value string) string {
	expr := fmt.Sprintf("%s eq '%s'", field, escapeFilter(value))
	return fmt.Sprintf("%s.json?$filter=%s", resource, url.QueryEscape(expr))
}

// listPaged traverses a resource listing window by window until a short page
// or the configured page budget.
func listPaged[T any](ctx context.Context, c *httpClient, resource string) ([]T, error) {
	var all []T
	for page := 0; page < c.maxPages; page++ {
		path := fmt.Sprintf("%s.json?$top=%d&$skip=%d", resource, c.pageSize, page*c.pageSize)
		resp, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := json.Unmarshal(resp.body, &items); err != nil {
			return nil, eris.Wrap(err, "servicem8: decode "+resource+" list")
		}
		all = append(all, items...)
		if len(items) < c.pageSize {
			break
		}
	}
	return all, nil
}

func (c *httpClient) ListCompanies(ctx context.Context) ([]Company, error) {
	return listPaged[Company](ctx, c, "company")
}

func (c *httpClient) ListContacts(ctx context.Context) ([]CompanyContact, error) {
	return listPaged[CompanyContact](ctx, c, "companycontact")
}

func (c *httpClient) FindCompanyByName(ctx context.Context, name string) (*Company, error) {
	if name == "" || len(name) > 250 {
		return nil, nil
	}
	resp, err := c.do(ctx, http.MethodGet, filterPath("company", "name", name), nil)
	if err != nil {
		return nil, err
	}
	var list []Company
	if err := json.Unmarshal(resp.body, &list); err != nil {
		return nil, eris.Wrap(err, "servicem8: decode company filter")
	}
	for _, company := range list {
		if company.UUID != "" {
			return &company, nil
		}
	}
	return nil, nil
}

func (c *httpClient) FindContactByEmail(ctx context.Context, email string) (*CompanyContact, error) {
	resp, err := c.do(ctx, http.MethodGet, filterPath("companycontact", "email", email), nil)
	if err != nil {
		return nil, err
	}
	var list []CompanyContact
	if err := json.Unmarshal(resp.body, &list); err != nil {
		return nil, eris.Wrap(err, "servicem8: decode contact filter")
	}
	for _, contact := range list {
		if contact.CompanyUUID != "" {
			return &contact, nil
		}
	}
	return nil, nil
}

func (c *httpClient) ListCompanyContacts(ctx context.Context, companyUUID string) ([]CompanyContact, error) {
	resp, err := c.do(ctx, http.MethodGet, filterPath("companycontact", "company_uuid", companyUUID), nil)
	if err != nil {
		return nil, err
	}
	var list []CompanyContact
	if err := json.Unmarshal(resp.body, &list); err != nil {
		return nil, eris.Wrap(err, "servicem8: decode company contacts")
	}
	return list, nil
}

func (c *httpClient) CreateCompany(ctx context.Context, company Company) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "company.json", company)
	if err != nil {
		return "", err
	}
	uuid := recordUUID(resp)
	if uuid == "" {
		return "", eris.New("servicem8: company creation did not return uuid")
	}
	return uuid, nil
}

func (c *httpClient) CreateCompanyContact(ctx context.Context, cc CompanyContact) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "companycontact.json", cc)
	if err != nil {
		return "", err
	}
	uuid := recordUUID(resp)
	if uuid == "" {
		return "", eris.New("servicem8: contact creation did not return uuid")
	}
	return uuid, nil
}

func (c *httpClient) UpdateCompanyContact(ctx context.Context, uuid string, cc CompanyContact) error {
	cc.UUID = uuid
	_, err := c.do(ctx, http.MethodPost, "companycontact/"+uuid+".json", cc)
	return err
}

func (c *httpClient) CreateJob(ctx context.Context, j Job) (*CreatedJob, error) {
	resp, err := c.do(ctx, http.MethodPost, "job.json", j)
	if err != nil {
		return nil, err
	}
	uuid := recordUUID(resp)
	if uuid == "" {
		return nil, eris.New("servicem8: job creation did not return uuid")
	}
	return &CreatedJob{UUID: uuid, JobNumber: jobNumberFrom(resp.body)}, nil
}

func (c *httpClient) FetchJobNumber(ctx context.Context, jobUUID string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "job/"+jobUUID+".json", nil)
	if err != nil {
		return "", err
	}
	return jobNumberFrom(resp.body), nil
}

func (c *httpClient) CreateNote(ctx context.Context, n Note) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "note.json", n)
	if err != nil {
		return "", err
	}
	return recordUUID(resp), nil
}

func (c *httpClient) CreateJobContact(ctx context.Context, jc JobContact) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "jobcontact.json", jc)
	if err != nil {
		return "", err
	}
	return recordUUID(resp), nil
}

// jobNumberFrom pulls the human-facing job number out of a loosely-typed job
// payload; the field name varies and the value may be numeric.
func jobNumberFrom(body []byte) string {
	for _, field := range []string{"generated_job_id", "job_number", "generated_job_number"} {
		if v := gjson.GetBytes(body, field); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return ""
}
