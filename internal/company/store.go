package company

import (
	"context"

	id "compliancehub/pkg/domain"
)

// Store is the data-access boundary for tenant-owned compliance data. Every
// method operates against the database of the tenant bound to ctx; with no
// tenant bound, implementations fail hard with ErrTenantNotBound rather than
// touching any database.
type Store interface {
	CreateFramework(ctx context.Context, f *CompanyFramework) error
	GetFramework(ctx context.Context, fid id.CompanyFrameworkID) (*CompanyFramework, error)
	// GetFrameworkByNameVersion is the idempotency probe used by the
	// distribution engine.
	GetFrameworkByNameVersion(ctx context.Context, name, version string) (*CompanyFramework, error)
	ListFrameworks(ctx context.Context) ([]*CompanyFramework, error)

	CreateDomain(ctx context.Context, d *CompanyDomain) error
	UpdateDomain(ctx context.Context, d *CompanyDomain) error
	GetDomain(ctx context.Context, did id.CompanyDomainID) (*CompanyDomain, error)
	ListDomains(ctx context.Context, fid id.CompanyFrameworkID) ([]*CompanyDomain, error)

	CreateCategory(ctx context.Context, c *CompanyCategory) error
	UpdateCategory(ctx context.Context, c *CompanyCategory) error
	GetCategory(ctx context.Context, cid id.CompanyCategoryID) (*CompanyCategory, error)

	CreateSubcategory(ctx context.Context, sc *CompanySubcategory) error
	UpdateSubcategory(ctx context.Context, sc *CompanySubcategory) error
	GetSubcategory(ctx context.Context, sid id.CompanySubcategoryID) (*CompanySubcategory, error)

	CreateControl(ctx context.Context, c *CompanyControl) error
	GetControl(ctx context.Context, cid id.CompanyControlID) (*CompanyControl, error)
	// GetControlByCode is the duplicate probe used when copying controls.
	GetControlByCode(ctx context.Context, code string) (*CompanyControl, error)
	ListControlsByFramework(ctx context.Context, fid id.CompanyFrameworkID) ([]*CompanyControl, error)

	CreateAssignment(ctx context.Context, a *ControlAssignment) error
	GetAssignment(ctx context.Context, aid id.AssignmentID) (*ControlAssignment, error)
	UpdateAssignment(ctx context.Context, a *ControlAssignment) error
	ListAssignmentsByEmployee(ctx context.Context, employeeID int64) ([]*ControlAssignment, error)
	ListAssignmentsByControl(ctx context.Context, cid id.CompanyControlID) ([]*ControlAssignment, error)

	CreateCampaign(ctx context.Context, c *AssessmentCampaign) error
	GetCampaign(ctx context.Context, cid id.CampaignID) (*AssessmentCampaign, error)

	CreateResponse(ctx context.Context, r *AssessmentResponse) error
	ListResponsesByAssignment(ctx context.Context, aid id.AssignmentID) ([]*AssessmentResponse, error)

	CreateEvidence(ctx context.Context, e *EvidenceDocument) error
	GetEvidence(ctx context.Context, eid id.EvidenceID) (*EvidenceDocument, error)
	UpdateEvidence(ctx context.Context, e *EvidenceDocument) error
	ListEvidenceByAssignment(ctx context.Context, aid id.AssignmentID) ([]*EvidenceDocument, error)

	CreatePlan(ctx context.Context, p *RemediationPlan) error
	ListPlansByAssignment(ctx context.Context, aid id.AssignmentID) ([]*RemediationPlan, error)

	CreateReport(ctx context.Context, r *ComplianceReport) error
	ListReportsByFramework(ctx context.Context, fid id.CompanyFrameworkID) ([]*ComplianceReport, error)
}
