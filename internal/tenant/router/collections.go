package router

// Collection names an entity collection for routing purposes. The names
// match the physical table names so stores and the router agree on identity.
type Collection string

// Template catalog collections. These live only in the central database and
// resolve there regardless of any bound tenant.
const (
	Frameworks           Collection = "frameworks"
	Domains              Collection = "domains"
	Categories           Collection = "categories"
	Subcategories        Collection = "subcategories"
	Controls             Collection = "controls"
	AssessmentQuestions  Collection = "assessment_questions"
	EvidenceRequirements Collection = "evidence_requirements"
	TenantDirectory      Collection = "tenant_directory"
)

// Tenant-owned collections. These exist once per tenant database and require
// a bound tenant to resolve.
const (
	CompanyFrameworks    Collection = "company_frameworks"
	CompanyDomains       Collection = "company_domains"
	CompanyCategories    Collection = "company_categories"
	CompanySubcategories Collection = "company_subcategories"
	CompanyControls      Collection = "company_controls"
	ControlAssignments   Collection = "control_assignments"
	AssessmentCampaigns  Collection = "assessment_campaigns"
	AssessmentResponses  Collection = "assessment_responses"
	EvidenceDocuments    Collection = "evidence_documents"
	RemediationPlans     Collection = "remediation_plans"
	ComplianceReports    Collection = "compliance_reports"
)

var templateCollections = map[Collection]struct{}{
	Frameworks:           {},
	Domains:              {},
	Categories:           {},
	Subcategories:        {},
	Controls:             {},
	AssessmentQuestions:  {},
	EvidenceRequirements: {},
	TenantDirectory:      {},
}

var tenantCollections = map[Collection]struct{}{
	CompanyFrameworks:    {},
	CompanyDomains:       {},
	CompanyCategories:    {},
	CompanySubcategories: {},
	CompanyControls:      {},
	ControlAssignments:   {},
	AssessmentCampaigns:  {},
	AssessmentResponses:  {},
	EvidenceDocuments:    {},
	RemediationPlans:     {},
	ComplianceReports:    {},
}

// IsTemplate reports whether the collection belongs to the shared catalog.
func (c Collection) IsTemplate() bool {
	_, ok := templateCollections[c]
	return ok
}

// IsTenantOwned reports whether the collection lives in tenant databases.
func (c Collection) IsTenantOwned() bool {
	_, ok := tenantCollections[c]
	return ok
}
