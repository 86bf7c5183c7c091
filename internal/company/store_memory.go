package company

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"compliancehub/internal/tenant/router"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
	"compliancehub/pkg/requestcontext"
)

// tenantData is one tenant's slice of the in-memory store, standing in for
// that tenant's isolated database.
type tenantData struct {
	frameworks    map[id.CompanyFrameworkID]*CompanyFramework
	domains       map[id.CompanyDomainID]*CompanyDomain
	categories    map[id.CompanyCategoryID]*CompanyCategory
	subcategories map[id.CompanySubcategoryID]*CompanySubcategory
	controls      map[id.CompanyControlID]*CompanyControl
	assignments   map[id.AssignmentID]*ControlAssignment
	campaigns     map[id.CampaignID]*AssessmentCampaign
	responses     map[id.ResponseID]*AssessmentResponse
	evidence      map[id.EvidenceID]*EvidenceDocument
	plans         map[id.PlanID]*RemediationPlan
	reports       map[id.ReportID]*ComplianceReport
}

func newTenantData() *tenantData {
	return &tenantData{
		frameworks:    make(map[id.CompanyFrameworkID]*CompanyFramework),
		domains:       make(map[id.CompanyDomainID]*CompanyDomain),
		categories:    make(map[id.CompanyCategoryID]*CompanyCategory),
		subcategories: make(map[id.CompanySubcategoryID]*CompanySubcategory),
		controls:      make(map[id.CompanyControlID]*CompanyControl),
		assignments:   make(map[id.AssignmentID]*ControlAssignment),
		campaigns:     make(map[id.CampaignID]*AssessmentCampaign),
		responses:     make(map[id.ResponseID]*AssessmentResponse),
		evidence:      make(map[id.EvidenceID]*EvidenceDocument),
		plans:         make(map[id.PlanID]*RemediationPlan),
		reports:       make(map[id.ReportID]*ComplianceReport),
	}
}

// InMemoryStore keeps a separate dataset per tenant slug and enforces the
// same binding policy as the router-backed store: no bound tenant, no data.
// Unit tests lean on it to prove tenant isolation.
type InMemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*tenantData
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tenants: make(map[string]*tenantData)}
}

// data resolves the dataset for the tenant bound to ctx. Safe under a read
// lock: an unseen tenant gets a detached empty dataset, never stored.
func (s *InMemoryStore) data(ctx context.Context) (*tenantData, error) {
	slug, err := boundSlug(ctx)
	if err != nil {
		return nil, err
	}
	if td, ok := s.tenants[slug]; ok {
		return td, nil
	}
	return newTenantData(), nil
}

// dataRW resolves the dataset for writes, creating it on first use. Call
// sites hold the write lock.
func (s *InMemoryStore) dataRW(ctx context.Context) (*tenantData, error) {
	slug, err := boundSlug(ctx)
	if err != nil {
		return nil, err
	}
	td, ok := s.tenants[slug]
	if !ok {
		td = newTenantData()
		s.tenants[slug] = td
	}
	return td, nil
}

func boundSlug(ctx context.Context) (string, error) {
	slug := requestcontext.Tenant(ctx)
	if slug == "" {
		return "", fmt.Errorf("company store access: %w", sentinel.ErrTenantNotBound)
	}
	return slug, nil
}

// loadedFrom mirrors the locality the router-backed store records: the bound
// tenant's slug is the database the row came from.
func loadedFrom(ctx context.Context) router.Locality {
	return router.Locality(requestcontext.Tenant(ctx))
}

func (s *InMemoryStore) CreateFramework(ctx context.Context, f *CompanyFramework) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	for _, existing := range td.frameworks {
		if existing.Name == f.Name && existing.Version == f.Version {
			return fmt.Errorf("company framework %s v%s: %w", f.Name, f.Version, sentinel.ErrConflict)
		}
	}
	cp := *f
	td.frameworks[f.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetFramework(ctx context.Context, fid id.CompanyFrameworkID) (*CompanyFramework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	f, ok := td.frameworks[fid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *f
	cp.Locality = loadedFrom(ctx)
	return &cp, nil
}

func (s *InMemoryStore) GetFrameworkByNameVersion(ctx context.Context, name, version string) (*CompanyFramework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range td.frameworks {
		if f.Name == name && f.Version == version {
			cp := *f
			cp.Locality = loadedFrom(ctx)
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListFrameworks(ctx context.Context) ([]*CompanyFramework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*CompanyFramework, 0, len(td.frameworks))
	for _, f := range td.frameworks {
		cp := *f
		cp.Locality = loadedFrom(ctx)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func (s *InMemoryStore) CreateDomain(ctx context.Context, d *CompanyDomain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	for _, existing := range td.domains {
		if existing.FrameworkID == d.FrameworkID && !d.FrameworkID.IsNil() && existing.Code == d.Code {
			return fmt.Errorf("company domain %s: %w", d.Code, sentinel.ErrConflict)
		}
	}
	cp := *d
	td.domains[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) UpdateDomain(ctx context.Context, d *CompanyDomain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	if _, ok := td.domains[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *d
	td.domains[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetDomain(ctx context.Context, did id.CompanyDomainID) (*CompanyDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	d, ok := td.domains[did]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	cp.Locality = loadedFrom(ctx)
	return &cp, nil
}

func (s *InMemoryStore) ListDomains(ctx context.Context, fid id.CompanyFrameworkID) ([]*CompanyDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*CompanyDomain, 0)
	for _, d := range td.domains {
		if d.FrameworkID == fid && d.IsActive {
			cp := *d
			cp.Locality = loadedFrom(ctx)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) CreateCategory(ctx context.Context, c *CompanyCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	cp := *c
	td.categories[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) UpdateCategory(ctx context.Context, c *CompanyCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	if _, ok := td.categories[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *c
	td.categories[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetCategory(ctx context.Context, cid id.CompanyCategoryID) (*CompanyCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := td.categories[cid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	cp.Locality = loadedFrom(ctx)
	return &cp, nil
}

func (s *InMemoryStore) CreateSubcategory(ctx context.Context, sc *CompanySubcategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	cp := *sc
	td.subcategories[sc.ID] = &cp
	return nil
}

func (s *InMemoryStore) UpdateSubcategory(ctx context.Context, sc *CompanySubcategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	if _, ok := td.subcategories[sc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *sc
	td.subcategories[sc.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetSubcategory(ctx context.Context, sid id.CompanySubcategoryID) (*CompanySubcategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	sc, ok := td.subcategories[sid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *sc
	cp.Locality = loadedFrom(ctx)
	return &cp, nil
}

func (s *InMemoryStore) CreateControl(ctx context.Context, c *CompanyControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	for _, existing := range td.controls {
		if existing.ControlCode == c.ControlCode {
			return fmt.Errorf("company control %s: %w", c.ControlCode, sentinel.ErrConflict)
		}
	}
	cp := *c
	td.controls[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetControl(ctx context.Context, cid id.CompanyControlID) (*CompanyControl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := td.controls[cid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) GetControlByCode(ctx context.Context, code string) (*CompanyControl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range td.controls {
		if c.ControlCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListControlsByFramework(ctx context.Context, fid id.CompanyFrameworkID) ([]*CompanyControl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*CompanyControl, 0)
	for _, c := range td.controls {
		if c.FrameworkID == fid && c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ControlCode < out[j].ControlCode
	})
	return out, nil
}

func (s *InMemoryStore) CreateAssignment(ctx context.Context, a *ControlAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	for _, existing := range td.assignments {
		if existing.ControlID == a.ControlID && existing.AssignedToEmployeeID == a.AssignedToEmployeeID {
			return fmt.Errorf("assignment for control %s employee %d: %w",
				a.ControlID.String(), a.AssignedToEmployeeID, sentinel.ErrConflict)
		}
	}
	cp := *a
	td.assignments[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetAssignment(ctx context.Context, aid id.AssignmentID) (*ControlAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := td.assignments[aid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) UpdateAssignment(ctx context.Context, a *ControlAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	if _, ok := td.assignments[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *a
	td.assignments[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListAssignmentsByEmployee(ctx context.Context, employeeID int64) ([]*ControlAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ControlAssignment, 0)
	for _, a := range td.assignments {
		if a.AssignedToEmployeeID == employeeID && a.IsActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *InMemoryStore) ListAssignmentsByControl(ctx context.Context, cid id.CompanyControlID) ([]*ControlAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ControlAssignment, 0)
	for _, a := range td.assignments {
		if a.ControlID == cid && a.IsActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignmentDate.Before(out[j].AssignmentDate) })
	return out, nil
}

func (s *InMemoryStore) CreateCampaign(ctx context.Context, c *AssessmentCampaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	cp := *c
	td.campaigns[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetCampaign(ctx context.Context, cid id.CampaignID) (*AssessmentCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := td.campaigns[cid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) CreateResponse(ctx context.Context, r *AssessmentResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	for _, existing := range td.responses {
		if existing.AssignmentID == r.AssignmentID && existing.QuestionID == r.QuestionID {
			return fmt.Errorf("response for question %s on assignment %s: %w",
				r.QuestionID.String(), r.AssignmentID.String(), sentinel.ErrConflict)
		}
	}
	cp := *r
	td.responses[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListResponsesByAssignment(ctx context.Context, aid id.AssignmentID) ([]*AssessmentResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*AssessmentResponse, 0)
	for _, r := range td.responses {
		if r.AssignmentID == aid && r.IsActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnsweredDate.Before(out[j].AnsweredDate) })
	return out, nil
}

func (s *InMemoryStore) CreateEvidence(ctx context.Context, e *EvidenceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	cp := *e
	td.evidence[e.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetEvidence(ctx context.Context, eid id.EvidenceID) (*EvidenceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := td.evidence[eid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *InMemoryStore) UpdateEvidence(ctx context.Context, e *EvidenceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	if _, ok := td.evidence[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *e
	td.evidence[e.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListEvidenceByAssignment(ctx context.Context, aid id.AssignmentID) ([]*EvidenceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*EvidenceDocument, 0)
	for _, e := range td.evidence {
		if e.AssignmentID == aid && e.IsActive {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadDate.Before(out[j].UploadDate) })
	return out, nil
}

func (s *InMemoryStore) CreatePlan(ctx context.Context, p *RemediationPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	cp := *p
	td.plans[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListPlansByAssignment(ctx context.Context, aid id.AssignmentID) ([]*RemediationPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*RemediationPlan, 0)
	for _, p := range td.plans {
		if p.AssignmentID == aid && p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CreateReport(ctx context.Context, r *ComplianceReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, err := s.dataRW(ctx)
	if err != nil {
		return err
	}
	cp := *r
	td.reports[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListReportsByFramework(ctx context.Context, fid id.CompanyFrameworkID) ([]*ComplianceReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.data(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ComplianceReport, 0)
	for _, r := range td.reports {
		if r.FrameworkID == fid && r.IsActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedDate.Before(out[j].GeneratedDate) })
	return out, nil
}
