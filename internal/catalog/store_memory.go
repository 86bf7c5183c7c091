package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed catalog store for unit tests and local
// development. Uniqueness constraints mirror the Postgres schema.
type InMemoryStore struct {
	mu            sync.RWMutex
	frameworks    map[id.FrameworkID]*Framework
	domains       map[id.DomainID]*Domain
	categories    map[id.CategoryID]*Category
	subcategories map[id.SubcategoryID]*Subcategory
	controls      map[id.ControlID]*Control
	questions     map[id.QuestionID]*AssessmentQuestion
	requirements  map[id.RequirementID]*EvidenceRequirement
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		frameworks:    make(map[id.FrameworkID]*Framework),
		domains:       make(map[id.DomainID]*Domain),
		categories:    make(map[id.CategoryID]*Category),
		subcategories: make(map[id.SubcategoryID]*Subcategory),
		controls:      make(map[id.ControlID]*Control),
		questions:     make(map[id.QuestionID]*AssessmentQuestion),
		requirements:  make(map[id.RequirementID]*EvidenceRequirement),
	}
}

func (s *InMemoryStore) CreateFramework(_ context.Context, f *Framework) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.frameworks {
		if existing.Name == f.Name && existing.Version == f.Version {
			return fmt.Errorf("framework %s v%s: %w", f.Name, f.Version, sentinel.ErrConflict)
		}
	}
	cp := *f
	s.frameworks[f.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetFramework(_ context.Context, fid id.FrameworkID) (*Framework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.frameworks[fid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *InMemoryStore) ListActiveFrameworks(_ context.Context, filter []id.FrameworkID) ([]*Framework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var wanted map[id.FrameworkID]struct{}
	if filter != nil {
		wanted = make(map[id.FrameworkID]struct{}, len(filter))
		for _, fid := range filter {
			wanted[fid] = struct{}{}
		}
	}

	out := make([]*Framework, 0)
	for _, f := range s.frameworks {
		if !f.IsActive {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[f.ID]; !ok {
				continue
			}
		}
		cp := *f
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

func (s *InMemoryStore) CreateDomain(_ context.Context, d *Domain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.domains {
		if existing.FrameworkID == d.FrameworkID && (existing.Code == d.Code || existing.Name == d.Name) {
			return fmt.Errorf("domain %s: %w", d.Code, sentinel.ErrConflict)
		}
	}
	cp := *d
	s.domains[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListDomains(_ context.Context, fid id.FrameworkID) ([]*Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Domain, 0)
	for _, d := range s.domains {
		if d.FrameworkID == fid && d.IsActive {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) CreateCategory(_ context.Context, c *Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.DomainID == c.DomainID && (existing.Code == c.Code || existing.Name == c.Name) {
			return fmt.Errorf("category %s: %w", c.Code, sentinel.ErrConflict)
		}
	}
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListCategories(_ context.Context, did id.DomainID) ([]*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Category, 0)
	for _, c := range s.categories {
		if c.DomainID == did && c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) CreateSubcategory(_ context.Context, sc *Subcategory) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subcategories {
		if existing.CategoryID == sc.CategoryID && (existing.Code == sc.Code || existing.Name == sc.Name) {
			return fmt.Errorf("subcategory %s: %w", sc.Code, sentinel.ErrConflict)
		}
	}
	cp := *sc
	s.subcategories[sc.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListSubcategories(_ context.Context, cid id.CategoryID) ([]*Subcategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Subcategory, 0)
	for _, sc := range s.subcategories {
		if sc.CategoryID == cid && sc.IsActive {
			cp := *sc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) CreateControl(_ context.Context, c *Control) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.controls {
		if existing.ControlCode == c.ControlCode {
			return fmt.Errorf("control %s: %w", c.ControlCode, sentinel.ErrConflict)
		}
	}
	cp := *c
	s.controls[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetControl(_ context.Context, cid id.ControlID) (*Control, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.controls[cid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) ListControlsByFramework(_ context.Context, fid id.FrameworkID) ([]*Control, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := make(map[id.DomainID]struct{})
	for _, d := range s.domains {
		if d.FrameworkID == fid {
			domains[d.ID] = struct{}{}
		}
	}
	categories := make(map[id.CategoryID]struct{})
	for _, c := range s.categories {
		if _, ok := domains[c.DomainID]; ok {
			categories[c.ID] = struct{}{}
		}
	}
	subcategories := make(map[id.SubcategoryID]struct{})
	for _, sc := range s.subcategories {
		if _, ok := categories[sc.CategoryID]; ok {
			subcategories[sc.ID] = struct{}{}
		}
	}

	out := make([]*Control, 0)
	for _, c := range s.controls {
		if !c.IsActive {
			continue
		}
		if _, ok := subcategories[c.SubcategoryID]; ok {
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

func (s *InMemoryStore) SearchControls(_ context.Context, query string) ([]*Control, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	out := make([]*Control, 0)
	for _, c := range s.controls {
		if !c.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(c.ControlCode), q) ||
			strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ControlCode < out[j].ControlCode })
	return out, nil
}

func (s *InMemoryStore) AddQuestion(_ context.Context, q *AssessmentQuestion) error {
	if err := q.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListQuestions(_ context.Context, cid id.ControlID) ([]*AssessmentQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*AssessmentQuestion, 0)
	for _, q := range s.questions {
		if q.ControlID == cid && q.IsActive {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) AddRequirement(_ context.Context, r *EvidenceRequirement) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requirements[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListRequirements(_ context.Context, cid id.ControlID) ([]*EvidenceRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*EvidenceRequirement, 0)
	for _, r := range s.requirements {
		if r.ControlID == cid && r.IsActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) Stats(ctx context.Context, fid id.FrameworkID) (*FrameworkStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &FrameworkStats{}
	domainIDs := make(map[id.DomainID]struct{})
	for _, d := range s.domains {
		if d.FrameworkID == fid {
			domainIDs[d.ID] = struct{}{}
			stats.Domains++
		}
	}
	categoryIDs := make(map[id.CategoryID]struct{})
	for _, c := range s.categories {
		if _, ok := domainIDs[c.DomainID]; ok {
			categoryIDs[c.ID] = struct{}{}
			stats.Categories++
		}
	}
	subcategoryIDs := make(map[id.SubcategoryID]struct{})
	for _, sc := range s.subcategories {
		if _, ok := categoryIDs[sc.CategoryID]; ok {
			subcategoryIDs[sc.ID] = struct{}{}
			stats.Subcategories++
		}
	}
	controlIDs := make(map[id.ControlID]struct{})
	for _, c := range s.controls {
		if _, ok := subcategoryIDs[c.SubcategoryID]; ok {
			controlIDs[c.ID] = struct{}{}
			stats.Controls++
		}
	}
	for _, q := range s.questions {
		if _, ok := controlIDs[q.ControlID]; ok {
			stats.Questions++
		}
	}
	for _, r := range s.requirements {
		if _, ok := controlIDs[r.ControlID]; ok {
			stats.Requirements++
		}
	}
	return stats, nil
}
