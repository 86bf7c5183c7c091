package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	pstrings "compliancehub/pkg/platform/strings"
	"compliancehub/pkg/requestcontext"
)

// Service owns catalog authoring: framework lifecycle, hierarchy building and
// the read surface used by admins and the distribution engine.
type Service struct {
	store  Store
	logger *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}

// CreateFramework registers a new template framework version in DRAFT status
// unless the caller picked a status explicitly.
func (s *Service) CreateFramework(ctx context.Context, f *Framework) (*Framework, error) {
	if f.ID.IsNil() {
		f.ID = id.FrameworkID(uuid.New())
	}
	if f.Status == "" {
		f.Status = FrameworkDraft
	}
	now := s.now(ctx)
	f.CreatedAt, f.UpdatedAt = now, now
	f.IsActive = true

	if err := s.store.CreateFramework(ctx, f); err != nil {
		return nil, err
	}
	s.logger.Info("framework created",
		"framework_id", f.ID.String(), "name", f.Name, "version", f.Version)
	return f, nil
}

func (s *Service) GetFramework(ctx context.Context, fid id.FrameworkID) (*Framework, error) {
	return s.store.GetFramework(ctx, fid)
}

func (s *Service) ListActiveFrameworks(ctx context.Context) ([]*Framework, error) {
	return s.store.ListActiveFrameworks(ctx, nil)
}

func (s *Service) AddDomain(ctx context.Context, d *Domain) (*Domain, error) {
	if d.ID.IsNil() {
		d.ID = id.DomainID(uuid.New())
	}
	now := s.now(ctx)
	d.CreatedAt, d.UpdatedAt = now, now
	d.IsActive = true
	if err := s.store.CreateDomain(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) AddCategory(ctx context.Context, c *Category) (*Category, error) {
	if c.ID.IsNil() {
		c.ID = id.CategoryID(uuid.New())
	}
	now := s.now(ctx)
	c.CreatedAt, c.UpdatedAt = now, now
	c.IsActive = true
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) AddSubcategory(ctx context.Context, sc *Subcategory) (*Subcategory, error) {
	if sc.ID.IsNil() {
		sc.ID = id.SubcategoryID(uuid.New())
	}
	now := s.now(ctx)
	sc.CreatedAt, sc.UpdatedAt = now, now
	sc.IsActive = true
	if err := s.store.CreateSubcategory(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Service) AddControl(ctx context.Context, c *Control) (*Control, error) {
	if c.ID.IsNil() {
		c.ID = id.ControlID(uuid.New())
	}
	now := s.now(ctx)
	c.CreatedAt, c.UpdatedAt = now, now
	c.IsActive = true
	if err := s.store.CreateControl(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("control created", "control_code", c.ControlCode)
	return c, nil
}

func (s *Service) AddQuestion(ctx context.Context, q *AssessmentQuestion) (*AssessmentQuestion, error) {
	if q.ID.IsNil() {
		q.ID = id.QuestionID(uuid.New())
	}
	// duplicate options in a multiple-choice question are authoring noise
	q.Options = pstrings.DedupeAndTrim(q.Options)
	now := s.now(ctx)
	q.CreatedAt, q.UpdatedAt = now, now
	q.IsActive = true
	if err := s.store.AddQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) AddRequirement(ctx context.Context, r *EvidenceRequirement) (*EvidenceRequirement, error) {
	if r.ID.IsNil() {
		r.ID = id.RequirementID(uuid.New())
	}
	now := s.now(ctx)
	r.CreatedAt, r.UpdatedAt = now, now
	r.IsActive = true
	if err := s.store.AddRequirement(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) SearchControls(ctx context.Context, query string) ([]*Control, error) {
	if query == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "search query cannot be empty")
	}
	return s.store.SearchControls(ctx, query)
}

// ListControlsByFramework returns the active controls under a framework,
// walking the full grouping hierarchy.
func (s *Service) ListControlsByFramework(ctx context.Context, fid id.FrameworkID) ([]*Control, error) {
	if _, err := s.store.GetFramework(ctx, fid); err != nil {
		return nil, err
	}
	return s.store.ListControlsByFramework(ctx, fid)
}

func (s *Service) Stats(ctx context.Context, fid id.FrameworkID) (*FrameworkStats, error) {
	if _, err := s.store.GetFramework(ctx, fid); err != nil {
		return nil, err
	}
	return s.store.Stats(ctx, fid)
}

// CloneFramework copies a framework and its grouping hierarchy (domains,
// categories, subcategories) into a new DRAFT version. Controls are not
// cloned: control codes are globally unique, so controls are re-pointed or
// re-authored against the new version before it is activated.
func (s *Service) CloneFramework(ctx context.Context, fid id.FrameworkID, newVersion string) (*Framework, error) {
	if newVersion == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "new version cannot be empty")
	}
	src, err := s.store.GetFramework(ctx, fid)
	if err != nil {
		return nil, err
	}
	if src.Version == newVersion {
		return nil, dErrors.New(dErrors.CodeConflict, "clone version matches the source version")
	}

	now := s.now(ctx)
	clone := *src
	clone.ID = id.FrameworkID(uuid.New())
	clone.Version = newVersion
	clone.Status = FrameworkDraft
	clone.CreatedAt, clone.UpdatedAt = now, now
	if err := s.store.CreateFramework(ctx, &clone); err != nil {
		return nil, err
	}

	domains, err := s.store.ListDomains(ctx, src.ID)
	if err != nil {
		return nil, fmt.Errorf("clone framework: %w", err)
	}
	for _, d := range domains {
		nd := *d
		nd.ID = id.DomainID(uuid.New())
		nd.FrameworkID = clone.ID
		nd.CreatedAt, nd.UpdatedAt = now, now
		if err := s.store.CreateDomain(ctx, &nd); err != nil {
			return nil, fmt.Errorf("clone domain %s: %w", d.Code, err)
		}

		categories, err := s.store.ListCategories(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("clone framework: %w", err)
		}
		for _, c := range categories {
			nc := *c
			nc.ID = id.CategoryID(uuid.New())
			nc.DomainID = nd.ID
			nc.CreatedAt, nc.UpdatedAt = now, now
			if err := s.store.CreateCategory(ctx, &nc); err != nil {
				return nil, fmt.Errorf("clone category %s: %w", c.Code, err)
			}

			subcategories, err := s.store.ListSubcategories(ctx, c.ID)
			if err != nil {
				return nil, fmt.Errorf("clone framework: %w", err)
			}
			for _, sc := range subcategories {
				nsc := *sc
				nsc.ID = id.SubcategoryID(uuid.New())
				nsc.CategoryID = nc.ID
				nsc.CreatedAt, nsc.UpdatedAt = now, now
				if err := s.store.CreateSubcategory(ctx, &nsc); err != nil {
					return nil, fmt.Errorf("clone subcategory %s: %w", sc.Code, err)
				}
			}
		}
	}

	s.logger.Info("framework cloned",
		"source_id", src.ID.String(), "clone_id", clone.ID.String(),
		"name", clone.Name, "version", newVersion)
	return &clone, nil
}
