package catalog

import (
	"context"

	id "compliancehub/pkg/domain"
)

// Store is the data-access boundary for the template catalog. All reads and
// writes target the central database regardless of any bound tenant; the
// Postgres implementation resolves its handle through the entity router so
// that guarantee is enforced in one place.
type Store interface {
	CreateFramework(ctx context.Context, f *Framework) error
	GetFramework(ctx context.Context, fid id.FrameworkID) (*Framework, error)
	// ListActiveFrameworks returns active frameworks, optionally filtered to
	// the given ids. A nil filter means all active frameworks; an empty
	// non-nil filter means none. Callers distributing templates depend on
	// that distinction.
	ListActiveFrameworks(ctx context.Context, filter []id.FrameworkID) ([]*Framework, error)

	CreateDomain(ctx context.Context, d *Domain) error
	ListDomains(ctx context.Context, fid id.FrameworkID) ([]*Domain, error)
	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context, did id.DomainID) ([]*Category, error)
	CreateSubcategory(ctx context.Context, s *Subcategory) error
	ListSubcategories(ctx context.Context, cid id.CategoryID) ([]*Subcategory, error)

	CreateControl(ctx context.Context, c *Control) error
	GetControl(ctx context.Context, cid id.ControlID) (*Control, error)
	// ListControlsByFramework walks Subcategory→Category→Domain to collect
	// every active control transitively under the framework.
	ListControlsByFramework(ctx context.Context, fid id.FrameworkID) ([]*Control, error)
	SearchControls(ctx context.Context, query string) ([]*Control, error)

	AddQuestion(ctx context.Context, q *AssessmentQuestion) error
	ListQuestions(ctx context.Context, cid id.ControlID) ([]*AssessmentQuestion, error)
	AddRequirement(ctx context.Context, r *EvidenceRequirement) error
	ListRequirements(ctx context.Context, cid id.ControlID) ([]*EvidenceRequirement, error)

	Stats(ctx context.Context, fid id.FrameworkID) (*FrameworkStats, error)
}
