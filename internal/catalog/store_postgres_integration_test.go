//go:build integration

package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"compliancehub/internal/catalog"
	"compliancehub/internal/tenant/registry"
	"compliancehub/internal/tenant/router"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
	"compliancehub/pkg/requestcontext"
	"compliancehub/pkg/testutil/containers"
)

const catalogSchema = `
CREATE TABLE frameworks (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	full_name TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	version TEXT NOT NULL,
	effective_date TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	updated_by TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (name, version)
);

CREATE TABLE domains (
	id UUID PRIMARY KEY,
	framework_id UUID NOT NULL REFERENCES frameworks(id),
	name TEXT NOT NULL,
	code TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	sort_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (framework_id, code)
);

CREATE TABLE categories (
	id UUID PRIMARY KEY,
	domain_id UUID NOT NULL REFERENCES domains(id),
	name TEXT NOT NULL,
	code TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	sort_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (domain_id, code)
);

CREATE TABLE subcategories (
	id UUID PRIMARY KEY,
	category_id UUID NOT NULL REFERENCES categories(id),
	name TEXT NOT NULL,
	code TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	sort_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (category_id, code)
);

CREATE TABLE controls (
	id UUID PRIMARY KEY,
	subcategory_id UUID NOT NULL REFERENCES subcategories(id),
	control_code TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	objective TEXT NOT NULL DEFAULT '',
	control_type TEXT NOT NULL,
	frequency TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	sort_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE assessment_questions (
	id UUID PRIMARY KEY,
	control_id UUID NOT NULL REFERENCES controls(id),
	question TEXT NOT NULL,
	question_type TEXT NOT NULL,
	options JSONB,
	is_mandatory BOOLEAN NOT NULL DEFAULT FALSE,
	sort_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE evidence_requirements (
	id UUID PRIMARY KEY,
	control_id UUID NOT NULL REFERENCES controls(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	evidence_type TEXT NOT NULL,
	is_mandatory BOOLEAN NOT NULL DEFAULT FALSE,
	file_format TEXT NOT NULL DEFAULT '',
	sort_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);
`

type CatalogPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *catalog.PostgresStore
}

func TestCatalogPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CatalogPostgresSuite))
}

func (s *CatalogPostgresSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.ApplySchema(context.Background(), s.T(), catalogSchema)

	reg := registry.New(s.postgres.DB)
	s.store = catalog.NewPostgresStore(router.New(reg))
}

func (s *CatalogPostgresSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"evidence_requirements", "assessment_questions", "controls",
		"subcategories", "categories", "domains", "frameworks")
	s.Require().NoError(err)
}

func newTestFramework(name, version string) *catalog.Framework {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &catalog.Framework{
		ID:            id.FrameworkID(uuid.New()),
		Name:          name,
		FullName:      name + " Compliance Framework",
		Version:       version,
		EffectiveDate: now,
		Status:        catalog.FrameworkActive,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
	}
}

func (s *CatalogPostgresSuite) seedHierarchy(f *catalog.Framework, codes ...string) []*catalog.Control {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	s.Require().NoError(s.store.CreateFramework(ctx, f))

	d := &catalog.Domain{
		ID: id.DomainID(uuid.New()), FrameworkID: f.ID,
		Name: "IT General Controls", Code: "ITGC",
		CreatedAt: now, UpdatedAt: now, IsActive: true,
	}
	s.Require().NoError(s.store.CreateDomain(ctx, d))

	c := &catalog.Category{
		ID: id.CategoryID(uuid.New()), DomainID: d.ID,
		Name: "Access Controls", Code: "AC",
		CreatedAt: now, UpdatedAt: now, IsActive: true,
	}
	s.Require().NoError(s.store.CreateCategory(ctx, c))

	sc := &catalog.Subcategory{
		ID: id.SubcategoryID(uuid.New()), CategoryID: c.ID,
		Name: "User Access Management", Code: "UAM",
		CreatedAt: now, UpdatedAt: now, IsActive: true,
	}
	s.Require().NoError(s.store.CreateSubcategory(ctx, sc))

	controls := make([]*catalog.Control, 0, len(codes))
	for i, code := range codes {
		ctl := &catalog.Control{
			ID: id.ControlID(uuid.New()), SubcategoryID: sc.ID,
			ControlCode: code, Title: "Control " + code,
			ControlType: catalog.ControlPreventive,
			Frequency:   catalog.FrequencyQuarterly,
			RiskLevel:   catalog.RiskHigh,
			SortOrder:   i,
			CreatedAt:   now, UpdatedAt: now, IsActive: true,
		}
		s.Require().NoError(s.store.CreateControl(ctx, ctl))
		controls = append(controls, ctl)
	}
	return controls
}

func (s *CatalogPostgresSuite) TestFrameworkRoundTrip() {
	ctx := context.Background()

	f := newTestFramework("SOX", "2024.1")
	s.Require().NoError(s.store.CreateFramework(ctx, f))

	got, err := s.store.GetFramework(ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(f.ID, got.ID)
	s.Equal("SOX", got.Name)
	s.Equal(catalog.FrameworkActive, got.Status)
	s.WithinDuration(f.EffectiveDate, got.EffectiveDate, time.Second)
}

func (s *CatalogPostgresSuite) TestDuplicateNameVersionConflicts() {
	ctx := context.Background()

	s.Require().NoError(s.store.CreateFramework(ctx, newTestFramework("SOX", "2024.1")))

	err := s.store.CreateFramework(ctx, newTestFramework("SOX", "2024.1"))
	s.ErrorIs(err, sentinel.ErrConflict)

	// Same name with a different version is fine.
	s.NoError(s.store.CreateFramework(ctx, newTestFramework("SOX", "2024.2")))
}

func (s *CatalogPostgresSuite) TestListActiveFrameworksFilter() {
	ctx := context.Background()

	f1 := newTestFramework("SOX", "2024.1")
	f2 := newTestFramework("ISO27001", "2022")
	s.Require().NoError(s.store.CreateFramework(ctx, f1))
	s.Require().NoError(s.store.CreateFramework(ctx, f2))

	all, err := s.store.ListActiveFrameworks(ctx, nil)
	s.Require().NoError(err)
	s.Len(all, 2)

	none, err := s.store.ListActiveFrameworks(ctx, []id.FrameworkID{})
	s.Require().NoError(err)
	s.Empty(none)

	one, err := s.store.ListActiveFrameworks(ctx, []id.FrameworkID{f1.ID})
	s.Require().NoError(err)
	s.Require().Len(one, 1)
	s.Equal(f1.ID, one[0].ID)
}

func (s *CatalogPostgresSuite) TestListControlsWalksHierarchy() {
	ctx := context.Background()

	f := newTestFramework("SOX", "2024.1")
	s.seedHierarchy(f, "AC-001", "AC-002", "AC-003")

	// A second framework's controls must not bleed in.
	other := newTestFramework("ISO27001", "2022")
	s.seedHierarchy(other, "IAM-001")

	controls, err := s.store.ListControlsByFramework(ctx, f.ID)
	s.Require().NoError(err)
	s.Require().Len(controls, 3)
	s.Equal("AC-001", controls[0].ControlCode)
	s.Equal("AC-003", controls[2].ControlCode)
}

func (s *CatalogPostgresSuite) TestGlobalControlCodeUniqueness() {
	ctx := context.Background()

	f := newTestFramework("SOX", "2024.1")
	controls := s.seedHierarchy(f, "AC-001")

	dup := *controls[0]
	dup.ID = id.ControlID(uuid.New())
	err := s.store.CreateControl(ctx, &dup)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *CatalogPostgresSuite) TestSearchControls() {
	ctx := context.Background()

	f := newTestFramework("SOX", "2024.1")
	s.seedHierarchy(f, "AC-001", "AC-002")

	found, err := s.store.SearchControls(ctx, "ac-00")
	s.Require().NoError(err)
	s.Len(found, 2, "control code search is case-insensitive")

	found, err = s.store.SearchControls(ctx, "no-such-control")
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *CatalogPostgresSuite) TestQuestionOptionsRoundTrip() {
	ctx := context.Background()

	f := newTestFramework("SOX", "2024.1")
	controls := s.seedHierarchy(f, "AC-001")
	now := time.Now().UTC().Truncate(time.Microsecond)

	q := &catalog.AssessmentQuestion{
		ID:           id.QuestionID(uuid.New()),
		ControlID:    controls[0].ID,
		Question:     "How often is access reviewed?",
		QuestionType: catalog.QuestionMultipleChoice,
		Options:      []string{"Monthly", "Quarterly", "Annually"},
		IsMandatory:  true,
		CreatedAt:    now, UpdatedAt: now, IsActive: true,
	}
	s.Require().NoError(s.store.AddQuestion(ctx, q))

	questions, err := s.store.ListQuestions(ctx, controls[0].ID)
	s.Require().NoError(err)
	s.Require().Len(questions, 1)
	s.Equal([]string{"Monthly", "Quarterly", "Annually"}, questions[0].Options)
}

func (s *CatalogPostgresSuite) TestStats() {
	ctx := context.Background()

	f := newTestFramework("SOX", "2024.1")
	controls := s.seedHierarchy(f, "AC-001", "AC-002")
	now := time.Now().UTC().Truncate(time.Microsecond)

	r := &catalog.EvidenceRequirement{
		ID:           id.RequirementID(uuid.New()),
		ControlID:    controls[0].ID,
		Title:        "Access review report",
		EvidenceType: catalog.EvidenceReport,
		CreatedAt:    now, UpdatedAt: now, IsActive: true,
	}
	s.Require().NoError(s.store.AddRequirement(ctx, r))

	stats, err := s.store.Stats(ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(1, stats.Domains)
	s.Equal(1, stats.Categories)
	s.Equal(1, stats.Subcategories)
	s.Equal(2, stats.Controls)
	s.Equal(1, stats.Requirements)
}

// Template reads must hit the central database even while a tenant is bound;
// no tenant database is registered here, so a routing mistake would surface
// as a provisioning error.
func (s *CatalogPostgresSuite) TestTemplatesResolveCentrallyUnderTenantBinding() {
	ctx := requestcontext.WithTenant(context.Background(), "techcorp")

	f := newTestFramework("SOX", "2024.1")
	s.Require().NoError(s.store.CreateFramework(ctx, f))

	got, err := s.store.GetFramework(ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(f.ID, got.ID)
}

func (s *CatalogPostgresSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.GetFramework(ctx, id.FrameworkID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.GetControl(ctx, id.ControlID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
