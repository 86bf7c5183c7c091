package distribution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliancehub/internal/catalog"
	"compliancehub/internal/company"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/audit"
	"compliancehub/pkg/requestcontext"
)

type engineFixture struct {
	engine   *Engine
	catalog  *catalog.InMemoryStore
	company  *company.InMemoryStore
	recorder *audit.Recorder
}

func newEngineFixture() *engineFixture {
	cat := catalog.NewInMemoryStore()
	comp := company.NewInMemoryStore()
	rec := audit.NewRecorder()
	return &engineFixture{
		engine:   NewEngine(cat, comp, WithAuditor(rec)),
		catalog:  cat,
		company:  comp,
		recorder: rec,
	}
}

// seedSOX builds a SOX framework with one domain/category/subcategory chain
// and the given control codes.
func (f *engineFixture) seedSOX(t *testing.T, codes ...string) *catalog.Framework {
	t.Helper()
	ctx := context.Background()

	fw := &catalog.Framework{
		ID: id.FrameworkID(uuid.New()), Name: "SOX", FullName: "Sarbanes-Oxley Act",
		Version: "2024.1", Status: catalog.FrameworkActive, IsActive: true,
	}
	require.NoError(t, f.catalog.CreateFramework(ctx, fw))

	dom := &catalog.Domain{
		ID: id.DomainID(uuid.New()), FrameworkID: fw.ID,
		Name: "IT General Controls", Code: "ITGC", IsActive: true,
	}
	require.NoError(t, f.catalog.CreateDomain(ctx, dom))
	cat := &catalog.Category{
		ID: id.CategoryID(uuid.New()), DomainID: dom.ID,
		Name: "Access Controls", Code: "AC", IsActive: true,
	}
	require.NoError(t, f.catalog.CreateCategory(ctx, cat))
	sub := &catalog.Subcategory{
		ID: id.SubcategoryID(uuid.New()), CategoryID: cat.ID,
		Name: "User Access Management", Code: "UAM", IsActive: true,
	}
	require.NoError(t, f.catalog.CreateSubcategory(ctx, sub))

	for i, code := range codes {
		ctl := &catalog.Control{
			ID: id.ControlID(uuid.New()), SubcategoryID: sub.ID,
			ControlCode: code, Title: "Control " + code,
			ControlType: catalog.ControlPreventive,
			Frequency:   catalog.FrequencyQuarterly,
			RiskLevel:   catalog.RiskHigh,
			SortOrder:   i + 1,
			IsActive:    true,
		}
		require.NoError(t, f.catalog.CreateControl(ctx, ctl))
	}
	return fw
}

func TestDistribute_EndToEnd(t *testing.T) {
	f := newEngineFixture()
	f.seedSOX(t, "AC-001", "AC-002", "AC-003")

	report, err := f.engine.Distribute(context.Background(), "techcorp", nil)
	require.NoError(t, err)
	require.Len(t, report.Frameworks, 1)
	assert.Equal(t, "SOX", report.Frameworks[0].FrameworkName)
	assert.Equal(t, "2024.1", report.Frameworks[0].Version)
	assert.Equal(t, 3, report.Frameworks[0].ControlsCopied)
	assert.False(t, report.Frameworks[0].Skipped)
	assert.Empty(t, report.Frameworks[0].Error)

	// the tenant now holds the flattened copy
	tenantCtx := requestcontext.WithTenant(context.Background(), "techcorp")
	fw, err := f.company.GetFrameworkByNameVersion(tenantCtx, "SOX", "2024.1")
	require.NoError(t, err)
	assert.False(t, fw.TemplateFrameworkID.IsNil())

	controls, err := f.company.ListControlsByFramework(tenantCtx, fw.ID)
	require.NoError(t, err)
	require.Len(t, controls, 3)
	assert.Equal(t, "AC-001", controls[0].ControlCode)
	for _, c := range controls {
		// flattened: controls link to the framework, not a subcategory
		assert.True(t, c.SubcategoryID.IsNil())
		assert.Equal(t, fw.ID, c.FrameworkID)
		assert.False(t, c.TemplateControlID.IsNil())
	}

	events := f.recorder.ByAction(audit.ActionFrameworkDistributed)
	require.Len(t, events, 1)
	assert.Equal(t, "techcorp", events[0].TenantSlug)
	assert.Equal(t, "ok", events[0].Outcome)
}

func TestDistribute_Idempotent(t *testing.T) {
	f := newEngineFixture()
	f.seedSOX(t, "AC-001", "AC-002")

	first, err := f.engine.Distribute(context.Background(), "techcorp", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CopiedCount())

	second, err := f.engine.Distribute(context.Background(), "techcorp", nil)
	require.NoError(t, err)
	require.Len(t, second.Frameworks, 1)
	assert.True(t, second.Frameworks[0].Skipped)
	assert.Equal(t, 0, second.Frameworks[0].ControlsCopied)
	assert.Equal(t, 0, second.CopiedCount())

	// no duplicate rows appeared
	tenantCtx := requestcontext.WithTenant(context.Background(), "techcorp")
	fw, err := f.company.GetFrameworkByNameVersion(tenantCtx, "SOX", "2024.1")
	require.NoError(t, err)
	controls, err := f.company.ListControlsByFramework(tenantCtx, fw.ID)
	require.NoError(t, err)
	assert.Len(t, controls, 2)
}

func TestDistribute_FrameworkSelection(t *testing.T) {
	f := newEngineFixture()
	sox := f.seedSOX(t, "AC-001")

	iso := &catalog.Framework{
		ID: id.FrameworkID(uuid.New()), Name: "ISO 27001",
		Version: "2022", Status: catalog.FrameworkActive, IsActive: true,
	}
	require.NoError(t, f.catalog.CreateFramework(context.Background(), iso))

	t.Run("nil copies all active", func(t *testing.T) {
		report, err := f.engine.Distribute(context.Background(), "all-corp", nil)
		require.NoError(t, err)
		assert.Len(t, report.Frameworks, 2)
	})

	t.Run("empty set copies none", func(t *testing.T) {
		report, err := f.engine.Distribute(context.Background(), "none-corp", []id.FrameworkID{})
		require.NoError(t, err)
		assert.Empty(t, report.Frameworks)

		tenantCtx := requestcontext.WithTenant(context.Background(), "none-corp")
		fws, err := f.company.ListFrameworks(tenantCtx)
		require.NoError(t, err)
		assert.Empty(t, fws)
	})

	t.Run("explicit ids narrow the copy", func(t *testing.T) {
		report, err := f.engine.Distribute(context.Background(), "sox-corp", []id.FrameworkID{sox.ID})
		require.NoError(t, err)
		require.Len(t, report.Frameworks, 1)
		assert.Equal(t, "SOX", report.Frameworks[0].FrameworkName)
	})
}

func TestDistribute_BindingDoesNotLeak(t *testing.T) {
	f := newEngineFixture()
	f.seedSOX(t, "AC-001")

	// caller has some other tenant bound; distribution must neither read
	// templates from it nor leave any binding behind
	ctx := requestcontext.WithTenant(context.Background(), "other-corp")
	_, err := f.engine.Distribute(ctx, "techcorp", nil)
	require.NoError(t, err)

	assert.Equal(t, "other-corp", requestcontext.Tenant(ctx))

	otherCtx := requestcontext.WithTenant(context.Background(), "other-corp")
	fws, err := f.company.ListFrameworks(otherCtx)
	require.NoError(t, err)
	assert.Empty(t, fws, "distribution wrote into the wrong tenant")
}

func TestDistribute_EmptySlug(t *testing.T) {
	f := newEngineFixture()
	_, err := f.engine.Distribute(context.Background(), "", nil)
	require.Error(t, err)
}

// failingCompanyStore wraps the in-memory store and fails control creation
// for one control code.
type failingCompanyStore struct {
	company.Store
	failCode string
}

func (s *failingCompanyStore) CreateControl(ctx context.Context, c *company.CompanyControl) error {
	if c.ControlCode == s.failCode {
		return errors.New("disk full")
	}
	return s.Store.CreateControl(ctx, c)
}

func TestDistribute_PerItemErrorCapture(t *testing.T) {
	cat := catalog.NewInMemoryStore()
	comp := company.NewInMemoryStore()
	f := &engineFixture{catalog: cat, company: comp, recorder: audit.NewRecorder()}
	f.engine = NewEngine(cat, &failingCompanyStore{Store: comp, failCode: "AC-002"}, WithAuditor(f.recorder))
	f.seedSOX(t, "AC-001", "AC-002", "AC-003")

	report, err := f.engine.Distribute(context.Background(), "techcorp", nil)
	require.NoError(t, err, "partial failure is reported, not returned")
	require.Len(t, report.Frameworks, 1)

	fr := report.Frameworks[0]
	assert.Equal(t, 2, fr.ControlsCopied, "remaining controls still copied")
	assert.Contains(t, fr.Error, "AC-002")
	assert.True(t, report.HasErrors())

	events := f.recorder.ByAction(audit.ActionFrameworkDistributed)
	require.Len(t, events, 1)
	assert.Equal(t, "partial", events[0].Outcome)
}

func TestDistribute_SkipsInactiveFrameworks(t *testing.T) {
	f := newEngineFixture()
	f.seedSOX(t, "AC-001")
	retired := &catalog.Framework{
		ID: id.FrameworkID(uuid.New()), Name: "HIPAA", Version: "2013",
		Status: catalog.FrameworkDeprecated, IsActive: false,
	}
	require.NoError(t, f.catalog.CreateFramework(context.Background(), retired))

	report, err := f.engine.Distribute(context.Background(), "techcorp", nil)
	require.NoError(t, err)
	require.Len(t, report.Frameworks, 1)
	assert.Equal(t, "SOX", report.Frameworks[0].FrameworkName)
}

func TestDistribute_ReportTimestampsConsistent(t *testing.T) {
	f := newEngineFixture()
	f.seedSOX(t, "AC-001", "AC-002")

	fixed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	_, err := f.engine.Distribute(ctx, "techcorp", nil)
	require.NoError(t, err)

	tenantCtx := requestcontext.WithTenant(context.Background(), "techcorp")
	fw, err := f.company.GetFrameworkByNameVersion(tenantCtx, "SOX", "2024.1")
	require.NoError(t, err)
	assert.Equal(t, fixed, fw.ActivatedDate)

	controls, err := f.company.ListControlsByFramework(tenantCtx, fw.ID)
	require.NoError(t, err)
	for _, c := range controls {
		assert.Equal(t, fixed, c.CreatedAt)
	}
}

func TestDistribute_ControlSkipByCode(t *testing.T) {
	f := newEngineFixture()
	f.seedSOX(t, "AC-001", "AC-002")

	// pre-plant a control with the same code under a different framework copy
	tenantCtx := requestcontext.WithTenant(context.Background(), "techcorp")
	existingFW := &company.CompanyFramework{
		ID: id.CompanyFrameworkID(uuid.New()), Name: "Custom", Version: "1", IsActive: true,
	}
	require.NoError(t, f.company.CreateFramework(tenantCtx, existingFW))
	require.NoError(t, f.company.CreateControl(tenantCtx, &company.CompanyControl{
		ID: id.CompanyControlID(uuid.New()), FrameworkID: existingFW.ID,
		ControlCode: "AC-001", Title: "pre-existing",
		ControlType: catalog.ControlPreventive, Frequency: catalog.FrequencyDaily,
		RiskLevel: catalog.RiskLow, IsActive: true,
	}))

	report, err := f.engine.Distribute(context.Background(), "techcorp", nil)
	require.NoError(t, err)
	require.Len(t, report.Frameworks, 1)
	assert.Equal(t, 1, report.Frameworks[0].ControlsCopied, "duplicate code skipped")
	assert.Empty(t, report.Frameworks[0].Error)
}

func TestDistribute_IsolationBetweenTenants(t *testing.T) {
	f := newEngineFixture()
	f.seedSOX(t, "AC-001")

	_, err := f.engine.Distribute(context.Background(), "acme", nil)
	require.NoError(t, err)
	_, err = f.engine.Distribute(context.Background(), "globex", nil)
	require.NoError(t, err)

	for _, slug := range []string{"acme", "globex"} {
		ctx := requestcontext.WithTenant(context.Background(), slug)
		fws, err := f.company.ListFrameworks(ctx)
		require.NoError(t, err)
		assert.Len(t, fws, 1, slug)
	}
}
