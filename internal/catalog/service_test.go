package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/sentinel"
)

func newTestService() (*Service, *InMemoryStore) {
	store := NewInMemoryStore()
	return NewService(store), store
}

// seedFramework builds a small SOX-shaped tree: one framework, one domain,
// one category, one subcategory, two controls.
func seedFramework(t *testing.T, svc *Service) (*Framework, *Subcategory, []*Control) {
	t.Helper()
	ctx := context.Background()

	fw, err := svc.CreateFramework(ctx, &Framework{
		Name:          "SOX",
		FullName:      "Sarbanes-Oxley Act",
		Version:       "2024.1",
		EffectiveDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        FrameworkActive,
	})
	require.NoError(t, err)

	dom, err := svc.AddDomain(ctx, &Domain{
		FrameworkID: fw.ID, Name: "IT General Controls", Code: "ITGC",
	})
	require.NoError(t, err)

	cat, err := svc.AddCategory(ctx, &Category{
		DomainID: dom.ID, Name: "Access Controls", Code: "AC",
	})
	require.NoError(t, err)

	sub, err := svc.AddSubcategory(ctx, &Subcategory{
		CategoryID: cat.ID, Name: "User Access Management", Code: "UAM",
	})
	require.NoError(t, err)

	c1, err := svc.AddControl(ctx, &Control{
		SubcategoryID: sub.ID,
		ControlCode:   "AC-001",
		Title:         "User access reviews",
		ControlType:   ControlPreventive,
		Frequency:     FrequencyQuarterly,
		RiskLevel:     RiskHigh,
	})
	require.NoError(t, err)

	c2, err := svc.AddControl(ctx, &Control{
		SubcategoryID: sub.ID,
		ControlCode:   "AC-002",
		Title:         "Privileged account monitoring",
		ControlType:   ControlDetective,
		Frequency:     FrequencyContinuous,
		RiskLevel:     RiskHigh,
	})
	require.NoError(t, err)

	return fw, sub, []*Control{c1, c2}
}

func TestCreateFramework(t *testing.T) {
	t.Run("assigns id and defaults to draft", func(t *testing.T) {
		svc, _ := newTestService()
		fw, err := svc.CreateFramework(context.Background(), &Framework{
			Name: "ISO 27001", Version: "2022",
		})
		require.NoError(t, err)
		assert.False(t, fw.ID.IsNil())
		assert.Equal(t, FrameworkDraft, fw.Status)
		assert.True(t, fw.IsActive)
	})

	t.Run("duplicate name and version conflicts", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.CreateFramework(context.Background(), &Framework{Name: "SOX", Version: "2024.1"})
		require.NoError(t, err)
		_, err = svc.CreateFramework(context.Background(), &Framework{Name: "SOX", Version: "2024.1"})
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("same name different version allowed", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.CreateFramework(context.Background(), &Framework{Name: "SOX", Version: "2024.1"})
		require.NoError(t, err)
		_, err = svc.CreateFramework(context.Background(), &Framework{Name: "SOX", Version: "2024.2"})
		assert.NoError(t, err)
	})

	t.Run("name over 50 characters rejected", func(t *testing.T) {
		svc, _ := newTestService()
		long := make([]byte, 51)
		for i := range long {
			long[i] = 'x'
		}
		_, err := svc.CreateFramework(context.Background(), &Framework{Name: string(long), Version: "1"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestAddControl(t *testing.T) {
	svc, _ := newTestService()
	_, sub, _ := seedFramework(t, svc)

	t.Run("malformed control code rejected", func(t *testing.T) {
		for _, code := range []string{"ac-001", "A-001", "ABCDE-001", "AC-01", "AC001", ""} {
			_, err := svc.AddControl(context.Background(), &Control{
				SubcategoryID: sub.ID, ControlCode: code, Title: "t",
				ControlType: ControlPreventive, Frequency: FrequencyDaily, RiskLevel: RiskLow,
			})
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation), "code %q", code)
		}
	})

	t.Run("duplicate control code conflicts globally", func(t *testing.T) {
		_, err := svc.AddControl(context.Background(), &Control{
			SubcategoryID: sub.ID, ControlCode: "AC-001", Title: "duplicate",
			ControlType: ControlPreventive, Frequency: FrequencyDaily, RiskLevel: RiskLow,
		})
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})
}

func TestAddQuestion(t *testing.T) {
	svc, _ := newTestService()
	_, _, controls := seedFramework(t, svc)

	t.Run("multiple choice requires options", func(t *testing.T) {
		_, err := svc.AddQuestion(context.Background(), &AssessmentQuestion{
			ControlID: controls[0].ID, Question: "Pick one", QuestionType: QuestionMultipleChoice,
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("yes/no question accepted", func(t *testing.T) {
		q, err := svc.AddQuestion(context.Background(), &AssessmentQuestion{
			ControlID: controls[0].ID, Question: "Are reviews documented?", QuestionType: QuestionYesNo,
		})
		require.NoError(t, err)
		assert.False(t, q.ID.IsNil())
	})
}

func TestSearchControls(t *testing.T) {
	svc, _ := newTestService()
	seedFramework(t, svc)

	t.Run("matches code and title case-insensitively", func(t *testing.T) {
		byCode, err := svc.SearchControls(context.Background(), "ac-001")
		require.NoError(t, err)
		require.Len(t, byCode, 1)
		assert.Equal(t, "AC-001", byCode[0].ControlCode)

		byTitle, err := svc.SearchControls(context.Background(), "privileged")
		require.NoError(t, err)
		require.Len(t, byTitle, 1)
		assert.Equal(t, "AC-002", byTitle[0].ControlCode)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		_, err := svc.SearchControls(context.Background(), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestStats(t *testing.T) {
	svc, _ := newTestService()
	fw, _, controls := seedFramework(t, svc)

	_, err := svc.AddQuestion(context.Background(), &AssessmentQuestion{
		ControlID: controls[0].ID, Question: "Documented?", QuestionType: QuestionYesNo,
	})
	require.NoError(t, err)
	_, err = svc.AddRequirement(context.Background(), &EvidenceRequirement{
		ControlID: controls[0].ID, Title: "Review sign-off", EvidenceType: EvidenceDocument,
	})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), fw.ID)
	require.NoError(t, err)
	assert.Equal(t, &FrameworkStats{
		Domains: 1, Categories: 1, Subcategories: 1,
		Controls: 2, Questions: 1, Requirements: 1,
	}, stats)

	t.Run("unknown framework is not found", func(t *testing.T) {
		_, err := svc.Stats(context.Background(), id.FrameworkID(uuid.New()))
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})
}

func TestCloneFramework(t *testing.T) {
	svc, store := newTestService()
	fw, _, _ := seedFramework(t, svc)

	t.Run("clones hierarchy into a new draft version", func(t *testing.T) {
		clone, err := svc.CloneFramework(context.Background(), fw.ID, "2025.1")
		require.NoError(t, err)
		assert.NotEqual(t, fw.ID, clone.ID)
		assert.Equal(t, "SOX", clone.Name)
		assert.Equal(t, "2025.1", clone.Version)
		assert.Equal(t, FrameworkDraft, clone.Status)

		stats, err := store.Stats(context.Background(), clone.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Domains)
		assert.Equal(t, 1, stats.Categories)
		assert.Equal(t, 1, stats.Subcategories)
		// controls stay with the source version; codes are globally unique
		assert.Equal(t, 0, stats.Controls)
	})

	t.Run("same version rejected", func(t *testing.T) {
		_, err := svc.CloneFramework(context.Background(), fw.ID, "2024.1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown source is not found", func(t *testing.T) {
		_, err := svc.CloneFramework(context.Background(), id.FrameworkID(uuid.New()), "9")
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})
}

func TestListControlsByFramework(t *testing.T) {
	svc, store := newTestService()
	fw, _, _ := seedFramework(t, svc)

	// a second framework's controls must not leak into the listing
	other, _, _ := func() (*Framework, *Subcategory, []*Control) {
		ctx := context.Background()
		f, err := svc.CreateFramework(ctx, &Framework{Name: "ISO 27001", Version: "2022", Status: FrameworkActive})
		require.NoError(t, err)
		d, err := svc.AddDomain(ctx, &Domain{FrameworkID: f.ID, Name: "Organizational", Code: "ORG"})
		require.NoError(t, err)
		c, err := svc.AddCategory(ctx, &Category{DomainID: d.ID, Name: "Policies", Code: "POL"})
		require.NoError(t, err)
		sc, err := svc.AddSubcategory(ctx, &Subcategory{CategoryID: c.ID, Name: "InfoSec Policy", Code: "ISP"})
		require.NoError(t, err)
		ctl, err := svc.AddControl(ctx, &Control{
			SubcategoryID: sc.ID, ControlCode: "ORG-001", Title: "Policy review",
			ControlType: ControlPreventive, Frequency: FrequencyAnnually, RiskLevel: RiskMedium,
		})
		require.NoError(t, err)
		return f, sc, []*Control{ctl}
	}()

	controls, err := store.ListControlsByFramework(context.Background(), fw.ID)
	require.NoError(t, err)
	require.Len(t, controls, 2)
	assert.Equal(t, "AC-001", controls[0].ControlCode)
	assert.Equal(t, "AC-002", controls[1].ControlCode)

	otherControls, err := store.ListControlsByFramework(context.Background(), other.ID)
	require.NoError(t, err)
	require.Len(t, otherControls, 1)
	assert.Equal(t, "ORG-001", otherControls[0].ControlCode)
}

func TestListActiveFrameworks_Filter(t *testing.T) {
	svc, store := newTestService()
	fw, _, _ := seedFramework(t, svc)
	other, err := svc.CreateFramework(context.Background(), &Framework{Name: "GDPR", Version: "1", Status: FrameworkActive})
	require.NoError(t, err)

	t.Run("nil filter returns all", func(t *testing.T) {
		all, err := store.ListActiveFrameworks(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("empty filter returns none", func(t *testing.T) {
		none, err := store.ListActiveFrameworks(context.Background(), []id.FrameworkID{})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("explicit filter narrows", func(t *testing.T) {
		one, err := store.ListActiveFrameworks(context.Background(), []id.FrameworkID{fw.ID})
		require.NoError(t, err)
		require.Len(t, one, 1)
		assert.Equal(t, fw.ID, one[0].ID)
		_ = other
	})
}
