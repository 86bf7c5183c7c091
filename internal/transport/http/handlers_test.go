package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliancehub/internal/catalog"
	"compliancehub/internal/company"
	"compliancehub/internal/distribution"
	jwttoken "compliancehub/internal/jwt_token"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/audit"
)

const internalToken = "internal-test-token"

type apiFixture struct {
	server   *httptest.Server
	jwt      *jwttoken.JWTService
	catalog  *catalog.InMemoryStore
	company  *company.InMemoryStore
	recorder *audit.Recorder
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	catalogStore := catalog.NewInMemoryStore()
	companyStore := company.NewInMemoryStore()
	recorder := audit.NewRecorder()

	catalogSvc := catalog.NewService(catalogStore, catalog.WithLogger(logger))
	companySvc := company.NewService(companyStore, catalogStore,
		company.WithLogger(logger), company.WithAuditor(recorder))
	engine := distribution.NewEngine(catalogStore, companyStore,
		distribution.WithLogger(logger), distribution.WithAuditor(recorder))

	jwtSvc := jwttoken.NewJWTService("test-key", "compliancehub", "api")

	router := NewRouter(RouterConfig{
		Catalog:        NewCatalogHandler(catalogSvc, logger),
		Company:        NewCompanyHandler(companySvc, logger),
		Distribution:   distribution.NewHandler(engine, logger),
		TokenValidator: jwtSvc,
		InternalToken:  internalToken,
		BaseDomain:     "compliancehub.io",
		Logger:         logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiFixture{
		server:   srv,
		jwt:      jwtSvc,
		catalog:  catalogStore,
		company:  companyStore,
		recorder: recorder,
	}
}

// seedCatalog plants one active framework with a single control and question.
func (f *apiFixture) seedCatalog(t *testing.T) (*catalog.Framework, *catalog.Control, *catalog.AssessmentQuestion) {
	t.Helper()
	ctx := context.Background()

	fw := &catalog.Framework{
		ID: id.FrameworkID(uuid.New()), Name: "SOX", Version: "2024.1",
		Status: catalog.FrameworkActive, IsActive: true,
	}
	require.NoError(t, f.catalog.CreateFramework(ctx, fw))
	dom := &catalog.Domain{ID: id.DomainID(uuid.New()), FrameworkID: fw.ID, Name: "ITGC", Code: "ITGC", IsActive: true}
	require.NoError(t, f.catalog.CreateDomain(ctx, dom))
	cat := &catalog.Category{ID: id.CategoryID(uuid.New()), DomainID: dom.ID, Name: "Access", Code: "AC", IsActive: true}
	require.NoError(t, f.catalog.CreateCategory(ctx, cat))
	sub := &catalog.Subcategory{ID: id.SubcategoryID(uuid.New()), CategoryID: cat.ID, Name: "UAM", Code: "UAM", IsActive: true}
	require.NoError(t, f.catalog.CreateSubcategory(ctx, sub))
	ctl := &catalog.Control{
		ID: id.ControlID(uuid.New()), SubcategoryID: sub.ID, ControlCode: "AC-001",
		Title: "User access reviews", ControlType: catalog.ControlPreventive,
		Frequency: catalog.FrequencyQuarterly, RiskLevel: catalog.RiskHigh, IsActive: true,
	}
	require.NoError(t, f.catalog.CreateControl(ctx, ctl))
	q := &catalog.AssessmentQuestion{
		ID: id.QuestionID(uuid.New()), ControlID: ctl.ID,
		Question: "Are access reviews performed quarterly?", QuestionType: catalog.QuestionYesNo,
		IsMandatory: true, IsActive: true,
	}
	require.NoError(t, f.catalog.AddQuestion(ctx, q))
	return fw, ctl, q
}

func (f *apiFixture) token(t *testing.T, employeeID int64, tenant string) string {
	t.Helper()
	token, err := f.jwt.GenerateAccessToken(employeeID, tenant, "auditor", time.Hour)
	require.NoError(t, err)
	return token
}

type callOpts struct {
	token    string
	tenant   string
	internal bool
}

func (f *apiFixture) call(t *testing.T, method, path string, body any, opts callOpts) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	if opts.tenant != "" {
		req.Header.Set("X-Tenant-Slug", opts.tenant)
	}
	if opts.internal {
		req.Header.Set("X-Internal-Token", internalToken)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	resp, body := f.call(t, http.MethodGet, "/healthz", nil, callOpts{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestInternalAPIRequiresToken(t *testing.T) {
	f := newAPIFixture(t)
	resp, _ := f.call(t, http.MethodPost, "/internal/distribute",
		map[string]any{"tenant_slug": "techcorp"}, callOpts{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublicAPIRequiresEmployeeToken(t *testing.T) {
	f := newAPIFixture(t)
	resp, _ := f.call(t, http.MethodGet, "/api/v1/frameworks", nil, callOpts{tenant: "techcorp"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTenantRequiredForCompanyData(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t, 7, "")

	resp, body := f.call(t, http.MethodGet, "/api/v1/frameworks", nil, callOpts{token: token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody map[string]string
	require.NoError(t, json.Unmarshal(body, &errBody))
	assert.Equal(t, "tenant_not_bound", errBody["error"])
}

func TestDistributeAndWorkflow(t *testing.T) {
	f := newAPIFixture(t)
	_, _, question := f.seedCatalog(t)

	// operator pushes templates to the tenant
	resp, body := f.call(t, http.MethodPost, "/internal/distribute",
		map[string]any{"tenant_slug": "techcorp"}, callOpts{internal: true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var report struct {
		Frameworks []struct {
			FrameworkName  string `json:"framework_name"`
			ControlsCopied int    `json:"controls_copied"`
		} `json:"frameworks"`
	}
	require.NoError(t, json.Unmarshal(body, &report))
	require.Len(t, report.Frameworks, 1)
	assert.Equal(t, 1, report.Frameworks[0].ControlsCopied)

	auth := callOpts{token: f.token(t, 7, "techcorp"), tenant: "techcorp"}

	// the tenant sees its copy
	resp, body = f.call(t, http.MethodGet, "/api/v1/frameworks", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var frameworks []companyFrameworkResponse
	require.NoError(t, json.Unmarshal(body, &frameworks))
	require.Len(t, frameworks, 1)
	assert.Equal(t, "SOX", frameworks[0].Name)

	resp, body = f.call(t, http.MethodGet,
		fmt.Sprintf("/api/v1/frameworks/%s/controls", frameworks[0].ID), nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var controls []companyControlResponse
	require.NoError(t, json.Unmarshal(body, &controls))
	require.Len(t, controls, 1)
	assert.Empty(t, controls[0].SubcategoryID, "distributed controls hang off the framework")

	// assign the control, walk it into progress, answer the question
	resp, body = f.call(t, http.MethodPost, "/api/v1/assignments", map[string]any{
		"control_id":              controls[0].ID,
		"assigned_to_employee_id": 7,
		"due_date":                time.Now().Add(14 * 24 * time.Hour).Format(time.RFC3339),
	}, auth)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var assignment assignmentResponse
	require.NoError(t, json.Unmarshal(body, &assignment))
	assert.Equal(t, "NOT_STARTED", assignment.Status)
	assert.Equal(t, "MEDIUM", assignment.Priority)

	resp, body = f.call(t, http.MethodGet, "/api/v1/assignments/mine", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []assignmentResponse
	require.NoError(t, json.Unmarshal(body, &mine))
	require.Len(t, mine, 1)

	resp, _ = f.call(t, http.MethodPatch,
		"/api/v1/assignments/"+assignment.ID+"/status",
		map[string]any{"status": "IN_PROGRESS"}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// skipping review is an illegal transition
	resp, _ = f.call(t, http.MethodPatch,
		"/api/v1/assignments/"+assignment.ID+"/status",
		map[string]any{"status": "COMPLETED"}, auth)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = f.call(t, http.MethodPost, "/api/v1/responses", map[string]any{
		"assignment_id": assignment.ID,
		"question_id":   question.ID.String(),
		"answer":        "YES",
	}, auth)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var answer responseResponse
	require.NoError(t, json.Unmarshal(body, &answer))
	assert.Equal(t, question.Question, answer.QuestionText, "question text is snapshotted")
	assert.Equal(t, "MEDIUM", answer.ConfidenceLevel)

	// evidence upload and review
	resp, body = f.call(t, http.MethodPost, "/api/v1/evidence", map[string]any{
		"assignment_id": assignment.ID,
		"document_name": "access-review-q3.pdf",
		"file_type":     "pdf",
	}, auth)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var evidence evidenceResponse
	require.NoError(t, json.Unmarshal(body, &evidence))
	assert.Equal(t, "PENDING", evidence.Status)

	reviewer := callOpts{token: f.token(t, 8, "techcorp"), tenant: "techcorp"}
	resp, body = f.call(t, http.MethodPost, "/api/v1/evidence/"+evidence.ID+"/review",
		map[string]any{"verdict": "APPROVED", "comments": "looks complete"}, reviewer)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &evidence))
	assert.Equal(t, "APPROVED", evidence.Status)

	// report over the framework
	resp, body = f.call(t, http.MethodPost,
		"/api/v1/frameworks/"+frameworks[0].ID+"/reports",
		map[string]any{"report_type": "DASHBOARD"}, auth)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var rep reportResponse
	require.NoError(t, json.Unmarshal(body, &rep))
	assert.Equal(t, 1, rep.TotalControls)
	assert.Equal(t, 0, rep.CompletedControls)
}

func TestTenantMismatchForbidden(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t, 7, "acme")
	resp, _ := f.call(t, http.MethodGet, "/api/v1/frameworks", nil,
		callOpts{token: token, tenant: "techcorp"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCatalogReadEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	fw, ctl, _ := f.seedCatalog(t)
	auth := callOpts{token: f.token(t, 7, "techcorp"), tenant: "techcorp"}

	resp, body := f.call(t, http.MethodGet, "/api/v1/catalog/frameworks", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fws []frameworkResponse
	require.NoError(t, json.Unmarshal(body, &fws))
	require.Len(t, fws, 1)
	assert.Equal(t, fw.ID.String(), fws[0].ID)

	resp, body = f.call(t, http.MethodGet,
		"/api/v1/catalog/frameworks/"+fw.ID.String()+"/stats", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats statsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.Controls)
	assert.Equal(t, 1, stats.Questions)

	resp, body = f.call(t, http.MethodGet, "/api/v1/catalog/controls/search?q=access", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hits []controlResponse
	require.NoError(t, json.Unmarshal(body, &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, ctl.ControlCode, hits[0].ControlCode)

	resp, _ = f.call(t, http.MethodGet, "/api/v1/catalog/controls/search", nil, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogAdminEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.call(t, http.MethodPost, "/internal/catalog/frameworks", map[string]any{
		"name": "ISO 27001", "version": "2022", "status": "ACTIVE",
	}, callOpts{internal: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var fw frameworkResponse
	require.NoError(t, json.Unmarshal(body, &fw))
	assert.Equal(t, "ISO 27001", fw.Name)

	// duplicate (name, version) is rejected
	resp, _ = f.call(t, http.MethodPost, "/internal/catalog/frameworks", map[string]any{
		"name": "ISO 27001", "version": "2022",
	}, callOpts{internal: true})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = f.call(t, http.MethodPost,
		"/internal/catalog/frameworks/"+fw.ID+"/clone",
		map[string]any{"new_version": "2025"}, callOpts{internal: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var clone frameworkResponse
	require.NoError(t, json.Unmarshal(body, &clone))
	assert.Equal(t, "2025", clone.Version)
	assert.Equal(t, "DRAFT", clone.Status)
}
