// Package distribution copies template frameworks from the central catalog
// into tenant databases. Reads always run against central through an
// explicitly cleared context; writes run under the target tenant's binding.
// Runs are idempotent: a framework version the tenant already holds is
// skipped, as is any control whose code already exists there.
package distribution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"compliancehub/internal/catalog"
	"compliancehub/internal/company"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/audit"
	"compliancehub/pkg/requestcontext"
)

// Engine orchestrates template distribution runs.
type Engine struct {
	catalog catalog.Store
	company company.Store
	auditor audit.Publisher
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithAuditor(p audit.Publisher) Option {
	return func(e *Engine) { e.auditor = p }
}

func NewEngine(catalogStore catalog.Store, companyStore company.Store, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalogStore,
		company: companyStore,
		auditor: audit.NopPublisher{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Distribute copies the selected template frameworks into the tenant's
// database and returns a per-framework report.
//
// frameworkIDs selects what to copy: nil means every active framework, an
// empty non-nil slice means none, anything else copies exactly those ids
// (inactive ones are ignored).
//
// Failures are captured per item: one framework failing to copy never aborts
// the rest of the run, and the error lands in that framework's report entry.
// The returned error is reserved for run-level failures such as the catalog
// being unreadable or no tenant slug given.
func (e *Engine) Distribute(ctx context.Context, slug string, frameworkIDs []id.FrameworkID) (*Report, error) {
	if slug == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant slug is required")
	}
	start := time.Now()

	// Two views of the same parent context: template reads must hit central
	// even if the caller had a tenant bound, writes must hit the target
	// tenant. Neither binding escapes this call.
	readCtx := requestcontext.ClearTenant(ctx)
	writeCtx := requestcontext.WithTenant(ctx, slug)

	frameworks, err := e.catalog.ListActiveFrameworks(readCtx, frameworkIDs)
	if err != nil {
		e.metrics.IncRun("error")
		return nil, fmt.Errorf("list template frameworks: %w", err)
	}
	e.logger.Info("distribution started",
		"tenant", slug, "frameworks", len(frameworks), "selection", selectionLabel(frameworkIDs))

	report := &Report{TenantSlug: slug, Frameworks: make([]FrameworkResult, 0, len(frameworks))}
	for _, fw := range frameworks {
		result := e.distributeFramework(readCtx, writeCtx, fw)
		report.Frameworks = append(report.Frameworks, result)
	}

	outcome := "ok"
	if report.HasErrors() {
		outcome = "partial"
	}
	e.metrics.IncRun(outcome)
	e.metrics.ObserveRun(start)
	e.auditor.Emit(ctx, audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		TenantSlug: slug,
		Action:     audit.ActionFrameworkDistributed,
		Subject:    fmt.Sprintf("%d frameworks", len(frameworks)),
		Outcome:    outcome,
		RequestID:  requestcontext.RequestID(ctx),
	})
	e.logger.Info("distribution finished",
		"tenant", slug, "copied", report.CopiedCount(), "outcome", outcome)
	return report, nil
}

func selectionLabel(frameworkIDs []id.FrameworkID) string {
	if frameworkIDs == nil {
		return "all-active"
	}
	return fmt.Sprintf("%d ids", len(frameworkIDs))
}

func (e *Engine) distributeFramework(readCtx, writeCtx context.Context, fw *catalog.Framework) FrameworkResult {
	result := FrameworkResult{FrameworkName: fw.Name, Version: fw.Version}

	// idempotency probe inside the tenant DB
	if _, err := e.company.GetFrameworkByNameVersion(writeCtx, fw.Name, fw.Version); err == nil {
		e.logger.Info("framework already distributed, skipping",
			"name", fw.Name, "version", fw.Version)
		e.metrics.IncFrameworkSkipped()
		result.Skipped = true
		return result
	}

	now := requestcontext.Now(writeCtx)
	companyFW := &company.CompanyFramework{
		ID:                  id.CompanyFrameworkID(uuid.New()),
		Name:                fw.Name,
		FullName:            fw.FullName,
		Version:             fw.Version,
		TemplateFrameworkID: fw.ID,
		Description:         fw.Description,
		ActivatedDate:       now,
		CreatedAt:           now,
		UpdatedAt:           now,
		IsActive:            true,
	}
	if err := e.company.CreateFramework(writeCtx, companyFW); err != nil {
		e.logger.Error("framework copy failed",
			"name", fw.Name, "version", fw.Version, "error", err)
		e.metrics.IncItemError()
		result.Error = err.Error()
		return result
	}

	copied, err := e.copyControls(readCtx, writeCtx, fw, companyFW)
	result.ControlsCopied = copied
	if err != nil {
		result.Error = err.Error()
	}
	e.metrics.AddFrameworksCopied(1)
	e.metrics.AddControlsCopied(copied)
	return result
}

// copyControls walks every active control under the template framework and
// copies it into the tenant. The company copy is flattened: controls link to
// the company framework directly and carry no subcategory, matching how the
// company side consumes them.
func (e *Engine) copyControls(readCtx, writeCtx context.Context,
	fw *catalog.Framework, companyFW *company.CompanyFramework) (int, error) {

	controls, err := e.catalog.ListControlsByFramework(readCtx, fw.ID)
	if err != nil {
		return 0, fmt.Errorf("list template controls: %w", err)
	}

	now := requestcontext.Now(writeCtx)
	copied := 0
	var firstErr error
	failed := 0
	for _, ctl := range controls {
		if _, err := e.company.GetControlByCode(writeCtx, ctl.ControlCode); err == nil {
			e.logger.Debug("control already present, skipping", "control_code", ctl.ControlCode)
			continue
		}
		companyCtl := &company.CompanyControl{
			ID:                id.CompanyControlID(uuid.New()),
			FrameworkID:       companyFW.ID,
			TemplateControlID: ctl.ID,
			ControlCode:       ctl.ControlCode,
			Title:             ctl.Title,
			Description:       ctl.Description,
			Objective:         ctl.Objective,
			ControlType:       ctl.ControlType,
			Frequency:         ctl.Frequency,
			RiskLevel:         ctl.RiskLevel,
			SortOrder:         ctl.SortOrder,
			CreatedAt:         now,
			UpdatedAt:         now,
			IsActive:          true,
		}
		if err := e.company.CreateControl(writeCtx, companyCtl); err != nil {
			e.logger.Error("control copy failed",
				"control_code", ctl.ControlCode, "framework", fw.Name, "error", err)
			e.metrics.IncItemError()
			// keep copying the rest; the framework entry reports the failure
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("copy control %s: %w", ctl.ControlCode, err)
			}
			continue
		}
		copied++
	}
	if firstErr != nil {
		return copied, fmt.Errorf("%d of %d controls failed, first: %w", failed, len(controls), firstErr)
	}
	return copied, nil
}
