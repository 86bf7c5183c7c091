// Package company holds a tenant's working copies of the template catalog
// plus the assessment workflow built on top of them: assignments, campaigns,
// responses, evidence and remediation. Every row here is tenant-owned; the
// entity router refuses to touch these collections without a bound tenant.
package company

import (
	"time"

	"compliancehub/internal/catalog"
	"compliancehub/internal/tenant/router"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// CompanyFramework is a tenant's copy of a template framework. The origin
// pointer records which template version it was distributed from; (Name,
// Version) is unique inside the tenant database, which is what makes
// distribution idempotent.
type CompanyFramework struct {
	ID                  id.CompanyFrameworkID
	Name                string
	FullName            string
	Version             string
	TemplateFrameworkID id.FrameworkID
	Description         string
	IsCustomized        bool
	CustomizedDate      *time.Time
	ActivatedDate       time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	IsActive            bool

	// Locality records which database the row was loaded from. Stores set
	// it at load time; it is never persisted. Relation checks compare the
	// localities of both ends before re-pointing a link.
	Locality router.Locality
}

// CompanyDomain is a tenant's copy of a domain. FrameworkID is nullable:
// detaching a node leaves it parentless rather than deleting it.
type CompanyDomain struct {
	ID                id.CompanyDomainID
	FrameworkID       id.CompanyFrameworkID // zero when detached
	TemplateDomainID  id.DomainID
	Name              string
	Code              string
	Description       string
	SortOrder         int
	IsCustomized      bool
	CustomDescription string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	IsActive          bool
	Locality          router.Locality // set by stores at load time, not persisted
}

type CompanyCategory struct {
	ID                 id.CompanyCategoryID
	DomainID           id.CompanyDomainID // zero when detached
	TemplateCategoryID id.CategoryID
	Name               string
	Code               string
	Description        string
	SortOrder          int
	IsCustomized       bool
	CustomDescription  string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	IsActive           bool
	Locality           router.Locality // set by stores at load time, not persisted
}

type CompanySubcategory struct {
	ID                    id.CompanySubcategoryID
	CategoryID            id.CompanyCategoryID // zero when detached
	TemplateSubcategoryID id.SubcategoryID
	Name                  string
	Code                  string
	Description           string
	SortOrder             int
	IsCustomized          bool
	CustomDescription     string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	IsActive              bool
	Locality              router.Locality // set by stores at load time, not persisted
}

// CompanyControl is a tenant's copy of a control. Distribution links controls
// directly to the company framework and leaves SubcategoryID zero; the full
// grouping hierarchy exists alongside but controls hang off the framework.
type CompanyControl struct {
	ID                id.CompanyControlID
	FrameworkID       id.CompanyFrameworkID
	SubcategoryID     id.CompanySubcategoryID // zero: linked to framework only
	TemplateControlID id.ControlID
	ControlCode       string
	Title             string
	Description       string
	Objective         string
	ControlType       catalog.ControlType
	Frequency         catalog.Frequency
	RiskLevel         catalog.RiskLevel
	IsCustomized      bool
	CustomDescription string
	CustomObjective   string
	CustomQuestions   []string
	SortOrder         int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	IsActive          bool
}

// AssignmentStatus is the workflow state of a control assignment.
type AssignmentStatus string

const (
	AssignmentNotStarted       AssignmentStatus = "NOT_STARTED"
	AssignmentInProgress       AssignmentStatus = "IN_PROGRESS"
	AssignmentPendingReview    AssignmentStatus = "PENDING_REVIEW"
	AssignmentCompleted        AssignmentStatus = "COMPLETED"
	AssignmentNeedsRemediation AssignmentStatus = "NEEDS_REMEDIATION"
	AssignmentOverdue          AssignmentStatus = "OVERDUE"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentNotStarted, AssignmentInProgress, AssignmentPendingReview,
		AssignmentCompleted, AssignmentNeedsRemediation, AssignmentOverdue:
		return true
	}
	return false
}

// assignmentTransitions lists the legal moves out of each state. COMPLETED is
// terminal; anything not yet completed can fall OVERDUE.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentNotStarted:       {AssignmentInProgress, AssignmentOverdue},
	AssignmentInProgress:       {AssignmentPendingReview, AssignmentOverdue},
	AssignmentPendingReview:    {AssignmentCompleted, AssignmentNeedsRemediation, AssignmentInProgress},
	AssignmentNeedsRemediation: {AssignmentInProgress, AssignmentOverdue},
	AssignmentOverdue:          {AssignmentInProgress},
	AssignmentCompleted:        {},
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Priority grades assignments and remediation plans.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ControlAssignment hands a control to an employee for assessment. One
// assignment per (control, employee) pair.
type ControlAssignment struct {
	ID                   id.AssignmentID
	ControlID            id.CompanyControlID
	AssignedToEmployeeID int64
	AssignedByEmployeeID int64
	AssignmentDate       time.Time
	DueDate              time.Time
	Status               AssignmentStatus
	Priority             Priority
	Notes                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	IsActive             bool
}

func (a *ControlAssignment) Validate() error {
	if a.ControlID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "assignment requires a control")
	}
	if a.AssignedToEmployeeID == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "assignment requires an assignee")
	}
	if a.DueDate.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "assignment requires a due date")
	}
	if !a.Status.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown assignment status")
	}
	if !a.Priority.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown assignment priority")
	}
	return nil
}

// CampaignStatus is the lifecycle state of an assessment campaign.
type CampaignStatus string

const (
	CampaignPlanning  CampaignStatus = "PLANNING"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignCancelled CampaignStatus = "CANCELLED"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignPlanning, CampaignActive, CampaignCompleted, CampaignCancelled:
		return true
	}
	return false
}

// AssessmentCampaign is a time-boxed assessment drive over one framework.
type AssessmentCampaign struct {
	ID                  id.CampaignID
	CampaignName        string
	FrameworkID         id.CompanyFrameworkID
	StartDate           time.Time
	EndDate             time.Time
	Status              CampaignStatus
	CreatedByEmployeeID int64
	Description         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	IsActive            bool
}

func (c *AssessmentCampaign) Validate() error {
	if c.CampaignName == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "campaign name cannot be empty")
	}
	if c.FrameworkID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "campaign requires a framework")
	}
	if !c.Status.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown campaign status")
	}
	if !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return dErrors.New(dErrors.CodeInvariantViolation, "campaign end date precedes start date")
	}
	return nil
}

// ConfidenceLevel grades how sure the respondent is about an answer.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

func (l ConfidenceLevel) Valid() bool {
	switch l {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// AssessmentResponse records an answer to a template question for one
// assignment. QuestionText snapshots the question at answer time so a later
// template edit cannot rewrite history. One response per (assignment,
// question).
type AssessmentResponse struct {
	ID                   id.ResponseID
	AssignmentID         id.AssignmentID
	CampaignID           id.CampaignID // zero outside a campaign
	QuestionID           id.QuestionID
	QuestionText         string
	QuestionType         catalog.QuestionType
	Answer               string
	AnsweredByEmployeeID int64
	AnsweredDate         time.Time
	ConfidenceLevel      ConfidenceLevel
	Comments             string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	IsActive             bool
}

func (r *AssessmentResponse) Validate() error {
	if r.AssignmentID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "response requires an assignment")
	}
	if r.QuestionID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "response requires a question")
	}
	if r.Answer == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "response answer cannot be empty")
	}
	if !r.ConfidenceLevel.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown confidence level")
	}
	return nil
}

// EvidenceStatus is the review state of an uploaded evidence document.
type EvidenceStatus string

const (
	EvidencePending     EvidenceStatus = "PENDING"
	EvidenceApproved    EvidenceStatus = "APPROVED"
	EvidenceRejected    EvidenceStatus = "REJECTED"
	EvidenceNeedsUpdate EvidenceStatus = "NEEDS_UPDATE"
)

func (s EvidenceStatus) Valid() bool {
	switch s {
	case EvidencePending, EvidenceApproved, EvidenceRejected, EvidenceNeedsUpdate:
		return true
	}
	return false
}

// EvidenceDocument is a file uploaded against an assignment, optionally
// satisfying a template evidence requirement.
type EvidenceDocument struct {
	ID                    id.EvidenceID
	AssignmentID          id.AssignmentID
	EvidenceRequirementID id.RequirementID
	DocumentName          string
	OriginalFilename      string
	FilePath              string
	FileSizeMB            float64
	FileType              string
	UploadedByEmployeeID  int64
	UploadDate            time.Time
	Status                EvidenceStatus
	ReviewedByEmployeeID  int64 // zero until reviewed
	ReviewDate            *time.Time
	ReviewComments        string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	IsActive              bool
}

func (e *EvidenceDocument) Validate() error {
	if e.AssignmentID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "evidence requires an assignment")
	}
	if e.DocumentName == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "evidence document name cannot be empty")
	}
	if !e.Status.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown evidence status")
	}
	return nil
}

// RemediationStatus tracks a remediation plan's progress.
type RemediationStatus string

const (
	RemediationPlanned    RemediationStatus = "PLANNED"
	RemediationInProgress RemediationStatus = "IN_PROGRESS"
	RemediationCompleted  RemediationStatus = "COMPLETED"
	RemediationDelayed    RemediationStatus = "DELAYED"
	RemediationCancelled  RemediationStatus = "CANCELLED"
)

func (s RemediationStatus) Valid() bool {
	switch s {
	case RemediationPlanned, RemediationInProgress, RemediationCompleted,
		RemediationDelayed, RemediationCancelled:
		return true
	}
	return false
}

// RemediationPlan captures a gap found during assessment and the steps to
// close it.
type RemediationPlan struct {
	ID                   id.PlanID
	AssignmentID         id.AssignmentID
	GapDescription       string
	RootCause            string
	RemediationSteps     string
	TargetCompletionDate time.Time
	ActualCompletionDate *time.Time
	Status               RemediationStatus
	Priority             Priority
	CreatedByEmployeeID  int64
	AssignedToEmployeeID int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
	IsActive             bool
}

func (p *RemediationPlan) Validate() error {
	if p.AssignmentID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "remediation plan requires an assignment")
	}
	if p.GapDescription == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "remediation plan requires a gap description")
	}
	if p.RemediationSteps == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "remediation plan requires remediation steps")
	}
	if p.TargetCompletionDate.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "remediation plan requires a target date")
	}
	if !p.Status.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown remediation status")
	}
	if !p.Priority.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown remediation priority")
	}
	return nil
}

// ReportType selects the shape of a generated compliance report.
type ReportType string

const (
	ReportDashboard   ReportType = "DASHBOARD"
	ReportExecutive   ReportType = "EXECUTIVE"
	ReportDetailed    ReportType = "DETAILED"
	ReportGapAnalysis ReportType = "GAP_ANALYSIS"
	ReportAuditTrail  ReportType = "AUDIT_TRAIL"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportDashboard, ReportExecutive, ReportDetailed, ReportGapAnalysis, ReportAuditTrail:
		return true
	}
	return false
}

// ComplianceReport is a point-in-time summary over a framework, optionally
// scoped to one campaign.
type ComplianceReport struct {
	ID                    id.ReportID
	ReportName            string
	ReportType            ReportType
	FrameworkID           id.CompanyFrameworkID
	CampaignID            id.CampaignID // zero when framework-wide
	GeneratedDate         time.Time
	GeneratedByEmployeeID int64
	OverallComplianceRate float64
	TotalControls         int
	CompletedControls     int
	ReportData            map[string]any
	FilePath              string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	IsActive              bool
}

func (r *ComplianceReport) Validate() error {
	if r.ReportName == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "report name cannot be empty")
	}
	if !r.ReportType.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown report type")
	}
	if r.FrameworkID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "report requires a framework")
	}
	return nil
}
