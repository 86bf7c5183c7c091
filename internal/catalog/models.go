// Package catalog holds the shared template hierarchy: Framework → Domain →
// Category → Subcategory → Control, plus the questions and evidence
// requirements attached to each control. Template rows live only in the
// central database and are immutable from a tenant's perspective; tenant
// edits always land on the company copies produced by distribution.
package catalog

import (
	"regexp"
	"time"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// FrameworkStatus is the lifecycle state of a template framework version.
type FrameworkStatus string

const (
	FrameworkDraft      FrameworkStatus = "DRAFT"
	FrameworkActive     FrameworkStatus = "ACTIVE"
	FrameworkDeprecated FrameworkStatus = "DEPRECATED"
)

// Valid reports whether the status is one of the known states.
func (s FrameworkStatus) Valid() bool {
	switch s {
	case FrameworkDraft, FrameworkActive, FrameworkDeprecated:
		return true
	}
	return false
}

// ControlType classifies how a control acts on risk.
type ControlType string

const (
	ControlPreventive ControlType = "PREVENTIVE"
	ControlDetective  ControlType = "DETECTIVE"
	ControlCorrective ControlType = "CORRECTIVE"
)

func (t ControlType) Valid() bool {
	switch t {
	case ControlPreventive, ControlDetective, ControlCorrective:
		return true
	}
	return false
}

// Frequency is how often a control must be performed.
type Frequency string

const (
	FrequencyContinuous Frequency = "CONTINUOUS"
	FrequencyDaily      Frequency = "DAILY"
	FrequencyWeekly     Frequency = "WEEKLY"
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencyAnnually   Frequency = "ANNUALLY"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyContinuous, FrequencyDaily, FrequencyWeekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	}
	return false
}

// RiskLevel grades the exposure a control mitigates.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// QuestionType is the answer format of an assessment question.
type QuestionType string

const (
	QuestionYesNo          QuestionType = "YES_NO"
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionText           QuestionType = "TEXT"
	QuestionNumeric        QuestionType = "NUMERIC"
	QuestionDate           QuestionType = "DATE"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionYesNo, QuestionMultipleChoice, QuestionText, QuestionNumeric, QuestionDate:
		return true
	}
	return false
}

// EvidenceType classifies what an evidence requirement expects.
type EvidenceType string

const (
	EvidenceDocument   EvidenceType = "DOCUMENT"
	EvidenceScreenshot EvidenceType = "SCREENSHOT"
	EvidenceVideo      EvidenceType = "VIDEO"
	EvidenceLogFile    EvidenceType = "LOG_FILE"
	EvidenceReport     EvidenceType = "REPORT"
	EvidencePolicy     EvidenceType = "POLICY"
	EvidenceProcedure  EvidenceType = "PROCEDURE"
)

func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceDocument, EvidenceScreenshot, EvidenceVideo,
		EvidenceLogFile, EvidenceReport, EvidencePolicy, EvidenceProcedure:
		return true
	}
	return false
}

// controlCodePattern: two to four uppercase letters, dash, three digits
// (AC-001, ITGC-042). Control codes are globally unique across the catalog.
var controlCodePattern = regexp.MustCompile(`^[A-Z]{2,4}-\d{3}$`)

// ValidControlCode reports whether code matches the control code format.
func ValidControlCode(code string) bool {
	return controlCodePattern.MatchString(code)
}

// Framework is the top level of the template hierarchy (SOX, ISO 27001...).
//
// Invariants:
//   - Name is non-empty; (Name, Version) is unique across the catalog
//   - Status is one of DRAFT, ACTIVE, DEPRECATED
//   - Only ACTIVE frameworks are eligible for distribution
type Framework struct {
	ID            id.FrameworkID
	Name          string
	FullName      string
	Description   string
	Version       string
	EffectiveDate time.Time
	Status        FrameworkStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CreatedBy     string
	UpdatedBy     string
	IsActive      bool
}

// Validate checks the framework's field-level invariants.
func (f *Framework) Validate() error {
	if f.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "framework name cannot be empty")
	}
	if len(f.Name) > 50 {
		return dErrors.New(dErrors.CodeInvariantViolation, "framework name must be 50 characters or less")
	}
	if f.Version == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "framework version cannot be empty")
	}
	if !f.Status.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown framework status")
	}
	return nil
}

// Domain is the second level (IT General Controls, Application Controls...).
// (FrameworkID, Code) and (FrameworkID, Name) are unique.
type Domain struct {
	ID          id.DomainID
	FrameworkID id.FrameworkID
	Name        string
	Code        string
	Description string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsActive    bool
}

func (d *Domain) Validate() error {
	if d.FrameworkID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "domain requires a framework")
	}
	if d.Name == "" || d.Code == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "domain name and code are required")
	}
	return nil
}

// Category is the third level (Access Controls, Change Management...).
// (DomainID, Code) and (DomainID, Name) are unique.
type Category struct {
	ID          id.CategoryID
	DomainID    id.DomainID
	Name        string
	Code        string
	Description string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsActive    bool
}

func (c *Category) Validate() error {
	if c.DomainID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "category requires a domain")
	}
	if c.Name == "" || c.Code == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "category name and code are required")
	}
	return nil
}

// Subcategory is the fourth level (User Access Management...).
// (CategoryID, Code) and (CategoryID, Name) are unique.
type Subcategory struct {
	ID          id.SubcategoryID
	CategoryID  id.CategoryID
	Name        string
	Code        string
	Description string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsActive    bool
}

func (s *Subcategory) Validate() error {
	if s.CategoryID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "subcategory requires a category")
	}
	if s.Name == "" || s.Code == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "subcategory name and code are required")
	}
	return nil
}

// Control is the fifth level, the actual control (AC-001).
//
// Invariants:
//   - ControlCode matches ^[A-Z]{2,4}-\d{3}$ and is globally unique
//   - ControlType, Frequency and RiskLevel are known enum values
type Control struct {
	ID            id.ControlID
	SubcategoryID id.SubcategoryID
	ControlCode   string
	Title         string
	Description   string
	Objective     string
	ControlType   ControlType
	Frequency     Frequency
	RiskLevel     RiskLevel
	SortOrder     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	IsActive      bool
}

func (c *Control) Validate() error {
	if c.SubcategoryID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "control requires a subcategory")
	}
	if !ValidControlCode(c.ControlCode) {
		return dErrors.New(dErrors.CodeInvariantViolation, "control code must be like AC-001")
	}
	if c.Title == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "control title cannot be empty")
	}
	if !c.ControlType.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown control type")
	}
	if !c.Frequency.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown control frequency")
	}
	if !c.RiskLevel.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown risk level")
	}
	return nil
}

// AssessmentQuestion defines what is asked about a control at assessment
// time. Options apply to MULTIPLE_CHOICE questions only.
type AssessmentQuestion struct {
	ID           id.QuestionID
	ControlID    id.ControlID
	Question     string
	QuestionType QuestionType
	Options      []string
	IsMandatory  bool
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

func (q *AssessmentQuestion) Validate() error {
	if q.ControlID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "question requires a control")
	}
	if q.Question == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "question text cannot be empty")
	}
	if !q.QuestionType.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown question type")
	}
	if q.QuestionType == QuestionMultipleChoice && len(q.Options) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "multiple choice question requires options")
	}
	return nil
}

// EvidenceRequirement defines what must be collected for a control.
type EvidenceRequirement struct {
	ID           id.RequirementID
	ControlID    id.ControlID
	Title        string
	Description  string
	EvidenceType EvidenceType
	IsMandatory  bool
	FileFormat   string
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

func (r *EvidenceRequirement) Validate() error {
	if r.ControlID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "evidence requirement requires a control")
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "evidence requirement title cannot be empty")
	}
	if !r.EvidenceType.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown evidence type")
	}
	return nil
}

// FrameworkStats summarizes a framework subtree for the admin surface.
type FrameworkStats struct {
	Domains       int
	Categories    int
	Subcategories int
	Controls      int
	Questions     int
	Requirements  int
}
