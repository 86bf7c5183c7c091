// Package domain defines typed identifiers shared across features.
//
// Every persisted entity is keyed by a UUID issued at creation time. The
// wrappers below make the compiler reject cross-entity mixups (passing a
// ControlID where a FrameworkID is expected) instead of relying on review.
package domain

import (
	"github.com/google/uuid"

	dErrors "compliancehub/pkg/domain-errors"
)

type (
	// Template catalog identifiers (central database).
	FrameworkID   uuid.UUID
	DomainID      uuid.UUID
	CategoryID    uuid.UUID
	SubcategoryID uuid.UUID
	ControlID     uuid.UUID
	QuestionID    uuid.UUID
	RequirementID uuid.UUID

	// Company copy identifiers (tenant databases).
	CompanyFrameworkID   uuid.UUID
	CompanyDomainID      uuid.UUID
	CompanyCategoryID    uuid.UUID
	CompanySubcategoryID uuid.UUID
	CompanyControlID     uuid.UUID
	AssignmentID         uuid.UUID
	CampaignID           uuid.UUID
	ResponseID           uuid.UUID
	EvidenceID           uuid.UUID
	PlanID               uuid.UUID
	ReportID             uuid.UUID
)

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func ParseFrameworkID(s string) (FrameworkID, error) {
	u, err := parse(s)
	return FrameworkID(u), err
}

func ParseDomainID(s string) (DomainID, error) {
	u, err := parse(s)
	return DomainID(u), err
}

func ParseCategoryID(s string) (CategoryID, error) {
	u, err := parse(s)
	return CategoryID(u), err
}

func ParseSubcategoryID(s string) (SubcategoryID, error) {
	u, err := parse(s)
	return SubcategoryID(u), err
}

func ParseControlID(s string) (ControlID, error) {
	u, err := parse(s)
	return ControlID(u), err
}

func ParseQuestionID(s string) (QuestionID, error) {
	u, err := parse(s)
	return QuestionID(u), err
}

func ParseRequirementID(s string) (RequirementID, error) {
	u, err := parse(s)
	return RequirementID(u), err
}

func ParseCompanyFrameworkID(s string) (CompanyFrameworkID, error) {
	u, err := parse(s)
	return CompanyFrameworkID(u), err
}

func ParseCompanyControlID(s string) (CompanyControlID, error) {
	u, err := parse(s)
	return CompanyControlID(u), err
}

func ParseAssignmentID(s string) (AssignmentID, error) {
	u, err := parse(s)
	return AssignmentID(u), err
}

func ParseCampaignID(s string) (CampaignID, error) {
	u, err := parse(s)
	return CampaignID(u), err
}

func ParseEvidenceID(s string) (EvidenceID, error) {
	u, err := parse(s)
	return EvidenceID(u), err
}

func (id FrameworkID) String() string   { return uuid.UUID(id).String() }
func (id FrameworkID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id DomainID) String() string      { return uuid.UUID(id).String() }
func (id DomainID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CategoryID) String() string    { return uuid.UUID(id).String() }
func (id CategoryID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SubcategoryID) String() string { return uuid.UUID(id).String() }
func (id SubcategoryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ControlID) String() string     { return uuid.UUID(id).String() }
func (id ControlID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id QuestionID) String() string    { return uuid.UUID(id).String() }
func (id QuestionID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RequirementID) String() string { return uuid.UUID(id).String() }
func (id RequirementID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id CompanyFrameworkID) String() string   { return uuid.UUID(id).String() }
func (id CompanyFrameworkID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CompanyDomainID) String() string      { return uuid.UUID(id).String() }
func (id CompanyDomainID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CompanyCategoryID) String() string    { return uuid.UUID(id).String() }
func (id CompanyCategoryID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id CompanySubcategoryID) String() string { return uuid.UUID(id).String() }
func (id CompanySubcategoryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CompanyControlID) String() string     { return uuid.UUID(id).String() }
func (id CompanyControlID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id AssignmentID) String() string         { return uuid.UUID(id).String() }
func (id AssignmentID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id CampaignID) String() string           { return uuid.UUID(id).String() }
func (id CampaignID) IsNil() bool              { return uuid.UUID(id) == uuid.Nil }
func (id ResponseID) String() string           { return uuid.UUID(id).String() }
func (id ResponseID) IsNil() bool              { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceID) String() string           { return uuid.UUID(id).String() }
func (id EvidenceID) IsNil() bool              { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) String() string               { return uuid.UUID(id).String() }
func (id PlanID) IsNil() bool                  { return uuid.UUID(id) == uuid.Nil }
func (id ReportID) String() string             { return uuid.UUID(id).String() }
func (id ReportID) IsNil() bool                { return uuid.UUID(id) == uuid.Nil }
