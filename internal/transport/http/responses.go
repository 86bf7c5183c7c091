package httptransport

import (
	"time"

	"compliancehub/internal/catalog"
	"compliancehub/internal/company"
)

// Response DTOs. Domain structs stay JSON-free; the transport decides the
// wire shape.

type frameworkResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name,omitempty"`
	Description   string    `json:"description,omitempty"`
	Version       string    `json:"version"`
	Status        string    `json:"status"`
	EffectiveDate time.Time `json:"effective_date,omitzero"`
	IsActive      bool      `json:"is_active"`
}

func toFrameworkResponse(f *catalog.Framework) frameworkResponse {
	return frameworkResponse{
		ID:            f.ID.String(),
		Name:          f.Name,
		FullName:      f.FullName,
		Description:   f.Description,
		Version:       f.Version,
		Status:        string(f.Status),
		EffectiveDate: f.EffectiveDate,
		IsActive:      f.IsActive,
	}
}

func toFrameworkResponses(fws []*catalog.Framework) []frameworkResponse {
	out := make([]frameworkResponse, 0, len(fws))
	for _, f := range fws {
		out = append(out, toFrameworkResponse(f))
	}
	return out
}

type controlResponse struct {
	ID            string `json:"id"`
	SubcategoryID string `json:"subcategory_id"`
	ControlCode   string `json:"control_code"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Objective     string `json:"objective,omitempty"`
	ControlType   string `json:"control_type"`
	Frequency     string `json:"frequency"`
	RiskLevel     string `json:"risk_level"`
	SortOrder     int    `json:"sort_order"`
}

func toControlResponse(c *catalog.Control) controlResponse {
	return controlResponse{
		ID:            c.ID.String(),
		SubcategoryID: c.SubcategoryID.String(),
		ControlCode:   c.ControlCode,
		Title:         c.Title,
		Description:   c.Description,
		Objective:     c.Objective,
		ControlType:   string(c.ControlType),
		Frequency:     string(c.Frequency),
		RiskLevel:     string(c.RiskLevel),
		SortOrder:     c.SortOrder,
	}
}

func toControlResponses(controls []*catalog.Control) []controlResponse {
	out := make([]controlResponse, 0, len(controls))
	for _, c := range controls {
		out = append(out, toControlResponse(c))
	}
	return out
}

type statsResponse struct {
	Domains       int `json:"domains"`
	Categories    int `json:"categories"`
	Subcategories int `json:"subcategories"`
	Controls      int `json:"controls"`
	Questions     int `json:"questions"`
	Requirements  int `json:"requirements"`
}

func toStatsResponse(s *catalog.FrameworkStats) statsResponse {
	return statsResponse{
		Domains:       s.Domains,
		Categories:    s.Categories,
		Subcategories: s.Subcategories,
		Controls:      s.Controls,
		Questions:     s.Questions,
		Requirements:  s.Requirements,
	}
}

type companyFrameworkResponse struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	FullName            string     `json:"full_name,omitempty"`
	Version             string     `json:"version"`
	TemplateFrameworkID string     `json:"template_framework_id,omitempty"`
	Description         string     `json:"description,omitempty"`
	IsCustomized        bool       `json:"is_customized"`
	CustomizedDate      *time.Time `json:"customized_date,omitempty"`
	ActivatedDate       time.Time  `json:"activated_date"`
	IsActive            bool       `json:"is_active"`
}

func toCompanyFrameworkResponse(f *company.CompanyFramework) companyFrameworkResponse {
	resp := companyFrameworkResponse{
		ID:             f.ID.String(),
		Name:           f.Name,
		FullName:       f.FullName,
		Version:        f.Version,
		Description:    f.Description,
		IsCustomized:   f.IsCustomized,
		CustomizedDate: f.CustomizedDate,
		ActivatedDate:  f.ActivatedDate,
		IsActive:       f.IsActive,
	}
	if !f.TemplateFrameworkID.IsNil() {
		resp.TemplateFrameworkID = f.TemplateFrameworkID.String()
	}
	return resp
}

type companyControlResponse struct {
	ID                string `json:"id"`
	FrameworkID       string `json:"framework_id"`
	SubcategoryID     string `json:"subcategory_id,omitempty"`
	TemplateControlID string `json:"template_control_id,omitempty"`
	ControlCode       string `json:"control_code"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Objective         string `json:"objective,omitempty"`
	ControlType       string `json:"control_type"`
	Frequency         string `json:"frequency"`
	RiskLevel         string `json:"risk_level"`
	IsCustomized      bool   `json:"is_customized"`
	SortOrder         int    `json:"sort_order"`
}

func toCompanyControlResponse(c *company.CompanyControl) companyControlResponse {
	resp := companyControlResponse{
		ID:           c.ID.String(),
		FrameworkID:  c.FrameworkID.String(),
		ControlCode:  c.ControlCode,
		Title:        c.Title,
		Description:  c.Description,
		Objective:    c.Objective,
		ControlType:  string(c.ControlType),
		Frequency:    string(c.Frequency),
		RiskLevel:    string(c.RiskLevel),
		IsCustomized: c.IsCustomized,
		SortOrder:    c.SortOrder,
	}
	if !c.SubcategoryID.IsNil() {
		resp.SubcategoryID = c.SubcategoryID.String()
	}
	if !c.TemplateControlID.IsNil() {
		resp.TemplateControlID = c.TemplateControlID.String()
	}
	return resp
}

type assignmentResponse struct {
	ID                   string    `json:"id"`
	ControlID            string    `json:"control_id"`
	AssignedToEmployeeID int64     `json:"assigned_to_employee_id"`
	AssignedByEmployeeID int64     `json:"assigned_by_employee_id"`
	AssignmentDate       time.Time `json:"assignment_date"`
	DueDate              time.Time `json:"due_date"`
	Status               string    `json:"status"`
	Priority             string    `json:"priority"`
	Notes                string    `json:"notes,omitempty"`
}

func toAssignmentResponse(a *company.ControlAssignment) assignmentResponse {
	return assignmentResponse{
		ID:                   a.ID.String(),
		ControlID:            a.ControlID.String(),
		AssignedToEmployeeID: a.AssignedToEmployeeID,
		AssignedByEmployeeID: a.AssignedByEmployeeID,
		AssignmentDate:       a.AssignmentDate,
		DueDate:              a.DueDate,
		Status:               string(a.Status),
		Priority:             string(a.Priority),
		Notes:                a.Notes,
	}
}

type responseResponse struct {
	ID              string    `json:"id"`
	AssignmentID    string    `json:"assignment_id"`
	CampaignID      string    `json:"campaign_id,omitempty"`
	QuestionID      string    `json:"question_id"`
	QuestionText    string    `json:"question_text"`
	QuestionType    string    `json:"question_type"`
	Answer          string    `json:"answer"`
	ConfidenceLevel string    `json:"confidence_level"`
	Comments        string    `json:"comments,omitempty"`
	AnsweredDate    time.Time `json:"answered_date"`
}

func toResponseResponse(r *company.AssessmentResponse) responseResponse {
	resp := responseResponse{
		ID:              r.ID.String(),
		AssignmentID:    r.AssignmentID.String(),
		QuestionID:      r.QuestionID.String(),
		QuestionText:    r.QuestionText,
		QuestionType:    string(r.QuestionType),
		Answer:          r.Answer,
		ConfidenceLevel: string(r.ConfidenceLevel),
		Comments:        r.Comments,
		AnsweredDate:    r.AnsweredDate,
	}
	if !r.CampaignID.IsNil() {
		resp.CampaignID = r.CampaignID.String()
	}
	return resp
}

type evidenceResponse struct {
	ID             string     `json:"id"`
	AssignmentID   string     `json:"assignment_id"`
	DocumentName   string     `json:"document_name"`
	FileType       string     `json:"file_type,omitempty"`
	FileSizeMB     float64    `json:"file_size_mb,omitempty"`
	Status         string     `json:"status"`
	UploadDate     time.Time  `json:"upload_date"`
	ReviewDate     *time.Time `json:"review_date,omitempty"`
	ReviewComments string     `json:"review_comments,omitempty"`
}

func toEvidenceResponse(e *company.EvidenceDocument) evidenceResponse {
	return evidenceResponse{
		ID:             e.ID.String(),
		AssignmentID:   e.AssignmentID.String(),
		DocumentName:   e.DocumentName,
		FileType:       e.FileType,
		FileSizeMB:     e.FileSizeMB,
		Status:         string(e.Status),
		UploadDate:     e.UploadDate,
		ReviewDate:     e.ReviewDate,
		ReviewComments: e.ReviewComments,
	}
}

type campaignResponse struct {
	ID           string    `json:"id"`
	CampaignName string    `json:"campaign_name"`
	FrameworkID  string    `json:"framework_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date,omitzero"`
	Status       string    `json:"status"`
	Description  string    `json:"description,omitempty"`
}

func toCampaignResponse(c *company.AssessmentCampaign) campaignResponse {
	return campaignResponse{
		ID:           c.ID.String(),
		CampaignName: c.CampaignName,
		FrameworkID:  c.FrameworkID.String(),
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Status:       string(c.Status),
		Description:  c.Description,
	}
}

type planResponse struct {
	ID                   string    `json:"id"`
	AssignmentID         string    `json:"assignment_id"`
	GapDescription       string    `json:"gap_description"`
	RootCause            string    `json:"root_cause,omitempty"`
	RemediationSteps     string    `json:"remediation_steps,omitempty"`
	TargetCompletionDate time.Time `json:"target_completion_date"`
	Status               string    `json:"status"`
	Priority             string    `json:"priority"`
}

func toPlanResponse(p *company.RemediationPlan) planResponse {
	return planResponse{
		ID:                   p.ID.String(),
		AssignmentID:         p.AssignmentID.String(),
		GapDescription:       p.GapDescription,
		RootCause:            p.RootCause,
		RemediationSteps:     p.RemediationSteps,
		TargetCompletionDate: p.TargetCompletionDate,
		Status:               string(p.Status),
		Priority:             string(p.Priority),
	}
}

type reportResponse struct {
	ID                    string         `json:"id"`
	ReportName            string         `json:"report_name"`
	ReportType            string         `json:"report_type"`
	FrameworkID           string         `json:"framework_id"`
	GeneratedDate         time.Time      `json:"generated_date"`
	OverallComplianceRate float64        `json:"overall_compliance_rate"`
	TotalControls         int            `json:"total_controls"`
	CompletedControls     int            `json:"completed_controls"`
	ReportData            map[string]any `json:"report_data,omitempty"`
}

func toReportResponse(r *company.ComplianceReport) reportResponse {
	return reportResponse{
		ID:                    r.ID.String(),
		ReportName:            r.ReportName,
		ReportType:            string(r.ReportType),
		FrameworkID:           r.FrameworkID.String(),
		GeneratedDate:         r.GeneratedDate,
		OverallComplianceRate: r.OverallComplianceRate,
		TotalControls:         r.TotalControls,
		CompletedControls:     r.CompletedControls,
		ReportData:            r.ReportData,
	}
}
