package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"compliancehub/internal/company"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

// CompanyHandler exposes the tenant-side workflow: the tenant's framework
// copies, assignments, responses, evidence, campaigns, remediation and
// reports. Every route runs with the tenant bound by middleware; an unbound
// request fails in the storage layer, never silently against central data.
type CompanyHandler struct {
	svc    *company.Service
	logger *slog.Logger
}

func NewCompanyHandler(svc *company.Service, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{svc: svc, logger: logger}
}

func (h *CompanyHandler) Register(r chi.Router) {
	r.Get("/frameworks", h.listFrameworks)
	r.Get("/frameworks/{frameworkID}/controls", h.listControls)
	r.Post("/frameworks/{frameworkID}/reports", h.generateReport)

	r.Post("/assignments", h.assignControl)
	r.Get("/assignments/mine", h.myAssignments)
	r.Patch("/assignments/{assignmentID}/status", h.updateAssignmentStatus)

	r.Post("/responses", h.submitResponse)

	r.Post("/evidence", h.uploadEvidence)
	r.Post("/evidence/{evidenceID}/review", h.reviewEvidence)

	r.Post("/hierarchy/link", h.linkNode)
	r.Post("/hierarchy/unlink", h.unlinkNode)

	r.Post("/campaigns", h.createCampaign)
	r.Post("/remediation-plans", h.createRemediationPlan)
}

func (h *CompanyHandler) listFrameworks(w http.ResponseWriter, r *http.Request) {
	fws, err := h.svc.ListFrameworks(r.Context())
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	out := make([]companyFrameworkResponse, 0, len(fws))
	for _, f := range fws {
		out = append(out, toCompanyFrameworkResponse(f))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *CompanyHandler) listControls(w http.ResponseWriter, r *http.Request) {
	fid, err := id.ParseCompanyFrameworkID(chi.URLParam(r, "frameworkID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid framework id")
		return
	}
	controls, err := h.svc.ListControls(r.Context(), fid)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	out := make([]companyControlResponse, 0, len(controls))
	for _, c := range controls {
		out = append(out, toCompanyControlResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type assignControlRequest struct {
	ControlID            string    `json:"control_id"`
	AssignedToEmployeeID int64     `json:"assigned_to_employee_id"`
	DueDate              time.Time `json:"due_date"`
	Priority             string    `json:"priority"`
}

func (h *CompanyHandler) assignControl(w http.ResponseWriter, r *http.Request) {
	var req assignControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cid, err := id.ParseCompanyControlID(req.ControlID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid control id")
		return
	}
	assignerID := requestcontext.EmployeeID(r.Context())
	a, err := h.svc.AssignControl(r.Context(), cid,
		req.AssignedToEmployeeID, assignerID, req.DueDate, company.Priority(req.Priority))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

func (h *CompanyHandler) myAssignments(w http.ResponseWriter, r *http.Request) {
	employeeID := requestcontext.EmployeeID(r.Context())
	assignments, err := h.svc.MyAssignments(r.Context(), employeeID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *CompanyHandler) updateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	aid, err := id.ParseAssignmentID(chi.URLParam(r, "assignmentID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.svc.UpdateAssignmentStatus(r.Context(), aid,
		company.AssignmentStatus(req.Status), requestcontext.EmployeeID(r.Context()))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssignmentResponse(a))
}

type submitResponseRequest struct {
	AssignmentID    string `json:"assignment_id"`
	CampaignID      string `json:"campaign_id"`
	QuestionID      string `json:"question_id"`
	Answer          string `json:"answer"`
	ConfidenceLevel string `json:"confidence_level"`
	Comments        string `json:"comments"`
}

func (h *CompanyHandler) submitResponse(w http.ResponseWriter, r *http.Request) {
	var req submitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	aid, err := id.ParseAssignmentID(req.AssignmentID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	qid, err := id.ParseQuestionID(req.QuestionID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	in := company.SubmitResponseInput{
		AssignmentID:    aid,
		QuestionID:      qid,
		Answer:          req.Answer,
		ConfidenceLevel: company.ConfidenceLevel(req.ConfidenceLevel),
		Comments:        req.Comments,
		EmployeeID:      requestcontext.EmployeeID(r.Context()),
	}
	if req.CampaignID != "" {
		cid, err := id.ParseCampaignID(req.CampaignID)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid campaign id")
			return
		}
		in.CampaignID = cid
	}
	resp, err := h.svc.SubmitResponse(r.Context(), in)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponseResponse(resp))
}

type uploadEvidenceRequest struct {
	AssignmentID          string  `json:"assignment_id"`
	EvidenceRequirementID string  `json:"evidence_requirement_id"`
	DocumentName          string  `json:"document_name"`
	OriginalFilename      string  `json:"original_filename"`
	FilePath              string  `json:"file_path"`
	FileSizeMB            float64 `json:"file_size_mb"`
	FileType              string  `json:"file_type"`
}

func (h *CompanyHandler) uploadEvidence(w http.ResponseWriter, r *http.Request) {
	var req uploadEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	aid, err := id.ParseAssignmentID(req.AssignmentID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	in := company.UploadEvidenceInput{
		AssignmentID:     aid,
		DocumentName:     req.DocumentName,
		OriginalFilename: req.OriginalFilename,
		FilePath:         req.FilePath,
		FileSizeMB:       req.FileSizeMB,
		FileType:         req.FileType,
		EmployeeID:       requestcontext.EmployeeID(r.Context()),
	}
	if req.EvidenceRequirementID != "" {
		rid, err := id.ParseRequirementID(req.EvidenceRequirementID)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid evidence requirement id")
			return
		}
		in.EvidenceRequirementID = rid
	}
	e, err := h.svc.UploadEvidence(r.Context(), in)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEvidenceResponse(e))
}

type reviewEvidenceRequest struct {
	Verdict  string `json:"verdict"`
	Comments string `json:"comments"`
}

func (h *CompanyHandler) reviewEvidence(w http.ResponseWriter, r *http.Request) {
	eid, err := id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}
	var req reviewEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := h.svc.ReviewEvidence(r.Context(), eid,
		company.EvidenceStatus(req.Verdict), requestcontext.EmployeeID(r.Context()), req.Comments)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEvidenceResponse(e))
}

type linkNodeRequest struct {
	Kind     string `json:"kind"`
	NodeID   string `json:"node_id"`
	ParentID string `json:"parent_id"`
}

func (h *CompanyHandler) linkNode(w http.ResponseWriter, r *http.Request) {
	var req linkNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	nodeID, err := uuid.Parse(req.NodeID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid node id")
		return
	}
	parentID, err := uuid.Parse(req.ParentID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid parent id")
		return
	}
	if err := h.svc.LinkNode(r.Context(), company.NodeKind(req.Kind), nodeID, parentID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type unlinkNodeRequest struct {
	Kind   string `json:"kind"`
	NodeID string `json:"node_id"`
}

func (h *CompanyHandler) unlinkNode(w http.ResponseWriter, r *http.Request) {
	var req unlinkNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	nodeID, err := uuid.Parse(req.NodeID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid node id")
		return
	}
	if err := h.svc.UnlinkNode(r.Context(), company.NodeKind(req.Kind), nodeID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createCampaignRequest struct {
	CampaignName string    `json:"campaign_name"`
	FrameworkID  string    `json:"framework_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Description  string    `json:"description"`
}

func (h *CompanyHandler) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fid, err := id.ParseCompanyFrameworkID(req.FrameworkID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid framework id")
		return
	}
	c, err := h.svc.CreateCampaign(r.Context(), company.CreateCampaignInput{
		CampaignName: req.CampaignName,
		FrameworkID:  fid,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Description:  req.Description,
		EmployeeID:   requestcontext.EmployeeID(r.Context()),
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCampaignResponse(c))
}

type createRemediationPlanRequest struct {
	AssignmentID         string    `json:"assignment_id"`
	GapDescription       string    `json:"gap_description"`
	RootCause            string    `json:"root_cause"`
	RemediationSteps     string    `json:"remediation_steps"`
	TargetCompletionDate time.Time `json:"target_completion_date"`
	Priority             string    `json:"priority"`
	AssignedToEmployeeID int64     `json:"assigned_to_employee_id"`
}

func (h *CompanyHandler) createRemediationPlan(w http.ResponseWriter, r *http.Request) {
	var req createRemediationPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	aid, err := id.ParseAssignmentID(req.AssignmentID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	p, err := h.svc.CreateRemediationPlan(r.Context(), company.CreateRemediationPlanInput{
		AssignmentID:         aid,
		GapDescription:       req.GapDescription,
		RootCause:            req.RootCause,
		RemediationSteps:     req.RemediationSteps,
		TargetCompletionDate: req.TargetCompletionDate,
		Priority:             company.Priority(req.Priority),
		CreatedByEmployeeID:  requestcontext.EmployeeID(r.Context()),
		AssignedToEmployeeID: req.AssignedToEmployeeID,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPlanResponse(p))
}

type generateReportRequest struct {
	ReportType string `json:"report_type"`
}

func (h *CompanyHandler) generateReport(w http.ResponseWriter, r *http.Request) {
	fid, err := id.ParseCompanyFrameworkID(chi.URLParam(r, "frameworkID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid framework id")
		return
	}
	var req generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rep, err := h.svc.GenerateReport(r.Context(), fid,
		company.ReportType(req.ReportType), requestcontext.EmployeeID(r.Context()))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toReportResponse(rep))
}
