package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"compliancehub/internal/catalog"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/httputil"
)

// CatalogHandler exposes the central template catalog. Reads are available to
// authenticated employees; writes are operator-only and mount under the
// internal API.
type CatalogHandler struct {
	svc    *catalog.Service
	logger *slog.Logger
}

func NewCatalogHandler(svc *catalog.Service, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// RegisterRead mounts the read-only catalog routes.
func (h *CatalogHandler) RegisterRead(r chi.Router) {
	r.Get("/frameworks", h.listFrameworks)
	r.Get("/frameworks/{frameworkID}", h.getFramework)
	r.Get("/frameworks/{frameworkID}/controls", h.listControls)
	r.Get("/frameworks/{frameworkID}/stats", h.stats)
	r.Get("/controls/search", h.searchControls)
}

// RegisterAdmin mounts the catalog authoring routes.
func (h *CatalogHandler) RegisterAdmin(r chi.Router) {
	r.Post("/frameworks", h.createFramework)
	r.Post("/frameworks/{frameworkID}/clone", h.cloneFramework)
	r.Post("/domains", h.addDomain)
	r.Post("/categories", h.addCategory)
	r.Post("/subcategories", h.addSubcategory)
	r.Post("/controls", h.addControl)
	r.Post("/questions", h.addQuestion)
	r.Post("/requirements", h.addRequirement)
}

func (h *CatalogHandler) listFrameworks(w http.ResponseWriter, r *http.Request) {
	fws, err := h.svc.ListActiveFrameworks(r.Context())
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFrameworkResponses(fws))
}

func (h *CatalogHandler) getFramework(w http.ResponseWriter, r *http.Request) {
	fid, err := id.ParseFrameworkID(chi.URLParam(r, "frameworkID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid framework id")
		return
	}
	fw, err := h.svc.GetFramework(r.Context(), fid)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFrameworkResponse(fw))
}

func (h *CatalogHandler) listControls(w http.ResponseWriter, r *http.Request) {
	fid, err := id.ParseFrameworkID(chi.URLParam(r, "frameworkID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid framework id")
		return
	}
	controls, err := h.svc.ListControlsByFramework(r.Context(), fid)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toControlResponses(controls))
}

func (h *CatalogHandler) stats(w http.ResponseWriter, r *http.Request) {
	fid, err := id.ParseFrameworkID(chi.URLParam(r, "frameworkID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid framework id")
		return
	}
	stats, err := h.svc.Stats(r.Context(), fid)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (h *CatalogHandler) searchControls(w http.ResponseWriter, r *http.Request) {
	controls, err := h.svc.SearchControls(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toControlResponses(controls))
}

type createFrameworkRequest struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Version       string    `json:"version"`
	EffectiveDate time.Time `json:"effective_date"`
	Status        string    `json:"status"`
	CreatedBy     string    `json:"created_by"`
}

func (h *CatalogHandler) createFramework(w http.ResponseWriter, r *http.Request) {
	var req createFrameworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fw, err := h.svc.CreateFramework(r.Context(), &catalog.Framework{
		Name:          req.Name,
		FullName:      req.FullName,
		Description:   req.Description,
		Version:       req.Version,
		EffectiveDate: req.EffectiveDate,
		Status:        catalog.FrameworkStatus(req.Status),
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toFrameworkResponse(fw))
}

type cloneFrameworkRequest struct {
	NewVersion string `json:"new_version"`
}

func (h *CatalogHandler) cloneFramework(w http.ResponseWriter, r *http.Request) {
	fid, err := id.ParseFrameworkID(chi.URLParam(r, "frameworkID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid framework id")
		return
	}
	var req cloneFrameworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fw, err := h.svc.CloneFramework(r.Context(), fid, req.NewVersion)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toFrameworkResponse(fw))
}

type addDomainRequest struct {
	FrameworkID string `json:"framework_id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (h *CatalogHandler) addDomain(w http.ResponseWriter, r *http.Request) {
	var req addDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fid, err := id.ParseFrameworkID(req.FrameworkID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid framework id")
		return
	}
	d, err := h.svc.AddDomain(r.Context(), &catalog.Domain{
		FrameworkID: fid,
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": d.ID.String()})
}

type addCategoryRequest struct {
	DomainID    string `json:"domain_id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (h *CatalogHandler) addCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	did, err := id.ParseDomainID(req.DomainID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid domain id")
		return
	}
	c, err := h.svc.AddCategory(r.Context(), &catalog.Category{
		DomainID:    did,
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": c.ID.String()})
}

type addSubcategoryRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (h *CatalogHandler) addSubcategory(w http.ResponseWriter, r *http.Request) {
	var req addSubcategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cid, err := id.ParseCategoryID(req.CategoryID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	sc, err := h.svc.AddSubcategory(r.Context(), &catalog.Subcategory{
		CategoryID:  cid,
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": sc.ID.String()})
}

type addControlRequest struct {
	SubcategoryID string `json:"subcategory_id"`
	ControlCode   string `json:"control_code"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Objective     string `json:"objective"`
	ControlType   string `json:"control_type"`
	Frequency     string `json:"frequency"`
	RiskLevel     string `json:"risk_level"`
	SortOrder     int    `json:"sort_order"`
}

func (h *CatalogHandler) addControl(w http.ResponseWriter, r *http.Request) {
	var req addControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sid, err := id.ParseSubcategoryID(req.SubcategoryID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid subcategory id")
		return
	}
	c, err := h.svc.AddControl(r.Context(), &catalog.Control{
		SubcategoryID: sid,
		ControlCode:   req.ControlCode,
		Title:         req.Title,
		Description:   req.Description,
		Objective:     req.Objective,
		ControlType:   catalog.ControlType(req.ControlType),
		Frequency:     catalog.Frequency(req.Frequency),
		RiskLevel:     catalog.RiskLevel(req.RiskLevel),
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toControlResponse(c))
}

type addQuestionRequest struct {
	ControlID    string   `json:"control_id"`
	Question     string   `json:"question"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options"`
	IsMandatory  bool     `json:"is_mandatory"`
	SortOrder    int      `json:"sort_order"`
}

func (h *CatalogHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req addQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cid, err := id.ParseControlID(req.ControlID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid control id")
		return
	}
	q, err := h.svc.AddQuestion(r.Context(), &catalog.AssessmentQuestion{
		ControlID:    cid,
		Question:     req.Question,
		QuestionType: catalog.QuestionType(req.QuestionType),
		Options:      req.Options,
		IsMandatory:  req.IsMandatory,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": q.ID.String()})
}

type addRequirementRequest struct {
	ControlID    string `json:"control_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	EvidenceType string `json:"evidence_type"`
	IsMandatory  bool   `json:"is_mandatory"`
	FileFormat   string `json:"file_format"`
	SortOrder    int    `json:"sort_order"`
}

func (h *CatalogHandler) addRequirement(w http.ResponseWriter, r *http.Request) {
	var req addRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cid, err := id.ParseControlID(req.ControlID)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid control id")
		return
	}
	req2, err := h.svc.AddRequirement(r.Context(), &catalog.EvidenceRequirement{
		ControlID:    cid,
		Title:        req.Title,
		Description:  req.Description,
		EvidenceType: catalog.EvidenceType(req.EvidenceType),
		IsMandatory:  req.IsMandatory,
		FileFormat:   req.FileFormat,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": req2.ID.String()})
}
