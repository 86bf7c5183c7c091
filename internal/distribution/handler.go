package distribution

import (
	"encoding/json"
	"log/slog"
	"net/http"

	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/httputil"
)

// Handler exposes distribution over the internal API. Authentication (the
// internal token check) is middleware; the handler assumes a trusted caller.
type Handler struct {
	engine *Engine
	logger *slog.Logger
}

func NewHandler(engine *Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

type distributeRequest struct {
	TenantSlug string `json:"tenant_slug"`
	// FrameworkIDs is three-valued: absent copies every active framework,
	// [] copies none, a non-empty list copies exactly those.
	FrameworkIDs *[]string `json:"framework_ids"`
}

// Distribute handles POST /internal/distribute. Partial failure still
// returns 200: the per-framework report tells the caller what failed.
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TenantSlug == "" {
		httputil.WriteError(w, http.StatusBadRequest, "tenant_slug is required")
		return
	}

	var frameworkIDs []id.FrameworkID
	if req.FrameworkIDs != nil {
		frameworkIDs = make([]id.FrameworkID, 0, len(*req.FrameworkIDs))
		for _, raw := range *req.FrameworkIDs {
			fid, err := id.ParseFrameworkID(raw)
			if err != nil {
				httputil.WriteError(w, http.StatusBadRequest, "invalid framework id: "+raw)
				return
			}
			frameworkIDs = append(frameworkIDs, fid)
		}
	}

	report, err := h.engine.Distribute(r.Context(), req.TenantSlug, frameworkIDs)
	if err != nil {
		h.logger.Error("distribution run failed", "tenant", req.TenantSlug, "error", err)
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
