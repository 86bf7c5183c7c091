// Package httputil holds the JSON response helpers shared by all handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/sentinel"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a plain error body with an explicit status.
func WriteError(w http.ResponseWriter, status int, description string) {
	WriteJSON(w, status, errorResponse{
		Error:            http.StatusText(status),
		ErrorDescription: description,
	})
}

// WriteDomainError maps domain and sentinel errors to HTTP statuses.
// Internal errors never leak their description to the client.
func WriteDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: codeLabel(err)}
	if status < http.StatusInternalServerError {
		resp.ErrorDescription = err.Error()
	}
	WriteJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sentinel.ErrNotFound),
		errors.Is(err, sentinel.ErrTenantNotProvisioned):
		return http.StatusNotFound
	case errors.Is(err, sentinel.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, sentinel.ErrTenantNotBound),
		errors.Is(err, sentinel.ErrCrossTenantRelation):
		return http.StatusBadRequest
	case errors.Is(err, sentinel.ErrProvisioningFailed),
		errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return dErrors.ToHTTPStatus(dErrors.CodeOf(err))
}

func codeLabel(err error) string {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return "not_found"
	case errors.Is(err, sentinel.ErrTenantNotProvisioned):
		return "tenant_not_provisioned"
	case errors.Is(err, sentinel.ErrConflict):
		return "conflict"
	case errors.Is(err, sentinel.ErrTenantNotBound):
		return "tenant_not_bound"
	case errors.Is(err, sentinel.ErrCrossTenantRelation):
		return "cross_tenant_relation"
	case errors.Is(err, sentinel.ErrProvisioningFailed):
		return "provisioning_failed"
	case errors.Is(err, sentinel.ErrUnavailable):
		return "unavailable"
	}
	return string(dErrors.CodeOf(err))
}
