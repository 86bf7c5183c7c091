package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the routing layer
// return these (optionally wrapped) so services can translate them into
// coded domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in the resolved database
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrTenantNotBound: a tenant-owned collection was accessed with no
//     tenant bound to the calling context (always a caller bug)
//   - ErrTenantNotProvisioned: no database is registered for the bound
//     tenant and provisioning did not produce one
//   - ErrProvisioningFailed: the credential service was unreachable or
//     returned invalid data
//   - ErrCrossTenantRelation: a relation's two ends resolve to different
//     physical databases (routing bug, never expected in correct operation)
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrTenantNotBound       = errors.New("no tenant bound to context")
	ErrTenantNotProvisioned = errors.New("tenant database not provisioned")
	ErrProvisioningFailed   = errors.New("tenant provisioning failed")
	ErrCrossTenantRelation  = errors.New("cross-tenant relation rejected")
	ErrUnavailable          = errors.New("unavailable")
)
