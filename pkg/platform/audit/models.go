// Package audit captures key compliance actions as structured events. Events
// are transport-agnostic; the Kafka publisher fans them out to the audit
// topic and a nop publisher keeps call sites unconditional in tests.
package audit

import "time"

// Action names the operation an event records.
type Action string

const (
	ActionFrameworkDistributed Action = "framework_distributed"
	ActionDistributionFailed   Action = "distribution_failed"
	ActionFrameworkCreated     Action = "framework_created"
	ActionFrameworkCloned      Action = "framework_cloned"
	ActionControlAssigned      Action = "control_assigned"
	ActionAssignmentUpdated    Action = "assignment_status_updated"
	ActionResponseSubmitted    Action = "response_submitted"
	ActionEvidenceUploaded     Action = "evidence_uploaded"
	ActionEvidenceReviewed     Action = "evidence_reviewed"
	ActionNodeLinked           Action = "node_linked"
	ActionNodeUnlinked         Action = "node_unlinked"
	ActionRemediationCreated   Action = "remediation_plan_created"
	ActionReportGenerated      Action = "report_generated"
	ActionTenantProvisioned    Action = "tenant_provisioned"
)

// Event is one audited action. TenantSlug is empty for central-only actions
// such as template authoring.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	TenantSlug string    `json:"tenant_slug,omitempty"`
	Action     Action    `json:"action"`
	Subject    string    `json:"subject"`
	EmployeeID int64     `json:"employee_id,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}
