package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant routing subsystem.
// Tracks routing decisions, provisioning traffic, and credential service
// latency.
type Metrics struct {
	TenantResolutions    *prometheus.CounterVec
	RoutingErrors        *prometheus.CounterVec
	TenantsProvisioned   prometheus.Counter
	ProvisioningFailures prometheus.Counter
	CredentialDuration   prometheus.Histogram
	RelationsRejected    prometheus.Counter
}

// New creates a Metrics instance with all routing metrics registered.
func New() *Metrics {
	return &Metrics{
		TenantResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliancehub_tenant_resolutions_total",
			Help: "Database resolutions by collection class (template or tenant)",
		}, []string{"class"}),
		RoutingErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliancehub_routing_errors_total",
			Help: "Routing failures by reason (not_bound, not_provisioned, open_failed)",
		}, []string{"reason"}),
		TenantsProvisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_tenants_provisioned_total",
			Help: "Total tenant databases registered via the credential service",
		}),
		ProvisioningFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_provisioning_failures_total",
			Help: "Total failed provisioning attempts",
		}),
		CredentialDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliancehub_credential_service_duration_seconds",
			Help:    "Duration of credential/residency service calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RelationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_cross_tenant_relations_rejected_total",
			Help: "Relations rejected because their ends resolve to different databases",
		}),
	}
}

// IncResolution records a routing decision for a collection class.
func (m *Metrics) IncResolution(class string) {
	if m == nil {
		return
	}
	m.TenantResolutions.WithLabelValues(class).Inc()
}

// IncRoutingError records a routing failure by reason.
func (m *Metrics) IncRoutingError(reason string) {
	if m == nil {
		return
	}
	m.RoutingErrors.WithLabelValues(reason).Inc()
}

// IncProvisioned records a successful tenant registration.
func (m *Metrics) IncProvisioned() {
	if m == nil {
		return
	}
	m.TenantsProvisioned.Inc()
}

// IncProvisioningFailure records a failed provisioning attempt.
func (m *Metrics) IncProvisioningFailure() {
	if m == nil {
		return
	}
	m.ProvisioningFailures.Inc()
}

// ObserveCredentialCall records the duration of one credential service call.
// Call with time.Now() at the start of the call.
func (m *Metrics) ObserveCredentialCall(start time.Time) {
	if m == nil {
		return
	}
	m.CredentialDuration.Observe(time.Since(start).Seconds())
}

// IncRelationRejected records a rejected cross-database relation.
func (m *Metrics) IncRelationRejected() {
	if m == nil {
		return
	}
	m.RelationsRejected.Inc()
}
