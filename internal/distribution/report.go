package distribution

// FrameworkResult records the outcome for one template framework. Exactly one
// of the copied/skipped/error shapes applies: a skipped framework has Skipped
// set and zero counts, a failed one carries Error.
type FrameworkResult struct {
	FrameworkName  string `json:"framework_name"`
	Version        string `json:"version"`
	ControlsCopied int    `json:"controls_copied"`
	Skipped        bool   `json:"skipped,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Report is the ordered outcome of one distribution run. Order follows the
// catalog listing so two runs over the same catalog compare line by line.
type Report struct {
	TenantSlug string            `json:"tenant_slug"`
	Frameworks []FrameworkResult `json:"frameworks"`
}

// CopiedCount returns how many frameworks were newly copied in this run.
func (r *Report) CopiedCount() int {
	n := 0
	for _, fr := range r.Frameworks {
		if !fr.Skipped && fr.Error == "" {
			n++
		}
	}
	return n
}

// HasErrors reports whether any framework failed.
func (r *Report) HasErrors() bool {
	for _, fr := range r.Frameworks {
		if fr.Error != "" {
			return true
		}
	}
	return false
}
