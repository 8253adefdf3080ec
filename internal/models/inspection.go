package models

// Dispositions, required only when a check failed.
const (
	DispositionReplace = "Replace"
	DispositionNew     = "New"
)

// Severity ratings produced by note analysis.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

type ChecklistItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type InspectionRecord struct {
	ID             string           `json:"id"`
	ExtinguisherID string           `json:"extinguisherId"`
	Date           string           `json:"date"` // RFC3339
	Inspector      string           `json:"inspector"`
	Checks         map[string]*bool `json:"checks"` // nil = not yet checked
	Notes          string           `json:"notes,omitempty"`
	AIAnalysis     string           `json:"aiAnalysis,omitempty"`
	Severity       string           `json:"severity,omitempty"`
	Actions        []string         `json:"actions,omitempty"`
	PhotoAnalysis  string           `json:"photoAnalysis,omitempty"`
	Disposition    string           `json:"disposition,omitempty"`
}

// SubmitInspectionRequest is the request body for POST /api/inspections
type SubmitInspectionRequest struct {
	ExtinguisherID string           `json:"extinguisherId"`
	Checks         map[string]*bool `json:"checks"`
	Notes          string           `json:"notes"`
	Disposition    string           `json:"disposition"`
	Photo          []byte           `json:"photo,omitempty"` // base64 in JSON
}

// Passed reports whether every recorded check is true. A record with no
// checks passes.
func (r *InspectionRecord) Passed() bool {
	for _, v := range r.Checks {
		if v == nil || !*v {
			return false
		}
	}
	return true
}

// FailedChecks returns the ids of checks explicitly marked false.
func (r *InspectionRecord) FailedChecks() []string {
	var failed []string
	for id, v := range r.Checks {
		if v != nil && !*v {
			failed = append(failed, id)
		}
	}
	return failed
}

// ValidDisposition reports whether d is a known disposition.
func ValidDisposition(d string) bool {
	return d == DispositionReplace || d == DispositionNew
}
