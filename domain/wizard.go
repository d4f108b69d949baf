package domain

import "time"

// Wizard steps in the order the taxonomy selector chains them.
const (
	StepSector      = "sector"
	StepEnergyTypes = "energy_types"
	StepStandards   = "standards"
	StepIssues      = "issues"
	StepCriteria    = "criteria"
	StepIndicators  = "indicators"
)

// IndicatorView memoizes an aggregation together with the inputs that produced it.
// It lives for one request and is never stored with a draft.
type IndicatorView struct {
	Key     string              `json:"key,omitempty"`
	Records []ResolvedIndicator `json:"records"`
}

// Reset empties the view so the next refresh recomputes.
func (v *IndicatorView) Reset() {
	v.Key = ""
	v.Records = nil
}

// WizardDraft is the in-progress wizard state of one user.
type WizardDraft struct {
	Email              string    `json:"email"`
	OrganizationName   string    `json:"organization_name,omitempty"`
	Selection          Selection `json:"selection"`
	RefreshToken       string    `json:"refresh_token"`
	SelectedIndicators []string  `json:"selected_indicators,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Step returns the first wizard step whose input is still missing.
func (d *WizardDraft) Step() string {
	s := d.Selection
	switch {
	case s.Sector == "":
		return StepSector
	case len(s.EnergyTypes) == 0:
		return StepEnergyTypes
	case len(s.Standards) == 0:
		return StepStandards
	case len(s.Issues) == 0:
		return StepIssues
	case len(s.Criteria) == 0:
		return StepCriteria
	default:
		return StepIndicators
	}
}
