package domain

import "time"

// Selection is the taxonomy selection context held by the wizard.
type Selection struct {
	Sector      string   `json:"sector"`
	EnergyTypes []string `json:"energy_types"`
	Standards   []string `json:"standards"`
	Issues      []string `json:"issues"`
	Criteria    []string `json:"criteria"`
}

// Complete reports whether every field is populated.
func (s Selection) Complete() bool {
	return s.Sector != "" &&
		len(s.EnergyTypes) > 0 &&
		len(s.Standards) > 0 &&
		len(s.Issues) > 0 &&
		len(s.Criteria) > 0
}

// JoinKey identifies one row of sector_standards_issues_criteria_indicators.
type JoinKey struct {
	SectorName     string `json:"sector_name"`
	EnergyTypeName string `json:"energy_type_name"`
	StandardName   string `json:"standard_name"`
	IssueName      string `json:"issue_name"`
	CriteriaName   string `json:"criteria_name"`
}

// JoinRow is the slice of a join-table row read during aggregation.
type JoinRow struct {
	CriteriaName   string    `json:"criteria_name"`
	IndicatorCodes []string  `json:"indicator_codes"`
	Unit           *string   `json:"unit,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// JoinRecord is a full join-table row, used by the catalog.
type JoinRecord struct {
	JoinKey
	IndicatorCodes []string  `json:"indicator_codes"`
	Unit           string    `json:"unit,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Indicator is owned by the indicators table.
type Indicator struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Formule     string    `json:"formule,omitempty"`
	Frequency   string    `json:"frequency,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IndicatorRef is the display projection read by the aggregator.
type IndicatorRef struct {
	Code string
	Name string
}

// ResolvedIndicator is recomputed on every query and never persisted.
type ResolvedIndicator struct {
	IndicatorName string    `json:"indicator_name"`
	CriteriaName  string    `json:"criteria_name"`
	Unit          string    `json:"unit"`
	CreatedAt     time.Time `json:"created_at"`
}

// IndicatorSelection is the wizard hand-off payload persisted on completion.
type IndicatorSelection struct {
	ID               string    `json:"id"`
	OrganizationName string    `json:"organization_name"`
	Selection        Selection `json:"selection"`
	IndicatorNames   []string  `json:"indicator_names"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}
