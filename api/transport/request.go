package transport

import "github.com/fastygo/energy-backoffice/domain"

// SelectIndicatorsRequest carries the indicator names kept from the wizard view.
type SelectIndicatorsRequest struct {
	Indicators []string `json:"indicators"`
}

// LinkIndicatorRequest attaches an existing indicator to a join row.
type LinkIndicatorRequest struct {
	domain.JoinKey
	Unit string `json:"unit,omitempty"`
}

// ResolveRequest is the body of the stateless taxonomy resolution endpoint.
type ResolveRequest = domain.Selection
