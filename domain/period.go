package domain

import (
	"fmt"
	"time"
)

// PeriodType is the granularity of a collection period.
type PeriodType string

const (
	PeriodMonth    PeriodType = "month"
	PeriodQuarter  PeriodType = "quarter"
	PeriodSemester PeriodType = "semester"
	PeriodYear     PeriodType = "year"
)

const (
	PeriodStatusOpen   = "open"
	PeriodStatusClosed = "closed"
)

// Count returns how many periods of this type fit in a year, or 0 if the type is unknown.
func (t PeriodType) Count() int {
	switch t {
	case PeriodMonth:
		return 12
	case PeriodQuarter:
		return 4
	case PeriodSemester:
		return 2
	case PeriodYear:
		return 1
	default:
		return 0
	}
}

func (t PeriodType) months() int {
	if n := t.Count(); n > 0 {
		return 12 / n
	}
	return 0
}

// CollectionPeriod is uniquely identified by (organization, year, type, number).
type CollectionPeriod struct {
	ID               string     `json:"id"`
	OrganizationName string     `json:"organization_name"`
	Year             int        `json:"year"`
	PeriodType       PeriodType `json:"period_type"`
	PeriodNumber     int        `json:"period_number"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          time.Time  `json:"end_date"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Bounds computes the first and last calendar day covered by the period.
func (p *CollectionPeriod) Bounds() (time.Time, time.Time, error) {
	months := p.PeriodType.months()
	if months == 0 {
		return time.Time{}, time.Time{}, NewError(ErrCodeInvalid, fmt.Sprintf("unknown period type %q", p.PeriodType))
	}
	if p.PeriodNumber < 1 || p.PeriodNumber > p.PeriodType.Count() {
		return time.Time{}, time.Time{}, NewError(ErrCodeInvalid,
			fmt.Sprintf("period number %d out of range for %s", p.PeriodNumber, p.PeriodType))
	}
	start := time.Date(p.Year, time.Month((p.PeriodNumber-1)*months+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, months, -1)
	return start, end, nil
}

// Key is the natural key used for upserts.
func (p *CollectionPeriod) Key() string {
	return fmt.Sprintf("%s/%d/%s/%d", p.OrganizationName, p.Year, p.PeriodType, p.PeriodNumber)
}

// IsOver reports whether the period ended before the reference day.
func (p *CollectionPeriod) IsOver(reference time.Time) bool {
	if p == nil || p.EndDate.IsZero() {
		return false
	}
	return p.EndDate.Before(reference.Truncate(24 * time.Hour))
}
