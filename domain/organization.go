package domain

import "time"

// Organization is the tenant root of the hierarchy organization → filière → filiale → site.
type Organization struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnitLevel names a level below the organization.
type UnitLevel string

const (
	LevelOrganization UnitLevel = "organization"
	LevelFiliere      UnitLevel = "filiere"
	LevelFiliale      UnitLevel = "filiale"
	LevelSite         UnitLevel = "site"
)

// ParseUnitLevel accepts both singular and plural route segments.
func ParseUnitLevel(s string) (UnitLevel, bool) {
	switch s {
	case "filiere", "filieres":
		return LevelFiliere, true
	case "filiale", "filiales":
		return LevelFiliale, true
	case "site", "sites":
		return LevelSite, true
	default:
		return "", false
	}
}

// OrgUnit is a filière, filiale or site row. Parent names are optional.
type OrgUnit struct {
	Level            UnitLevel `json:"level"`
	Name             string    `json:"name"`
	OrganizationName string    `json:"organization_name"`
	FiliereName      string    `json:"filiere_name,omitempty"`
	FilialeName      string    `json:"filiale_name,omitempty"`
	Address          string    `json:"address,omitempty"`
	City             string    `json:"city,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
