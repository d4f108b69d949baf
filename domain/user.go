package domain

import "time"

// Role is one of the fixed back-office roles.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleGuest        Role = "guest"
	RoleContributeur Role = "contributeur"
	RoleValidateur   Role = "validateur"
	RoleAdminClient  Role = "admin_client"
)

// LowestRole is assigned on self-registration.
const LowestRole = RoleGuest

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGuest, RoleContributeur, RoleValidateur, RoleAdminClient:
		return true
	default:
		return false
	}
}

// Identity is the currently authenticated principal.
type Identity struct {
	Email            string `json:"email"`
	Role             Role   `json:"role"`
	OrganizationName string `json:"organization_name,omitempty"`
	OriginalRole     Role   `json:"original_role,omitempty"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// HasRole reports whether the identity holds one of roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// CanAccessOrganization reports whether rows of the organization are visible to the identity.
func (i *Identity) CanAccessOrganization(name string) bool {
	if i == nil {
		return false
	}
	if i.Role == RoleAdmin {
		return true
	}
	return i.OrganizationName != "" && i.OrganizationName == name
}

// Profile mirrors a row of the profiles table.
type Profile struct {
	Email             string    `json:"email"`
	Role              Role      `json:"role"`
	OrganizationName  string    `json:"organization_name,omitempty"`
	OrganizationLevel string    `json:"organization_level,omitempty"`
	FiliereName       string    `json:"filiere_name,omitempty"`
	FilialeName       string    `json:"filiale_name,omitempty"`
	SiteName          string    `json:"site_name,omitempty"`
	OriginalRole      Role      `json:"original_role,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Identity projects the profile onto the session identity.
func (p *Profile) Identity() *Identity {
	if p == nil {
		return nil
	}
	return &Identity{
		Email:            p.Email,
		Role:             p.Role,
		OrganizationName: p.OrganizationName,
		OriginalRole:     p.OriginalRole,
	}
}

// ClearScope drops the temporary organization scoping fields.
func (p *Profile) ClearScope() {
	p.OrganizationName = ""
	p.OrganizationLevel = ""
	p.FiliereName = ""
	p.FilialeName = ""
	p.SiteName = ""
}

// User holds personal and contact fields, kept separate from Profile.
type User struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Position  string    `json:"position,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is the joined users + profiles view used by user administration.
type Member struct {
	User
	Profile Profile `json:"profile"`
}

// Credential is the auth-side record of an account.
type Credential struct {
	Email        string
	PasswordHash string
	ConfirmedAt  *time.Time
	LastSignIn   *time.Time
	CreatedAt    time.Time
}

func (c *Credential) Confirmed() bool {
	return c != nil && c.ConfirmedAt != nil
}
