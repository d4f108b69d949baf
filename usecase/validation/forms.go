package validation

// LoginForm only checks presence of the password; strength is enforced at registration.
type LoginForm struct {
	Email    string `json:"email" validate:"required,emailaddr"`
	Password string `json:"password" validate:"required"`
}

type RegistrationForm struct {
	Email           string `json:"email" validate:"required,emailaddr"`
	Password        string `json:"password" validate:"required,min=8,strongpwd"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FullName        string `json:"full_name" validate:"required"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Position        string `json:"position,omitempty" validate:"omitempty,max=120"`
}

type OrganizationForm struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

type UnitForm struct {
	Name        string `json:"name" validate:"required,max=200"`
	FiliereName string `json:"filiere_name,omitempty"`
	FilialeName string `json:"filiale_name,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
}

type PeriodForm struct {
	OrganizationName string `json:"organization_name" validate:"required"`
	Year             int    `json:"year" validate:"required,gte=2000,lte=2100"`
	PeriodType       string `json:"period_type" validate:"required,oneof=month quarter semester year"`
	PeriodNumber     int    `json:"period_number" validate:"required,gte=1,lte=12"`
	Status           string `json:"status,omitempty" validate:"omitempty,oneof=open closed"`
}

type IndicatorForm struct {
	Code        string `json:"code" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=300"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty" validate:"omitempty,max=32"`
	Formule     string `json:"formule,omitempty"`
	Frequency   string `json:"frequency,omitempty" validate:"omitempty,oneof=mensuelle trimestrielle semestrielle annuelle"`
}

// UserForm is the administration form; Password is only required when creating the account.
type UserForm struct {
	Email             string `json:"email" validate:"required,emailaddr"`
	FullName          string `json:"full_name" validate:"required"`
	Phone             string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Position          string `json:"position,omitempty" validate:"omitempty,max=120"`
	Role              string `json:"role" validate:"required,role"`
	OrganizationName  string `json:"organization_name,omitempty"`
	OrganizationLevel string `json:"organization_level,omitempty" validate:"omitempty,oneof=organization filiere filiale site"`
	FiliereName       string `json:"filiere_name,omitempty"`
	FilialeName       string `json:"filiale_name,omitempty"`
	SiteName          string `json:"site_name,omitempty"`
	Password          string `json:"password,omitempty" validate:"omitempty,min=8,strongpwd"`
}

type JoinRowForm struct {
	SectorName     string   `json:"sector_name" validate:"required"`
	EnergyTypeName string   `json:"energy_type_name" validate:"required"`
	StandardName   string   `json:"standard_name" validate:"required"`
	IssueName      string   `json:"issue_name" validate:"required"`
	CriteriaName   string   `json:"criteria_name" validate:"required"`
	IndicatorCodes []string `json:"indicator_codes" validate:"dive,required"`
	Unit           string   `json:"unit,omitempty"`
}

type ActAsClientForm struct {
	OrganizationName string `json:"organization_name" validate:"required"`
}

// ProfileForm is what a user may edit about themselves.
type ProfileForm struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Position string `json:"position,omitempty" validate:"omitempty,max=120"`
}
