package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/energy-backoffice/domain"
)

// Errors maps a JSON field name to a user-facing message. Submission is blocked while it is non-empty.
type Errors map[string]string

func (e Errors) Empty() bool { return len(e) == 0 }

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	lowerPattern = regexp.MustCompile(`[a-z]`)
	upperPattern = regexp.MustCompile(`[A-Z]`)
	digitPattern = regexp.MustCompile(`[0-9]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	}))
	must(v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	}))
	must(v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// IsEmail reports whether s looks like local@domain.tld.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsStrongPassword requires a lowercase letter, an uppercase letter and a digit. Length is checked separately.
func IsStrongPassword(s string) bool {
	return lowerPattern.MatchString(s) && upperPattern.MatchString(s) && digitPattern.MatchString(s)
}

// Validate runs the struct rules of form and returns the field-keyed messages.
func Validate(form interface{}) Errors {
	out := Errors{}
	err := validate.Struct(form)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		field := fieldKey(fe)
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe)
	}
	return out
}

// Check is Validate folded into an error: nil when the form is valid, *domain.ValidationError otherwise.
func Check(form interface{}) error {
	if errs := Validate(form); !errs.Empty() {
		return &domain.ValidationError{Fields: errs}
	}
	return nil
}

// fieldKey is the JSON name of the failing field. Embedded forms report their own field names.
func fieldKey(fe validator.FieldError) string {
	return fe.Field()
}
