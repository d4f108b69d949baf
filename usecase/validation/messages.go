package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var fieldMessages = map[string]string{
	"email.required":            "L'email est requis",
	"email.emailaddr":           "Format d'email invalide",
	"password.required":         "Le mot de passe est requis",
	"password.min":              "Le mot de passe doit contenir au moins 8 caractères",
	"password.strongpwd":        "Le mot de passe doit contenir au moins une minuscule, une majuscule et un chiffre",
	"confirm_password.required": "Veuillez confirmer le mot de passe",
	"confirm_password.eqfield":  "Les mots de passe ne correspondent pas",
	"full_name.required":        "Le nom complet est requis",
	"role.role":                 "Rôle inconnu",
}

func message(field string, fe validator.FieldError) string {
	if msg, ok := fieldMessages[field+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "Ce champ est requis"
	case "emailaddr":
		return "Format d'email invalide"
	case "oneof":
		return fmt.Sprintf("Valeur non autorisée (attendu : %s)", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("La valeur doit être au moins %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("La valeur doit être au plus %s", fe.Param())
	default:
		return "Valeur invalide"
	}
}
