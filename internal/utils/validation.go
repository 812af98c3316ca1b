package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

var ruleMessages = map[string]string{
	"required": "champ obligatoire",
	"email":    "adresse e-mail invalide",
	"min":      "valeur trop courte ou trop petite",
	"max":      "valeur trop longue ou trop grande",
	"gte":      "valeur trop petite",
	"lte":      "valeur trop grande",
	"oneof":    "valeur non autorisée",
	"gtfield":  "doit être postérieure",
	"url":      "URL invalide",
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationDetails flattens validator errors into a list suitable for API responses.
func ValidationDetails(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := ruleMessages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("règle %s non respectée", fe.Tag())
		}
		details = append(details, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: msg,
		})
	}
	return details
}
