package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/mateatletas/tutorbilling/internal/shared/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return IsCurrencyCode(fl.Field().String())
	})
	return v
}

// IsCurrencyCode reports whether code has the ISO 4217 shape: three upper-case letters.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ValidateStruct validates a command and returns a validation AppError listing every failed field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return apperrors.NewValidationError("Validation failed", err.Error())
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fieldMessage(fe))
	}
	return apperrors.NewValidationError("Validation failed", strings.Join(messages, "; "))
}

var fieldMessages = map[string]string{
	"required": "%s is required",
	"gt":       "%s must be greater than %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"oneof":    "%s must be one of [%s]",
	"gtefield": "%s must not be before %s",
	"currency": "%s must be a three-letter ISO 4217 code",
}

func fieldMessage(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters long", field, bound, param)
		}
		return fmt.Sprintf("%s must be %s %s", field, bound, param)
	}

	format, ok := fieldMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed validation for '%s'", field, fe.Tag())
	}
	if strings.Count(format, "%s") == 1 {
		return fmt.Sprintf(format, field)
	}
	return fmt.Sprintf(format, field, param)
}
