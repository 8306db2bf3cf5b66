package rest

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// report json names in error meta
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateRequest returns per-field messages, or nil when req is valid.
func validateRequest(req any) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	meta := map[string]string{}
	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		meta["body"] = err.Error()
		return meta
	}
	for _, fe := range ves {
		meta[fe.Field()] = formatFieldError(fe)
	}
	return meta
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match %s", fe.Param())
	default:
		return "is invalid"
	}
}
