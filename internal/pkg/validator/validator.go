package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

// ReportStatuses lists the status tags a report can carry.
var ReportStatuses = []string{"pending", "investigating", "resolved", "dismissed"}

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("report_status", func(fl validator.FieldLevel) bool {
		return isReportStatus(fl.Field().String())
	})

	// Status tab accepts "all" (or empty) in addition to the report statuses
	validate.RegisterValidation("status_tab", func(fl validator.FieldLevel) bool {
		tab := fl.Field().String()
		return tab == "" || tab == "all" || isReportStatus(tab)
	})

	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func isReportStatus(s string) bool {
	for _, st := range ReportStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required", "notblank":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "len":
			errors[field] = "Value must be exactly " + err.Param() + " characters"
		case "numeric":
			errors[field] = "Value must be numeric"
		case "url":
			errors[field] = "Invalid URL format"
		case "report_status":
			errors[field] = "Invalid status. Must be: pending, investigating, resolved, or dismissed"
		case "status_tab":
			errors[field] = "Invalid status filter. Must be: all, pending, investigating, resolved, or dismissed"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
