// Package validator provides struct validation utilities with custom validators.
package validator

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/codegate/api/pkg/domain/governance"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/trust"
	"github.com/codegate/api/pkg/domain/vulnerability"
)

// Validator wraps the go-playground validator with custom validations.
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range v {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return sb.String()
}

// New creates a new Validator with custom validators registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Register custom validators for scan domain
	_ = v.RegisterValidation("scan_kind", validateScanKind)

	// Register custom validators for vulnerability domain
	_ = v.RegisterValidation("severity", validateSeverity)

	// Register custom validators for trust domain
	_ = v.RegisterValidation("radar_axis", validateRadarAxis)

	// Register custom validators for governance domain
	_ = v.RegisterValidation("rule_operator", validateRuleOperator)
	_ = v.RegisterValidation("rule_action", validateRuleAction)

	return &Validator{validate: v}
}

// Validate validates a struct and returns ValidationErrors if validation fails.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return err
	}

	result := make(ValidationErrors, 0, len(validationErrors))
	for _, e := range validationErrors {
		result = append(result, ValidationError{
			Field:   toSnakeCase(e.Field()),
			Message: formatErrorMessage(e),
		})
	}

	return result
}

// validateScanKind validates that a string is a valid scan Kind.
func validateScanKind(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return scan.Kind(value).IsValid()
}

// validateSeverity validates that a string is a valid Severity.
func validateSeverity(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return vulnerability.Severity(strings.ToLower(value)).IsValid()
}

// validateRadarAxis validates that a string is a valid radar Axis.
func validateRadarAxis(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	_, ok := trust.ParseAxis(value)
	return ok
}

// validateRuleOperator validates that a string is a valid rule Operator.
func validateRuleOperator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return governance.Operator(value).IsValid()
}

// validateRuleAction validates that a string is a valid rule Action.
func validateRuleAction(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return governance.Action(value).IsValid()
}

// formatErrorMessage converts validation errors to human-readable messages.
func formatErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "scan_kind":
		return fmt.Sprintf("must be one of: %s", formatScanKinds())
	case "severity":
		return fmt.Sprintf("must be one of: %s", formatSeverities())
	case "radar_axis":
		return fmt.Sprintf("must be one of: %s", formatAxes())
	case "rule_operator":
		return "must be one of: lt, gt, lte, gte"
	case "rule_action":
		return "must be one of: block_merge, require_approval, reduce_ranking, grant_privileges"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed on '%s' validation", e.Tag())
	}
}

// toSnakeCase converts PascalCase/camelCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

// formatScanKinds returns a comma-separated list of valid scan kinds.
func formatScanKinds() string {
	kinds := scan.AllKinds()
	strs := make([]string, len(kinds))
	for i, k := range kinds {
		strs[i] = string(k)
	}
	return strings.Join(strs, ", ")
}

// formatSeverities returns a comma-separated list of valid severities.
func formatSeverities() string {
	severities := vulnerability.AllSeverities()
	strs := make([]string, len(severities))
	for i, s := range severities {
		strs[i] = string(s)
	}
	return strings.Join(strs, ", ")
}

// formatAxes returns a comma-separated list of valid radar axes.
func formatAxes() string {
	axes := trust.AllAxes()
	strs := make([]string, len(axes))
	for i, a := range axes {
		strs[i] = string(a)
	}
	return strings.Join(strs, ", ")
}
