// Package validation checks generation requests and extracts before any work starts.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raphaelgruber/branchcast/internal/models"
)

// validate is a singleton validator instance
var validate = validator.New()

// ValidateRequest checks every range-constrained request parameter.
// Failures wrap models.ErrInvalidConfiguration.
func ValidateRequest(req models.GenerateRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidConfiguration, formatValidationError(err))
	}
	if req.ProbabilityModel == models.ModelMonteCarlo && req.MonteCarloTrials < 0 {
		return fmt.Errorf("%w: monte_carlo_trials must be positive", models.ErrInvalidConfiguration)
	}
	for sig := range req.Priors {
		if !strings.Contains(sig, "->") {
			return fmt.Errorf("%w: prior key %q is not a from->to signature", models.ErrInvalidConfiguration, sig)
		}
	}
	return nil
}

// ValidateExtract checks extract entries. An empty extract is reported as
// models.ErrNoSourceData; malformed entries as models.ErrInvalidConfiguration.
func ValidateExtract(e *models.Extract) error {
	if e.IsEmpty() {
		return models.ErrNoSourceData
	}
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: extract: %s", models.ErrInvalidConfiguration, formatValidationError(err))
	}
	return nil
}

// formatValidationError flattens validator errors into one readable line.
func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Namespace()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %v", fe.Namespace(), fe.Param(), fe.Value()))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s, got %v", fe.Namespace(), fe.Param(), fe.Value()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be <= %s, got %v", fe.Namespace(), fe.Param(), fe.Value()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be > %s, got %v", fe.Namespace(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
