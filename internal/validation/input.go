// Package validation rejects malformed plan input, resolves creation
// configs against profile defaults and detects conflicts between goals,
// caps and scheduled sessions.
package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New()
	inputValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := inputValidate.RegisterValidation("isodate", validateISODate); err != nil {
		panic(fmt.Sprintf("register isodate validation: %v", err))
	}
}

// validateISODate accepts YYYY-MM-DD strings only
func validateISODate(fl validator.FieldLevel) bool {
	_, err := utils.ParseDate(fl.Field().String())
	return err == nil
}

// Validator checks plans and schedules against a calibration table
type Validator struct {
	cal config.Calibration
}

// New creates a new Validator
func New(cal config.Calibration) *Validator {
	return &Validator{cal: cal}
}

// Plan rejects a plan and creation config that cannot be projected. All
// failures are reported together as a single invalid_input error.
func (v *Validator) Plan(plan models.MinimalPlan, cfg models.CreationConfig) error {
	var problems []string
	problems = append(problems, fieldProblems(inputValidate.Struct(plan))...)
	problems = append(problems, fieldProblems(inputValidate.Struct(cfg))...)
	if len(problems) > 0 {
		return errors.Invalid("invalid plan: %s", strings.Join(problems, "; "))
	}

	start, _ := utils.ParseDate(plan.PlanStartDate)
	for _, g := range plan.Goals {
		date, _ := utils.ParseDate(g.TargetDate)
		if date.Before(start) {
			problems = append(problems, fmt.Sprintf("goal %q on %s is before plan_start_date %s",
				g.Name, g.TargetDate, plan.PlanStartDate))
		}
		for i, t := range g.Targets {
			if t.Kind == models.TargetRacePerformance && (t.DistanceM > 0) != (t.TargetTimeS > 0) {
				problems = append(problems, fmt.Sprintf("goal %q target %d needs both distance_m and target_time_s", g.Name, i))
			}
		}
	}
	if len(problems) > 0 {
		return errors.Invalid("invalid plan: %s", strings.Join(problems, "; "))
	}
	return nil
}

// fieldProblems turns validator output into client-actionable messages
func fieldProblems(err error) []string {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", field))
		case "isodate":
			out = append(out, fmt.Sprintf("%s must be a YYYY-MM-DD date, got %q", field, fe.Value()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		case "min", "max", "gte", "lte", "gt", "lt":
			out = append(out, fmt.Sprintf("%s fails %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		default:
			out = append(out, fmt.Sprintf("%s fails %s", field, fe.Tag()))
		}
	}
	return out
}
