// Package validate checks tasks and projects against field rules and
// reports every violation at once.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/model"
	"github.com/go-playground/validator/v10"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validator is stateless after construction and safe for concurrent use
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the custom tag rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("tagname", func(fl validator.FieldLevel) bool {
		return model.TagPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		return colorPattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Task validates a full task record, including the reminder/due ordering
func (val *Validator) Task(t *model.Task) error {
	return val.CheckTask(t).OrNil()
}

// CheckTask returns the collected violations so callers can append
// checks that need other records
func (val *Validator) CheckTask(t *model.Task) *errs.ValidationError {
	verr := val.collect(t)
	if t.DueDate != nil && t.ReminderDate != nil && t.ReminderDate.After(*t.DueDate) {
		verr.Add("reminderDate", "must not be after dueDate", *t.ReminderDate)
	}
	if (t.CompletedAt != nil) != (t.Status == model.StatusCompleted) {
		verr.Add("completedAt", "must be set exactly when status is completed", t.CompletedAt)
	}
	return verr
}

// Project validates a project record's own fields; hierarchy and name
// uniqueness are checked by the project manager
func (val *Validator) Project(p *model.Project) error {
	return val.CheckProject(p).OrNil()
}

// CheckProject returns the collected violations for p
func (val *Validator) CheckProject(p *model.Project) *errs.ValidationError {
	return val.collect(p)
}

func (val *Validator) collect(s any) *errs.ValidationError {
	verr := &errs.ValidationError{}
	err := val.v.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("", err.Error(), nil)
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe.Namespace()), message(fe), fe.Value())
	}
	return verr
}

// fieldPath drops the leading struct name: "Task.recurrence.interval" -> "recurrence.interval"
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for this pattern"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "tagname":
		return "must match [A-Za-z0-9_-]{1,50}"
	case "color":
		return "must be a hex color like #RGB or #RRGGBB"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
