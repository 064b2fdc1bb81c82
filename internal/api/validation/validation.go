// Package validation checks decoded requests against their struct tag rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/FACorreiaa/flaia-functions/internal/api"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fixed wording for the fields the mobile apps display verbatim
var requiredMessages = map[string]string{
	"destination":    "Destination is required",
	"check_in_date":  "Check-in date is required",
	"check_out_date": "Check-out date is required",
	"planning_mode":  "Planning mode is required",
	"language":       "Language is required",
	"user_request":   "User request is required",
	"storagePath":    "Storage path is required",
	"text":           "Text input is required",
	"code":           "Promo code is required",
}

// Struct validates v and returns an *api.ValidationError listing every violation, or nil.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &api.ValidationError{Violations: []api.FieldViolation{{Field: "", Rule: "invalid", Message: err.Error()}}}
	}
	out := &api.ValidationError{Violations: make([]api.FieldViolation, 0, len(verrs))}
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		out.Violations = append(out.Violations, api.FieldViolation{
			Field:   path,
			Rule:    fe.Tag(),
			Message: message(path, fe),
		})
	}
	return out
}

// fieldPath strips the root type and embedded request segments from a namespace.
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "ItineraryRequest" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

func message(path string, fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[path]; ok {
			return msg
		}
		return humanize(name) + " is required"
	case "gte":
		if name == "number_of_days" {
			return "Number of days must be at least 1"
		}
		return fmt.Sprintf("%s must be at least %s", humanize(name), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", humanize(name), fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			if name == "activities_to_replace" {
				return "At least one activity to replace is required"
			}
			return fmt.Sprintf("%s must contain at least %s item(s)", humanize(name), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", humanize(name), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", humanize(name), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", humanize(name), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return humanize(name) + " is invalid"
	}
}

func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_':
			b.WriteByte(' ')
		case r >= 'A' && r <= 'Z' && i > 0:
			b.WriteByte(' ')
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
