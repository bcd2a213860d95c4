package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
)

// emptyEditorValue is what the rich text editor submits for a blank document.
const emptyEditorValue = "<p><br></p>"

const maxPasswordBytes = 72

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	// bcrypt only looks at the first 72 bytes, and rejects anything longer
	mustRegister(v, "bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering %q validation: %v", tag, err))
	}
}

// validateInput runs the struct tags on input and converts failures into
// an *apperrors.ValidationError keyed by JSON field name.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	verr := &apperrors.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := verr.Fields[fe.Field()]; seen {
			continue
		}
		verr.Fields[fe.Field()] = describe(fe)
	}
	return verr
}

func describe(fe validator.FieldError) string {
	unit := "characters"
	if fe.Kind() == reflect.Slice {
		unit = "items"
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s %s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("must be at most %s %s", fe.Param(), unit)
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "username":
		return "may only contain letters, digits and underscores"
	case "bcryptlen":
		return fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// NormalizeTags trims and lower-cases tags, drops empty ones and removes
// duplicates keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func normalizeBody(body string) string {
	body = strings.TrimSpace(body)
	if body == emptyEditorValue {
		return ""
	}
	return body
}
