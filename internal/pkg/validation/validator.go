// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and carries the catalogue validators:
//
//	category  value is a catalogue category id
//	borough   value is a catalogue borough (empty passes)
//
// Failures convert to *errors.AppError with VALIDATION_FAILED and one
// FieldError per failing field, named by its JSON key.
package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		mustRegister(v, "category", func(fl validator.FieldLevel) bool {
			return domain.IsCategory(fl.Field().String())
		})
		mustRegister(v, "borough", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || domain.IsBorough(s)
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Struct validates s and returns nil or a VALIDATION_FAILED *AppError.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return apperrors.BadRequest(apperrors.CodeInvalidRequest, err.Error())
	}
	return apperrors.ErrValidationf(FieldErrors(verrs))
}

// FieldErrors converts validator errors into API field errors.
func FieldErrors(verrs validator.ValidationErrors) []apperrors.FieldError {
	out := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.FieldError{
			Field:   fieldPath(fe),
			Code:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "latitude":
		return "must be a decimal latitude between -90 and 90"
	case "longitude":
		return "must be a decimal longitude between -180 and 180"
	case "category":
		return "must be a known category"
	case "borough":
		return "must be a London borough"
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
