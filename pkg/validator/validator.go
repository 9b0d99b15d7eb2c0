package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

var global *validator.Validate

const (
	ErrFieldRequired     = "Field is required"
	ErrInvalidDate       = "Date must be YYYY-MM-DD"
	ErrUnknownValidation = "Unknown validation error"

	isoDateLayout = "2006-01-02"
)

// FieldError reports the first failed rule of a validated struct.
type FieldError struct {
	Field string
	Tag   string
	Msg   string
}

func (e *FieldError) Error() string {
	return e.Msg + ": " + e.Field
}

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("isodate", validateISODate)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// validateISODate accepts an empty value so that "required" reports it instead.
func validateISODate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(isoDateLayout, s)
	return err == nil
}

// Validate returns nil or a *FieldError describing the first violation.
func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	// A missing field outranks format rules.
	ve := vErrors[0]
	for _, e := range vErrors {
		if e.Tag() == "required" {
			ve = e
			break
		}
	}
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "isodate":
		msg = ErrInvalidDate
	default:
		msg = ErrUnknownValidation
	}
	return &FieldError{Field: ve.Field(), Tag: ve.Tag(), Msg: msg}
}
