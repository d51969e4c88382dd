package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	// FormErrorKey holds errors that cannot be tied to one field.
	FormErrorKey = "_form"
)

var registerOnce sync.Once

// Register installs the custom tags (isodate, clocktime, visittype) on gin's
// binding engine and makes error fields use their form names.
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = RegisterOn(v)
	})
	return err
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"isodate":   isoDate,
		"clocktime": clockTime,
		"visittype": visitType,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := NormalizeDate(fl.Field().String())
	return err == nil
}

func clockTime(fl validator.FieldLevel) bool {
	_, err := NormalizeClock(fl.Field().String())
	return err == nil
}

func visitType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "clinic", "online":
		return true
	}
	return false
}

// NormalizeDate parses YYYY-MM-DD and returns it in canonical form.
func NormalizeDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// NormalizeClock accepts HH:MM only. Seconds are rejected so that two
// spellings never name the same slot.
func NormalizeClock(s string) (string, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format(ClockLayout), nil
}

// FieldErrors converts a binding error into per-field messages keyed by form
// field name. Errors that are not validation errors land under FormErrorKey.
func FieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[FormErrorKey] = "Invalid input."
		return out
	}

	for _, fe := range verrs {
		if _, exists := out[fe.Field()]; exists {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
		}
		return fmt.Sprintf("Number must be at least %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Number must be at most %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Number must be at least %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Number must be at most %s.", fe.Param())
	case "eqfield":
		return fmt.Sprintf("Field must be equal to %s.", strings.ToLower(fe.Param()))
	case "oneof", "visittype":
		return "Not a valid choice."
	case "isodate":
		return "Not a valid date value."
	case "clocktime":
		return "Not a valid time value."
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
