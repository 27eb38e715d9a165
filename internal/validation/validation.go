package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrFieldRequired       = errors.New("field is required")
	ErrFieldInvalid        = errors.New("field is invalid")
	ErrFieldPositiveAmount = errors.New("field must be a positive amount")
	ErrBodyParseFailed     = errors.New("failed to parse request body")
	ErrUnsupportedContent  = errors.New("Content-Type must be application/json")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON name
	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	if err := vld.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && value.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("register positive_decimal: %w", err)
	}

	return vld, nil
}

// Validator returns the shared validator instance.
func Validator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	return validate, errValidate
}

// Struct validates payload against its `validate` tags and reports the first
// failing field.
func Struct(payload any) error {
	vld, err := Validator()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if err := vld.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return nil
}

// Var validates a single value against tag, reporting failures under name.
func Var(name string, value any, tag string) error {
	vld, err := Validator()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if err := vld.Var(value, tag); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			if fe.Tag() == "required" {
				return fmt.Errorf("%w: '%s'", ErrFieldRequired, name)
			}
			return fmt.Errorf("%w: '%s' failed '%s' check", ErrFieldInvalid, name, fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: '%s'", ErrFieldRequired, fe.Field())
	case "positive_decimal":
		return fmt.Errorf("%w: '%s'", ErrFieldPositiveAmount, fe.Field())
	case "oneof":
		return fmt.Errorf("%w: '%s' must be one of [%s]", ErrFieldInvalid, fe.Field(), fe.Param())
	case "min":
		return fmt.Errorf("%w: '%s' must be at least %s", ErrFieldInvalid, fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%w: '%s' failed '%s' check", ErrFieldInvalid, fe.Field(), fe.Tag())
	}
}

// ParseBody decodes a JSON request body into payload and validates it.
func ParseBody(c *fiber.Ctx, payload any) error {
	ct := c.Get(fiber.HeaderContentType)
	if ct != "" && !strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		return ErrUnsupportedContent
	}
	if err := c.BodyParser(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrBodyParseFailed, err)
	}
	return Struct(payload)
}
