// Package validator adapts go-playground/validator to echo's Validator interface.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"loyalty/internal/domain/entity"
	"loyalty/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const maxDecimalExponent = 64

// Validator validates bound request structs using `validate` tags.
type Validator struct {
	validate *validator.Validate
}

// New returns a validator that reports fields by their json names and understands
// decimal amounts and reward types.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	// Decimals are validated as numbers by the decimal_* tags below. Values with extreme
	// exponents are passed on unparseable so they fail instead of being expanded.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			if exp := d.Exponent(); exp > maxDecimalExponent || exp < -maxDecimalExponent {
				return "out of range"
			}

			return d.String()
		}

		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())

		return err == nil && !d.IsNegative()
	})

	_ = validate.RegisterValidation("decimal_lte", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		limit, err := decimal.NewFromString(fl.Param())

		return err == nil && d.LessThanOrEqual(limit)
	})

	_ = validate.RegisterValidation("reward_type", func(fl validator.FieldLevel) bool {
		return entity.RewardType(fl.Field().String()).IsValid()
	})

	return &Validator{validate: validate}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validation failed")
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		messages = append(messages, describe(fieldErr))
	}

	return errors.New(strings.Join(messages, "; "))
}

func describe(fieldErr validator.FieldError) string {
	field := fieldErr.Field()

	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "uuid":
		return field + " must be a UUID"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fieldErr.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fieldErr.Param())
	case "decimal_gte0":
		return field + " must be a non-negative amount"
	case "decimal_lte":
		return fmt.Sprintf("%s must not exceed %s", field, fieldErr.Param())
	case "reward_type":
		return field + " must be one of discount_percentage, discount_fixed, free_item, custom"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fieldErr.Tag())
	}
}
