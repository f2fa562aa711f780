package validate

import (
	stderrors "errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
)

var structValidator = validator.New()

func init() {
	// decimal.Decimal is checked as a float so numeric tags like gte=0 apply.
	structValidator.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// Config holds the business rules applied to proposed price changes.
type Config struct {
	MaxDiscountPercentage float64         `json:"max_discount_percentage" yaml:"max_discount_percentage" validate:"gte=0,lte=100"`
	EnforceBasePriceMatch bool            `json:"enforce_base_price_match" yaml:"enforce_base_price_match"`
	BasePriceTolerance    float64         `json:"base_price_tolerance" yaml:"base_price_tolerance" validate:"gte=0,lte=100"`
	MinPriceThreshold     decimal.Decimal `json:"min_price_threshold" yaml:"min_price_threshold" validate:"gte=0"`
	MaxPriceThreshold     decimal.Decimal `json:"max_price_threshold" yaml:"max_price_threshold" validate:"gt=0"`
}

// DefaultConfig returns the default rules.
func DefaultConfig() Config {
	return Config{
		MaxDiscountPercentage: constants.MaxDiscountPercentage,
		EnforceBasePriceMatch: true,
		BasePriceTolerance:    constants.BasePriceTolerance,
		MinPriceThreshold:     decimal.NewFromFloat(constants.MinPriceThreshold),
		MaxPriceThreshold:     decimal.NewFromFloat(constants.MaxPriceThreshold),
	}
}

// Validate checks that the rules are coherent.
func (c Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &errors.ValidationError{
				Field:   fe.Field(),
				Value:   fe.Value(),
				Message: fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param()),
			}
		}
		return errors.WrapValidation("reconcile", err)
	}
	if !c.MaxPriceThreshold.GreaterThan(c.MinPriceThreshold) {
		return &errors.ValidationError{
			Field:   "MaxPriceThreshold",
			Value:   c.MaxPriceThreshold,
			Message: fmt.Sprintf("must be greater than minimum %s", c.MinPriceThreshold),
		}
	}
	return nil
}
