package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/internal/utils/ptr"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/feed"
	"github.com/agentstation/catalogsync/pkg/match"
	"github.com/agentstation/catalogsync/pkg/validate"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// priceMatch builds a match the way the matcher would.
func priceMatch(variant, current string, currentCompareAt *string, price, compareAt string) match.PriceMatch {
	m := match.PriceMatch{
		ProductID:          "p-" + variant,
		VariantID:          variant,
		MatchKey:           "EAN-" + variant,
		CurrentPrice:       dec(current),
		NewPrice:           dec(price),
		NewCompareAtPrice:  dec(compareAt),
		DiscountPercentage: feed.Discount(dec(price), dec(compareAt)),
		PriceChange:        dec(price).Sub(dec(current)),
	}
	if currentCompareAt != nil {
		m.CurrentCompareAtPrice = ptr.To(dec(*currentCompareAt))
	}
	return m
}

func TestExampleMatchPassesDefaults(t *testing.T) {
	m := priceMatch("v1", "50", ptr.To("50"), "45", "50")

	res := validate.Validate([]match.PriceMatch{m}, validate.DefaultConfig())
	assert.Len(t, res.Valid, 1)
	assert.Empty(t, res.Invalid)
}

func TestMaxDiscountFive(t *testing.T) {
	cfg := validate.DefaultConfig()
	cfg.MaxDiscountPercentage = 5

	res := validate.Validate([]match.PriceMatch{priceMatch("v1", "50", ptr.To("50"), "45", "50")}, cfg)
	assert.Empty(t, res.Valid)
	require.Len(t, res.Invalid, 1)
	assert.Equal(t, validate.CodeDiscountTooLarge, res.Invalid[0].Code)
	assert.Equal(t, "discount 10.00% exceeds maximum 5.00%", res.Invalid[0].Message)
}

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		match match.PriceMatch
		cfg   func(*validate.Config)
		want  []validate.Code
	}{
		{
			name:  "too low",
			match: priceMatch("v", "1", nil, "0.001", "0.002"),
			want:  []validate.Code{validate.CodePriceTooLow},
		},
		{
			name:  "too high",
			match: priceMatch("v", "1", nil, "12000", "12500"),
			want:  []validate.Code{validate.CodePriceTooHigh},
		},
		{
			name:  "base price outside tolerance",
			match: priceMatch("v", "50", ptr.To("60"), "45", "50"),
			want:  []validate.Code{validate.CodeBasePriceDiffers},
		},
		{
			name:  "base price inside tolerance",
			match: priceMatch("v", "50", ptr.To("52.50"), "45", "50"),
		},
		{
			name:  "base price not enforced",
			match: priceMatch("v", "50", ptr.To("60"), "45", "50"),
			cfg:   func(c *validate.Config) { c.EnforceBasePriceMatch = false },
		},
		{
			name:  "no current compare-at skips base rule",
			match: priceMatch("v", "50", nil, "45", "50"),
		},
		{
			name:  "price above compare-at",
			match: priceMatch("v", "50", nil, "55", "50"),
			want:  []validate.Code{validate.CodeValidationFails},
		},
		{
			name:  "every rule evaluated",
			match: priceMatch("v", "50", ptr.To("1"), "11000", "100"),
			cfg:   func(c *validate.Config) { c.MaxDiscountPercentage = 0 },
			want: []validate.Code{
				validate.CodePriceTooHigh,
				validate.CodeBasePriceDiffers,
				validate.CodeValidationFails,
			},
		},
		{
			name:  "discount boundary is inclusive",
			match: priceMatch("v", "50", nil, "5", "50"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validate.DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			res := validate.Validate([]match.PriceMatch{tt.match}, cfg)

			var got []validate.Code
			for _, v := range res.Invalid {
				got = append(got, v.Code)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want) == 0, len(res.Valid) == 1)
		})
	}
}

func TestValidPlusInvalidEqualsTotal(t *testing.T) {
	matches := []match.PriceMatch{
		priceMatch("v1", "50", ptr.To("50"), "45", "50"),
		priceMatch("v2", "50", ptr.To("90"), "60", "50"),
		priceMatch("v3", "10", nil, "0.001", "20"),
		priceMatch("v4", "10", nil, "9", "10"),
	}
	res := validate.Validate(matches, validate.DefaultConfig())

	assert.Len(t, res.Invalid, 4)
	assert.Equal(t, 2, res.InvalidMatches())
	assert.Equal(t, len(matches), len(res.Valid)+res.InvalidMatches())
	assert.Equal(t, map[validate.Code]int{
		validate.CodeBasePriceDiffers: 1,
		validate.CodeValidationFails:  1,
		validate.CodePriceTooLow:      1,
		validate.CodeDiscountTooLarge: 1,
	}, res.CountByCode())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validate.DefaultConfig().Validate())

	tests := []struct {
		name  string
		mut   func(*validate.Config)
		field string
	}{
		{"negative discount", func(c *validate.Config) { c.MaxDiscountPercentage = -1 }, "MaxDiscountPercentage"},
		{"tolerance over 100", func(c *validate.Config) { c.BasePriceTolerance = 101 }, "BasePriceTolerance"},
		{"negative min", func(c *validate.Config) { c.MinPriceThreshold = dec("-1") }, "MinPriceThreshold"},
		{"max below min", func(c *validate.Config) { c.MaxPriceThreshold = dec("0.001") }, "MaxPriceThreshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validate.DefaultConfig()
			tt.mut(&cfg)
			err := cfg.Validate()
			var ve *errors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestFlags(t *testing.T) {
	in := []match.FlagMatch{
		{VariantID: "same", Current: ptr.To(true), Available: true},
		{VariantID: "flip", Current: ptr.To(true), Available: false},
		{VariantID: "unset", Available: false},
	}
	out := validate.Flags(in)
	require.Len(t, out, 2)
	assert.Equal(t, "flip", out[0].VariantID)
	assert.Equal(t, "unset", out[1].VariantID)
}
