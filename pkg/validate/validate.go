// Package validate applies business rules to proposed price changes. Every
// rule is evaluated independently and all violations are reported; a match
// with any violation is excluded from the valid set.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agentstation/catalogsync/pkg/match"
)

// Code identifies the rule a match violated.
type Code string

// Violation codes.
const (
	CodeDiscountTooLarge Code = "discount_too_large"
	CodePriceTooLow      Code = "price_too_low"
	CodePriceTooHigh     Code = "price_too_high"
	CodeBasePriceDiffers Code = "base_price_differs"
	CodeValidationFails  Code = "validation_fails"
)

var hundred = decimal.NewFromInt(100)

// Violation is one failed rule for one match.
type Violation struct {
	ProductID          string          `json:"product_id"`
	VariantID          string          `json:"variant_id"`
	MatchKey           string          `json:"match_key"`
	Code               Code            `json:"code"`
	Message            string          `json:"message"`
	CurrentPrice       decimal.Decimal `json:"current_price"`
	NewPrice           decimal.Decimal `json:"new_price"`
	DiscountPercentage float64         `json:"discount_percentage"`
}

// Result partitions matches into accepted ones and rule violations.
type Result struct {
	Valid   []match.PriceMatch `json:"valid"`
	Invalid []Violation        `json:"invalid"`
}

// InvalidMatches returns the number of distinct rejected matches.
func (r Result) InvalidMatches() int {
	seen := make(map[[2]string]struct{}, len(r.Invalid))
	for _, v := range r.Invalid {
		seen[[2]string{v.MatchKey, v.VariantID}] = struct{}{}
	}
	return len(seen)
}

// CountByCode tallies violations per rule.
func (r Result) CountByCode() map[Code]int {
	out := make(map[Code]int)
	for _, v := range r.Invalid {
		out[v.Code]++
	}
	return out
}

// rule returns a violation message when m breaks it.
type rule struct {
	code  Code
	check func(m match.PriceMatch, cfg Config) (string, bool)
}

var rules = []rule{
	{CodeDiscountTooLarge, func(m match.PriceMatch, cfg Config) (string, bool) {
		if m.DiscountPercentage > cfg.MaxDiscountPercentage {
			return fmt.Sprintf("discount %.2f%% exceeds maximum %.2f%%", m.DiscountPercentage, cfg.MaxDiscountPercentage), true
		}
		return "", false
	}},
	{CodePriceTooLow, func(m match.PriceMatch, cfg Config) (string, bool) {
		if m.NewPrice.LessThan(cfg.MinPriceThreshold) {
			return fmt.Sprintf("price %s below minimum %s", m.NewPrice.StringFixed(2), cfg.MinPriceThreshold.StringFixed(2)), true
		}
		return "", false
	}},
	{CodePriceTooHigh, func(m match.PriceMatch, cfg Config) (string, bool) {
		if m.NewPrice.GreaterThan(cfg.MaxPriceThreshold) {
			return fmt.Sprintf("price %s above maximum %s", m.NewPrice.StringFixed(2), cfg.MaxPriceThreshold.StringFixed(2)), true
		}
		return "", false
	}},
	{CodeBasePriceDiffers, func(m match.PriceMatch, cfg Config) (string, bool) {
		if !cfg.EnforceBasePriceMatch || m.CurrentCompareAtPrice == nil {
			return "", false
		}
		allowed := m.NewCompareAtPrice.Mul(decimal.NewFromFloat(cfg.BasePriceTolerance)).Div(hundred)
		if m.CurrentCompareAtPrice.Sub(m.NewCompareAtPrice).Abs().GreaterThan(allowed) {
			return fmt.Sprintf("current compare-at price %s differs from advised %s by more than %.2f%%",
				m.CurrentCompareAtPrice.StringFixed(2), m.NewCompareAtPrice.StringFixed(2), cfg.BasePriceTolerance), true
		}
		return "", false
	}},
	{CodeValidationFails, func(m match.PriceMatch, _ Config) (string, bool) {
		if m.NewPrice.GreaterThan(m.NewCompareAtPrice) {
			return fmt.Sprintf("price %s exceeds compare-at price %s", m.NewPrice.StringFixed(2), m.NewCompareAtPrice.StringFixed(2)), true
		}
		return "", false
	}},
}

// Validate applies cfg to every match.
func Validate(matches []match.PriceMatch, cfg Config) Result {
	var res Result
	for _, m := range matches {
		failed := false
		for _, r := range rules {
			msg, bad := r.check(m, cfg)
			if !bad {
				continue
			}
			failed = true
			res.Invalid = append(res.Invalid, Violation{
				ProductID:          m.ProductID,
				VariantID:          m.VariantID,
				MatchKey:           m.MatchKey,
				Code:               r.code,
				Message:            msg,
				CurrentPrice:       m.CurrentPrice,
				NewPrice:           m.NewPrice,
				DiscountPercentage: m.DiscountPercentage,
			})
		}
		if !failed {
			res.Valid = append(res.Valid, m)
		}
	}
	return res
}

// Flags returns the flag matches whose value would change. Flag values carry
// no business rules.
func Flags(matches []match.FlagMatch) []match.FlagMatch {
	var out []match.FlagMatch
	for _, m := range matches {
		if m.Changed() {
			out = append(out, m)
		}
	}
	return out
}
