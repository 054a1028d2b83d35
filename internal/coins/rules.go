package coins

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	apperrors "github.com/ironsheep/coin-counter/internal/errors"
)

// DefaultTolerance is the reference matching tolerance in pixels.
const DefaultTolerance = 5.0

// Rule maps an expected coin radius in pixels to a monetary value.
type Rule struct {
	ExpectedRadius float64         `json:"expected_radius"`
	Value          decimal.Decimal `json:"value"`
}

// DefaultRules returns the reference denomination table. Each call returns a
// fresh slice.
//
//	radius  value
//	25      0.05
//	30      0.10
//	35      0.25
//	42      1.00
//	50      5.00
func DefaultRules() []Rule {
	return []Rule{
		{ExpectedRadius: 25, Value: decimal.RequireFromString("0.05")},
		{ExpectedRadius: 30, Value: decimal.RequireFromString("0.10")},
		{ExpectedRadius: 35, Value: decimal.RequireFromString("0.25")},
		{ExpectedRadius: 42, Value: decimal.RequireFromString("1.00")},
		{ExpectedRadius: 50, Value: decimal.RequireFromString("5.00")},
	}
}

// Match returns the value of the first rule whose expected radius is within
// tolerance of radius, and false when no rule is.
//
// Rules are consulted strictly in slice order and the first hit wins, even
// when a later rule is closer. With the default table a radius of 27 is worth
// 0.05 (distance 2 to rule 25), not 0.10 (distance 3 to rule 30), and a
// radius of 35 falls in rule 30's window before rule 35 is reached.
// Reordering the table changes classification.
func Match(radius float64, rules []Rule, tolerance float64) (decimal.Decimal, bool) {
	for _, r := range rules {
		if math.Abs(radius-r.ExpectedRadius) <= tolerance {
			return r.Value, true
		}
	}
	return decimal.Zero, false
}

// RuleSpec is the configuration form of a Rule. Value is a decimal string so
// amounts like "0.10" are never routed through binary floating point.
type RuleSpec struct {
	Radius float64 `json:"radius" mapstructure:"radius"`
	Value  string  `json:"value" mapstructure:"value"`
}

// ParseRules converts configuration entries into an ordered rule table,
// preserving their order.
func ParseRules(specs []RuleSpec) ([]Rule, error) {
	if len(specs) == 0 {
		return nil, apperrors.InvalidInputf("rule table is empty")
	}

	rules := make([]Rule, 0, len(specs))
	for i, s := range specs {
		value, err := decimal.NewFromString(s.Value)
		if err != nil {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("rule %d: invalid value %q", i, s.Value), err)
		}
		rules = append(rules, Rule{ExpectedRadius: s.Radius, Value: value})
	}

	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// ValidateRules rejects negative or non-finite radii and negative values.
func ValidateRules(rules []Rule) error {
	for i, r := range rules {
		if r.ExpectedRadius < 0 || math.IsNaN(r.ExpectedRadius) || math.IsInf(r.ExpectedRadius, 0) {
			return apperrors.InvalidInputf("rule %d: expected radius must be a non-negative number, got %v", i, r.ExpectedRadius)
		}
		if r.Value.IsNegative() {
			return apperrors.InvalidInputf("rule %d: value must not be negative, got %s", i, r.Value)
		}
	}
	return nil
}

// Specs converts rules back to their configuration form.
func Specs(rules []Rule) []RuleSpec {
	specs := make([]RuleSpec, len(rules))
	for i, r := range rules {
		specs[i] = RuleSpec{Radius: r.ExpectedRadius, Value: r.Value.String()}
	}
	return specs
}
