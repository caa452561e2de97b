package engine

import (
	"context"
	"fmt"

	"customsfee/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// FeeTypeCalculator computes the raw (unclamped, unrounded) fee amount
// for one rule against a monetary base. Implementations must be pure.
type FeeTypeCalculator interface {
	Calculate(r *model.FeeRule, base decimal.Decimal) decimal.Decimal
}

// Registry maps fee type names to their calculators. Unknown type names
// resolve to a zero-fee no-op, so a rule with a bad type silently
// contributes nothing instead of breaking the whole cart.
type Registry struct {
	calculators map[string]FeeTypeCalculator
}

// NewRegistry returns a registry with the built-in fee types:
// percentage, flat/fixed and tiered.
func NewRegistry() *Registry {
	reg := &Registry{calculators: make(map[string]FeeTypeCalculator)}
	reg.Register(model.FeeTypePercentage, percentageFee{})
	reg.Register(model.FeeTypeFlat, flatFee{})
	reg.Register(model.FeeTypeFixed, flatFee{})
	reg.Register(model.FeeTypeTiered, tieredFee{})
	return reg
}

// Register adds or replaces the calculator for a fee type name.
func (g *Registry) Register(feeType string, calc FeeTypeCalculator) {
	g.calculators[feeType] = calc
}

func (g *Registry) calculatorFor(feeType string) FeeTypeCalculator {
	if calc, ok := g.calculators[feeType]; ok {
		return calc
	}
	return zeroFee{}
}

// normalizeRate maps a stored rate onto a fraction. Values above 1 are
// whole percents (10 means 10%); values up to and including 1 are
// already fractions, so exactly 1 means 100%, not 1%. Merchant data
// depends on that reading, so it stays.
func normalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(one) {
		return rate.Div(hundred)
	}
	return rate
}

type percentageFee struct{}

func (percentageFee) Calculate(r *model.FeeRule, base decimal.Decimal) decimal.Decimal {
	return normalizeRate(r.Rate).Mul(base)
}

type flatFee struct{}

func (flatFee) Calculate(r *model.FeeRule, _ decimal.Decimal) decimal.Decimal {
	return r.Amount
}

// tieredFee scans tiers in list order and uses the first whose range
// contains the base; a tier's rate wins over its flat amount when set.
type tieredFee struct{}

func (tieredFee) Calculate(r *model.FeeRule, base decimal.Decimal) decimal.Decimal {
	for _, tier := range r.Tiers {
		if base.LessThan(tier.MinTotal) {
			continue
		}
		// MaxTotal of zero means unbounded
		if !tier.MaxTotal.IsZero() && base.GreaterThan(tier.MaxTotal) {
			continue
		}
		if !tier.Rate.IsZero() {
			return normalizeRate(tier.Rate).Mul(base)
		}
		return tier.Amount
	}
	return decimal.Zero
}

type zeroFee struct{}

func (zeroFee) Calculate(_ *model.FeeRule, _ decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// CalculateRule computes the final fee amount for one resolved rule:
// raw amount per fee type, minimum clamp, then maximum clamp (a minimum
// above the maximum loses), rounded half-up to 2 decimals.
func (g *Registry) CalculateRule(r *model.FeeRule, base decimal.Decimal) decimal.Decimal {
	fee := g.calculatorFor(r.FeeType).Calculate(r, base)

	if r.Minimum.IsPositive() && fee.LessThan(r.Minimum) {
		fee = r.Minimum
	}
	if r.Maximum.IsPositive() && fee.GreaterThan(r.Maximum) {
		fee = r.Maximum
	}

	return fee.Round(2)
}

// FeeLabel returns the rule's display label, synthesizing the default
// "Customs & Import Fees (<country>)" form when none is configured.
func FeeLabel(r *model.FeeRule, toCountry string) string {
	if r.Label != "" {
		return r.Label
	}
	country := r.EffectiveToCountry()
	if country == "" {
		country = toCountry
	}
	if country == "" {
		return GenericFeeLabel
	}
	return fmt.Sprintf("%s (%s)", GenericFeeLabel, CountryName(country))
}

// GenericFeeLabel is the label used when a combined line aggregates fees
// with more than one distinct label.
const GenericFeeLabel = "Customs & Import Fees"

// ComputeCartFees is the top-level entry point: for every line item it
// resolves the applicable rules and computes per-rule fees on the cart
// total, then aggregates the per-item fees into cart-level lines per the
// display mode. Rule resolution is memoized per product within the call;
// no state escapes it.
func ComputeCartFees(ctx context.Context, reg *Registry, rules []model.FeeRule, items []LineItem, ship ShipmentContext, lookup ProductLookup, mode DisplayMode) ([]FeeLine, error) {
	if lookup == nil {
		return nil, fmt.Errorf("product lookup is required")
	}

	var fees []FeeLine
	resolvedByProduct := make(map[uuid.UUID][]model.FeeRule, len(items))

	for _, item := range items {
		attrs, err := lookup.Attributes(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve product %s: %w", item.ProductID, err)
		}

		fromCountry := attrs.OriginCountry
		if fromCountry == "" {
			fromCountry = ship.FromCountry
		}

		resolved, ok := resolvedByProduct[item.ProductID]
		if !ok {
			resolved = Resolve(rules, attrs, fromCountry, ship.ToCountry)
			resolvedByProduct[item.ProductID] = resolved
		}

		for i := range resolved {
			rule := &resolved[i]
			amount := reg.CalculateRule(rule, ship.CartTotal)
			if amount.Sign() <= 0 {
				continue
			}
			fees = append(fees, FeeLine{
				Label:    FeeLabel(rule, ship.ToCountry),
				Amount:   amount,
				Taxable:  rule.IsTaxable(),
				TaxClass: rule.TaxClass,
			})
		}
	}

	if mode == DisplaySingle {
		return aggregateSingle(fees), nil
	}
	return aggregateBreakdown(fees), nil
}

// aggregateBreakdown groups fees by label in first-seen order, summing
// amounts; taxable and tax class come from the first fee in each group.
func aggregateBreakdown(fees []FeeLine) []FeeLine {
	var order []string
	groups := make(map[string]FeeLine)

	for _, fee := range fees {
		if existing, ok := groups[fee.Label]; ok {
			existing.Amount = existing.Amount.Add(fee.Amount)
			groups[fee.Label] = existing
			continue
		}
		groups[fee.Label] = fee
		order = append(order, fee.Label)
	}

	lines := make([]FeeLine, 0, len(order))
	for _, label := range order {
		lines = append(lines, groups[label])
	}
	return lines
}

// aggregateSingle sums everything into one combined line. With more than
// one distinct non-empty contributing label the line falls back to the
// generic label; taxable and tax class come from the last fee processed,
// matching the accumulation order fees were produced in.
func aggregateSingle(fees []FeeLine) []FeeLine {
	if len(fees) == 0 {
		return nil
	}

	total := decimal.Zero
	labels := make(map[string]struct{})
	lastLabel := ""
	var last FeeLine

	for _, fee := range fees {
		total = total.Add(fee.Amount)
		if fee.Label != "" {
			labels[fee.Label] = struct{}{}
			lastLabel = fee.Label
		}
		last = fee
	}

	label := GenericFeeLabel
	if len(labels) == 1 {
		label = lastLabel
	}

	return []FeeLine{{
		Label:    label,
		Amount:   total,
		Taxable:  last.Taxable,
		TaxClass: last.TaxClass,
	}}
}

// EvaluateTestFee runs the calculator for a single rule against a cart
// total without full resolution. Used by the admin "test calculation"
// preview; returns nil when the rule would not produce a fee line.
func EvaluateTestFee(reg *Registry, r *model.FeeRule, cartTotal decimal.Decimal) *FeeLine {
	amount := reg.CalculateRule(r, cartTotal)
	if amount.Sign() <= 0 {
		return nil
	}
	return &FeeLine{
		Label:    FeeLabel(r, r.EffectiveToCountry()),
		Amount:   amount,
		Taxable:  r.IsTaxable(),
		TaxClass: r.TaxClass,
	}
}
