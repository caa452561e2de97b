package engine

import (
	"testing"

	"customsfee/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestCalculateRule_Percentage(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name  string
		rate  string
		total string
		want  string
	}{
		{"whole percent normalized", "10", "100", "10.00"},
		{"fraction used as-is", "0.1", "100", "10.00"},
		{"rate of exactly 1 means 100 percent", "1", "250", "250.00"},
		{"just above 1 is a whole percent", "1.5", "200", "3.00"},
		{"rounded half-up", "0.125", "100.20", "12.53"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := model.FeeRule{FeeType: model.FeeTypePercentage, Rate: dec(tt.rate)}
			assertDecimal(t, tt.want, reg.CalculateRule(&rule, dec(tt.total)))
		})
	}
}

func TestCalculateRule_FlatAndFixed(t *testing.T) {
	reg := NewRegistry()

	flat := model.FeeRule{FeeType: model.FeeTypeFlat, Amount: dec("12.50")}
	fixed := model.FeeRule{FeeType: model.FeeTypeFixed, Amount: dec("12.50")}

	assertDecimal(t, "12.50", reg.CalculateRule(&flat, dec("9999")))
	assertDecimal(t, "12.50", reg.CalculateRule(&fixed, dec("0")))
}

func TestCalculateRule_Tiered(t *testing.T) {
	reg := NewRegistry()
	rule := model.FeeRule{
		FeeType: model.FeeTypeTiered,
		Tiers: model.TierList{
			{MinTotal: dec("0"), MaxTotal: dec("100"), Amount: dec("5")},
			{MinTotal: dec("100"), MaxTotal: dec("500"), Rate: dec("10")},
			{MinTotal: dec("500"), Amount: dec("75")}, // unbounded
		},
	}

	// First matching tier wins; 100 sits in the first tier's range
	assertDecimal(t, "5.00", reg.CalculateRule(&rule, dec("50")))
	assertDecimal(t, "5.00", reg.CalculateRule(&rule, dec("100")))
	assertDecimal(t, "20.00", reg.CalculateRule(&rule, dec("200")))
	assertDecimal(t, "75.00", reg.CalculateRule(&rule, dec("10000")))
}

func TestCalculateRule_TieredNoMatch(t *testing.T) {
	reg := NewRegistry()
	rule := model.FeeRule{
		FeeType: model.FeeTypeTiered,
		Tiers:   model.TierList{{MinTotal: dec("100"), MaxTotal: dec("200"), Amount: dec("5")}},
	}

	assertDecimal(t, "0.00", reg.CalculateRule(&rule, dec("50")))
}

func TestCalculateRule_MinimumClamp(t *testing.T) {
	reg := NewRegistry()
	rule := model.FeeRule{FeeType: model.FeeTypePercentage, Rate: dec("10"), Minimum: dec("50")}

	// Raw fee 10, clamped up to the minimum
	assertDecimal(t, "50.00", reg.CalculateRule(&rule, dec("100")))
}

func TestCalculateRule_ClampOrderMinThenMax(t *testing.T) {
	reg := NewRegistry()
	rule := model.FeeRule{
		FeeType: model.FeeTypePercentage,
		Rate:    dec("50"),
		Minimum: dec("10"),
		Maximum: dec("20"),
	}

	// Raw 50 -> min clamp leaves 50 -> max clamp caps at 20
	assertDecimal(t, "20.00", reg.CalculateRule(&rule, dec("100")))
}

func TestCalculateRule_ZeroClampsAreUnset(t *testing.T) {
	reg := NewRegistry()
	rule := model.FeeRule{FeeType: model.FeeTypePercentage, Rate: dec("10")}

	assertDecimal(t, "100.00", reg.CalculateRule(&rule, dec("1000")))
}

func TestCalculateRule_UnknownFeeTypeIsZero(t *testing.T) {
	reg := NewRegistry()
	rule := model.FeeRule{FeeType: "donation", Rate: dec("10"), Amount: dec("99")}

	assertDecimal(t, "0.00", reg.CalculateRule(&rule, dec("100")))
}

type upliftFee struct{}

func (upliftFee) Calculate(_ *model.FeeRule, base decimal.Decimal) decimal.Decimal {
	return base.Mul(dec("0.01")).Add(dec("2"))
}

func TestRegistry_CustomFeeType(t *testing.T) {
	reg := NewRegistry()
	reg.Register("uplift", upliftFee{})

	rule := model.FeeRule{FeeType: "uplift"}
	assertDecimal(t, "3.00", reg.CalculateRule(&rule, dec("100")))
}

func TestFeeLabel(t *testing.T) {
	withLabel := model.FeeRule{Label: "Import Duty"}
	assert.Equal(t, "Import Duty", FeeLabel(&withLabel, "US"))

	ruleCountry := model.FeeRule{ToCountry: "DE"}
	assert.Equal(t, "Customs & Import Fees (Germany)", FeeLabel(&ruleCountry, "US"))

	legacyCountry := model.FeeRule{Country: "FR"}
	assert.Equal(t, "Customs & Import Fees (France)", FeeLabel(&legacyCountry, "US"))

	wildcard := model.FeeRule{}
	assert.Equal(t, "Customs & Import Fees (United States)", FeeLabel(&wildcard, "US"))

	unknownCode := model.FeeRule{ToCountry: "ZZ"}
	assert.Equal(t, "Customs & Import Fees (ZZ)", FeeLabel(&unknownCode, ""))

	noCountry := model.FeeRule{}
	assert.Equal(t, "Customs & Import Fees", FeeLabel(&noCountry, ""))
}

func TestEvaluateTestFee(t *testing.T) {
	reg := NewRegistry()

	taxable := false
	rule := model.FeeRule{
		FeeType:   model.FeeTypePercentage,
		Rate:      dec("5"),
		ToCountry: "US",
		Taxable:   &taxable,
		TaxClass:  "reduced",
	}

	line := EvaluateTestFee(reg, &rule, dec("200"))
	require.NotNil(t, line)
	assert.Equal(t, "Customs & Import Fees (United States)", line.Label)
	assertDecimal(t, "10.00", line.Amount)
	assert.False(t, line.Taxable)
	assert.Equal(t, "reduced", line.TaxClass)
}

func TestEvaluateTestFee_ZeroFeeDropped(t *testing.T) {
	reg := NewRegistry()
	rule := model.FeeRule{FeeType: model.FeeTypePercentage, Rate: dec("0")}

	assert.Nil(t, EvaluateTestFee(reg, &rule, dec("200")))
}
