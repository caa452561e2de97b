package service

import (
	"context"
	"testing"

	"customsfee/internal/engine"
	"customsfee/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeeRule_CanonicalizesLegacyInput(t *testing.T) {
	rule, err := buildFeeRule(FeeRuleRequest{
		Country:       "de",
		OriginCountry: "cn",
		FeeType:       model.FeeTypePercentage,
		Rate:          "10",
	})
	require.NoError(t, err)

	assert.Equal(t, "DE", rule.ToCountry)
	assert.Equal(t, "CN", rule.FromCountry)
	assert.Empty(t, rule.Country)
	assert.Empty(t, rule.OriginCountry)
	assert.Equal(t, model.MatchAll, rule.MatchType)
	assert.Equal(t, model.StackingAdd, rule.StackingMode)
	assert.True(t, rule.Enabled)
}

func TestBuildFeeRule_InvalidDecimal(t *testing.T) {
	_, err := buildFeeRule(FeeRuleRequest{FeeType: model.FeeTypePercentage, Rate: "ten"})
	assert.Error(t, err)
}

func TestBuildFeeRule_NegativeAmountRejected(t *testing.T) {
	_, err := buildFeeRule(FeeRuleRequest{FeeType: model.FeeTypeFlat, Amount: "-5"})
	assert.Error(t, err)
}

func TestBuildFeeRule_TieredRequiresTiers(t *testing.T) {
	_, err := buildFeeRule(FeeRuleRequest{FeeType: model.FeeTypeTiered})
	assert.Error(t, err)
}

func TestBuildFeeRule_TierMaxBelowMin(t *testing.T) {
	_, err := buildFeeRule(FeeRuleRequest{
		FeeType: model.FeeTypeTiered,
		Tiers:   []TierRequest{{Min: "100", Max: "50", Amount: "5"}},
	})
	assert.Error(t, err)
}

func TestBuildFeeRule_TierUnboundedMax(t *testing.T) {
	rule, err := buildFeeRule(FeeRuleRequest{
		FeeType: model.FeeTypeTiered,
		Tiers:   []TierRequest{{Min: "100", Amount: "5"}},
	})
	require.NoError(t, err)
	require.Len(t, rule.Tiers, 1)
	assert.True(t, rule.Tiers[0].MaxTotal.IsZero())
}

func TestValidateCountryToken(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"", true},
		{"EU", true},
		{"eu", true},
		{"US", true},
		{"de", true},
		{"USA", false},
		{"D1", false},
		{"X", false},
	}

	for _, tt := range tests {
		err := validateCountryToken("to_country", tt.value)
		if tt.valid {
			assert.NoError(t, err, "value %q", tt.value)
		} else {
			assert.Error(t, err, "value %q", tt.value)
		}
	}
}

func TestPreviewFee(t *testing.T) {
	svc := NewFeeRuleService(nil, nil, nil, engine.NewRegistry(), nil, nil)

	res, err := svc.PreviewFee(context.Background(), PreviewFeeRequest{
		Rule: FeeRuleRequest{
			FeeType:   model.FeeTypePercentage,
			Rate:      "10",
			ToCountry: "DE",
			Minimum:   "50",
		},
		CartTotal: "100",
	})
	require.NoError(t, err)

	assert.True(t, res.Applies)
	assert.Equal(t, "Customs & Import Fees (Germany)", res.Label)
	// Raw fee 10 is clamped up to the configured minimum
	assert.Equal(t, "50.00", res.Amount)
	assert.True(t, res.Taxable)
}

func TestPreviewFee_RuleProducesNothing(t *testing.T) {
	svc := NewFeeRuleService(nil, nil, nil, engine.NewRegistry(), nil, nil)

	res, err := svc.PreviewFee(context.Background(), PreviewFeeRequest{
		Rule:      FeeRuleRequest{FeeType: model.FeeTypeFlat, Amount: "0"},
		CartTotal: "100",
	})
	require.NoError(t, err)
	assert.False(t, res.Applies)
	assert.Empty(t, res.Amount)
}

func TestPreviewFee_InvalidCartTotal(t *testing.T) {
	svc := NewFeeRuleService(nil, nil, nil, engine.NewRegistry(), nil, nil)

	_, err := svc.PreviewFee(context.Background(), PreviewFeeRequest{
		Rule:      FeeRuleRequest{FeeType: model.FeeTypeFlat, Amount: "5"},
		CartTotal: "lots",
	})
	assert.Error(t, err)
}

func TestToFeeRuleResponse_LegacyRow(t *testing.T) {
	rule := model.FeeRule{Country: "DE", OriginCountry: "CN", MatchType: model.MatchAll, FeeType: model.FeeTypeFlat}
	res := toFeeRuleResponse(&rule)

	assert.Equal(t, "DE", res.ToCountry)
	assert.Equal(t, "CN", res.FromCountry)
	assert.NotNil(t, res.CategoryIDs)
	assert.NotNil(t, res.Tiers)
}
