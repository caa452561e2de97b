package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_LegacyFieldMigration(t *testing.T) {
	rule := FeeRule{Country: "de", OriginCountry: "cn"}
	rule.Canonicalize()

	assert.Equal(t, "DE", rule.ToCountry)
	assert.Equal(t, "CN", rule.FromCountry)
	assert.Empty(t, rule.Country)
	assert.Empty(t, rule.OriginCountry)
}

func TestCanonicalize_CanonicalFieldsWin(t *testing.T) {
	rule := FeeRule{ToCountry: "FR", Country: "DE", FromCountry: "VN", OriginCountry: "CN"}
	rule.Canonicalize()

	assert.Equal(t, "FR", rule.ToCountry)
	assert.Equal(t, "VN", rule.FromCountry)
}

func TestCanonicalize_Defaults(t *testing.T) {
	rule := FeeRule{}
	rule.Canonicalize()

	assert.Equal(t, MatchAll, rule.MatchType)
	assert.Equal(t, StackingAdd, rule.StackingMode)
}

func TestEffectiveCountryFallbacks(t *testing.T) {
	legacy := FeeRule{Country: "DE", OriginCountry: "CN"}
	assert.Equal(t, "DE", legacy.EffectiveToCountry())
	assert.Equal(t, "CN", legacy.EffectiveFromCountry())

	canonical := FeeRule{ToCountry: "FR", FromCountry: "VN", Country: "DE", OriginCountry: "CN"}
	assert.Equal(t, "FR", canonical.EffectiveToCountry())
	assert.Equal(t, "VN", canonical.EffectiveFromCountry())
}

func TestIsTaxable_DefaultsTrue(t *testing.T) {
	rule := FeeRule{}
	assert.True(t, rule.IsTaxable())

	f := false
	rule.Taxable = &f
	assert.False(t, rule.IsTaxable())
}

func TestInt64List_ValueScanRoundTrip(t *testing.T) {
	list := Int64List{3, 7, 12}

	v, err := list.Value()
	require.NoError(t, err)

	var scanned Int64List
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, list, scanned)
}

func TestInt64List_NilValue(t *testing.T) {
	var list Int64List
	v, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestTierList_ScanBytes(t *testing.T) {
	var tiers TierList
	require.NoError(t, tiers.Scan([]byte(`[{"min":"0","max":"100","rate":"0","amount":"5"}]`)))
	require.Len(t, tiers, 1)
	assert.Equal(t, "5", tiers[0].Amount.String())
	assert.Equal(t, "100", tiers[0].MaxTotal.String())
}

func TestTierList_ScanNil(t *testing.T) {
	var tiers TierList
	require.NoError(t, tiers.Scan(nil))
	assert.Nil(t, tiers)
}
