package engine

import (
	"testing"

	"customsfee/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedRule(label string, priority int, stacking string) model.FeeRule {
	return model.FeeRule{
		ID:           uuid.New(),
		Label:        label,
		MatchType:    model.MatchAll,
		Priority:     priority,
		StackingMode: stacking,
	}
}

func labels(rules []model.FeeRule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Label)
	}
	return out
}

func TestResolve_FiltersNonMatching(t *testing.T) {
	rules := []model.FeeRule{
		{Label: "us-only", ToCountry: "US", MatchType: model.MatchAll, StackingMode: model.StackingAdd},
		{Label: "de-only", ToCountry: "DE", MatchType: model.MatchAll, StackingMode: model.StackingAdd},
	}

	resolved := Resolve(rules, ProductAttributes{}, "CN", "US")
	assert.Equal(t, []string{"us-only"}, labels(resolved))
}

func TestResolve_PriorityOrdering(t *testing.T) {
	rules := []model.FeeRule{
		namedRule("low", 1, model.StackingAdd),
		namedRule("high", 10, model.StackingAdd),
		namedRule("mid", 5, model.StackingAdd),
	}

	resolved := Resolve(rules, ProductAttributes{}, "CN", "US")
	assert.Equal(t, []string{"high", "mid", "low"}, labels(resolved))
}

func TestResolve_SpecificityBreaksPriorityTies(t *testing.T) {
	broad := model.FeeRule{Label: "broad", MatchType: model.MatchAll, Priority: 5, StackingMode: model.StackingAdd}
	narrow := model.FeeRule{Label: "narrow", MatchType: model.MatchHSCode, HSCodePattern: "61*", Priority: 5, StackingMode: model.StackingAdd}

	resolved := Resolve([]model.FeeRule{broad, narrow}, ProductAttributes{HSCode: "6109.10"}, "CN", "US")
	assert.Equal(t, []string{"narrow", "broad"}, labels(resolved))
}

func TestResolve_StableOnExactTies(t *testing.T) {
	first := namedRule("first", 5, model.StackingAdd)
	second := namedRule("second", 5, model.StackingAdd)

	resolved := Resolve([]model.FeeRule{first, second}, ProductAttributes{}, "CN", "US")
	assert.Equal(t, []string{"first", "second"}, labels(resolved))
}

func TestResolve_ExclusiveWinsOutright(t *testing.T) {
	rules := []model.FeeRule{
		namedRule("A", 10, model.StackingExclusive),
		namedRule("B", 5, model.StackingAdd),
	}

	resolved := Resolve(rules, ProductAttributes{}, "CN", "US")
	require.Len(t, resolved, 1)
	assert.Equal(t, "A", resolved[0].Label)
}

func TestResolve_ExclusiveDiscardsHigherPriorityToo(t *testing.T) {
	rules := []model.FeeRule{
		namedRule("adder", 20, model.StackingAdd),
		namedRule("excl", 10, model.StackingExclusive),
	}

	resolved := Resolve(rules, ProductAttributes{}, "CN", "US")
	require.Len(t, resolved, 1)
	assert.Equal(t, "excl", resolved[0].Label)
}

// An override resets the accumulated set but does not stop processing,
// so a lower-priority add rule still lands after it. Long-standing
// configured behavior; changing it would silently change merchant fees.
func TestResolve_OverrideDoesNotBlockLaterAdds(t *testing.T) {
	rules := []model.FeeRule{
		namedRule("A", 10, model.StackingOverride),
		namedRule("B", 5, model.StackingAdd),
	}

	resolved := Resolve(rules, ProductAttributes{}, "CN", "US")
	assert.Equal(t, []string{"A", "B"}, labels(resolved))
}

func TestResolve_OverrideDiscardsAccumulated(t *testing.T) {
	rules := []model.FeeRule{
		namedRule("A", 20, model.StackingAdd),
		namedRule("B", 10, model.StackingOverride),
		namedRule("C", 5, model.StackingAdd),
	}

	resolved := Resolve(rules, ProductAttributes{}, "CN", "US")
	assert.Equal(t, []string{"B", "C"}, labels(resolved))
}

func TestResolve_LaterOverrideResetsAgain(t *testing.T) {
	rules := []model.FeeRule{
		namedRule("A", 20, model.StackingOverride),
		namedRule("B", 10, model.StackingOverride),
	}

	resolved := Resolve(rules, ProductAttributes{}, "CN", "US")
	assert.Equal(t, []string{"B"}, labels(resolved))
}

func TestResolve_UnknownStackingModeSkipped(t *testing.T) {
	rules := []model.FeeRule{
		namedRule("good", 10, model.StackingAdd),
		namedRule("bad", 5, "sideways"),
	}

	resolved := Resolve(rules, ProductAttributes{}, "CN", "US")
	assert.Equal(t, []string{"good"}, labels(resolved))
}

func TestResolve_EmptyRuleSet(t *testing.T) {
	assert.Empty(t, Resolve(nil, ProductAttributes{}, "CN", "US"))
}
