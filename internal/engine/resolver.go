package engine

import (
	"sort"

	"customsfee/internal/model"
)

// Resolve filters rules to the ones matching the product and lane,
// orders them by priority (ties broken by specificity, then by original
// rule order), and applies stacking resolution:
//
//   - exclusive: this rule wins outright; everything before and after it
//     is discarded and processing stops.
//   - override: resets the accumulated set to just this rule, but keeps
//     processing; a later lower-priority add rule still lands after it.
//     That combination is long-standing configured behavior, so it is
//     kept even though the name suggests otherwise.
//   - add: appended to the accumulated set.
//
// A rule with an unrecognized stacking_mode is skipped.
func Resolve(rules []model.FeeRule, p ProductAttributes, fromCountry, toCountry string) []model.FeeRule {
	type scored struct {
		rule  model.FeeRule
		score int
	}

	matched := make([]scored, 0, len(rules))
	for _, r := range rules {
		if Matches(&r, p, fromCountry, toCountry) {
			matched = append(matched, scored{rule: r, score: Specificity(&r)})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].rule.Priority != matched[j].rule.Priority {
			return matched[i].rule.Priority > matched[j].rule.Priority
		}
		return matched[i].score > matched[j].score
	})

	var final []model.FeeRule
	for _, m := range matched {
		switch m.rule.StackingMode {
		case model.StackingExclusive:
			return []model.FeeRule{m.rule}
		case model.StackingOverride:
			final = []model.FeeRule{m.rule}
		case "", model.StackingAdd:
			final = append(final, m.rule)
		}
	}
	return final
}
