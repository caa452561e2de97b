package engine

import (
	"strings"

	"customsfee/internal/model"
)

// Matches reports whether a single rule applies to a product shipped
// from fromCountry to toCountry. The country gate is evaluated first and
// short-circuits; the attribute gate then dispatches on match_type. An
// unrecognized match_type never matches, so one malformed rule cannot
// attach fees it was never configured for.
func Matches(r *model.FeeRule, p ProductAttributes, fromCountry, toCountry string) bool {
	if !countryMatches(r.EffectiveFromCountry(), fromCountry) {
		return false
	}
	if !countryMatches(r.EffectiveToCountry(), toCountry) {
		return false
	}

	switch r.MatchType {
	case "", model.MatchAll:
		return true
	case model.MatchCategory:
		return categoriesMatch(r.CategoryIDs, p.CategoryIDs)
	case model.MatchHSCode:
		return hsCodeMatches(r.HSCodePattern, p.HSCode)
	case model.MatchCombined:
		return categoriesMatch(r.CategoryIDs, p.CategoryIDs) && hsCodeMatches(r.HSCodePattern, p.HSCode)
	default:
		return false
	}
}

// countryMatches checks one side of the country gate. An empty rule
// criterion is a wildcard; the EU token matches any EU-27 member; any
// other value requires an exact code match. An invalid or empty actual
// country simply fails to match a specific criterion.
func countryMatches(ruleCountry, actual string) bool {
	ruleCountry = strings.ToUpper(strings.TrimSpace(ruleCountry))
	if ruleCountry == "" {
		return true
	}
	actual = strings.ToUpper(strings.TrimSpace(actual))
	if ruleCountry == CountryEU {
		return IsEUMember(actual)
	}
	return ruleCountry == actual
}

// categoriesMatch passes when the rule carries no category criterion or
// when the rule's categories intersect the product's effective set.
func categoriesMatch(ruleCategories []int64, productCategories []int64) bool {
	if len(ruleCategories) == 0 {
		return true
	}
	for _, rc := range ruleCategories {
		for _, pc := range productCategories {
			if rc == pc {
				return true
			}
		}
	}
	return false
}

// hsCodeMatches checks a comma-separated HS code pattern against a
// product's HS code. A pattern ending in "*" is a prefix wildcard; a
// plain pattern matches on equality or as a literal prefix. A product
// without an HS code can never satisfy a non-empty pattern.
func hsCodeMatches(pattern, hsCode string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return true
	}
	hsCode = strings.ToUpper(strings.TrimSpace(hsCode))
	if hsCode == "" {
		return false
	}
	for _, sub := range strings.Split(pattern, ",") {
		sub = strings.ToUpper(strings.TrimSpace(sub))
		if sub == "" {
			continue
		}
		if idx := strings.Index(sub, "*"); idx >= 0 {
			if strings.HasPrefix(hsCode, sub[:idx]) {
				return true
			}
			continue
		}
		if hsCode == sub || strings.HasPrefix(hsCode, sub) {
			return true
		}
	}
	return false
}

// Specificity derives the tie-break score for a rule: rules targeting
// narrower product/country sets outrank broader ones at equal priority.
// Scored on the raw stored fields, not the canonicalized ones, so legacy
// rows keep the ordering they had before the schema gained
// from_country/to_country.
func Specificity(r *model.FeeRule) int {
	score := 0

	pattern := strings.TrimSpace(r.HSCodePattern)
	if pattern != "" {
		if strings.Contains(pattern, ",") {
			subs := splitPattern(pattern)
			score += 80 + 5*len(subs)
			for _, sub := range subs {
				if idx := strings.Index(sub, "*"); idx >= 0 {
					score += 2 * digitCount(sub[:idx])
				} else {
					score += 10
				}
			}
		} else if idx := strings.Index(pattern, "*"); idx >= 0 {
			score += 50 + 5*digitCount(pattern[:idx])
		} else {
			score += 100
		}
	}

	if len(r.CategoryIDs) > 0 {
		score += 25
	}
	if strings.TrimSpace(r.ToCountry) != "" {
		score += 10
	}
	if strings.TrimSpace(r.FromCountry) != "" || strings.TrimSpace(r.Country) != "" {
		score += 5
	}

	return score
}

func splitPattern(pattern string) []string {
	parts := strings.Split(pattern, ",")
	subs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			subs = append(subs, p)
		}
	}
	return subs
}

func digitCount(s string) int {
	n := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			n++
		}
	}
	return n
}
