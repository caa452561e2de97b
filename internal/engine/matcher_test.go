package engine

import (
	"testing"

	"customsfee/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestMatches_CatchAll(t *testing.T) {
	rule := model.FeeRule{MatchType: model.MatchAll}
	product := ProductAttributes{CategoryIDs: []int64{1, 2}, HSCode: "6109.10"}

	for _, lane := range [][2]string{
		{"CN", "US"},
		{"", ""},
		{"DE", "FR"},
		{"XX", "YY"},
	} {
		assert.True(t, Matches(&rule, product, lane[0], lane[1]), "lane %v", lane)
	}
}

func TestMatches_CountryGate(t *testing.T) {
	tests := []struct {
		name string
		rule model.FeeRule
		from string
		to   string
		want bool
	}{
		{"exact to match", model.FeeRule{ToCountry: "US", MatchType: model.MatchAll}, "CN", "US", true},
		{"exact to mismatch", model.FeeRule{ToCountry: "US", MatchType: model.MatchAll}, "CN", "CA", false},
		{"exact from match", model.FeeRule{FromCountry: "CN", MatchType: model.MatchAll}, "CN", "US", true},
		{"exact from mismatch", model.FeeRule{FromCountry: "CN", MatchType: model.MatchAll}, "VN", "US", false},
		{"both sides", model.FeeRule{FromCountry: "CN", ToCountry: "US", MatchType: model.MatchAll}, "CN", "US", true},
		{"both sides, from fails", model.FeeRule{FromCountry: "CN", ToCountry: "US", MatchType: model.MatchAll}, "VN", "US", false},
		{"legacy country is destination", model.FeeRule{Country: "DE", MatchType: model.MatchAll}, "CN", "DE", true},
		{"legacy country mismatch", model.FeeRule{Country: "DE", MatchType: model.MatchAll}, "CN", "FR", false},
		{"legacy origin_country is origin", model.FeeRule{OriginCountry: "CN", MatchType: model.MatchAll}, "CN", "US", true},
		{"canonical beats legacy", model.FeeRule{ToCountry: "FR", Country: "DE", MatchType: model.MatchAll}, "CN", "FR", true},
		{"case-insensitive codes", model.FeeRule{ToCountry: "us", MatchType: model.MatchAll}, "CN", "US", true},
		{"invalid shipment country never matches specific rule", model.FeeRule{ToCountry: "US", MatchType: model.MatchAll}, "CN", "XYZ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(&tt.rule, ProductAttributes{}, tt.from, tt.to))
		})
	}
}

func TestMatches_EUToken(t *testing.T) {
	rule := model.FeeRule{FromCountry: "EU", MatchType: model.MatchAll}

	for _, member := range []string{"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR", "DE", "GR", "HU", "IE", "IT", "LV", "LT", "LU", "MT", "NL", "PL", "PT", "RO", "SK", "SI", "ES", "SE"} {
		assert.True(t, Matches(&rule, ProductAttributes{}, member, "US"), "member %s", member)
	}
	for _, outsider := range []string{"GB", "CH", "NO", "US", "CN", ""} {
		assert.False(t, Matches(&rule, ProductAttributes{}, outsider, "US"), "outsider %s", outsider)
	}
}

func TestMatches_CategoryGate(t *testing.T) {
	product := ProductAttributes{CategoryIDs: []int64{3, 7, 12}}

	intersecting := model.FeeRule{MatchType: model.MatchCategory, CategoryIDs: model.Int64List{7, 99}}
	disjoint := model.FeeRule{MatchType: model.MatchCategory, CategoryIDs: model.Int64List{98, 99}}
	empty := model.FeeRule{MatchType: model.MatchCategory}

	assert.True(t, Matches(&intersecting, product, "", ""))
	assert.False(t, Matches(&disjoint, product, "", ""))
	// Empty criterion set passes: there is nothing to restrict on
	assert.True(t, Matches(&empty, product, "", ""))
	assert.False(t, Matches(&intersecting, ProductAttributes{}, "", ""))
}

func TestMatches_HSCodeGate(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		hsCode  string
		want    bool
	}{
		{"comma list matches first", "61,62", "6109.10", true},
		{"comma list matches second", "61,62", "6205.20", true},
		{"comma list no match", "61,62", "7216", false},
		{"wildcard prefix match", "72*", "7216", true},
		{"wildcard prefix match dotted", "72*", "7201.10", true},
		{"wildcard no match", "72*", "8501", false},
		{"exact match", "6109.10", "6109.10", true},
		{"plain pattern matches as prefix", "6109", "6109.10", true},
		{"plain pattern no match", "6109.10", "6205.20", false},
		{"empty pattern passes", "", "anything", true},
		{"empty pattern passes without code", "", "", true},
		{"pattern set but product unclassified", "61*", "", false},
		{"exact pattern but product unclassified", "6109.10", "", false},
		{"case-insensitive", "ab*", "AB12", true},
		{"whitespace tolerated", " 61 , 62 ", "6205.20", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := model.FeeRule{MatchType: model.MatchHSCode, HSCodePattern: tt.pattern}
			product := ProductAttributes{HSCode: tt.hsCode}
			assert.Equal(t, tt.want, Matches(&rule, product, "", ""))
		})
	}
}

func TestMatches_Combined(t *testing.T) {
	rule := model.FeeRule{
		MatchType:     model.MatchCombined,
		CategoryIDs:   model.Int64List{5},
		HSCodePattern: "61*",
	}

	both := ProductAttributes{CategoryIDs: []int64{5}, HSCode: "6109.10"}
	onlyCategory := ProductAttributes{CategoryIDs: []int64{5}, HSCode: "7216"}
	onlyHS := ProductAttributes{CategoryIDs: []int64{9}, HSCode: "6109.10"}

	assert.True(t, Matches(&rule, both, "", ""))
	assert.False(t, Matches(&rule, onlyCategory, "", ""))
	assert.False(t, Matches(&rule, onlyHS, "", ""))
}

func TestMatches_UnknownMatchTypeFailsClosed(t *testing.T) {
	rule := model.FeeRule{MatchType: "garbage"}
	assert.False(t, Matches(&rule, ProductAttributes{HSCode: "6109.10"}, "CN", "US"))
}

func TestMatches_EmptyMatchTypeBehavesAsAll(t *testing.T) {
	rule := model.FeeRule{}
	assert.True(t, Matches(&rule, ProductAttributes{}, "CN", "US"))
}

func TestSpecificity_Ordering(t *testing.T) {
	exact := model.FeeRule{HSCodePattern: "6109.10"}
	wildcard := model.FeeRule{HSCodePattern: "61*"}
	none := model.FeeRule{}

	assert.Greater(t, Specificity(&exact), Specificity(&wildcard))
	assert.Greater(t, Specificity(&wildcard), Specificity(&none))
	assert.Equal(t, 0, Specificity(&none))
}

func TestSpecificity_Scores(t *testing.T) {
	tests := []struct {
		name string
		rule model.FeeRule
		want int
	}{
		{"single exact pattern", model.FeeRule{HSCodePattern: "6109.10"}, 100},
		{"single wildcard pattern", model.FeeRule{HSCodePattern: "61*"}, 50 + 5*2},
		{"comma list, two exact", model.FeeRule{HSCodePattern: "61,62"}, 80 + 5*2 + 10 + 10},
		{"comma list, exact plus wildcard", model.FeeRule{HSCodePattern: "6109.10,72*"}, 80 + 5*2 + 10 + 2*2},
		{"category only", model.FeeRule{CategoryIDs: model.Int64List{1}}, 25},
		{"to country only", model.FeeRule{ToCountry: "US"}, 10},
		{"from country only", model.FeeRule{FromCountry: "CN"}, 5},
		{"legacy country scores as origin-side bonus", model.FeeRule{Country: "DE"}, 5},
		{"everything", model.FeeRule{HSCodePattern: "6109.10", CategoryIDs: model.Int64List{1}, ToCountry: "US", FromCountry: "CN"}, 100 + 25 + 10 + 5},
		{"catch-all", model.FeeRule{MatchType: model.MatchAll}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Specificity(&tt.rule))
		})
	}
}
