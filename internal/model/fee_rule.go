package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MatchType constants — which product attributes gate rule matching
const (
	MatchAll      = "all"
	MatchCategory = "category"
	MatchHSCode   = "hs_code"
	MatchCombined = "combined"
)

// FeeType constants. "flat" and "fixed" are synonyms kept for
// compatibility with rule sets exported from older installs.
const (
	FeeTypePercentage = "percentage"
	FeeTypeFlat       = "flat"
	FeeTypeFixed      = "fixed"
	FeeTypeTiered     = "tiered"
)

// StackingMode constants
const (
	StackingAdd       = "add"
	StackingOverride  = "override"
	StackingExclusive = "exclusive"
)

// Tier is one range of a tiered fee schedule. MaxTotal of zero means
// unbounded. Rate takes precedence over Amount when non-zero.
type Tier struct {
	MinTotal decimal.Decimal `json:"min"`
	MaxTotal decimal.Decimal `json:"max"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// FeeRule is one configured customs/import fee rule.
//
// Country and OriginCountry are legacy columns (destination resp. origin)
// superseded by ToCountry/FromCountry; rows imported from older installs
// still carry them, so matching falls back to them when the canonical
// fields are empty. FromCountry/ToCountry are either empty (wildcard),
// the token "EU" (any EU-27 member), or a two-letter country code.
type FeeRule struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Label         string          `gorm:"type:varchar(255)" json:"label"`
	Country       string          `gorm:"type:varchar(5)" json:"country"`        // legacy destination
	OriginCountry string          `gorm:"type:varchar(5)" json:"origin_country"` // legacy origin
	FromCountry   string          `gorm:"type:varchar(5);index" json:"from_country"`
	ToCountry     string          `gorm:"type:varchar(5);index" json:"to_country"`
	MatchType     string          `gorm:"type:varchar(20);default:'all';not null" json:"match_type"`
	CategoryIDs   Int64List       `gorm:"type:jsonb" json:"category_ids"`
	HSCodePattern string          `gorm:"type:varchar(255)" json:"hs_code_pattern"`
	FeeType       string          `gorm:"type:varchar(20);not null" json:"fee_type"` // percentage, flat, fixed, tiered
	Rate          decimal.Decimal `gorm:"type:decimal(12,4)" json:"rate"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,4)" json:"amount"`
	Minimum       decimal.Decimal `gorm:"type:decimal(12,4)" json:"minimum"` // 0 = unset
	Maximum       decimal.Decimal `gorm:"type:decimal(12,4)" json:"maximum"` // 0 = unset
	Tiers         TierList        `gorm:"type:jsonb" json:"tiers"`
	Taxable       *bool           `gorm:"default:true" json:"taxable"`
	TaxClass      string          `gorm:"type:varchar(100)" json:"tax_class"`
	Priority      int             `gorm:"type:int;default:0;not null;index" json:"priority"`
	StackingMode  string          `gorm:"type:varchar(20);default:'add';not null" json:"stacking_mode"`
	Enabled       bool            `gorm:"default:true;not null" json:"enabled"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// EffectiveFromCountry returns the origin-side country criterion,
// falling back to the legacy origin_country column.
func (r *FeeRule) EffectiveFromCountry() string {
	if r.FromCountry != "" {
		return r.FromCountry
	}
	return r.OriginCountry
}

// EffectiveToCountry returns the destination-side country criterion,
// falling back to the legacy country column.
func (r *FeeRule) EffectiveToCountry() string {
	if r.ToCountry != "" {
		return r.ToCountry
	}
	return r.Country
}

// IsTaxable treats a missing taxable flag as true.
func (r *FeeRule) IsTaxable() bool {
	return r.Taxable == nil || *r.Taxable
}

// Canonicalize maps the legacy country/origin_country fields onto the
// canonical to_country/from_country fields and defaults a missing
// match_type and stacking_mode. Applied when rules are written through
// the service layer; stored legacy rows are handled read-side via the
// Effective* accessors so their tie-break scores stay unchanged.
func (r *FeeRule) Canonicalize() {
	r.FromCountry = normalizeCountryToken(r.EffectiveFromCountry())
	r.ToCountry = normalizeCountryToken(r.EffectiveToCountry())
	r.Country = ""
	r.OriginCountry = ""
	if r.MatchType == "" {
		r.MatchType = MatchAll
	}
	if r.StackingMode == "" {
		r.StackingMode = StackingAdd
	}
}

func normalizeCountryToken(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
