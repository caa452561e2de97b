// Package engine implements the customs/import fee core: deciding which
// configured rules apply to a product on a given shipping lane, resolving
// conflicts between overlapping rules, and computing the resulting fee
// lines for a cart.
//
// The engine is pure: rules are passed in as an immutable snapshot and no
// state survives between evaluations, so concurrent cart computations
// never share mutable state.
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductAttributes is the slice of product data the matcher needs.
// CategoryIDs must already include ancestor categories, and HSCode and
// OriginCountry must already reflect variant-to-parent fallback; the
// ProductLookup collaborator owns both resolutions.
type ProductAttributes struct {
	ID            uuid.UUID
	CategoryIDs   []int64
	HSCode        string
	OriginCountry string
}

// ProductLookup resolves product attributes for cart line items.
type ProductLookup interface {
	Attributes(ctx context.Context, productID uuid.UUID) (ProductAttributes, error)
}

// LineItem is one cart position.
type LineItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// ShipmentContext carries the lane and monetary base of one evaluation.
// FromCountry is the declared shipment origin; a product's own origin
// country takes precedence for matching when set.
type ShipmentContext struct {
	FromCountry string
	ToCountry   string
	CartTotal   decimal.Decimal
}

// FeeLine is one resolved, costed fee entry for a cart.
type FeeLine struct {
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Taxable  bool            `json:"taxable"`
	TaxClass string          `json:"tax_class"`
}

// DisplayMode controls cart-level fee aggregation.
type DisplayMode string

const (
	// DisplaySingle merges every fee into one combined line.
	DisplaySingle DisplayMode = "single"
	// DisplayBreakdown emits one line per distinct fee label.
	DisplayBreakdown DisplayMode = "breakdown"
)
