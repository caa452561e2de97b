package service

import (
	"context"
	"errors"
	"fmt"

	"customsfee/internal/engine"
	"customsfee/internal/model"
	"customsfee/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type QuoteLineItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type QuoteCartFeesRequest struct {
	Items       []QuoteLineItemRequest `json:"items" binding:"required,min=1,dive"`
	FromCountry string                 `json:"from_country"`
	ToCountry   string                 `json:"to_country" binding:"required"`
	CartTotal   string                 `json:"cart_total" binding:"required"`
	DisplayMode string                 `json:"display_mode" binding:"omitempty,oneof=single breakdown"`
}

type FeeLineResponse struct {
	Label    string `json:"label"`
	Amount   string `json:"amount"`
	Taxable  bool   `json:"taxable"`
	TaxClass string `json:"tax_class"`
}

type QuoteCartFeesResponse struct {
	Fees      []FeeLineResponse `json:"fees"`
	FeesTotal string            `json:"fees_total"`
}

// --- Interface ---

type QuoteService interface {
	QuoteCartFees(ctx context.Context, req QuoteCartFeesRequest) (QuoteCartFeesResponse, error)
}

type quoteService struct {
	ruleRepo           repository.FeeRuleRepository
	productRepo        repository.ProductRepository
	categoryRepo       repository.CategoryRepository
	registry           *engine.Registry
	cache              engine.Cache
	defaultDisplayMode engine.DisplayMode
}

func NewQuoteService(
	ruleRepo repository.FeeRuleRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	registry *engine.Registry,
	cache engine.Cache,
	defaultDisplayMode engine.DisplayMode,
) QuoteService {
	if defaultDisplayMode != engine.DisplaySingle {
		defaultDisplayMode = engine.DisplayBreakdown
	}
	return &quoteService{
		ruleRepo:           ruleRepo,
		productRepo:        productRepo,
		categoryRepo:       categoryRepo,
		registry:           registry,
		cache:              cache,
		defaultDisplayMode: defaultDisplayMode,
	}
}

// --- Implementation ---

// QuoteCartFees evaluates the enabled rule snapshot against every cart
// line item and returns the aggregated fee lines. The snapshot is read
// once per call (or served from the short-TTL cache the rule service
// invalidates on writes); nothing mutable is shared between evaluations.
func (s *quoteService) QuoteCartFees(ctx context.Context, req QuoteCartFeesRequest) (QuoteCartFeesResponse, error) {
	cartTotal, err := decimal.NewFromString(req.CartTotal)
	if err != nil {
		return QuoteCartFeesResponse{}, fmt.Errorf("invalid cart_total value: %w", err)
	}

	items := make([]engine.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return QuoteCartFeesResponse{}, fmt.Errorf("invalid product id %q: %w", item.ProductID, err)
		}
		items = append(items, engine.LineItem{ProductID: productID, Quantity: item.Quantity})
	}

	rules, err := s.rulesSnapshot(ctx)
	if err != nil {
		return QuoteCartFeesResponse{}, err
	}

	mode := s.defaultDisplayMode
	if req.DisplayMode != "" {
		mode = engine.DisplayMode(req.DisplayMode)
	}

	ship := engine.ShipmentContext{
		FromCountry: req.FromCountry,
		ToCountry:   req.ToCountry,
		CartTotal:   cartTotal,
	}

	lookup := newProductLookup(s.productRepo, s.categoryRepo)
	fees, err := engine.ComputeCartFees(ctx, s.registry, rules, items, ship, lookup, mode)
	if err != nil {
		return QuoteCartFeesResponse{}, err
	}

	res := QuoteCartFeesResponse{Fees: make([]FeeLineResponse, 0, len(fees))}
	total := decimal.Zero
	for _, fee := range fees {
		total = total.Add(fee.Amount)
		res.Fees = append(res.Fees, FeeLineResponse{
			Label:    fee.Label,
			Amount:   fee.Amount.StringFixed(2),
			Taxable:  fee.Taxable,
			TaxClass: fee.TaxClass,
		})
	}
	res.FeesTotal = total.StringFixed(2)
	return res, nil
}

func (s *quoteService) rulesSnapshot(ctx context.Context) ([]model.FeeRule, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(rulesCacheKey); ok {
			if rules, ok := cached.([]model.FeeRule); ok {
				return rules, nil
			}
		}
	}

	rules, err := s.ruleRepo.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee rules: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(rulesCacheKey, rules)
	}
	return rules, nil
}

// productLookup resolves product attributes the way the matcher expects
// them: variant HS code and origin fall back to the parent product, a
// variant's categories are the parent's, and ancestor categories are
// expanded into the set. Resolution is memoized per lookup instance,
// which lives for a single quote request.
type productLookup struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	resolved     map[uuid.UUID]engine.ProductAttributes
	parents      map[int64]*int64 // categoryID -> parentID, loaded lazily
}

func newProductLookup(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *productLookup {
	return &productLookup{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		resolved:     make(map[uuid.UUID]engine.ProductAttributes),
	}
}

func (l *productLookup) Attributes(ctx context.Context, productID uuid.UUID) (engine.ProductAttributes, error) {
	if attrs, ok := l.resolved[productID]; ok {
		return attrs, nil
	}

	product, err := l.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.ProductAttributes{}, fmt.Errorf("product %s not found", productID)
		}
		return engine.ProductAttributes{}, err
	}

	attrs := engine.ProductAttributes{
		ID:            product.ID,
		HSCode:        product.HSCode,
		OriginCountry: product.OriginCountry,
	}

	categories := product.Categories
	if product.ParentID != nil {
		parent, err := l.productRepo.FindByID(ctx, *product.ParentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.ProductAttributes{}, err
		}
		if parent != nil {
			if attrs.HSCode == "" {
				attrs.HSCode = parent.HSCode
			}
			if attrs.OriginCountry == "" {
				attrs.OriginCountry = parent.OriginCountry
			}
			// Variants carry the parent product's categories
			categories = parent.Categories
		}
	}

	attrs.CategoryIDs, err = l.expandAncestors(ctx, categories)
	if err != nil {
		return engine.ProductAttributes{}, err
	}

	l.resolved[productID] = attrs
	return attrs, nil
}

// expandAncestors walks every category's parent chain and returns the
// de-duplicated transitive closure of category IDs.
func (l *productLookup) expandAncestors(ctx context.Context, categories []model.Category) ([]int64, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	if l.parents == nil {
		all, err := l.categoryRepo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load categories: %w", err)
		}
		l.parents = make(map[int64]*int64, len(all))
		for _, c := range all {
			l.parents[c.ID] = c.ParentID
		}
	}

	seen := make(map[int64]struct{})
	var ids []int64
	for _, c := range categories {
		id := c.ID
		for {
			if _, ok := seen[id]; ok {
				break
			}
			seen[id] = struct{}{}
			ids = append(ids, id)

			parent, ok := l.parents[id]
			if !ok || parent == nil {
				break
			}
			id = *parent
		}
	}
	return ids, nil
}
