package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"customsfee/internal/engine"
	"customsfee/internal/model"
	"customsfee/internal/repository"
	ws "customsfee/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const rulesCacheKey = "fee_rules:enabled"

// --- DTOs ---

type TierRequest struct {
	Min    string `json:"min" binding:"required"`
	Max    string `json:"max"` // empty = unbounded
	Rate   string `json:"rate"`
	Amount string `json:"amount"`
}

type FeeRuleRequest struct {
	Label         string        `json:"label"`
	Country       string        `json:"country"`        // legacy destination, accepted for imports
	OriginCountry string        `json:"origin_country"` // legacy origin
	FromCountry   string        `json:"from_country"`
	ToCountry     string        `json:"to_country"`
	MatchType     string        `json:"match_type" binding:"omitempty,oneof=all category hs_code combined"`
	CategoryIDs   []int64       `json:"category_ids"`
	HSCodePattern string        `json:"hs_code_pattern"`
	FeeType       string        `json:"fee_type" binding:"required,oneof=percentage flat fixed tiered"`
	Rate          string        `json:"rate"`
	Amount        string        `json:"amount"`
	Minimum       string        `json:"minimum"`
	Maximum       string        `json:"maximum"`
	Tiers         []TierRequest `json:"tiers" binding:"omitempty,dive"`
	Taxable       *bool         `json:"taxable"`
	TaxClass      string        `json:"tax_class"`
	Priority      int           `json:"priority" binding:"omitempty,gte=0"`
	StackingMode  string        `json:"stacking_mode" binding:"omitempty,oneof=add override exclusive"`
	Enabled       *bool         `json:"enabled"`
}

type FeeRuleResponse struct {
	ID            string       `json:"id"`
	Label         string       `json:"label"`
	FromCountry   string       `json:"from_country"`
	ToCountry     string       `json:"to_country"`
	MatchType     string       `json:"match_type"`
	CategoryIDs   []int64      `json:"category_ids"`
	HSCodePattern string       `json:"hs_code_pattern"`
	FeeType       string       `json:"fee_type"`
	Rate          string       `json:"rate"`
	Amount        string       `json:"amount"`
	Minimum       string       `json:"minimum"`
	Maximum       string       `json:"maximum"`
	Tiers         []model.Tier `json:"tiers"`
	Taxable       bool         `json:"taxable"`
	TaxClass      string       `json:"tax_class"`
	Priority      int          `json:"priority"`
	StackingMode  string       `json:"stacking_mode"`
	Enabled       bool         `json:"enabled"`
	CreatedAt     string       `json:"created_at"`
}

type PreviewFeeRequest struct {
	Rule      FeeRuleRequest `json:"rule" binding:"required"`
	CartTotal string         `json:"cart_total" binding:"required"`
}

type PreviewFeeResponse struct {
	Applies  bool   `json:"applies"`
	Label    string `json:"label,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Taxable  bool   `json:"taxable,omitempty"`
	TaxClass string `json:"tax_class,omitempty"`
}

// --- Interface ---

type FeeRuleService interface {
	GetFeeRules(ctx context.Context, page, limit int) ([]FeeRuleResponse, int64, error)
	GetFeeRule(ctx context.Context, id string) (FeeRuleResponse, error)
	CreateFeeRule(ctx context.Context, req FeeRuleRequest, userID string) (FeeRuleResponse, error)
	UpdateFeeRule(ctx context.Context, id string, req FeeRuleRequest, userID string) (FeeRuleResponse, error)
	DeleteFeeRule(ctx context.Context, id string, userID string) error
	PreviewFee(ctx context.Context, req PreviewFeeRequest) (PreviewFeeResponse, error)
}

type feeRuleService struct {
	ruleRepo  repository.FeeRuleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	registry  *engine.Registry
	cache     engine.Cache
	hub       *ws.Hub
}

func NewFeeRuleService(
	ruleRepo repository.FeeRuleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	registry *engine.Registry,
	cache engine.Cache,
	hub *ws.Hub,
) FeeRuleService {
	return &feeRuleService{
		ruleRepo:  ruleRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		registry:  registry,
		cache:     cache,
		hub:       hub,
	}
}

// --- Implementation ---

func (s *feeRuleService) GetFeeRules(ctx context.Context, page, limit int) ([]FeeRuleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	rules, total, err := s.ruleRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch fee rules: %w", err)
	}

	res := make([]FeeRuleResponse, 0, len(rules))
	for i := range rules {
		res = append(res, toFeeRuleResponse(&rules[i]))
	}
	return res, total, nil
}

func (s *feeRuleService) GetFeeRule(ctx context.Context, id string) (FeeRuleResponse, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return FeeRuleResponse{}, fmt.Errorf("invalid fee rule id: %w", err)
	}

	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FeeRuleResponse{}, fmt.Errorf("fee rule not found")
		}
		return FeeRuleResponse{}, fmt.Errorf("failed to fetch fee rule: %w", err)
	}
	return toFeeRuleResponse(rule), nil
}

func (s *feeRuleService) CreateFeeRule(ctx context.Context, req FeeRuleRequest, userID string) (FeeRuleResponse, error) {
	rule, err := buildFeeRule(req)
	if err != nil {
		return FeeRuleResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ruleRepo.Create(txCtx, rule); err != nil {
			return fmt.Errorf("failed to create fee rule: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateFeeRule, rule, req)
	})
	if err != nil {
		return FeeRuleResponse{}, err
	}

	s.notifyRuleChange("created", rule.ID.String())
	return toFeeRuleResponse(rule), nil
}

func (s *feeRuleService) UpdateFeeRule(ctx context.Context, id string, req FeeRuleRequest, userID string) (FeeRuleResponse, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return FeeRuleResponse{}, fmt.Errorf("invalid fee rule id: %w", err)
	}

	existing, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FeeRuleResponse{}, fmt.Errorf("fee rule not found")
		}
		return FeeRuleResponse{}, fmt.Errorf("failed to fetch fee rule: %w", err)
	}

	rule, err := buildFeeRule(req)
	if err != nil {
		return FeeRuleResponse{}, err
	}
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ruleRepo.Update(txCtx, rule); err != nil {
			return fmt.Errorf("failed to update fee rule: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateFeeRule, rule, req)
	})
	if err != nil {
		return FeeRuleResponse{}, err
	}

	s.notifyRuleChange("updated", rule.ID.String())
	return toFeeRuleResponse(rule), nil
}

func (s *feeRuleService) DeleteFeeRule(ctx context.Context, id string, userID string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid fee rule id: %w", err)
	}

	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("fee rule not found")
		}
		return fmt.Errorf("failed to fetch fee rule: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ruleRepo.Delete(txCtx, ruleID); err != nil {
			return fmt.Errorf("failed to delete fee rule: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteFeeRule, rule, map[string]string{"deleted_id": id})
	})
	if err != nil {
		return err
	}

	s.notifyRuleChange("deleted", id)
	return nil
}

// PreviewFee runs the single-rule calculator without persisting or
// resolving against other rules — the admin "test calculation" feature.
func (s *feeRuleService) PreviewFee(ctx context.Context, req PreviewFeeRequest) (PreviewFeeResponse, error) {
	rule, err := buildFeeRule(req.Rule)
	if err != nil {
		return PreviewFeeResponse{}, err
	}

	cartTotal, err := decimal.NewFromString(req.CartTotal)
	if err != nil {
		return PreviewFeeResponse{}, fmt.Errorf("invalid cart_total value: %w", err)
	}

	line := engine.EvaluateTestFee(s.registry, rule, cartTotal)
	if line == nil {
		return PreviewFeeResponse{Applies: false}, nil
	}
	return PreviewFeeResponse{
		Applies:  true,
		Label:    line.Label,
		Amount:   line.Amount.StringFixed(2),
		Taxable:  line.Taxable,
		TaxClass: line.TaxClass,
	}, nil
}

// --- Helpers ---

// buildFeeRule validates a request and maps it onto a canonical rule.
// Legacy country/origin_country inputs are accepted and migrated onto
// to_country/from_country here, so new rows never carry the old fields.
func buildFeeRule(req FeeRuleRequest) (*model.FeeRule, error) {
	rate, err := parseOptionalDecimal(req.Rate, "rate")
	if err != nil {
		return nil, err
	}
	amount, err := parseOptionalDecimal(req.Amount, "amount")
	if err != nil {
		return nil, err
	}
	minimum, err := parseOptionalDecimal(req.Minimum, "minimum")
	if err != nil {
		return nil, err
	}
	maximum, err := parseOptionalDecimal(req.Maximum, "maximum")
	if err != nil {
		return nil, err
	}

	tiers, err := parseTiers(req.Tiers)
	if err != nil {
		return nil, err
	}
	if req.FeeType == model.FeeTypeTiered && len(tiers) == 0 {
		return nil, fmt.Errorf("tiered fee rules require at least one tier")
	}

	for _, field := range []struct{ name, value string }{
		{"country", req.Country},
		{"origin_country", req.OriginCountry},
		{"from_country", req.FromCountry},
		{"to_country", req.ToCountry},
	} {
		if err := validateCountryToken(field.name, field.value); err != nil {
			return nil, err
		}
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule := &model.FeeRule{
		Label:         strings.TrimSpace(req.Label),
		Country:       req.Country,
		OriginCountry: req.OriginCountry,
		FromCountry:   req.FromCountry,
		ToCountry:     req.ToCountry,
		MatchType:     req.MatchType,
		CategoryIDs:   req.CategoryIDs,
		HSCodePattern: strings.TrimSpace(req.HSCodePattern),
		FeeType:       req.FeeType,
		Rate:          rate,
		Amount:        amount,
		Minimum:       minimum,
		Maximum:       maximum,
		Tiers:         tiers,
		Taxable:       req.Taxable,
		TaxClass:      req.TaxClass,
		Priority:      req.Priority,
		StackingMode:  req.StackingMode,
		Enabled:       enabled,
	}
	rule.Canonicalize()
	return rule, nil
}

func parseOptionalDecimal(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", field, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

func parseTiers(reqs []TierRequest) (model.TierList, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	tiers := make(model.TierList, 0, len(reqs))
	for i, tr := range reqs {
		min, err := parseOptionalDecimal(tr.Min, fmt.Sprintf("tiers[%d].min", i))
		if err != nil {
			return nil, err
		}
		max, err := parseOptionalDecimal(tr.Max, fmt.Sprintf("tiers[%d].max", i))
		if err != nil {
			return nil, err
		}
		if !max.IsZero() && max.LessThan(min) {
			return nil, fmt.Errorf("tiers[%d]: max must not be below min", i)
		}
		rate, err := parseOptionalDecimal(tr.Rate, fmt.Sprintf("tiers[%d].rate", i))
		if err != nil {
			return nil, err
		}
		amount, err := parseOptionalDecimal(tr.Amount, fmt.Sprintf("tiers[%d].amount", i))
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, model.Tier{MinTotal: min, MaxTotal: max, Rate: rate, Amount: amount})
	}
	return tiers, nil
}

// validateCountryToken accepts empty (wildcard), the EU token, or a
// two-letter code.
func validateCountryToken(field, value string) error {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" || value == engine.CountryEU {
		return nil
	}
	if len(value) != 2 {
		return fmt.Errorf("invalid %s: expected a two-letter country code or EU", field)
	}
	for _, c := range value {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("invalid %s: expected a two-letter country code or EU", field)
		}
	}
	return nil
}

func toFeeRuleResponse(r *model.FeeRule) FeeRuleResponse {
	tiers := r.Tiers
	if tiers == nil {
		tiers = model.TierList{}
	}
	categoryIDs := []int64(r.CategoryIDs)
	if categoryIDs == nil {
		categoryIDs = []int64{}
	}
	return FeeRuleResponse{
		ID:            r.ID.String(),
		Label:         r.Label,
		FromCountry:   r.EffectiveFromCountry(),
		ToCountry:     r.EffectiveToCountry(),
		MatchType:     r.MatchType,
		CategoryIDs:   categoryIDs,
		HSCodePattern: r.HSCodePattern,
		FeeType:       r.FeeType,
		Rate:          r.Rate.StringFixed(4),
		Amount:        r.Amount.StringFixed(2),
		Minimum:       r.Minimum.StringFixed(2),
		Maximum:       r.Maximum.StringFixed(2),
		Tiers:         tiers,
		Taxable:       r.IsTaxable(),
		TaxClass:      r.TaxClass,
		Priority:      r.Priority,
		StackingMode:  r.StackingMode,
		Enabled:       r.Enabled,
		CreatedAt:     r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *feeRuleService) writeAudit(ctx context.Context, userID, action string, rule *model.FeeRule, details interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   rule.ID.String(),
		EntityName: engine.FeeLabel(rule, rule.EffectiveToCountry()),
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// notifyRuleChange invalidates the rule snapshot cache and broadcasts a
// change event so admin UIs can refresh without polling.
func (s *feeRuleService) notifyRuleChange(event, ruleID string) {
	if s.cache != nil {
		s.cache.Invalidate(rulesCacheKey)
	}
	if s.hub == nil {
		return
	}
	msg, err := json.Marshal(map[string]string{
		"type":    "fee_rule_changed",
		"event":   event,
		"rule_id": ruleID,
	})
	if err != nil {
		log.Println("failed to marshal rule change event:", err)
		return
	}
	s.hub.Broadcast <- msg
}
