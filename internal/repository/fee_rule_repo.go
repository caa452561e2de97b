package repository

import (
	"context"

	"customsfee/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeeRuleRepository interface {
	Create(ctx context.Context, rule *model.FeeRule) error
	Update(ctx context.Context, rule *model.FeeRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FeeRule, error)
	List(ctx context.Context, page, limit int) ([]model.FeeRule, int64, error)
	// ListEnabled returns the full enabled rule set ordered by priority
	// desc — the immutable snapshot one cart evaluation runs against.
	ListEnabled(ctx context.Context) ([]model.FeeRule, error)
}

type feeRuleRepository struct {
	db *gorm.DB
}

func NewFeeRuleRepository(db *gorm.DB) FeeRuleRepository {
	return &feeRuleRepository{db: db}
}

func (r *feeRuleRepository) Create(ctx context.Context, rule *model.FeeRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *feeRuleRepository) Update(ctx context.Context, rule *model.FeeRule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *feeRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.FeeRule{}).Error
}

func (r *feeRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FeeRule, error) {
	var rule model.FeeRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *feeRuleRepository) List(ctx context.Context, page, limit int) ([]model.FeeRule, int64, error) {
	var rules []model.FeeRule
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.FeeRule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("priority desc, created_at asc").Offset(offset).Limit(limit).Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

func (r *feeRuleRepository) ListEnabled(ctx context.Context) ([]model.FeeRule, error) {
	var rules []model.FeeRule
	if err := GetDB(ctx, r.db).
		Where("enabled = ?", true).
		Order("priority desc, created_at asc").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
