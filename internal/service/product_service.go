package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"customsfee/internal/model"
	"customsfee/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type ProductRequest struct {
	SKU           string  `json:"sku" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	HSCode        string  `json:"hs_code"`
	OriginCountry string  `json:"origin_country"`
	ParentID      string  `json:"parent_id"` // set for variants
	CategoryIDs   []int64 `json:"category_ids"`
}

type ProductResponse struct {
	ID            string  `json:"id"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	HSCode        string  `json:"hs_code"`
	OriginCountry string  `json:"origin_country"`
	ParentID      string  `json:"parent_id,omitempty"`
	CategoryIDs   []int64 `json:"category_ids"`
	CreatedAt     string  `json:"created_at"`
}

type CategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	ParentID *int64 `json:"parent_id"`
}

type CategoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// --- Interface ---

type ProductService interface {
	GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	CreateProduct(ctx context.Context, req ProductRequest, userID string) (ProductResponse, error)
	UpdateProduct(ctx context.Context, id string, req ProductRequest, userID string) (ProductResponse, error)
	DeleteProduct(ctx context.Context, id string, userID string) error
	GetCategories(ctx context.Context) ([]CategoryResponse, error)
	CreateCategory(ctx context.Context, req CategoryRequest, userID string) (CategoryResponse, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *productService) GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, fmt.Errorf("product not found")
		}
		return ProductResponse{}, fmt.Errorf("failed to fetch product: %w", err)
	}
	return toProductResponse(product), nil
}

func (s *productService) CreateProduct(ctx context.Context, req ProductRequest, userID string) (ProductResponse, error) {
	product, categories, err := s.buildProduct(ctx, req)
	if err != nil {
		return ProductResponse{}, err
	}

	if existing, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil && existing != nil {
		return ProductResponse{}, fmt.Errorf("a product with SKU '%s' already exists", req.SKU)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if err := s.productRepo.ReplaceCategories(txCtx, product, categories); err != nil {
			return fmt.Errorf("failed to assign categories: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	product.Categories = categories
	return toProductResponse(product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, req ProductRequest, userID string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	existing, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, fmt.Errorf("product not found")
		}
		return ProductResponse{}, fmt.Errorf("failed to fetch product: %w", err)
	}

	product, categories, err := s.buildProduct(ctx, req)
	if err != nil {
		return ProductResponse{}, err
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if err := s.productRepo.ReplaceCategories(txCtx, product, categories); err != nil {
			return fmt.Errorf("failed to assign categories: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	product.Categories = categories
	return toProductResponse(product), nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string, userID string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product not found")
		}
		return fmt.Errorf("failed to fetch product: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteProduct, id, product.Name, map[string]string{"deleted_id": id})
	})
}

func (s *productService) GetCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	res := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, CategoryResponse{ID: c.ID, Name: c.Name, ParentID: c.ParentID})
	}
	return res, nil
}

func (s *productService) CreateCategory(ctx context.Context, req CategoryRequest, userID string) (CategoryResponse, error) {
	if req.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return CategoryResponse{}, fmt.Errorf("parent category not found")
			}
			return CategoryResponse{}, fmt.Errorf("failed to fetch parent category: %w", err)
		}
	}

	category := &model.Category{Name: req.Name, ParentID: req.ParentID}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Create(txCtx, category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateCategory, fmt.Sprintf("%d", category.ID), category.Name, req)
	})
	if err != nil {
		return CategoryResponse{}, err
	}

	return CategoryResponse{ID: category.ID, Name: category.Name, ParentID: category.ParentID}, nil
}

// --- Helpers ---

func (s *productService) buildProduct(ctx context.Context, req ProductRequest) (*model.Product, []model.Category, error) {
	product := &model.Product{
		SKU:           req.SKU,
		Name:          req.Name,
		Price:         req.Price,
		HSCode:        req.HSCode,
		OriginCountry: req.OriginCountry,
	}

	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid parent_id: %w", err)
		}
		parent, err := s.productRepo.FindByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, fmt.Errorf("parent product not found")
			}
			return nil, nil, fmt.Errorf("failed to fetch parent product: %w", err)
		}
		if parent.ParentID != nil {
			return nil, nil, fmt.Errorf("a variant cannot be the parent of another variant")
		}
		product.ParentID = &parent.ID
	}

	categories, err := s.categoryRepo.FindByIDs(ctx, req.CategoryIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	if len(categories) != len(req.CategoryIDs) {
		return nil, nil, fmt.Errorf("one or more category ids do not exist")
	}

	return product, categories, nil
}

func (s *productService) writeAudit(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toProductResponse(p *model.Product) ProductResponse {
	categoryIDs := make([]int64, 0, len(p.Categories))
	for _, c := range p.Categories {
		categoryIDs = append(categoryIDs, c.ID)
	}

	res := ProductResponse{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.Price,
		HSCode:        p.HSCode,
		OriginCountry: p.OriginCountry,
		CategoryIDs:   categoryIDs,
		CreatedAt:     p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if p.ParentID != nil {
		res.ParentID = p.ParentID.String()
	}
	return res
}
