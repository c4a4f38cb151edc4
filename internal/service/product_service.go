package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductService defines the business logic contract for the product catalog.
type ProductService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, actor Actor, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error
	AddStock(ctx context.Context, actor Actor, id uuid.UUID, req dto.StockAdjustmentRequest) (*dto.ProductResponse, error)
	RemoveStock(ctx context.Context, actor Actor, id uuid.UUID, req dto.StockAdjustmentRequest) (*dto.ProductResponse, error)
	StockHistory(ctx context.Context, actor Actor, id uuid.UUID, filter dto.StockHistoryFilter) (*dto.StockHistoryResponse, error)
	LowStock(ctx context.Context, actor Actor) ([]dto.ProductResponse, error)
	TopSelling(ctx context.Context, actor Actor, limit int) ([]dto.ProductResponse, error)
}

type productService struct {
	tx      repository.TxManager
	repo    repository.ProductRepository
	history repository.StockHistoryRepository
	now     func() time.Time
}

func NewProductService(tx repository.TxManager, repo repository.ProductRepository, history repository.StockHistoryRepository) ProductService {
	return &productService{
		tx:      tx,
		repo:    repo,
		history: history,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

const defaultMinStockLevel = 10

func (s *productService) Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if strings.TrimSpace(req.ProductCode) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, validationf("product_code and name are required")
	}
	if req.Quantity < 0 {
		return nil, validationf("quantity must not be negative")
	}
	if req.UnitPrice.IsNegative() || req.CostPrice.IsNegative() || req.WholesalePrice.IsNegative() {
		return nil, validationf("prices must not be negative")
	}
	if !isCents(req.UnitPrice) || !isCents(req.CostPrice) || !isCents(req.WholesalePrice) {
		return nil, validationf("prices allow at most 2 decimal places")
	}

	now := s.now()
	p := &model.Product{
		ID:             uuid.New(),
		OwnerID:        actor.OwnerID,
		ProductCode:    strings.TrimSpace(req.ProductCode),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Category:       req.Category,
		SaleType:       orDefault(req.SaleType, "unit"),
		UnitPrice:      req.UnitPrice,
		CostPrice:      req.CostPrice,
		WholesalePrice: req.WholesalePrice,
		Currency:       strings.ToUpper(orDefault(req.Currency, "NGN")),
		Quantity:       req.Quantity,
		MinStockLevel:  defaultMinStockLevel,
		SKU:            req.SKU,
		Barcode:        req.Barcode,
		Unit:           orDefault(req.Unit, "piece"),
		IsActive:       true,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.MinStockLevel != nil {
		p.MinStockLevel = *req.MinStockLevel
	}
	p.RefreshStatus()

	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return err
		}
		if p.Quantity == 0 {
			return nil
		}
		return s.history.CreateTx(tx, &model.StockEntry{
			ID:               uuid.New(),
			ProductID:        p.ID,
			Type:             model.StockAdded,
			Quantity:         p.Quantity,
			PreviousQuantity: 0,
			NewQuantity:      p.Quantity,
			Reason:           "Initial stock",
			PerformedBy:      actor.UserID,
			CreatedAt:        now,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: product code %q already exists", ErrConflict, p.ProductCode)
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, actor.OwnerID, id)
	if err != nil {
		return nil, translateRepoErr(err, "product")
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, actor Actor, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, actor.OwnerID, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ProductListResponse{
		Data:       productsToResponse(products),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

func (s *productService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var p *model.Product
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.LockTx(tx, actor.OwnerID, id)
		if err != nil {
			return err
		}
		if err := applyProductUpdate(p, req); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		p.RefreshStatus()
		return s.repo.UpdateTx(tx, p)
	})
	if err != nil {
		return nil, translateRepoErr(err, "product")
	}
	return productToResponse(p), nil
}

func applyProductUpdate(p *model.Product, req dto.UpdateProductRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return validationf("name must not be empty")
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.SaleType != nil {
		p.SaleType = *req.SaleType
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return validationf("unit_price must not be negative")
		}
		if !isCents(*req.UnitPrice) {
			return validationf("unit_price allows at most 2 decimal places")
		}
		p.UnitPrice = *req.UnitPrice
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return validationf("cost_price must not be negative")
		}
		if !isCents(*req.CostPrice) {
			return validationf("cost_price allows at most 2 decimal places")
		}
		p.CostPrice = *req.CostPrice
	}
	if req.WholesalePrice != nil {
		if req.WholesalePrice.IsNegative() {
			return validationf("wholesale_price must not be negative")
		}
		if !isCents(*req.WholesalePrice) {
			return validationf("wholesale_price allows at most 2 decimal places")
		}
		p.WholesalePrice = *req.WholesalePrice
	}
	if req.Currency != nil {
		p.Currency = strings.ToUpper(*req.Currency)
	}
	if req.MinStockLevel != nil {
		if *req.MinStockLevel < 0 {
			return validationf("min_stock_level must not be negative")
		}
		p.MinStockLevel = *req.MinStockLevel
	}
	if req.SKU != nil {
		p.SKU = req.SKU
	}
	if req.Barcode != nil {
		p.Barcode = req.Barcode
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.Notes != nil {
		p.Notes = req.Notes
	}
	return nil
}

func (s *productService) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, actor.OwnerID, id); err != nil {
		return translateRepoErr(err, "product")
	}
	log.Info().Str("product_id", id.String()).Msg("product: deactivated")
	return nil
}

// ── Stock primitives ──────────────────────────────────────────────────────────

func (s *productService) AddStock(ctx context.Context, actor Actor, id uuid.UUID, req dto.StockAdjustmentRequest) (*dto.ProductResponse, error) {
	if req.Quantity <= 0 {
		return nil, validationf("quantity must be greater than zero")
	}
	var p *model.Product
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.LockTx(tx, actor.OwnerID, id)
		if err != nil {
			return err
		}
		if err := s.repo.IncrementStockTx(tx, p.ID, req.Quantity); err != nil {
			return err
		}
		previous := p.Quantity
		p.Quantity += req.Quantity
		return s.recordMovement(tx, actor, p, model.StockAdded, req.Quantity, previous, orDefault(req.Reason, "Stock added"))
	})
	if err != nil {
		return nil, translateRepoErr(err, "product")
	}
	return productToResponse(p), nil
}

// RemoveStock fails with *InsufficientStockError, the same error CreateSale returns.
func (s *productService) RemoveStock(ctx context.Context, actor Actor, id uuid.UUID, req dto.StockAdjustmentRequest) (*dto.ProductResponse, error) {
	if req.Quantity <= 0 {
		return nil, validationf("quantity must be greater than zero")
	}
	var p *model.Product
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.LockTx(tx, actor.OwnerID, id)
		if err != nil {
			return err
		}
		insufficient := &InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Quantity,
			Requested:   req.Quantity,
		}
		if req.Quantity > p.Quantity {
			return insufficient
		}
		if err := s.repo.DecrementStockTx(tx, p.ID, req.Quantity); err != nil {
			if errors.Is(err, repository.ErrStockGuard) {
				return insufficient
			}
			return err
		}
		previous := p.Quantity
		p.Quantity -= req.Quantity
		return s.recordMovement(tx, actor, p, model.StockRemoved, req.Quantity, previous, orDefault(req.Reason, "Stock removed"))
	})
	if err != nil {
		return nil, translateRepoErr(err, "product")
	}
	return productToResponse(p), nil
}

// recordMovement refreshes derived product fields and appends the ledger row.
// p.Quantity must already hold the new quantity.
func (s *productService) recordMovement(tx *gorm.DB, actor Actor, p *model.Product, kind string, qty, previous int, reason string) error {
	now := s.now()
	p.UpdatedAt = now
	p.RefreshStatus()
	if err := s.repo.SaveDerivedTx(tx, p); err != nil {
		return err
	}
	return s.history.CreateTx(tx, &model.StockEntry{
		ID:               uuid.New(),
		ProductID:        p.ID,
		Type:             kind,
		Quantity:         qty,
		PreviousQuantity: previous,
		NewQuantity:      p.Quantity,
		Reason:           reason,
		PerformedBy:      actor.UserID,
		CreatedAt:        now,
	})
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *productService) StockHistory(ctx context.Context, actor Actor, id uuid.UUID, filter dto.StockHistoryFilter) (*dto.StockHistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, actor.OwnerID, id); err != nil {
		return nil, translateRepoErr(err, "product")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	entries, total, err := s.history.List(ctx, repository.StockHistoryFilter{
		ProductID: id,
		Type:      filter.Type,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	resp := &dto.StockHistoryResponse{
		ProductID: id.String(),
		Data:      make([]dto.StockEntryResponse, 0, len(entries)),
		Total:     total,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	for _, e := range entries {
		row := dto.StockEntryResponse{
			ID:               e.ID.String(),
			Type:             e.Type,
			Quantity:         e.Quantity,
			PreviousQuantity: e.PreviousQuantity,
			NewQuantity:      e.NewQuantity,
			Reason:           e.Reason,
			PerformedBy:      e.PerformedBy.String(),
			CreatedAt:        formatTime(e.CreatedAt),
		}
		if e.SaleID != nil {
			sid := e.SaleID.String()
			row.SaleID = &sid
		}
		resp.Data = append(resp.Data, row)
	}
	return resp, nil
}

func (s *productService) LowStock(ctx context.Context, actor Actor) ([]dto.ProductResponse, error) {
	products, err := s.repo.LowStock(ctx, actor.OwnerID)
	if err != nil {
		return nil, err
	}
	return productsToResponse(products), nil
}

func (s *productService) TopSelling(ctx context.Context, actor Actor, limit int) ([]dto.ProductResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	products, err := s.repo.TopSelling(ctx, actor.OwnerID, limit)
	if err != nil {
		return nil, err
	}
	return productsToResponse(products), nil
}

// ── Mapping helpers ───────────────────────────────────────────────────────────

func productsToResponse(products []model.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, *productToResponse(&products[i]))
	}
	return out
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:             p.ID.String(),
		ProductCode:    p.ProductCode,
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		SaleType:       p.SaleType,
		UnitPrice:      p.UnitPrice,
		CostPrice:      p.CostPrice,
		WholesalePrice: p.WholesalePrice,
		Currency:       p.Currency,
		Quantity:       p.Quantity,
		MinStockLevel:  p.MinStockLevel,
		TotalValue:     p.TotalValue,
		Status:         p.Status,
		SKU:            p.SKU,
		Barcode:        p.Barcode,
		Unit:           p.Unit,
		Analytics: dto.ProductAnalyticsResponse{
			TotalSold:        p.Analytics.TotalSold,
			TotalRevenue:     p.Analytics.TotalRevenue,
			AverageSalePrice: p.Analytics.AverageSalePrice,
			LastSoldAt:       formatTimePtr(p.Analytics.LastSoldAt),
			PopularityScore:  p.Analytics.PopularityScore,
		},
		IsActive:  p.IsActive,
		Notes:     p.Notes,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}
