package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/modules/identity"
)

// ErrPermissionDenied is returned when a non-admin actor attempts a catalog
// mutation.
var ErrPermissionDenied = errors.New("catalog: permission denied")

// ErrProductNotFound is returned when a mutation names a missing product.
var ErrProductNotFound = errors.New("catalog: product not found")

// DefaultLowStockThreshold flags products running out.
const DefaultLowStockThreshold = 5

// Service defines catalog business logic: product and category CRUD plus the
// derived storefront views.
type Service interface {
	CreateProduct(ctx context.Context, actor identity.Actor, req ProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, category string) ([]*Product, error)
	UpdateProduct(ctx context.Context, actor identity.Actor, id string, req ProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, actor identity.Actor, id string) error

	// Derived views.
	PopularProducts(ctx context.Context) ([]*Product, error)
	FeaturedProducts(ctx context.Context) ([]*Product, error)
	LowStockProducts(ctx context.Context, threshold int) ([]*Product, error)
	SearchProducts(ctx context.Context, query string) ([]*Product, error)

	// DecrementStock lowers a product's stock by qty, clamped at zero.
	// Only the order lifecycle calls this, on delivery.
	DecrementStock(ctx context.Context, productID string, qty int) error

	CreateCategory(ctx context.Context, actor identity.Actor, req CategoryRequest) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	DeleteCategory(ctx context.Context, actor identity.Actor, id string) error
}

// ProductRequest holds the data for creating or updating a product.
type ProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Popular     bool     `json:"popular"`
	Featured    bool     `json:"featured"`
	ImageURL    string   `json:"imageUrl"`
	Images      []string `json:"images"`
}

// CategoryRequest holds the data for creating a category.
type CategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type service struct {
	repo Repository
	log  *logrus.Entry
}

// NewService creates a new catalog service.
func NewService(repo Repository, log *logrus.Entry) Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &service{repo: repo, log: log}
}

func (s *service) CreateProduct(ctx context.Context, actor identity.Actor, req ProductRequest) (*Product, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if req.Name == "" {
		return nil, fmt.Errorf("catalog: product name is required")
	}
	if req.Price < 0 || req.Stock < 0 {
		return nil, fmt.Errorf("catalog: price and stock must not be negative")
	}
	now := time.Now()
	p := &Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Popular:     req.Popular,
		Featured:    req.Featured,
		ImageURL:    req.ImageURL,
		Images:      req.Images,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

func (s *service) ListProducts(ctx context.Context, category string) ([]*Product, error) {
	if category != "" {
		return s.repo.ListProductsByCategory(ctx, category)
	}
	return s.repo.ListProducts(ctx)
}

func (s *service) UpdateProduct(ctx context.Context, actor identity.Actor, id string, req ProductRequest) (*Product, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if req.Price < 0 || req.Stock < 0 {
		return nil, fmt.Errorf("catalog: price and stock must not be negative")
	}
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Stock = req.Stock
	p.Category = req.Category
	p.Popular = req.Popular
	p.Featured = req.Featured
	p.ImageURL = req.ImageURL
	p.Images = req.Images
	p.UpdatedAt = time.Now()
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, actor identity.Actor, id string) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *service) PopularProducts(ctx context.Context) ([]*Product, error) {
	return s.filterProducts(ctx, func(p *Product) bool { return p.Popular && p.IsActive })
}

func (s *service) FeaturedProducts(ctx context.Context) ([]*Product, error) {
	return s.filterProducts(ctx, func(p *Product) bool { return p.Featured && p.IsActive })
}

func (s *service) LowStockProducts(ctx context.Context, threshold int) ([]*Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return s.filterProducts(ctx, func(p *Product) bool { return p.Stock <= threshold })
}

func (s *service) SearchProducts(ctx context.Context, query string) ([]*Product, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	return s.filterProducts(ctx, func(p *Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	})
}

// DecrementStock clamps at zero: delivering more than is on hand empties the
// shelf rather than going negative.
func (s *service) DecrementStock(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return nil
	}
	p, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProductNotFound
	}
	remaining := p.Stock - qty
	if remaining < 0 {
		s.log.WithFields(logrus.Fields{
			"op": "decrementStock", "productId": productID,
			"stock": p.Stock, "qty": qty,
		}).Warn("delivery quantity exceeds stock, clamping at zero")
		remaining = 0
	}
	p.Stock = remaining
	p.UpdatedAt = time.Now()
	return s.repo.UpdateProduct(ctx, p)
}

func (s *service) CreateCategory(ctx context.Context, actor identity.Actor, req CategoryRequest) (*Category, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if req.Name == "" {
		return nil, fmt.Errorf("catalog: category name is required")
	}
	slug := req.Slug
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(req.Name, " ", "-"))
	}
	now := time.Now()
	c := &Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) DeleteCategory(ctx context.Context, actor identity.Actor, id string) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}
	return s.repo.DeleteCategory(ctx, id)
}

func (s *service) filterProducts(ctx context.Context, keep func(*Product) bool) ([]*Product, error) {
	all, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Product
	for _, p := range all {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}
