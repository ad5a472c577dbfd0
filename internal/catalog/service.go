package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/db"
	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
	"github.com/lromeroa/grocerly-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CatalogRepository abstracts the persistence surface the service needs.
type CatalogRepository interface {
	WithTx(tx *gorm.DB) CatalogRepository
	ListAvailable(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateFields(ctx context.Context, productID uuid.UUID, fields map[string]any) error
	HighestPriced(ctx context.Context) (*models.Product, error)
}

// ProductDTO is the catalog read model.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Company     string    `json:"company"`
	Tags        []string  `json:"tags,omitempty"`
	PriceCents  int       `json:"price_cents"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	Reserved    int       `json:"reserved"`
	ImagePath   *string   `json:"image_path,omitempty"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description *string
	Company     string
	Tags        []string
	PriceCents  int
	Quantity    int
	ImagePath   *string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Description *string
	Company     *string
	Tags        *[]string
	PriceCents  *int
	Quantity    *int
	ImagePath   *string
}

// Service exposes catalog browsing and back office product management.
type Service interface {
	List(ctx context.Context) ([]ProductDTO, error)
	GetByName(ctx context.Context, name string) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, name string, input UpdateProductInput) (*ProductDTO, error)
	BulkImportCSV(ctx context.Context, input BulkImportInput) (*BulkImportResult, error)
	HighestPriced(ctx context.Context) (*ProductDTO, error)
	ListAll(ctx context.Context) ([]ProductDTO, error)
}

type service struct {
	repo CatalogRepository
	tx   txRunner
}

// NewService builds a catalog service backed by the provided stack.
func NewService(repo CatalogRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// List returns products customers can buy right now.
func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	return toDTOs(rows), nil
}

// GetByName returns a single product by its unique name.
func (s *service) GetByName(ctx context.Context, name string) (*ProductDTO, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	product, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := toDTO(*product)
	return &dto, nil
}

// Create inserts a new catalog listing.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Company:     strings.TrimSpace(input.Company),
		Tags:        pq.StringArray(input.Tags),
		PriceCents:  input.PriceCents,
		Quantity:    input.Quantity,
		ImagePath:   input.ImagePath,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	dto := toDTO(*created)
	return &dto, nil
}

// Update applies a partial mutation to the product identified by name.
func (s *service) Update(ctx context.Context, name string, input UpdateProductInput) (*ProductDTO, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}

	var dto ProductDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		fields := map[string]any{}
		if input.Description != nil {
			fields["description"] = *input.Description
			product.Description = input.Description
		}
		if input.Company != nil {
			if strings.TrimSpace(*input.Company) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "company cannot be empty")
			}
			fields["company_name"] = *input.Company
			product.Company = *input.Company
		}
		if input.Tags != nil {
			fields["tags"] = pq.StringArray(*input.Tags)
			product.Tags = pq.StringArray(*input.Tags)
		}
		if input.PriceCents != nil {
			if *input.PriceCents < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
			}
			fields["price_cents"] = *input.PriceCents
			product.PriceCents = *input.PriceCents
		}
		if input.Quantity != nil {
			if *input.Quantity < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
			}
			fields["quantity"] = *input.Quantity
			product.Quantity = *input.Quantity
		}
		if input.ImagePath != nil {
			fields["image_path"] = *input.ImagePath
			product.ImagePath = input.ImagePath
		}

		if err := repo.UpdateFields(ctx, product.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}

		dto = toDTO(*product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// HighestPriced returns the most expensive listing.
func (s *service) HighestPriced(ctx context.Context) (*ProductDTO, error) {
	product, err := s.repo.HighestPriced(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := toDTO(*product)
	return &dto, nil
}

// ListAll returns every listing including out-of-stock products.
func (s *service) ListAll(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return toDTOs(rows), nil
}

func validateCreateInput(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Company) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "company is required")
	}
	if input.PriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	return nil
}

func toDTO(product models.Product) ProductDTO {
	return ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Company:     product.Company,
		Tags:        product.Tags,
		PriceCents:  product.PriceCents,
		Price:       types.FormatCents(int64(product.PriceCents)),
		Quantity:    product.Quantity,
		Reserved:    product.Reserved,
		ImagePath:   product.ImagePath,
	}
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out
}
