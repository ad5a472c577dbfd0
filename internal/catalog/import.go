package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
)

// BulkImportInput wraps the uploaded CSV stream.
type BulkImportInput struct {
	Reader io.Reader
}

// RowError records a CSV row that could not be imported.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// BulkImportResult summarizes a bulk import run.
type BulkImportResult struct {
	Imported int        `json:"imported"`
	Skipped  []RowError `json:"skipped,omitempty"`
}

// Required header columns. tags and image_path are optional extras.
var requiredCSVColumns = []string{"name", "company", "price", "quantity"}

// BulkImportCSV inserts one product per CSV row. Rows that fail validation
// or collide with an existing name are reported and skipped; valid rows
// commit together.
func (s *service) BulkImportCSV(ctx context.Context, input BulkImportInput) (*BulkImportResult, error) {
	if input.Reader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv payload is required")
	}

	reader := csv.NewReader(input.Reader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "csv header is unreadable")
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredCSVColumns {
		if _, ok := columns[required]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("csv is missing %q column", required))
		}
	}

	result := &BulkImportResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line := 1

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			line++
			if err != nil {
				result.Skipped = append(result.Skipped, RowError{Line: line, Message: "malformed row"})
				continue
			}

			product, rowErr := parseProductRow(record, columns)
			if rowErr != "" {
				result.Skipped = append(result.Skipped, RowError{Line: line, Message: rowErr})
				continue
			}

			if _, err := repo.FindByName(ctx, product.Name); err == nil {
				result.Skipped = append(result.Skipped, RowError{Line: line, Message: "product name already exists"})
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product name")
			}

			if _, err := repo.Create(ctx, product); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "import product row")
			}
			result.Imported++
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parseProductRow(record []string, columns map[string]int) (*models.Product, string) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	name := field("name")
	if name == "" {
		return nil, "name is required"
	}
	company := field("company")
	if company == "" {
		return nil, "company is required"
	}

	price, err := decimal.NewFromString(field("price"))
	if err != nil || price.IsNegative() {
		return nil, "price must be a non-negative decimal"
	}
	priceCents := int(price.Mul(decimal.NewFromInt(100)).Round(0).IntPart())

	quantity, err := strconv.Atoi(field("quantity"))
	if err != nil || quantity < 0 {
		return nil, "quantity must be a non-negative integer"
	}

	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Company:    company,
		PriceCents: priceCents,
		Quantity:   quantity,
	}

	if description := field("description"); description != "" {
		product.Description = &description
	}
	if tags := field("tags"); tags != "" {
		parts := strings.Split(tags, ";")
		cleaned := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		product.Tags = pq.StringArray(cleaned)
	}
	if imagePath := field("image_path"); imagePath != "" {
		product.ImagePath = &imagePath
	}

	return product, ""
}
