package controllers

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/lromeroa/grocerly-backend/api/responses"
	"github.com/lromeroa/grocerly-backend/api/validators"
	catalogsvc "github.com/lromeroa/grocerly-backend/internal/catalog"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
	"github.com/lromeroa/grocerly-backend/pkg/logger"
)

const bulkImportMaxBytes = 10 << 20

type createProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description"`
	Company     string   `json:"company" validate:"required"`
	Tags        []string `json:"tags"`
	PriceCents  int      `json:"price_cents" validate:"required,gt=0"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	ImagePath   *string  `json:"image_path"`
}

type updateProductRequest struct {
	Description *string   `json:"description"`
	Company     *string   `json:"company"`
	Tags        *[]string `json:"tags"`
	PriceCents  *int      `json:"price_cents" validate:"omitempty,gt=0"`
	Quantity    *int      `json:"quantity" validate:"omitempty,gte=0"`
	ImagePath   *string   `json:"image_path"`
}

// AdminProductList returns every product, including sold out ones.
func AdminProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// AdminProductCreate adds a product to the catalog.
func AdminProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), catalogsvc.CreateProductInput{
			Name:        payload.Name,
			Description: payload.Description,
			Company:     payload.Company,
			Tags:        payload.Tags,
			PriceCents:  payload.PriceCents,
			Quantity:    payload.Quantity,
			ImagePath:   payload.ImagePath,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminProductUpdate applies partial changes to a product by name.
func AdminProductUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		name, err := productNameParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), name, catalogsvc.UpdateProductInput{
			Description: payload.Description,
			Company:     payload.Company,
			Tags:        payload.Tags,
			PriceCents:  payload.PriceCents,
			Quantity:    payload.Quantity,
			ImagePath:   payload.ImagePath,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminProductHighestPriced returns the single most expensive product.
func AdminProductHighestPriced(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		product, err := svc.HighestPriced(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminProductBulkImport ingests a CSV of products, either as a multipart
// upload under the "file" field or as a raw text/csv body.
func AdminProductBulkImport(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		reader, cleanup, err := bulkImportReader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		result, err := svc.BulkImportCSV(r.Context(), catalogsvc.BulkImportInput{Reader: reader})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func bulkImportReader(r *http.Request) (io.Reader, func(), error) {
	noop := func() {}

	mediaType := r.Header.Get("Content-Type")
	if mediaType != "" {
		if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = parsed
		}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(bulkImportMaxBytes); err != nil {
			return nil, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart payload")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "csv file field is required")
		}
		return file, func() { file.Close() }, nil
	}

	return http.MaxBytesReader(nil, r.Body, bulkImportMaxBytes), noop, nil
}
