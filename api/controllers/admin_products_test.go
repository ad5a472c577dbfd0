package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	catalogsvc "github.com/lromeroa/grocerly-backend/internal/catalog"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
)

type stubCatalogService struct {
	products  []catalogsvc.ProductDTO
	product   *catalogsvc.ProductDTO
	result    *catalogsvc.BulkImportResult
	err       error
	gotName   string
	gotCSV    string
	gotCreate catalogsvc.CreateProductInput
}

func (s *stubCatalogService) List(ctx context.Context) ([]catalogsvc.ProductDTO, error) {
	return s.products, s.err
}

func (s *stubCatalogService) GetByName(ctx context.Context, name string) (*catalogsvc.ProductDTO, error) {
	s.gotName = name
	return s.product, s.err
}

func (s *stubCatalogService) Create(ctx context.Context, input catalogsvc.CreateProductInput) (*catalogsvc.ProductDTO, error) {
	s.gotCreate = input
	return s.product, s.err
}

func (s *stubCatalogService) Update(ctx context.Context, name string, input catalogsvc.UpdateProductInput) (*catalogsvc.ProductDTO, error) {
	s.gotName = name
	return s.product, s.err
}

func (s *stubCatalogService) BulkImportCSV(ctx context.Context, input catalogsvc.BulkImportInput) (*catalogsvc.BulkImportResult, error) {
	raw, err := io.ReadAll(input.Reader)
	if err != nil {
		return nil, err
	}
	s.gotCSV = string(raw)
	return s.result, s.err
}

func (s *stubCatalogService) HighestPriced(ctx context.Context) (*catalogsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) ListAll(ctx context.Context) ([]catalogsvc.ProductDTO, error) {
	return s.products, s.err
}

func TestAdminProductCreate(t *testing.T) {
	svc := &stubCatalogService{product: &catalogsvc.ProductDTO{Name: "bananas", PriceCents: 120, Price: "1.20"}}
	handler := AdminProductCreate(svc, nil)

	body := strings.NewReader(`{"name":"bananas","company":"Fresh Farms","price_cents":120,"quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", body)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotCreate.Name != "bananas" || svc.gotCreate.PriceCents != 120 {
		t.Fatalf("service received %+v", svc.gotCreate)
	}
}

func TestAdminProductCreateDuplicateName(t *testing.T) {
	svc := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeConflict, "product name already exists")}
	handler := AdminProductCreate(svc, nil)

	body := strings.NewReader(`{"name":"bananas","company":"Fresh Farms","price_cents":120,"quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", body)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdminProductUpdateByName(t *testing.T) {
	svc := &stubCatalogService{product: &catalogsvc.ProductDTO{Name: "oat milk"}}
	handler := AdminProductUpdate(svc, nil)

	req := newRouteRequest(http.MethodPatch, "/api/admin/v1/products/oat%20milk", "/api/admin/v1/products/{name}", `{"price_cents":450}`)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotName != "oat milk" {
		t.Fatalf("service received name %q", svc.gotName)
	}
}

func TestAdminProductBulkImportMultipart(t *testing.T) {
	csvPayload := "name,company,price,quantity\nbananas,Fresh Farms,1.20,10\n"
	svc := &stubCatalogService{result: &catalogsvc.BulkImportResult{Imported: 1}}
	handler := AdminProductBulkImport(svc, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "products.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csvPayload)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotCSV != csvPayload {
		t.Fatalf("service received csv %q", svc.gotCSV)
	}

	var envelope struct {
		Data catalogsvc.BulkImportResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Imported != 1 {
		t.Fatalf("unexpected imported count %d", envelope.Data.Imported)
	}
}

func TestAdminProductBulkImportRawBody(t *testing.T) {
	csvPayload := "name,company,price,quantity\nbananas,Fresh Farms,1.20,10\n"
	svc := &stubCatalogService{result: &catalogsvc.BulkImportResult{Imported: 1}}
	handler := AdminProductBulkImport(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products/import", strings.NewReader(csvPayload))
	req.Header.Set("Content-Type", "text/csv")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotCSV != csvPayload {
		t.Fatalf("service received csv %q", svc.gotCSV)
	}
}

func TestCatalogGetNotFound(t *testing.T) {
	svc := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := CatalogGet(svc, nil)

	req := newRouteRequest(http.MethodGet, "/api/v1/catalog/saffron", "/api/v1/catalog/{name}", "")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCatalogListSuccess(t *testing.T) {
	svc := &stubCatalogService{products: []catalogsvc.ProductDTO{
		{Name: "apples", Price: "0.80"},
		{Name: "bananas", Price: "1.20"},
	}}
	handler := CatalogList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []catalogsvc.ProductDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].Name != "apples" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}
