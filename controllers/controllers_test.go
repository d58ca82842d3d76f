package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkfinity/backend/controllers"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/services"
	"github.com/inkfinity/backend/trending"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock services ---

type mockProductService struct {
	getFn    func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	listFn   func(ctx context.Context, f models.ProductFilter) ([]models.Product, services.PageMeta, error)
	createFn func(ctx context.Context, in models.ProductInput, files []*multipart.FileHeader) (*models.Product, error)
	updateFn func(ctx context.Context, id uuid.UUID, in models.ProductInput, files []*multipart.FileHeader, remove []string) (*models.Product, error)
}

func (m *mockProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return m.getFn(ctx, id)
}
func (m *mockProductService) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, services.PageMeta, error) {
	return m.listFn(ctx, f)
}
func (m *mockProductService) ListTrending(context.Context) ([]models.Product, error) {
	return []models.Product{}, nil
}
func (m *mockProductService) CreateProduct(ctx context.Context, in models.ProductInput, files []*multipart.FileHeader) (*models.Product, error) {
	return m.createFn(ctx, in, files)
}
func (m *mockProductService) UpdateProduct(ctx context.Context, id uuid.UUID, in models.ProductInput, files []*multipart.FileHeader, remove []string) (*models.Product, error) {
	return m.updateFn(ctx, id, in, files, remove)
}
func (m *mockProductService) DeleteProduct(context.Context, uuid.UUID) error { return nil }

type mockCategoryService struct {
	createFn func(ctx context.Context, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error)
	updateFn func(ctx context.Context, id uuid.UUID, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error)
}

func (m *mockCategoryService) ListCategories(context.Context) ([]models.Category, error) {
	return []models.Category{}, nil
}
func (m *mockCategoryService) GetCategory(context.Context, uuid.UUID) (*models.Category, error) {
	return nil, repository.ErrNotFound
}
func (m *mockCategoryService) GetCategoryBySlug(context.Context, string) (*models.Category, error) {
	return nil, repository.ErrNotFound
}
func (m *mockCategoryService) CreateCategory(ctx context.Context, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error) {
	return m.createFn(ctx, in, image)
}
func (m *mockCategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error) {
	return m.updateFn(ctx, id, in, image)
}
func (m *mockCategoryService) DeleteCategory(context.Context, uuid.UUID) error { return nil }

type mockInquiryService struct {
	submitted []models.ContactRequest
}

func (m *mockInquiryService) Submit(_ context.Context, req models.ContactRequest) (*models.Inquiry, error) {
	m.submitted = append(m.submitted, req)
	return &models.Inquiry{ID: uuid.New(), Name: req.Name}, nil
}
func (m *mockInquiryService) ListInquiries(context.Context, models.InquiryFilter) ([]models.Inquiry, services.PageMeta, error) {
	return nil, services.PageMeta{}, nil
}
func (m *mockInquiryService) GetInquiry(context.Context, uuid.UUID) (*models.Inquiry, error) {
	return nil, repository.ErrNotFound
}
func (m *mockInquiryService) SetRead(context.Context, uuid.UUID, bool) (*models.Inquiry, error) {
	return nil, repository.ErrNotFound
}
func (m *mockInquiryService) DeleteInquiry(context.Context, uuid.UUID) error { return nil }
func (m *mockInquiryService) UnreadCount(context.Context) (int64, error)     { return 4, nil }

type mockTrendingService struct {
	replaceFn func(ctx context.Context, ids []uuid.UUID) (trending.Snapshot, error)
	moves     []int
}

func (m *mockTrendingService) Snapshot(_ context.Context, filter string, refresh bool) (trending.Snapshot, error) {
	return trending.Snapshot{State: trending.StateIdle, Error: filter}, nil
}
func (m *mockTrendingService) Toggle(context.Context, uuid.UUID) (trending.Snapshot, error) {
	return trending.Snapshot{}, trending.ErrUnknownProduct
}
func (m *mockTrendingService) MoveUp(_ context.Context, i int) (trending.Snapshot, error) {
	m.moves = append(m.moves, -i)
	return trending.Snapshot{}, nil
}
func (m *mockTrendingService) MoveDown(_ context.Context, i int) (trending.Snapshot, error) {
	m.moves = append(m.moves, i)
	return trending.Snapshot{}, nil
}
func (m *mockTrendingService) Save(context.Context) (trending.Snapshot, error) {
	return trending.Snapshot{State: trending.StateIdle}, nil
}
func (m *mockTrendingService) Replace(ctx context.Context, ids []uuid.UUID) (trending.Snapshot, error) {
	return m.replaceFn(ctx, ids)
}

// --- Helpers ---

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func multipartBody(t *testing.T, fields map[string]string, fileName, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	return multipartFileBody(t, fields, "images", fileName, contentType)
}

// multipartFileBody writes fields plus, when fileName is set, one file part
// under fileField.
func multipartFileBody(t *testing.T, fields map[string]string, fileField, fileName, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func productRouter(svc controllers.ProductServiceAPI) *gin.Engine {
	r := gin.New()
	pc := controllers.NewProductController(svc, nil, zap.NewNop())
	r.GET("/products", pc.ListProducts)
	r.GET("/products/:id", pc.GetProduct)
	r.POST("/admin/products", pc.CreateProduct)
	r.PUT("/admin/products/:id", pc.UpdateProduct)
	return r
}

// --- Tests ---

func TestListProducts_ParsesQuery(t *testing.T) {
	catID := uuid.New()
	var got models.ProductFilter
	svc := &mockProductService{listFn: func(_ context.Context, f models.ProductFilter) ([]models.Product, services.PageMeta, error) {
		got = f
		return []models.Product{{Name: "Polo"}}, services.NewPageMeta(f.Page, f.PerPage, 1), nil
	}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?page=2&perPage=500&search=+polo+&categoryId="+catID.String(), nil)
	productRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, services.MaxPerPage, got.PerPage)
	assert.Equal(t, "polo", got.Search)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, catID, *got.CategoryID)

	body := decode(t, w)
	assert.Len(t, body["products"], 1)
	assert.Equal(t, float64(1), body["meta"].(map[string]interface{})["totalPages"])
}

func TestListProducts_BadCategoryID(t *testing.T) {
	w := httptest.NewRecorder()
	productRouter(&mockProductService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products?categoryId=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be a UUID", decode(t, w)["fields"].(map[string]interface{})["category_id"])
}

func TestGetProduct_StatusMapping(t *testing.T) {
	svc := &mockProductService{getFn: func(context.Context, uuid.UUID) (*models.Product, error) {
		return nil, repository.ErrNotFound
	}}
	r := productRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProduct_Multipart(t *testing.T) {
	var gotIn models.ProductInput
	var gotFiles int
	svc := &mockProductService{createFn: func(_ context.Context, in models.ProductInput, files []*multipart.FileHeader) (*models.Product, error) {
		gotIn, gotFiles = in, len(files)
		return &models.Product{ID: uuid.New(), Name: in.Name}, nil
	}}

	body, ct := multipartBody(t, map[string]string{"name": " Polo ", "description": "Pique"}, "front.png", "image/png")
	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Polo", gotIn.Name)
	assert.Nil(t, gotIn.CategoryID)
	assert.Equal(t, 1, gotFiles)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := &mockProductService{createFn: func(context.Context, models.ProductInput, []*multipart.FileHeader) (*models.Product, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	r := productRouter(svc)

	body, ct := multipartBody(t, map[string]string{"description": "no name"}, "", "")
	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "is required", decode(t, w)["fields"].(map[string]interface{})["name"])

	body, ct = multipartBody(t, map[string]string{"name": "Polo"}, "notes.pdf", "application/pdf")
	req = httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "notes.pdf")
}

func TestUpdateProduct_ImagesToRemove(t *testing.T) {
	var gotRemove []string
	svc := &mockProductService{updateFn: func(_ context.Context, _ uuid.UUID, _ models.ProductInput, _ []*multipart.FileHeader, remove []string) (*models.Product, error) {
		gotRemove = remove
		return &models.Product{}, nil
	}}

	body, ct := multipartBody(t, map[string]string{
		"name":           "Polo",
		"imagesToRemove": `["https://cdn/a.jpg","https://cdn/b.jpg"]`,
	}, "", "")
	req := httptest.NewRequest(http.MethodPut, "/admin/products/"+uuid.NewString(), body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, gotRemove)
}

func TestCreateProduct_KeepsImageURLsNextToUploads(t *testing.T) {
	var gotIn models.ProductInput
	var gotFiles []*multipart.FileHeader
	svc := &mockProductService{createFn: func(_ context.Context, in models.ProductInput, files []*multipart.FileHeader) (*models.Product, error) {
		gotIn, gotFiles = in, files
		return &models.Product{ID: uuid.New()}, nil
	}}

	body, ct := multipartBody(t, map[string]string{
		"name":   "Polo",
		"images": `["https://cdn/kept.jpg"]`,
	}, "back.jpg", "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{"https://cdn/kept.jpg"}, gotIn.Images)
	require.Len(t, gotFiles, 1)
	assert.Equal(t, "back.jpg", gotFiles[0].Filename)
}

func categoryRouter(svc controllers.CategoryServiceAPI) *gin.Engine {
	r := gin.New()
	cc := controllers.NewCategoryController(svc, nil, zap.NewNop())
	r.POST("/admin/categories", cc.CreateCategory)
	r.PUT("/admin/categories/:id", cc.UpdateCategory)
	return r
}

func TestCreateCategory_WithImageFile(t *testing.T) {
	var gotIn models.CategoryInput
	var gotImage *multipart.FileHeader
	svc := &mockCategoryService{createFn: func(_ context.Context, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error) {
		gotIn, gotImage = in, image
		return &models.Category{ID: uuid.New(), Name: in.Name}, nil
	}}

	body, ct := multipartFileBody(t, map[string]string{"name": "Hoodies"}, "image", "hoodie.webp", "image/webp")
	req := httptest.NewRequest(http.MethodPost, "/admin/categories", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	categoryRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Hoodies", gotIn.Name)
	assert.Empty(t, gotIn.Image)
	require.NotNil(t, gotImage)
	assert.Equal(t, "hoodie.webp", gotImage.Filename)
}

func TestUpdateCategory_ImageFileAndURL(t *testing.T) {
	id := uuid.New()
	var gotID uuid.UUID
	var gotIn models.CategoryInput
	var gotImage *multipart.FileHeader
	svc := &mockCategoryService{updateFn: func(_ context.Context, catID uuid.UUID, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error) {
		gotID, gotIn, gotImage = catID, in, image
		return &models.Category{ID: catID, Name: in.Name}, nil
	}}
	r := categoryRouter(svc)

	body, ct := multipartFileBody(t, map[string]string{"name": "Caps"}, "image", "cap.png", "image/png")
	req := httptest.NewRequest(http.MethodPut, "/admin/categories/"+id.String(), body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, id, gotID)
	require.NotNil(t, gotImage)
	assert.Equal(t, "cap.png", gotImage.Filename)

	// Text value under the same key keeps an existing URL.
	body, ct = multipartFileBody(t, map[string]string{"name": "Caps", "image": "https://cdn/caps.jpg"}, "", "", "")
	req = httptest.NewRequest(http.MethodPut, "/admin/categories/"+id.String(), body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://cdn/caps.jpg", gotIn.Image)
	assert.Nil(t, gotImage)

	body, ct = multipartFileBody(t, map[string]string{"name": "Caps"}, "image", "caps.pdf", "application/pdf")
	req = httptest.NewRequest(http.MethodPut, "/admin/categories/"+id.String(), body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContact_ValidatesEmail(t *testing.T) {
	svc := &mockInquiryService{}
	ic := controllers.NewInquiryController(svc, zap.NewNop())
	r := gin.New()
	r.POST("/contact", ic.Submit)
	r.GET("/unread", ic.UnreadCount)

	tests := []struct {
		name  string
		body  string
		code  int
		field string
	}{
		{"valid", `{"name":"Ada","email":"ada@example.com","message":"Hi"}`, http.StatusCreated, ""},
		{"no dot in domain", `{"name":"Ada","email":"ada@example","message":"Hi"}`, http.StatusBadRequest, "email"},
		{"space in email", `{"name":"Ada","email":"a da@example.com","message":"Hi"}`, http.StatusBadRequest, "email"},
		{"missing message", `{"name":"Ada","email":"ada@example.com"}`, http.StatusBadRequest, "message"},
		{"missing name", `{"email":"ada@example.com","message":"Hi"}`, http.StatusBadRequest, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.field != "" {
				assert.Contains(t, decode(t, w)["fields"], tt.field)
			}
		})
	}
	assert.Len(t, svc.submitted, 1)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unread", nil))
	assert.Equal(t, float64(4), decode(t, w)["unread"])
}

func trendingRouter(svc controllers.TrendingServiceAPI) *gin.Engine {
	r := gin.New()
	tc := controllers.NewTrendingController(svc, zap.NewNop())
	r.GET("/admin/trending", tc.Get)
	r.PUT("/admin/trending", tc.Replace)
	r.POST("/admin/trending/toggle/:id", tc.Toggle)
	r.POST("/admin/trending/move-up/:index", tc.MoveUp)
	r.POST("/admin/trending/move-down/:index", tc.MoveDown)
	return r
}

func TestTrending_ReplaceReportsPartialSave(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	svc := &mockTrendingService{replaceFn: func(_ context.Context, got []uuid.UUID) (trending.Snapshot, error) {
		assert.Equal(t, ids, got)
		return trending.Snapshot{State: trending.StateError}, &trending.SaveError{
			Phase: trending.PhaseSet, Index: 1, ProductID: ids[1], Err: errors.New("network error"),
		}
	}}

	payload, _ := json.Marshal(map[string]interface{}{"product_ids": ids})
	req := httptest.NewRequest(http.MethodPut, "/admin/trending", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	trendingRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "set", body["phase"])
	assert.Equal(t, float64(1), body["written"])
	assert.Equal(t, "error", body["session"].(map[string]interface{})["state"])
}

func TestTrending_BadRequests(t *testing.T) {
	svc := &mockTrendingService{}
	r := trendingRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/trending/toggle/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown product")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/trending/move-up/x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/trending", strings.NewReader(`{"product_ids":["not-a-uuid"]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/trending/move-down/2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{2}, svc.moves)
}

func TestCacheManager_NilClientNeverHits(t *testing.T) {
	cm := controllers.NewCacheManager(nil, zap.NewNop(), nil)
	var dst []models.Product
	version, hit := cm.GetCatalog(context.Background(), "anything", &dst)
	assert.False(t, hit)
	assert.Zero(t, version)
	cm.SetCatalogAsync(version, "anything", dst)
	cm.InvalidateProducts(context.Background())
	_, ok := cm.GetSettings(context.Background())
	assert.False(t, ok)

	var nilManager *controllers.CacheManager
	_, hit = nilManager.GetCatalog(context.Background(), "anything", &dst)
	assert.False(t, hit)
}
