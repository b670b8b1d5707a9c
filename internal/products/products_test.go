package products

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tenant_service/internal/lib/logger/handlers/slogdiscard"
	"tenant_service/internal/models"
	"tenant_service/internal/storage"
)

// memRepo keys products by id and enforces tenant ownership on every call.
type memRepo struct {
	nextID   int64
	products map[int64]models.Product
	lastPage models.PageRequest
}

func newMemRepo() *memRepo {
	return &memRepo{products: make(map[int64]models.Product)}
}

func (r *memRepo) CreateProduct(_ context.Context, p models.Product) (models.Product, error) {
	for _, existing := range r.products {
		if existing.TenantID == p.TenantID && existing.SKU == p.SKU {
			return models.Product{}, storage.ErrSKUExists
		}
	}
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p, nil
}

func (r *memRepo) ProductByID(_ context.Context, tenantID string, id int64) (models.Product, error) {
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return models.Product{}, storage.ErrProductNotFound
	}
	return p, nil
}

func (r *memRepo) ListProducts(_ context.Context, tenantID string, req models.PageRequest) (models.Page[models.Product], error) {
	r.lastPage = req

	page := models.Page[models.Product]{Page: req.Page, Size: req.Size, Content: []models.Product{}}
	for _, p := range r.products {
		if p.TenantID == tenantID {
			page.Content = append(page.Content, p)
		}
	}
	sort.Slice(page.Content, func(i, j int) bool { return page.Content[i].ID < page.Content[j].ID })
	page.TotalElements = int64(len(page.Content))
	return page, nil
}

func (r *memRepo) UpdateProduct(_ context.Context, p models.Product) (models.Product, error) {
	existing, ok := r.products[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return models.Product{}, storage.ErrProductNotFound
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *memRepo) DeleteProduct(_ context.Context, tenantID string, id int64) error {
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return storage.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Product(ctx context.Context, tenantID string, id int64) (models.Product, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *mockCache) SetProduct(ctx context.Context, p models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockCache) InvalidateProduct(ctx context.Context, tenantID string, id int64) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func ptr[T any](v T) *T { return &v }

func phone() models.Product {
	return models.Product{Name: "phone", SKU: "SKU-1", Category: "mobile", Price: "199.99"}
}

func TestTenantIsolation(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	svc := New(slogdiscard.NewDiscardLogger(), repo, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, "tenant-a", phone())
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", p.TenantID)
	assert.NotNil(t, p.Features)

	_, err = svc.Get(ctx, "tenant-b", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "tenant-b", p.ID, models.ProductPatch{Name: ptr("stolen")})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "tenant-b", p.ID), ErrNotFound)

	page, err := svc.List(ctx, "tenant-b", models.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Content)

	got, err := svc.Get(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "phone", got.Name)
}

func TestNoTenantRejected(t *testing.T) {
	t.Parallel()

	svc := New(slogdiscard.NewDiscardLogger(), newMemRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "", phone())
	assert.ErrorIs(t, err, ErrNoTenant)
	_, err = svc.Get(ctx, "", 1)
	assert.ErrorIs(t, err, ErrNoTenant)
	_, err = svc.List(ctx, "", models.PageRequest{})
	assert.ErrorIs(t, err, ErrNoTenant)
	_, err = svc.Update(ctx, "", 1, models.ProductPatch{})
	assert.ErrorIs(t, err, ErrNoTenant)
	assert.ErrorIs(t, svc.Delete(ctx, "", 1), ErrNoTenant)
}

func TestCreate_DuplicateSKU(t *testing.T) {
	t.Parallel()

	svc := New(slogdiscard.NewDiscardLogger(), newMemRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "tenant-a", phone())
	require.NoError(t, err)

	_, err = svc.Create(ctx, "tenant-a", phone())
	assert.ErrorIs(t, err, ErrDuplicateSKU)

	_, err = svc.Create(ctx, "tenant-b", phone())
	assert.NoError(t, err)
}

func TestUpdate_PartialPatch(t *testing.T) {
	t.Parallel()

	svc := New(slogdiscard.NewDiscardLogger(), newMemRepo(), nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, "tenant-a", phone())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "tenant-a", p.ID, models.ProductPatch{
		Price:    ptr("149.00"),
		Features: map[string]string{"ram": "12GB"},
	})
	require.NoError(t, err)

	assert.Equal(t, "phone", updated.Name)
	assert.Equal(t, "SKU-1", updated.SKU)
	assert.Equal(t, "149.00", updated.Price)
	assert.Equal(t, "12GB", updated.Features["ram"])
}

func TestList_NormalizesPage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   models.PageRequest
		want models.PageRequest
	}{
		{models.PageRequest{}, models.PageRequest{Page: 0, Size: 20, SortBy: "createdAt", SortDir: "DESC"}},
		{models.PageRequest{Page: -3, Size: 500, SortBy: "name", SortDir: "asc"}, models.PageRequest{Page: 0, Size: 100, SortBy: "name", SortDir: "ASC"}},
		{models.PageRequest{Page: 2, Size: 5, SortDir: "sideways"}, models.PageRequest{Page: 2, Size: 5, SortBy: "createdAt", SortDir: "DESC"}},
		{models.PageRequest{Page: 5000000, Size: 100}, models.PageRequest{Page: MaxPage, Size: 100, SortBy: "createdAt", SortDir: "DESC"}},
	}

	for _, tc := range cases {
		repo := newMemRepo()
		svc := New(slogdiscard.NewDiscardLogger(), repo, nil)

		_, err := svc.List(context.Background(), "tenant-a", tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, repo.lastPage)
	}
}

func TestGet_UsesCache(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	cache := &mockCache{}
	svc := New(slogdiscard.NewDiscardLogger(), repo, cache)
	ctx := context.Background()

	p, err := repo.CreateProduct(ctx, models.Product{TenantID: "tenant-a", Name: "phone", SKU: "S"})
	require.NoError(t, err)

	cache.On("Product", ctx, "tenant-a", p.ID).Return(models.Product{}, storage.ErrCacheMiss).Once()
	cache.On("SetProduct", ctx, p).Return(nil).Once()

	got, err := svc.Get(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	cache.On("Product", ctx, "tenant-a", p.ID).Return(p, nil).Once()

	got, err = svc.Get(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	cache.On("InvalidateProduct", ctx, "tenant-a", p.ID).Return(errors.New("redis down")).Once()
	require.NoError(t, svc.Delete(ctx, "tenant-a", p.ID))

	cache.AssertExpectations(t)
}

func TestRepositoryFailureWrapped(t *testing.T) {
	t.Parallel()

	svc := New(slogdiscard.NewDiscardLogger(), &failingRepo{}, nil)

	_, err := svc.Get(context.Background(), "tenant-a", 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "products.Get")
}

type failingRepo struct{ memRepo }

func (failingRepo) ProductByID(context.Context, string, int64) (models.Product, error) {
	return models.Product{}, errors.New("db down")
}
