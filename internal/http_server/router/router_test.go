package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tenant_service/internal/lib/crypto"
	"tenant_service/internal/lib/jwt"
	"tenant_service/internal/lib/logger/handlers/slogdiscard"
	"tenant_service/internal/models"
)

const (
	secret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	key    = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
)

var tenant = models.Identity{
	SubjectID: "5a4e7d7c-0f6a-4f3c-8d0a-7c8b9e1f2a3b",
	Email:     "a@x.com",
	Username:  "a",
	Enabled:   true,
}

type accountsMock struct {
	mock.Mock
}

func (m *accountsMock) Register(ctx context.Context, email, username, pass string) (models.Account, error) {
	args := m.Called(ctx, email, username, pass)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *accountsMock) Verify(ctx context.Context, email, code string) (models.Account, error) {
	args := m.Called(ctx, email, code)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *accountsMock) Login(ctx context.Context, email, pass string) (string, time.Duration, error) {
	args := m.Called(ctx, email, pass)
	return args.String(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *accountsMock) ResendCode(ctx context.Context, email string) (models.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.Account), args.Error(1)
}

type productsMock struct {
	mock.Mock
}

func (m *productsMock) List(ctx context.Context, tenantID string, req models.PageRequest) (models.Page[models.Product], error) {
	args := m.Called(ctx, tenantID, req)
	return args.Get(0).(models.Page[models.Product]), args.Error(1)
}

func (m *productsMock) Create(ctx context.Context, tenantID string, p models.Product) (models.Product, error) {
	args := m.Called(ctx, tenantID, p)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *productsMock) Get(ctx context.Context, tenantID string, id int64) (models.Product, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *productsMock) Update(ctx context.Context, tenantID string, id int64, patch models.ProductPatch) (models.Product, error) {
	args := m.Called(ctx, tenantID, id, patch)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *productsMock) Delete(ctx context.Context, tenantID string, id int64) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type nopPublisher struct{}

func (nopPublisher) SendMessage(context.Context, models.Message) error { return nil }

type fixture struct {
	handler  http.Handler
	accounts *accountsMock
	products *productsMock
	codec    *jwt.Codec
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	codec, err := jwt.NewCodec(secret)
	require.NoError(t, err)

	cipher, err := crypto.New(key)
	require.NoError(t, err)

	f := fixture{
		accounts: &accountsMock{},
		products: &productsMock{},
		codec:    codec,
	}

	f.handler = New(Deps{
		Log:       slogdiscard.NewDiscardLogger(),
		Accounts:  f.accounts,
		Products:  f.products,
		Tokens:    codec,
		Cipher:    cipher,
		Publisher: nopPublisher{},
	})

	return f
}

func (f fixture) do(method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func TestProtectedRoutesNeedIdentity(t *testing.T) {
	f := newFixture(t)

	expiredCodec, err := jwt.NewCodec(secret, jwt.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
	require.NoError(t, err)
	expired, err := expiredCodec.Mint(tenant, time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", expired} {
		for _, target := range []string{"/api/products", "/api/products/1"} {
			rec := f.do(http.MethodGet, target, token, "")

			assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
			assert.JSONEq(t, `{"status":"error","error":"Unauthorized"}`, rec.Body.String())
		}
	}

	f.products.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestTenantComesFromToken(t *testing.T) {
	f := newFixture(t)

	token, err := f.codec.Mint(tenant, time.Hour)
	require.NoError(t, err)

	f.products.On("List", mock.Anything, tenant.SubjectID, mock.Anything).
		Return(models.Page[models.Product]{Content: []models.Product{}}, nil).Once()

	rec := f.do(http.MethodGet, "/api/products", token, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	f.products.AssertExpectations(t)
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)

	f.accounts.On("Login", mock.Anything, "a@x.com", "longenough1").Return("tok", time.Hour, nil).Once()

	rec := f.do(http.MethodPost, "/api/users/login", "", `{"email":"a@x.com","password":"longenough1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expiration":3600000`)

	rec = f.do(http.MethodGet, "/swagger/doc.json", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/products/{id}")

	f.accounts.AssertExpectations(t)
}

func TestLoginTokenOpensProducts(t *testing.T) {
	f := newFixture(t)

	minted, err := f.codec.Mint(tenant, time.Hour)
	require.NoError(t, err)

	f.accounts.On("Login", mock.Anything, "a@x.com", "longenough1").Return(minted, time.Hour, nil).Once()
	f.products.On("Delete", mock.Anything, tenant.SubjectID, int64(3)).Return(nil).Once()

	rec := f.do(http.MethodPost, "/api/users/login", "", `{"email":"a@x.com","password":"longenough1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/api/products/3", minted, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	f.products.AssertExpectations(t)
}

func TestRegisterAndLoginSharePasswordRule(t *testing.T) {
	code := "482913"
	expiry := time.Now().Add(15 * time.Minute)

	for _, pass := range []string{strings.Repeat("p", 8), strings.Repeat("p", 20)} {
		f := newFixture(t)

		f.accounts.On("Register", mock.Anything, "a@x.com", "a", pass).Return(models.Account{
			ID:                     tenant.SubjectID,
			Email:                  "a@x.com",
			Username:               "a",
			VerificationCode:       &code,
			VerificationCodeExpiry: &expiry,
		}, nil).Once()
		f.accounts.On("Login", mock.Anything, "a@x.com", pass).Return("tok", time.Hour, nil).Once()

		rec := f.do(http.MethodPost, "/api/users/register", "", `{"email":"a@x.com","username":"a","password":"`+pass+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code, len(pass))

		rec = f.do(http.MethodPost, "/api/users/login", "", `{"email":"a@x.com","password":"`+pass+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code, len(pass))

		f.accounts.AssertExpectations(t)
	}

	for _, pass := range []string{strings.Repeat("p", 7), strings.Repeat("p", 21), strings.Repeat("p", 73)} {
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/api/users/register", "", `{"email":"a@x.com","username":"a","password":"`+pass+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, len(pass))

		rec = f.do(http.MethodPost, "/api/users/login", "", `{"email":"a@x.com","password":"`+pass+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, len(pass))

		f.accounts.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.accounts.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	}
}
