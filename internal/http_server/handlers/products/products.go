// Package products serves the tenant-scoped product API. Every handler reads
// the tenant id bound by the authn middleware and never accepts one from the
// client.
package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"tenant_service/internal/http_server/middleware/authn"
	resp "tenant_service/internal/lib/api/response"
	"tenant_service/internal/lib/crypto"
	sl "tenant_service/internal/lib/logger/sl"
	"tenant_service/internal/models"
	productsvc "tenant_service/internal/products"
)

const maxCiphertextSize = 1 << 20

type Service interface {
	List(ctx context.Context, tenantID string, req models.PageRequest) (models.Page[models.Product], error)
	Create(ctx context.Context, tenantID string, p models.Product) (models.Product, error)
	Get(ctx context.Context, tenantID string, id int64) (models.Product, error)
	Update(ctx context.Context, tenantID string, id int64, patch models.ProductPatch) (models.Product, error)
	Delete(ctx context.Context, tenantID string, id int64) error
}

type Cipher interface {
	EncryptJSON(v any) (string, error)
	DecryptJSON(encoded string, v any) error
}

type ListQuery struct {
	Page    int    `validate:"min=0,max=1000000"`
	Size    int    `validate:"min=0,max=100"`
	SortBy  string `validate:"omitempty,oneof=createdAt updatedAt name price sku category"`
	SortDir string `validate:"omitempty,oneof=ASC DESC asc desc"`
}

type CreateRequest struct {
	Name        string            `json:"name" validate:"required,max=150"`
	SKU         string            `json:"sku" validate:"required,max=80"`
	Category    string            `json:"category" validate:"required,max=60"`
	Price       json.Number       `json:"price" validate:"required,numeric,excludes=-"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	Features    map[string]string `json:"features,omitempty"`
}

type UpdateRequest struct {
	Name        *string           `json:"name,omitempty" validate:"omitempty,max=150"`
	SKU         *string           `json:"sku,omitempty" validate:"omitempty,max=80"`
	Category    *string           `json:"category,omitempty" validate:"omitempty,max=60"`
	Price       *json.Number      `json:"price,omitempty" validate:"omitempty,numeric,excludes=-"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	Features    map[string]string `json:"features,omitempty"`
}

type ProductResponse struct {
	resp.Response
	Product models.Product `json:"product"`
}

type PageResponse struct {
	resp.Response
	models.Page[models.Product]
}

// Handlers groups the product endpoints around one service.
type Handlers struct {
	log      *slog.Logger
	validate *validator.Validate
	service  Service
	cipher   Cipher
}

func New(log *slog.Logger, validate *validator.Validate, service Service, cipher Cipher) *Handlers {
	return &Handlers{
		log:      log,
		validate: validate,
		service:  service,
		cipher:   cipher,
	}
}

// Routes mounts the product endpoints on a fresh router.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.List())
	r.Post("/", h.Create())
	r.Post("/decrypt", h.Decrypt())
	r.Get("/{id}", h.Get())
	r.Put("/{id}", h.Update())
	r.Delete("/{id}", h.Delete())

	return r
}

// List godoc
// @Summary      List products
// @Description  Returns one page of the caller's products.
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int     false  "Zero-based page"        default(0)
// @Param        size     query     int     false  "Page size, at most 100" default(20)
// @Param        sortBy   query     string  false  "Sort field"             Enums(createdAt, updatedAt, name, price, sku, category)
// @Param        sortDir  query     string  false  "Sort direction"         Enums(ASC, DESC)
// @Success      200      {object}  PageResponse
// @Failure      400      {object}  resp.Response
// @Failure      401      {object}  resp.Response
// @Router       /api/products [get]
func (h *Handlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.List"

		log, tenantID, ok := h.begin(w, r, op)
		if !ok {
			return
		}

		query, err := parseListQuery(r)
		if err != nil {
			log.Info("invalid query", sl.Err(err))

			resp.Fail(w, r, http.StatusBadRequest, err.Error())

			return
		}

		if !h.valid(w, r, log, query) {
			return
		}

		page, err := h.service.List(r.Context(), tenantID, models.PageRequest(query))
		if err != nil {
			h.fail(w, r, log, err)
			return
		}

		render.JSON(w, r, PageResponse{
			Response: resp.OK(),
			Page:     page,
		})
	}
}

// Create godoc
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateRequest  true  "Product"
// @Success      201      {object}  ProductResponse
// @Failure      400      {object}  resp.Response
// @Failure      401      {object}  resp.Response
// @Failure      409      {object}  resp.Response  "SKU already in use"
// @Router       /api/products [post]
func (h *Handlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.Create"

		log, tenantID, ok := h.begin(w, r, op)
		if !ok {
			return
		}

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			resp.Fail(w, r, http.StatusBadRequest, "Failed to decode request")

			return
		}

		if !h.valid(w, r, log, req) {
			return
		}

		created, err := h.service.Create(r.Context(), tenantID, models.Product{
			Name:        req.Name,
			SKU:         req.SKU,
			Category:    req.Category,
			Price:       req.Price.String(),
			Description: req.Description,
			Features:    req.Features,
		})
		if err != nil {
			h.fail(w, r, log, err)
			return
		}

		w.Header().Set("Location", fmt.Sprintf("/api/products/%d", created.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, ProductResponse{
			Response: resp.OK(),
			Product:  created,
		})
	}
}

// Get godoc
// @Summary      Get an encrypted product
// @Description  Returns the product JSON sealed with AES-GCM and Base64 encoded.
// @Description  POST it to /api/products/decrypt to read it back.
// @Tags         products
// @Produce      plain
// @Security     BearerAuth
// @Param        id   path      int  true  "Product id"
// @Success      200  {string}  string  "Base64 ciphertext"
// @Failure      401  {object}  resp.Response
// @Failure      404  {object}  resp.Response
// @Router       /api/products/{id} [get]
func (h *Handlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.Get"

		log, tenantID, ok := h.begin(w, r, op)
		if !ok {
			return
		}

		id, ok := h.productID(w, r, log)
		if !ok {
			return
		}

		p, err := h.service.Get(r.Context(), tenantID, id)
		if err != nil {
			h.fail(w, r, log, err)
			return
		}

		sealed, err := h.cipher.EncryptJSON(p)
		if err != nil {
			log.Error("failed to encrypt product", sl.Err(err))

			resp.Internal(w, r, err)

			return
		}

		render.PlainText(w, r, sealed)
	}
}

// Update godoc
// @Summary      Update a product
// @Description  Applies the fields present in the body and leaves the rest untouched.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int            true  "Product id"
// @Param        request  body      UpdateRequest  true  "Changed fields"
// @Success      200      {object}  ProductResponse
// @Failure      400      {object}  resp.Response
// @Failure      401      {object}  resp.Response
// @Failure      404      {object}  resp.Response
// @Failure      409      {object}  resp.Response
// @Router       /api/products/{id} [put]
func (h *Handlers) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.Update"

		log, tenantID, ok := h.begin(w, r, op)
		if !ok {
			return
		}

		id, ok := h.productID(w, r, log)
		if !ok {
			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			resp.Fail(w, r, http.StatusBadRequest, "Failed to decode request")

			return
		}

		if !h.valid(w, r, log, req) {
			return
		}

		patch := models.ProductPatch{
			Name:        req.Name,
			SKU:         req.SKU,
			Category:    req.Category,
			Description: req.Description,
			Features:    req.Features,
		}
		if req.Price != nil {
			price := req.Price.String()
			patch.Price = &price
		}

		updated, err := h.service.Update(r.Context(), tenantID, id, patch)
		if err != nil {
			h.fail(w, r, log, err)
			return
		}

		render.JSON(w, r, ProductResponse{
			Response: resp.OK(),
			Product:  updated,
		})
	}
}

// Delete godoc
// @Summary      Delete a product
// @Tags         products
// @Security     BearerAuth
// @Param        id  path  int  true  "Product id"
// @Success      204
// @Failure      401  {object}  resp.Response
// @Failure      404  {object}  resp.Response
// @Router       /api/products/{id} [delete]
func (h *Handlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.Delete"

		log, tenantID, ok := h.begin(w, r, op)
		if !ok {
			return
		}

		id, ok := h.productID(w, r, log)
		if !ok {
			return
		}

		if err := h.service.Delete(r.Context(), tenantID, id); err != nil {
			h.fail(w, r, log, err)
			return
		}

		render.NoContent(w, r)
	}
}

// Decrypt godoc
// @Summary      Decrypt a product
// @Description  Opens a ciphertext produced by GET /api/products/{id}.
// @Tags         products
// @Accept       plain
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      string  true  "Base64 ciphertext"
// @Success      200      {object}  ProductResponse
// @Failure      400      {object}  resp.Response
// @Failure      401      {object}  resp.Response
// @Router       /api/products/decrypt [post]
func (h *Handlers) Decrypt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.Decrypt"

		log, _, ok := h.begin(w, r, op)
		if !ok {
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxCiphertextSize))
		if err != nil {
			log.Error("failed to read request body", sl.Err(err))

			resp.Fail(w, r, http.StatusBadRequest, "Failed to read request")

			return
		}

		var p models.Product
		if err := h.cipher.DecryptJSON(strings.TrimSpace(string(body)), &p); err != nil {
			if errors.Is(err, crypto.ErrCiphertext) {
				log.Info("rejected ciphertext", sl.Err(err))

				resp.Fail(w, r, http.StatusBadRequest, "Invalid encrypted payload")

				return
			}

			log.Error("failed to decrypt product", sl.Err(err))

			resp.Internal(w, r, err)

			return
		}

		render.JSON(w, r, ProductResponse{
			Response: resp.OK(),
			Product:  p,
		})
	}
}

// begin scopes the logger to the request and resolves the tenant. It writes
// the 401 itself when the request carries no tenant.
func (h *Handlers) begin(w http.ResponseWriter, r *http.Request, op string) (*slog.Logger, string, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tenantID := authn.TenantID(r.Context())
	if tenantID == "" {
		log.Warn("request without tenant")

		resp.Fail(w, r, http.StatusUnauthorized, "Unauthorized")

		return nil, "", false
	}

	return log.With(slog.String("tenant_id", tenantID)), tenantID, true
}

func (h *Handlers) valid(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}

	var validateErr validator.ValidationErrors
	errors.As(err, &validateErr)

	log.Info("invalid request", sl.Err(err))

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, resp.ValidationError(validateErr))

	return false
}

func (h *Handlers) productID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Info("invalid product id", slog.String("id", chi.URLParam(r, "id")))

		resp.Fail(w, r, http.StatusBadRequest, "Invalid product id")

		return 0, false
	}

	return id, true
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, productsvc.ErrNotFound):
		resp.Fail(w, r, http.StatusNotFound, "Product not found or access denied")
	case errors.Is(err, productsvc.ErrDuplicateSKU):
		resp.Fail(w, r, http.StatusConflict, "Product with this SKU already exists")
	case errors.Is(err, productsvc.ErrNoTenant):
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
	default:
		log.Error("product request failed", sl.Err(err))

		resp.Internal(w, r, err)
	}
}

func parseListQuery(r *http.Request) (ListQuery, error) {
	q := r.URL.Query()

	query := ListQuery{
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortDir"),
	}

	for name, dst := range map[string]*int{"page": &query.Page, "size": &query.Size} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return ListQuery{}, fmt.Errorf("query parameter %s must be an integer", name)
		}
		*dst = n
	}

	return query, nil
}
