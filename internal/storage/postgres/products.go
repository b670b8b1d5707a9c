package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tenant_service/internal/models"
	"tenant_service/internal/storage"
)

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"price":     "price",
	"sku":       "sku",
	"category":  "category",
}

const productColumns = `id, tenant_id::text, name, sku, category, price::text, description, features, created_at, updated_at`

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product

	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&p.SKU,
		&p.Category,
		&p.Price,
		&p.Description,
		&p.Features,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func productError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrProductNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraintProductSKU:
			return storage.ErrSKUExists
		case pgErr.Code == codeInvalidTextEncoding:
			// a tenant id that is not a UUID cannot own anything
			return storage.ErrProductNotFound
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (r *PostgresRepo) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	const op = "storage.postgres.CreateProduct"

	query := `
		INSERT INTO products (tenant_id, name, sku, category, price, description, features)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
		RETURNING ` + productColumns

	created, err := scanProduct(r.pool.QueryRow(ctx, query,
		p.TenantID, p.Name, p.SKU, p.Category, p.Price, p.Description, p.Features,
	))
	if err != nil {
		return models.Product{}, productError(op, err)
	}

	return created, nil
}

func (r *PostgresRepo) ProductByID(ctx context.Context, tenantID string, id int64) (models.Product, error) {
	const op = "storage.postgres.ProductByID"

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND tenant_id = $2`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		return models.Product{}, productError(op, err)
	}

	return p, nil
}

func (r *PostgresRepo) ListProducts(ctx context.Context, tenantID string, req models.PageRequest) (models.Page[models.Product], error) {
	const op = "storage.postgres.ListProducts"

	column, ok := sortColumns[req.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}

	dir := "DESC"
	if req.SortDir == "ASC" {
		dir = "ASC"
	}

	page := models.Page[models.Product]{
		Content: []models.Product{},
		Page:    req.Page,
		Size:    req.Size,
	}

	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE tenant_id = $1`, tenantID).Scan(&page.TotalElements)
	if err != nil {
		err = productError(op, err)
		if errors.Is(err, storage.ErrProductNotFound) {
			return page, nil
		}
		return models.Page[models.Product]{}, err
	}

	if req.Size > 0 {
		page.TotalPages = int((page.TotalElements + int64(req.Size) - 1) / int64(req.Size))
	}

	// column and dir come from the whitelist above
	query := fmt.Sprintf(
		`SELECT %s FROM products WHERE tenant_id = $1 ORDER BY %s %s, id %s LIMIT $2 OFFSET $3`,
		productColumns, column, dir, dir,
	)

	rows, err := r.pool.Query(ctx, query, tenantID, req.Size, req.Page*req.Size)
	if err != nil {
		return models.Page[models.Product]{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return models.Page[models.Product]{}, fmt.Errorf("%s: scan: %w", op, err)
		}
		page.Content = append(page.Content, p)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Product]{}, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (r *PostgresRepo) UpdateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	const op = "storage.postgres.UpdateProduct"

	query := `
		UPDATE products
		SET name = $3, sku = $4, category = $5, price = $6::numeric, description = $7, features = $8, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + productColumns

	updated, err := scanProduct(r.pool.QueryRow(ctx, query,
		p.ID, p.TenantID, p.Name, p.SKU, p.Category, p.Price, p.Description, p.Features,
	))
	if err != nil {
		return models.Product{}, productError(op, err)
	}

	return updated, nil
}

func (r *PostgresRepo) DeleteProduct(ctx context.Context, tenantID string, id int64) error {
	const op = "storage.postgres.DeleteProduct"

	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return productError(op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrProductNotFound
	}

	return nil
}
