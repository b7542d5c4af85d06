package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo lectura de categorías de herramientas.
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

// GetByID obtiene una categoría. nil si no existe.
func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	if !validID(id) {
		return nil, nil
	}
	var c entity.Category
	err := withReadRetry(ctx, r.q, func() error {
		return r.q.QueryRow(ctx,
			`SELECT id, name, description, created_at FROM categories WHERE id = $1`, id,
		).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// List lista todas las categorías por nombre.
func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	var list []*entity.Category
	err := withReadRetry(ctx, r.q, func() error {
		list = nil
		rows, err := r.q.Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c entity.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
				return err
			}
			list = append(list, &c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}
