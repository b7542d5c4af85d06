package repository

import (
	"context"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// CategoryRepository define el puerto de lectura para Category.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	List(ctx context.Context) ([]*entity.Category, error)
}
