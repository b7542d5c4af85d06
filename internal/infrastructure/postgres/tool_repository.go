package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

var _ repository.ToolRepository = (*ToolRepo)(nil)

// ToolRepo implementación de ToolRepository sobre PostgreSQL (usable con pool o tx).
type ToolRepo struct {
	q Querier
}

// NewToolRepository construye el adaptador de herramientas. Pasar pool o tx (Querier).
func NewToolRepository(q Querier) *ToolRepo {
	return &ToolRepo{q: q}
}

const toolColumns = `id, code, name, category_id, condition, total_stock, available_stock, repair_stock, status, created_at, updated_at`

func scanTool(row pgx.Row) (*entity.Tool, error) {
	var t entity.Tool
	err := row.Scan(
		&t.ID, &t.Code, &t.Name, &t.CategoryID, &t.Condition,
		&t.TotalStock, &t.AvailableStock, &t.RepairStock, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID obtiene una herramienta por ID. nil si no existe.
func (r *ToolRepo) GetByID(ctx context.Context, id string) (*entity.Tool, error) {
	if !validID(id) {
		return nil, nil
	}
	var out *entity.Tool
	err := withReadRetry(ctx, r.q, func() error {
		t, err := scanTool(r.q.QueryRow(ctx, `SELECT `+toolColumns+` FROM tools WHERE id = $1`, id))
		out = t
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tool: %w", err)
	}
	return out, nil
}

// GetForUpdate obtiene la herramienta y bloquea la fila (SELECT FOR UPDATE).
func (r *ToolRepo) GetForUpdate(ctx context.Context, id string) (*entity.Tool, error) {
	if !validID(id) {
		return nil, nil
	}
	t, err := scanTool(r.q.QueryRow(ctx, `SELECT `+toolColumns+` FROM tools WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tool for update: %w", err)
	}
	return t, nil
}

// UpdateStock persiste las existencias y el estado derivado. Los CHECK de la tabla repiten los
// invariantes de existencias; una violación se reporta como ErrInvalidState.
func (r *ToolRepo) UpdateStock(ctx context.Context, tool *entity.Tool) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE tools
		SET total_stock = $2, available_stock = $3, repair_stock = $4, status = $5, updated_at = $6
		WHERE id = $1`,
		tool.ID, tool.TotalStock, tool.AvailableStock, tool.RepairStock, tool.Status, tool.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidState
		}
		return fmt.Errorf("update tool stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrToolNotFound
	}
	return nil
}

// List lista herramientas con filtros opcionales, ordenadas por código.
func (r *ToolRepo) List(ctx context.Context, f repository.ToolFilter) ([]*entity.Tool, error) {
	if f.CategoryID != "" && !validID(f.CategoryID) {
		return nil, nil
	}
	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	query := `SELECT ` + toolColumns + ` FROM tools`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY code LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var list []*entity.Tool
	err := withReadRetry(ctx, r.q, func() error {
		list = nil
		rows, err := r.q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTool(rows)
			if err != nil {
				return err
			}
			list = append(list, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return list, nil
}
