package lending

import (
	"context"
	"sort"

	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	dlending "github.com/jhoicas/Prestamos-api/internal/domain/lending"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

// Ledger libro de inventario: única vía para modificar las existencias de una herramienta.
// Todas las operaciones deben llamarse dentro de TxRunner.Run con el ToolRepository de la tx;
// la fila se bloquea (SELECT FOR UPDATE) antes de leer las existencias.
type Ledger struct {
	clock Clock
}

// NewLedger construye el libro de inventario.
func NewLedger(clock Clock) *Ledger {
	if clock == nil {
		clock = realClock{}
	}
	return &Ledger{clock: clock}
}

// Reserve saca qty unidades de disponible. ErrInsufficientStock si no alcanzan.
func (l *Ledger) Reserve(ctx context.Context, tools repository.ToolRepository, toolID string, qty int) (*entity.Tool, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return l.apply(ctx, tools, toolID, dlending.ReserveDelta(qty))
}

// Release devuelve qty unidades reservadas a disponible.
func (l *Ledger) Release(ctx context.Context, tools repository.ToolRepository, toolID string, qty int) (*entity.Tool, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return l.apply(ctx, tools, toolID, dlending.ReleaseDelta(qty))
}

// Settle reparte las unidades devueltas entre disponible, reparación y pérdidas.
func (l *Ledger) Settle(ctx context.Context, tools repository.ToolRepository, toolID string, b dlending.Buckets) (*entity.Tool, error) {
	if b.Good < 0 || b.Damaged < 0 || b.Lost < 0 || b.Sum() == 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return l.apply(ctx, tools, toolID, dlending.SettleDelta(b))
}

// Unsettle revierte exactamente un Settle previo con los mismos buckets.
// Falla con ErrInsufficientStock si las unidades ya no están (p. ej. se volvieron a prestar).
func (l *Ledger) Unsettle(ctx context.Context, tools repository.ToolRepository, toolID string, b dlending.Buckets) (*entity.Tool, error) {
	if b.Good < 0 || b.Damaged < 0 || b.Lost < 0 || b.Sum() == 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return l.apply(ctx, tools, toolID, dlending.UnsettleDelta(b))
}

// Lock bloquea varias herramientas en orden ascendente de ID para evitar interbloqueos.
func (l *Ledger) Lock(ctx context.Context, tools repository.ToolRepository, toolIDs ...string) error {
	ids := append([]string(nil), toolIDs...)
	sort.Strings(ids)
	var prev string
	for _, id := range ids {
		if id == prev {
			continue
		}
		prev = id
		t, err := tools.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrToolNotFound
		}
	}
	return nil
}

func (l *Ledger) apply(ctx context.Context, tools repository.ToolRepository, toolID string, delta dlending.StockDelta) (*entity.Tool, error) {
	tool, err := tools.GetForUpdate(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, domain.ErrToolNotFound
	}
	if err := delta.Apply(tool); err != nil {
		return nil, err
	}
	tool.UpdatedAt = l.clock.Now()
	if err := tools.UpdateStock(ctx, tool); err != nil {
		return nil, err
	}
	return tool, nil
}
