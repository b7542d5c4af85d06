// Package lending contiene los servicios de dominio puros del motor de préstamos:
// derivación de estado de herramientas, tabla de transiciones y aritmética de liquidación.
package lending

import (
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// DeriveToolStatus calcula el estado de una herramienta a partir de sus existencias.
//
//	total <= 0                      -> out_of_stock
//	available <= 0 y repair > 0     -> maintenance
//	available > 0                   -> available
//	resto                           -> out_of_stock
func DeriveToolStatus(total, available, repair int) entity.ToolStatus {
	switch {
	case total <= 0:
		return entity.ToolOutOfStock
	case available <= 0 && repair > 0:
		return entity.ToolMaintenance
	case available > 0:
		return entity.ToolAvailable
	default:
		return entity.ToolOutOfStock
	}
}

// CheckStock valida el invariante de existencias de una herramienta.
func CheckStock(total, available, repair int) error {
	if total < 0 || available < 0 || repair < 0 {
		return domain.ErrInsufficientStock
	}
	if available+repair > total {
		return domain.ErrInvalidState
	}
	return nil
}

// StockDelta cambio a aplicar sobre los tres contadores de una herramienta.
type StockDelta struct {
	Available int
	Repair    int
	Total     int
}

// Apply aplica el delta a la herramienta, valida el invariante y recalcula el estado.
// Si el resultado viola el invariante la herramienta no se modifica.
func (d StockDelta) Apply(t *entity.Tool) error {
	total := t.TotalStock + d.Total
	available := t.AvailableStock + d.Available
	repair := t.RepairStock + d.Repair
	if err := CheckStock(total, available, repair); err != nil {
		return err
	}
	t.TotalStock = total
	t.AvailableStock = available
	t.RepairStock = repair
	t.Status = DeriveToolStatus(total, available, repair)
	return nil
}

// ReserveDelta saca qty unidades de disponible.
func ReserveDelta(qty int) StockDelta { return StockDelta{Available: -qty} }

// ReleaseDelta devuelve qty unidades a disponible.
func ReleaseDelta(qty int) StockDelta { return StockDelta{Available: qty} }

// SettleDelta reparte las unidades devueltas: buenas a disponible, dañadas a reparación,
// perdidas salen del total.
func SettleDelta(b Buckets) StockDelta {
	return StockDelta{Available: b.Good, Repair: b.Damaged, Total: -b.Lost}
}

// UnsettleDelta inverso exacto de SettleDelta.
func UnsettleDelta(b Buckets) StockDelta {
	return StockDelta{Available: -b.Good, Repair: -b.Damaged, Total: b.Lost}
}
