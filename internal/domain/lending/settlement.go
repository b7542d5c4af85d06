package lending

import (
	"time"

	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Buckets reparto de unidades devueltas por condición.
type Buckets struct {
	Good    int
	Damaged int
	Lost    int
}

// Sum total de unidades.
func (b Buckets) Sum() int { return b.Good + b.Damaged + b.Lost }

// Settlement entrada de liquidación: por unidades o con una condición global.
// Es una unión cerrada; solo PerUnit y OverallCondition la implementan.
type Settlement interface {
	// Normalize convierte la entrada a buckets por unidad para un préstamo de loanQty unidades.
	Normalize(loanQty int) (Buckets, error)
	isSettlement()
}

// PerUnit liquidación con conteo explícito por condición. La suma debe ser exactamente la cantidad prestada.
type PerUnit struct {
	Good    int
	Damaged int
	Lost    int
}

func (PerUnit) isSettlement() {}

// Normalize valida los conteos.
func (p PerUnit) Normalize(loanQty int) (Buckets, error) {
	if p.Good < 0 || p.Damaged < 0 || p.Lost < 0 {
		return Buckets{}, domain.ErrInvalidQuantity
	}
	// Cada bucket acotado por loanQty: la suma no puede desbordar.
	if p.Good > loanQty || p.Damaged > loanQty || p.Lost > loanQty {
		return Buckets{}, domain.ErrUnitMismatch
	}
	b := Buckets{Good: p.Good, Damaged: p.Damaged, Lost: p.Lost}
	if b.Sum() != loanQty {
		return Buckets{}, domain.ErrUnitMismatch
	}
	return b, nil
}

// OverallCondition liquidación heredada: todas las unidades en la misma condición.
type OverallCondition struct {
	Condition entity.ReturnCondition
}

func (OverallCondition) isSettlement() {}

// Normalize asigna todas las unidades al bucket de la condición.
func (o OverallCondition) Normalize(loanQty int) (Buckets, error) {
	if loanQty <= 0 {
		return Buckets{}, domain.ErrInvalidQuantity
	}
	switch o.Condition {
	case entity.ConditionGood:
		return Buckets{Good: loanQty}, nil
	case entity.ConditionDamaged:
		return Buckets{Damaged: loanQty}, nil
	case entity.ConditionLost:
		return Buckets{Lost: loanQty}, nil
	}
	return Buckets{}, domain.ErrInvalidInput
}

// WorstCondition condición global para mostrar: lost > damaged > good.
func WorstCondition(b Buckets) entity.ReturnCondition {
	switch {
	case b.Lost > 0:
		return entity.ConditionLost
	case b.Damaged > 0:
		return entity.ConditionDamaged
	default:
		return entity.ConditionGood
	}
}

// DaysLate días de retraso por calendario en loc; 0 si se devuelve el mismo día o antes.
// Se comparan fechas de calendario, no horas transcurridas.
func DaysLate(planned, actual time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	p := calendarDay(planned.In(loc))
	a := calendarDay(actual.In(loc))
	days := int(a.Sub(p).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// calendarDay normaliza a medianoche UTC con la fecha local, evitando saltos por horario de verano.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fine multa total = días de retraso * multa por día.
func Fine(daysLate int, finePerDay decimal.Decimal) decimal.Decimal {
	if daysLate <= 0 {
		return decimal.Zero
	}
	return finePerDay.Mul(decimal.NewFromInt(int64(daysLate)))
}
