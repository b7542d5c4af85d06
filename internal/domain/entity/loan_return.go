package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnCondition condición de las unidades devueltas. Orden de gravedad: good < damaged < lost.
type ReturnCondition string

const (
	ConditionGood    ReturnCondition = "good"
	ConditionDamaged ReturnCondition = "damaged"
	ConditionLost    ReturnCondition = "lost"
)

// Valid indica si la condición es conocida.
func (c ReturnCondition) Valid() bool {
	return c == ConditionGood || c == ConditionDamaged || c == ConditionLost
}

// LoanReturn registro de liquidación de un préstamo (uno por préstamo).
// GoodUnits + DamagedUnits + LostUnits == Loan.Quantity.
type LoanReturn struct {
	ID               string
	LoanID           string
	ActualReturnDate time.Time
	DaysLate         int
	FinePerDay       decimal.Decimal
	TotalFine        decimal.Decimal
	Condition        ReturnCondition // peor caso, solo informativo
	GoodUnits        int
	DamagedUnits     int
	LostUnits        int
	Note             string
	ProcessedBy      string
	CreatedAt        time.Time
}
