package lending

import (
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// Action acción sobre un préstamo.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionLend     Action = "lend"
	ActionReject   Action = "reject"
	ActionSettle   Action = "settle"
	ActionUnsettle Action = "unsettle"
)

// StockEffect efecto sobre el inventario asociado a una transición.
type StockEffect int

const (
	EffectNone StockEffect = iota
	EffectReserve
	EffectSettle
	EffectUnsettle
)

func (e StockEffect) String() string {
	switch e {
	case EffectReserve:
		return "reserve"
	case EffectSettle:
		return "settle"
	case EffectUnsettle:
		return "unsettle"
	}
	return "none"
}

// Transition resultado de aplicar una acción: estado destino y efecto en inventario.
type Transition struct {
	To     entity.LoanStatus
	Effect StockEffect
}

type transitionKey struct {
	from   entity.LoanStatus
	action Action
}

// transitions es la única fuente de verdad sobre qué cambios de estado son legales.
var transitions = map[transitionKey]Transition{
	{entity.LoanWaiting, ActionApprove}:   {entity.LoanApproved, EffectReserve},
	{entity.LoanWaiting, ActionLend}:      {entity.LoanBorrowed, EffectReserve},
	{entity.LoanApproved, ActionLend}:     {entity.LoanBorrowed, EffectNone},
	{entity.LoanWaiting, ActionReject}:    {entity.LoanRejected, EffectNone},
	{entity.LoanApproved, ActionSettle}:   {entity.LoanReturned, EffectSettle},
	{entity.LoanBorrowed, ActionSettle}:   {entity.LoanReturned, EffectSettle},
	{entity.LoanReturned, ActionUnsettle}: {entity.LoanBorrowed, EffectUnsettle},
}

// Next devuelve la transición para (from, action) o ErrInvalidTransition si no está en la tabla.
func Next(from entity.LoanStatus, action Action) (Transition, error) {
	t, ok := transitions[transitionKey{from, action}]
	if !ok {
		return Transition{}, domain.ErrInvalidTransition
	}
	return t, nil
}

// CanEdit indica si los datos del préstamo (herramienta, cantidad, fechas) pueden editarse.
func CanEdit(s entity.LoanStatus) bool {
	return s == entity.LoanWaiting || s == entity.LoanApproved || s == entity.LoanBorrowed
}
