package dto

import (
	"time"

	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/lending"
	"github.com/shopspring/decimal"
)

// SettleReturnRequest liquidación de un préstamo. Se informa o bien el reparto por unidad
// (good_units/damaged_units/lost_units) o bien una condición general para todas las unidades.
type SettleReturnRequest struct {
	LoanID           string `json:"loan_id"`
	ActualReturnDate string `json:"actual_return_date,omitempty"` // vacío = ahora
	Condition        string `json:"condition,omitempty"`          // good|damaged|lost
	GoodUnits        *int   `json:"good_units,omitempty"`
	DamagedUnits     *int   `json:"damaged_units,omitempty"`
	LostUnits        *int   `json:"lost_units,omitempty"`
	Note             string `json:"note"`
}

// Settlement traduce el cuerpo a la variante de liquidación correspondiente.
func (r SettleReturnRequest) Settlement() (lending.Settlement, error) {
	perUnit := r.GoodUnits != nil || r.DamagedUnits != nil || r.LostUnits != nil
	switch {
	case perUnit && r.Condition != "":
		return nil, domain.ErrInvalidInput
	case perUnit:
		return lending.PerUnit{Good: deref(r.GoodUnits), Damaged: deref(r.DamagedUnits), Lost: deref(r.LostUnits)}, nil
	case r.Condition != "":
		return lending.OverallCondition{Condition: entity.ReturnCondition(r.Condition)}, nil
	}
	return nil, domain.ErrInvalidInput
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ReturnResponse devolución registrada.
type ReturnResponse struct {
	ID               string          `json:"id"`
	LoanID           string          `json:"loan_id"`
	ActualReturnDate time.Time       `json:"actual_return_date"`
	DaysLate         int             `json:"days_late"`
	FinePerDay       decimal.Decimal `json:"fine_per_day"`
	TotalFine        decimal.Decimal `json:"total_fine"`
	Condition        string          `json:"condition"`
	GoodUnits        int             `json:"good_units"`
	DamagedUnits     int             `json:"damaged_units"`
	LostUnits        int             `json:"lost_units"`
	Note             string          `json:"note,omitempty"`
	ProcessedBy      string          `json:"processed_by"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ReturnListResponse listado paginado de devoluciones.
type ReturnListResponse struct {
	Items []ReturnResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// NewReturnResponse convierte la entidad en respuesta.
func NewReturnResponse(x *entity.LoanReturn) ReturnResponse {
	return ReturnResponse{
		ID:               x.ID,
		LoanID:           x.LoanID,
		ActualReturnDate: x.ActualReturnDate,
		DaysLate:         x.DaysLate,
		FinePerDay:       x.FinePerDay,
		TotalFine:        x.TotalFine,
		Condition:        string(x.Condition),
		GoodUnits:        x.GoodUnits,
		DamagedUnits:     x.DamagedUnits,
		LostUnits:        x.LostUnits,
		Note:             x.Note,
		ProcessedBy:      x.ProcessedBy,
		CreatedAt:        x.CreatedAt,
	}
}
