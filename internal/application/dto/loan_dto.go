package dto

import (
	"time"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SubmitLoanRequest solicitud de préstamo. UserID solo lo pueden fijar admin/staff.
type SubmitLoanRequest struct {
	UserID            string `json:"user_id,omitempty"`
	ToolID            string `json:"tool_id"`
	Quantity          int    `json:"quantity"`
	BorrowDate        string `json:"borrow_date"`         // AAAA-MM-DD
	PlannedReturnDate string `json:"planned_return_date"` // AAAA-MM-DD
	Purpose           string `json:"purpose"`
}

// UpdateLoanRequest campos editables; ausentes = sin cambio.
type UpdateLoanRequest struct {
	ToolID            *string `json:"tool_id,omitempty"`
	Quantity          *int    `json:"quantity,omitempty"`
	BorrowDate        *string `json:"borrow_date,omitempty"`
	PlannedReturnDate *string `json:"planned_return_date,omitempty"`
	Purpose           *string `json:"purpose,omitempty"`
}

// RejectLoanRequest motivo del rechazo.
type RejectLoanRequest struct {
	Note string `json:"note"`
}

// LoanResponse préstamo.
type LoanResponse struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	UserID            string     `json:"user_id"`
	ToolID            string     `json:"tool_id"`
	Quantity          int        `json:"quantity"`
	BorrowDate        string     `json:"borrow_date"`
	PlannedReturnDate string     `json:"planned_return_date"`
	Purpose           string     `json:"purpose"`
	Status            string     `json:"status"`
	ValidatedBy       *string    `json:"validated_by,omitempty"`
	ValidatedAt       *time.Time `json:"validated_at,omitempty"`
	ValidationNote    string     `json:"validation_note,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LoanListResponse listado paginado de préstamos.
type LoanListResponse struct {
	Items []LoanResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// FinePreviewResponse multa estimada a una fecha.
type FinePreviewResponse struct {
	LoanID     string          `json:"loan_id"`
	At         string          `json:"at"`
	DaysLate   int             `json:"days_late"`
	FinePerDay decimal.Decimal `json:"fine_per_day"`
	TotalFine  decimal.Decimal `json:"total_fine"`
}

// NewLoanResponse convierte la entidad en respuesta.
func NewLoanResponse(l *entity.Loan) LoanResponse {
	return LoanResponse{
		ID:                l.ID,
		Code:              l.Code,
		UserID:            l.UserID,
		ToolID:            l.ToolID,
		Quantity:          l.Quantity,
		BorrowDate:        l.BorrowDate.Format(DateLayout),
		PlannedReturnDate: l.PlannedReturnDate.Format(DateLayout),
		Purpose:           l.Purpose,
		Status:            string(l.Status),
		ValidatedBy:       l.ValidatedBy,
		ValidatedAt:       l.ValidatedAt,
		ValidationNote:    l.ValidationNote,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}
