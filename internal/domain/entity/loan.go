package entity

import "time"

// LoanStatus estado de una solicitud de préstamo.
type LoanStatus string

// Estados del préstamo. rejected y returned son terminales.
const (
	LoanWaiting  LoanStatus = "waiting"
	LoanApproved LoanStatus = "approved"
	LoanBorrowed LoanStatus = "borrowed"
	LoanRejected LoanStatus = "rejected"
	LoanReturned LoanStatus = "returned"
)

// HoldsReservation indica si el préstamo tiene unidades reservadas en el inventario.
func (s LoanStatus) HoldsReservation() bool {
	return s == LoanApproved || s == LoanBorrowed
}

// Valid indica si el valor corresponde a un estado conocido.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanWaiting, LoanApproved, LoanBorrowed, LoanRejected, LoanReturned:
		return true
	}
	return false
}

// Loan representa la solicitud/registro de préstamo de una cantidad de una herramienta.
// Quantity no cambia mientras exista una reserva contra ella (salvo vía UpdateLoan, que libera y re-reserva).
type Loan struct {
	ID                string
	Code              string // generado, único
	UserID            string
	ToolID            string
	Quantity          int
	BorrowDate        time.Time
	PlannedReturnDate time.Time
	Purpose           string
	Status            LoanStatus
	ValidatedBy       *string
	ValidatedAt       *time.Time
	ValidationNote    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
