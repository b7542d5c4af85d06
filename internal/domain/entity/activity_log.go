package entity

import "time"

// Acciones registradas en la bitácora de actividad.
const (
	ActionLoanSubmitted  = "loan.submitted"
	ActionLoanUpdated    = "loan.updated"
	ActionLoanApproved   = "loan.approved"
	ActionLoanLent       = "loan.lent"
	ActionLoanRejected   = "loan.rejected"
	ActionLoanDeleted    = "loan.deleted"
	ActionReturnSettled  = "return.settled"
	ActionReturnDeleted  = "return.deleted"
	EntityTypeLoan       = "loan"
	EntityTypeLoanReturn = "loan_return"
)

// ActivityLog entrada de la bitácora (solo escritura para el núcleo).
type ActivityLog struct {
	ID          string
	ActorID     string
	Action      string
	EntityType  string
	EntityID    string
	Description string
	CreatedAt   time.Time
}
