package lending

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	dlending "github.com/jhoicas/Prestamos-api/internal/domain/lending"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// LoanUseCase máquina de estados del préstamo: solicitud, aprobación, entrega, rechazo,
// edición y borrado, con la reserva de inventario atada a cada transición en la misma tx.
type LoanUseCase struct {
	txRunner TxRunner
	loanRepo repository.LoanRepository
	ledger   *Ledger
	codes    CodeGenerator
	clock    Clock
	activity *activityRecorder
	log      zerolog.Logger
}

// NewLoanUseCase construye el caso de uso. loanRepo se usa solo para lecturas fuera de transacción.
func NewLoanUseCase(txRunner TxRunner, loanRepo repository.LoanRepository, opts ...Option) *LoanUseCase {
	o := buildOptions(opts)
	return &LoanUseCase{
		txRunner: txRunner,
		loanRepo: loanRepo,
		ledger:   NewLedger(o.clock),
		codes:    o.codes,
		clock:    o.clock,
		activity: &activityRecorder{clock: o.clock, publisher: o.publisher, log: o.log},
		log:      o.log,
	}
}

// SubmitLoanInput entrada para SubmitLoan.
type SubmitLoanInput struct {
	UserID            string
	ToolID            string
	Quantity          int
	BorrowDate        time.Time
	PlannedReturnDate time.Time
	Purpose           string
	ActorID           string // quien registra (el propio prestatario o personal en su nombre)
}

// maxQuantity es el tope de la columna quantity (integer en PostgreSQL).
const maxQuantity = math.MaxInt32

func validQuantity(q int) bool {
	return q >= 1 && q <= maxQuantity
}

// SubmitLoan crea un préstamo en estado waiting. No reserva existencias.
func (uc *LoanUseCase) SubmitLoan(ctx context.Context, in SubmitLoanInput) (*entity.Loan, error) {
	if !validQuantity(in.Quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	if in.UserID == "" || in.ToolID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := validateDates(in.BorrowDate, in.PlannedReturnDate); err != nil {
		return nil, err
	}
	actorID := in.ActorID
	if actorID == "" {
		actorID = in.UserID
	}

	now := uc.clock.Now()
	code, err := uc.codes.NewLoanCode(now)
	if err != nil {
		return nil, err
	}
	loan := &entity.Loan{
		ID:                uuid.New().String(),
		Code:              code,
		UserID:            in.UserID,
		ToolID:            in.ToolID,
		Quantity:          in.Quantity,
		BorrowDate:        in.BorrowDate,
		PlannedReturnDate: in.PlannedReturnDate,
		Purpose:           in.Purpose,
		Status:            entity.LoanWaiting,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var entry *entity.ActivityLog
	err = uc.txRunner.Run(ctx, func(repos TxRepos) error {
		tool, err := repos.Tools.GetByID(ctx, in.ToolID)
		if err != nil {
			return err
		}
		if tool == nil {
			return domain.ErrToolNotFound
		}
		if err := repos.Loans.Create(ctx, loan); err != nil {
			return err
		}
		entry = uc.activity.entry(actorID, entity.ActionLoanSubmitted, entity.EntityTypeLoan, loan.ID,
			"solicitud %s: %d x %s", loan.Code, loan.Quantity, tool.Code)
		uc.activity.record(ctx, repos.Activity, entry)
		return nil
	})
	if err != nil {
		return nil, uc.fail(err, "submit", loan.ID)
	}
	uc.activity.publish(ctx, entry)
	uc.log.Info().Str("loan_id", loan.ID).Str("tool_id", loan.ToolID).Str("action", "submit").Str("actor_id", actorID).Msg("préstamo solicitado")
	return loan, nil
}

// ApproveLoan waiting -> approved, reservando las unidades.
func (uc *LoanUseCase) ApproveLoan(ctx context.Context, loanID, validatorID string) (*entity.Loan, error) {
	return uc.transition(ctx, loanID, validatorID, dlending.ActionApprove, entity.ActionLoanApproved,
		func(l *entity.Loan, now time.Time) {
			l.ValidatedBy = &validatorID
			l.ValidatedAt = &now
		})
}

// LendLoan approved -> borrowed (sin cambio de stock) o waiting -> borrowed (reserva directa).
// Conserva los datos del validador si ya existían.
func (uc *LoanUseCase) LendLoan(ctx context.Context, loanID, validatorID string) (*entity.Loan, error) {
	return uc.transition(ctx, loanID, validatorID, dlending.ActionLend, entity.ActionLoanLent,
		func(l *entity.Loan, now time.Time) {
			if l.ValidatedBy == nil {
				l.ValidatedBy = &validatorID
				l.ValidatedAt = &now
			}
		})
}

// RejectLoan waiting -> rejected. Sin efecto en inventario.
func (uc *LoanUseCase) RejectLoan(ctx context.Context, loanID, validatorID, note string) (*entity.Loan, error) {
	return uc.transition(ctx, loanID, validatorID, dlending.ActionReject, entity.ActionLoanRejected,
		func(l *entity.Loan, now time.Time) {
			l.ValidatedBy = &validatorID
			l.ValidatedAt = &now
			l.ValidationNote = note
		})
}

// transition bloquea el préstamo, consulta la tabla de transiciones, aplica el efecto de stock
// y persiste el nuevo estado en una sola transacción.
func (uc *LoanUseCase) transition(
	ctx context.Context,
	loanID, actorID string,
	action dlending.Action,
	logAction string,
	mutate func(l *entity.Loan, now time.Time),
) (*entity.Loan, error) {
	if loanID == "" {
		return nil, domain.ErrNotFound
	}
	var (
		out   *entity.Loan
		entry *entity.ActivityLog
	)
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		loan, err := repos.Loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return domain.ErrNotFound
		}
		tr, err := dlending.Next(loan.Status, action)
		if err != nil {
			return err
		}
		if tr.Effect == dlending.EffectReserve {
			if _, err := uc.ledger.Reserve(ctx, repos.Tools, loan.ToolID, loan.Quantity); err != nil {
				return err
			}
		}
		now := uc.clock.Now()
		from := loan.Status
		loan.Status = tr.To
		mutate(loan, now)
		loan.UpdatedAt = now
		if err := repos.Loans.Update(ctx, loan); err != nil {
			return err
		}
		entry = uc.activity.entry(actorID, logAction, entity.EntityTypeLoan, loan.ID,
			"%s: %s -> %s (%s)", loan.Code, from, loan.Status, tr.Effect)
		uc.activity.record(ctx, repos.Activity, entry)
		out = loan
		return nil
	})
	if err != nil {
		return nil, uc.fail(err, string(action), loanID)
	}
	uc.activity.publish(ctx, entry)
	uc.log.Info().Str("loan_id", out.ID).Str("tool_id", out.ToolID).Str("action", string(action)).
		Str("actor_id", actorID).Str("status", string(out.Status)).Msg("transición de préstamo")
	return out, nil
}

// UpdateLoanInput campos editables; nil = sin cambio.
type UpdateLoanInput struct {
	ToolID            *string
	Quantity          *int
	BorrowDate        *time.Time
	PlannedReturnDate *time.Time
	Purpose           *string
	ActorID           string
}

// UpdateLoan edita un préstamo en waiting/approved/borrowed. Si el préstamo tiene reserva y cambia
// la herramienta o la cantidad, libera la reserva anterior y reserva la nueva en la misma tx;
// si la nueva reserva no alcanza, no cambia nada. Sin cambio de asignación no se vuelve a reservar.
func (uc *LoanUseCase) UpdateLoan(ctx context.Context, loanID string, in UpdateLoanInput) (*entity.Loan, error) {
	if loanID == "" {
		return nil, domain.ErrNotFound
	}
	var (
		out   *entity.Loan
		entry *entity.ActivityLog
	)
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		loan, err := repos.Loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return domain.ErrNotFound
		}
		if !dlending.CanEdit(loan.Status) {
			return domain.ErrInvalidTransition
		}

		newToolID, newQty := loan.ToolID, loan.Quantity
		if in.ToolID != nil && *in.ToolID != "" {
			newToolID = *in.ToolID
		}
		if in.Quantity != nil {
			newQty = *in.Quantity
		}
		if !validQuantity(newQty) {
			return domain.ErrInvalidQuantity
		}
		borrow, planned := loan.BorrowDate, loan.PlannedReturnDate
		if in.BorrowDate != nil {
			borrow = *in.BorrowDate
		}
		if in.PlannedReturnDate != nil {
			planned = *in.PlannedReturnDate
		}
		if err := validateDates(borrow, planned); err != nil {
			return err
		}

		reassigned := newToolID != loan.ToolID || newQty != loan.Quantity
		if reassigned {
			if loan.Status.HoldsReservation() {
				if err := uc.ledger.Lock(ctx, repos.Tools, loan.ToolID, newToolID); err != nil {
					return err
				}
				if _, err := uc.ledger.Release(ctx, repos.Tools, loan.ToolID, loan.Quantity); err != nil {
					return err
				}
				if _, err := uc.ledger.Reserve(ctx, repos.Tools, newToolID, newQty); err != nil {
					return err
				}
			} else if newToolID != loan.ToolID {
				tool, err := repos.Tools.GetByID(ctx, newToolID)
				if err != nil {
					return err
				}
				if tool == nil {
					return domain.ErrToolNotFound
				}
			}
		}

		oldToolID, oldQty := loan.ToolID, loan.Quantity
		loan.ToolID = newToolID
		loan.Quantity = newQty
		loan.BorrowDate = borrow
		loan.PlannedReturnDate = planned
		if in.Purpose != nil {
			loan.Purpose = *in.Purpose
		}
		loan.UpdatedAt = uc.clock.Now()
		if err := repos.Loans.Update(ctx, loan); err != nil {
			return err
		}
		entry = uc.activity.entry(in.ActorID, entity.ActionLoanUpdated, entity.EntityTypeLoan, loan.ID,
			"%s: %d x %s -> %d x %s", loan.Code, oldQty, oldToolID, newQty, newToolID)
		uc.activity.record(ctx, repos.Activity, entry)
		out = loan
		return nil
	})
	if err != nil {
		return nil, uc.fail(err, "update", loanID)
	}
	uc.activity.publish(ctx, entry)
	uc.log.Info().Str("loan_id", out.ID).Str("tool_id", out.ToolID).Str("action", "update").Str("actor_id", in.ActorID).Msg("préstamo editado")
	return out, nil
}

// DeleteLoan borra un préstamo (uso privilegiado). Si tiene reserva (approved/borrowed) la libera
// antes de borrar. Un préstamo ya devuelto se borra junto con su devolución sin tocar existencias.
func (uc *LoanUseCase) DeleteLoan(ctx context.Context, loanID, actorID string) error {
	if loanID == "" {
		return domain.ErrNotFound
	}
	var entry *entity.ActivityLog
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		loan, err := repos.Loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return domain.ErrNotFound
		}
		if loan.Status.HoldsReservation() {
			if _, err := uc.ledger.Release(ctx, repos.Tools, loan.ToolID, loan.Quantity); err != nil {
				return err
			}
		}
		if loan.Status == entity.LoanReturned {
			ret, err := repos.Returns.GetByLoanID(ctx, loan.ID)
			if err != nil {
				return err
			}
			if ret != nil {
				if err := repos.Returns.Delete(ctx, ret.ID); err != nil {
					return err
				}
			}
		}
		if err := repos.Loans.Delete(ctx, loan.ID); err != nil {
			return err
		}
		entry = uc.activity.entry(actorID, entity.ActionLoanDeleted, entity.EntityTypeLoan, loan.ID,
			"%s borrado en estado %s", loan.Code, loan.Status)
		uc.activity.record(ctx, repos.Activity, entry)
		return nil
	})
	if err != nil {
		return uc.fail(err, "delete", loanID)
	}
	uc.activity.publish(ctx, entry)
	uc.log.Info().Str("loan_id", loanID).Str("action", "delete").Str("actor_id", actorID).Msg("préstamo borrado")
	return nil
}

// GetLoan obtiene un préstamo por ID. ErrNotFound si no existe.
func (uc *LoanUseCase) GetLoan(ctx context.Context, loanID string) (*entity.Loan, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, domain.ErrNotFound
	}
	return loan, nil
}

// ListLoans lista préstamos con filtros y paginación (limit por defecto 20).
func (uc *LoanUseCase) ListLoans(ctx context.Context, filter repository.LoanFilter) ([]*entity.Loan, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return uc.loanRepo.List(ctx, filter)
}

func (uc *LoanUseCase) fail(err error, action, loanID string) error {
	if errors.Is(err, domain.ErrTransactionFailed) {
		uc.log.Error().Err(err).Str("action", action).Str("loan_id", loanID).Msg("transacción de préstamo fallida")
	}
	return err
}

// validateDates exige ambas fechas y que la devolución prevista no sea anterior al préstamo.
func validateDates(borrow, planned time.Time) error {
	if borrow.IsZero() || planned.IsZero() {
		return domain.ErrInvalidInput
	}
	if planned.Before(borrow) {
		return domain.ErrInvalidInput
	}
	return nil
}
