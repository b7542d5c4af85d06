package lending

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	dlending "github.com/jhoicas/Prestamos-api/internal/domain/lending"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FinePolicy política de multas: monto por día y zona horaria de referencia para contar días.
type FinePolicy struct {
	FinePerDay decimal.Decimal
	Location   *time.Location
}

// ReturnUseCase liquidación de préstamos: calcula retraso y multa, reparte las unidades
// devueltas en el inventario y cierra el préstamo, todo en una transacción.
type ReturnUseCase struct {
	txRunner   TxRunner
	loanRepo   repository.LoanRepository
	returnRepo repository.ReturnRepository
	ledger     *Ledger
	policy     FinePolicy
	clock      Clock
	activity   *activityRecorder
	log        zerolog.Logger
}

// NewReturnUseCase construye el caso de uso. loanRepo y returnRepo solo se usan para lecturas.
func NewReturnUseCase(
	txRunner TxRunner,
	loanRepo repository.LoanRepository,
	returnRepo repository.ReturnRepository,
	policy FinePolicy,
	opts ...Option,
) *ReturnUseCase {
	o := buildOptions(opts)
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &ReturnUseCase{
		txRunner:   txRunner,
		loanRepo:   loanRepo,
		returnRepo: returnRepo,
		ledger:     NewLedger(o.clock),
		policy:     policy,
		clock:      o.clock,
		activity:   &activityRecorder{clock: o.clock, publisher: o.publisher, log: o.log},
		log:        o.log,
	}
}

// SettleReturnInput entrada para SettleReturn. ActualReturnDate cero = ahora.
type SettleReturnInput struct {
	LoanID           string
	Settlement       dlending.Settlement
	ActualReturnDate time.Time
	Note             string
	ProcessorID      string
}

// SettleReturn registra la devolución de un préstamo approved/borrowed.
// Errores: ErrNotFound, ErrAlreadySettled, ErrInvalidState, ErrUnitMismatch.
func (uc *ReturnUseCase) SettleReturn(ctx context.Context, in SettleReturnInput) (*entity.LoanReturn, error) {
	if in.LoanID == "" {
		return nil, domain.ErrNotFound
	}
	if in.Settlement == nil {
		return nil, domain.ErrInvalidInput
	}
	actual := in.ActualReturnDate
	if actual.IsZero() {
		actual = uc.clock.Now()
	}

	var (
		out   *entity.LoanReturn
		entry *entity.ActivityLog
	)
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		loan, err := repos.Loans.GetForUpdate(ctx, in.LoanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return domain.ErrNotFound
		}
		existing, err := repos.Returns.GetByLoanID(ctx, loan.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadySettled
		}
		tr, err := dlending.Next(loan.Status, dlending.ActionSettle)
		if err != nil {
			return domain.ErrInvalidState
		}
		buckets, err := in.Settlement.Normalize(loan.Quantity)
		if err != nil {
			return err
		}

		daysLate := dlending.DaysLate(loan.PlannedReturnDate, actual, uc.policy.Location)
		now := uc.clock.Now()
		ret := &entity.LoanReturn{
			ID:               uuid.New().String(),
			LoanID:           loan.ID,
			ActualReturnDate: actual,
			DaysLate:         daysLate,
			FinePerDay:       uc.policy.FinePerDay,
			TotalFine:        dlending.Fine(daysLate, uc.policy.FinePerDay),
			Condition:        dlending.WorstCondition(buckets),
			GoodUnits:        buckets.Good,
			DamagedUnits:     buckets.Damaged,
			LostUnits:        buckets.Lost,
			Note:             in.Note,
			ProcessedBy:      in.ProcessorID,
			CreatedAt:        now,
		}
		if err := repos.Returns.Create(ctx, ret); err != nil {
			return err
		}
		loan.Status = tr.To
		loan.UpdatedAt = now
		if err := repos.Loans.Update(ctx, loan); err != nil {
			return err
		}
		if _, err := uc.ledger.Settle(ctx, repos.Tools, loan.ToolID, buckets); err != nil {
			return err
		}
		entry = uc.activity.entry(in.ProcessorID, entity.ActionReturnSettled, entity.EntityTypeLoanReturn, ret.ID,
			"%s devuelto: %d bien, %d dañadas, %d perdidas; %d días de retraso, multa %s",
			loan.Code, buckets.Good, buckets.Damaged, buckets.Lost, daysLate, ret.TotalFine.String())
		uc.activity.record(ctx, repos.Activity, entry)
		out = ret
		return nil
	})
	if err != nil {
		return nil, uc.fail(err, "settle", in.LoanID)
	}
	uc.activity.publish(ctx, entry)
	uc.log.Info().Str("loan_id", out.LoanID).Str("return_id", out.ID).Str("action", "settle").
		Str("actor_id", in.ProcessorID).Int("days_late", out.DaysLate).Msg("devolución registrada")
	return out, nil
}

// DeleteReturn borra una devolución (uso privilegiado): revierte el reparto en inventario con los
// mismos buckets y reabre el préstamo en borrowed.
func (uc *ReturnUseCase) DeleteReturn(ctx context.Context, returnID, actorID string) error {
	if returnID == "" {
		return domain.ErrNotFound
	}
	var (
		loanID string
		entry  *entity.ActivityLog
	)
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		// Orden de bloqueo préstamo -> devolución -> herramienta, igual que el resto de operaciones.
		peek, err := repos.Returns.GetByID(ctx, returnID)
		if err != nil {
			return err
		}
		if peek == nil {
			return domain.ErrNotFound
		}
		loan, err := repos.Loans.GetForUpdate(ctx, peek.LoanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return domain.ErrNotFound
		}
		ret, err := repos.Returns.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret == nil || ret.LoanID != loan.ID {
			return domain.ErrNotFound
		}
		tr, err := dlending.Next(loan.Status, dlending.ActionUnsettle)
		if err != nil {
			return domain.ErrInvalidState
		}
		buckets := dlending.Buckets{Good: ret.GoodUnits, Damaged: ret.DamagedUnits, Lost: ret.LostUnits}
		if err := repos.Returns.Delete(ctx, ret.ID); err != nil {
			return err
		}
		loan.Status = tr.To
		loan.UpdatedAt = uc.clock.Now()
		if err := repos.Loans.Update(ctx, loan); err != nil {
			return err
		}
		if _, err := uc.ledger.Unsettle(ctx, repos.Tools, loan.ToolID, buckets); err != nil {
			return err
		}
		loanID = loan.ID
		entry = uc.activity.entry(actorID, entity.ActionReturnDeleted, entity.EntityTypeLoanReturn, ret.ID,
			"devolución de %s revertida: %d bien, %d dañadas, %d perdidas", loan.Code, buckets.Good, buckets.Damaged, buckets.Lost)
		uc.activity.record(ctx, repos.Activity, entry)
		return nil
	})
	if err != nil {
		return uc.fail(err, "unsettle", returnID)
	}
	uc.activity.publish(ctx, entry)
	uc.log.Info().Str("loan_id", loanID).Str("return_id", returnID).Str("action", "unsettle").Str("actor_id", actorID).Msg("devolución revertida")
	return nil
}

// FinePreview multa estimada si el préstamo se devolviera en la fecha indicada.
type FinePreview struct {
	LoanID     string
	DaysLate   int
	FinePerDay decimal.Decimal
	TotalFine  decimal.Decimal
}

// PreviewFine calcula días de retraso y multa sin escribir nada. at cero = ahora.
func (uc *ReturnUseCase) PreviewFine(ctx context.Context, loanID string, at time.Time) (*FinePreview, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, domain.ErrNotFound
	}
	if at.IsZero() {
		at = uc.clock.Now()
	}
	days := dlending.DaysLate(loan.PlannedReturnDate, at, uc.policy.Location)
	return &FinePreview{
		LoanID:     loan.ID,
		DaysLate:   days,
		FinePerDay: uc.policy.FinePerDay,
		TotalFine:  dlending.Fine(days, uc.policy.FinePerDay),
	}, nil
}

// GetReturn obtiene una devolución por ID.
func (uc *ReturnUseCase) GetReturn(ctx context.Context, id string) (*entity.LoanReturn, error) {
	ret, err := uc.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	return ret, nil
}

// GetReturnByLoan obtiene la devolución de un préstamo.
func (uc *ReturnUseCase) GetReturnByLoan(ctx context.Context, loanID string) (*entity.LoanReturn, error) {
	ret, err := uc.returnRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	return ret, nil
}

// ListReturns lista devoluciones, más recientes primero.
func (uc *ReturnUseCase) ListReturns(ctx context.Context, limit, offset int) ([]*entity.LoanReturn, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.returnRepo.List(ctx, limit, offset)
}

func (uc *ReturnUseCase) fail(err error, action, id string) error {
	if errors.Is(err, domain.ErrTransactionFailed) {
		uc.log.Error().Err(err).Str("action", action).Str("id", id).Msg("transacción de devolución fallida")
	}
	return err
}
