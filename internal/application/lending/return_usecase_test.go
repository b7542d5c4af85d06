package lending_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Prestamos-api/internal/application/lending"
	"github.com/jhoicas/Prestamos-api/internal/application/lending/lendingtest"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	dlending "github.com/jhoicas/Prestamos-api/internal/domain/lending"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var testFinePerDay = decimal.NewFromInt(5000)

func newReturnUC(store *lendingtest.Store) *lending.ReturnUseCase {
	return lending.NewReturnUseCase(store, store.LoanRepo(), store.ReturnRepo(),
		lending.FinePolicy{FinePerDay: testFinePerDay, Location: time.UTC},
		lending.WithClock(lendingtest.FixedClock{T: testNow}),
		lending.WithLogger(zerolog.Nop()),
	)
}

// borrowed crea un préstamo aprobado y entregado de qty unidades.
func borrowed(t *testing.T, uc *lending.LoanUseCase, toolID string, qty int) *entity.Loan {
	t.Helper()
	ctx := context.Background()
	loan := submit(t, uc, toolID, qty)
	_, err := uc.ApproveLoan(ctx, loan.ID, testStaff)
	require.NoError(t, err)
	lent, err := uc.LendLoan(ctx, loan.ID, testStaff)
	require.NoError(t, err)
	return lent
}

func settle(loanID string, s dlending.Settlement, at time.Time) lending.SettleReturnInput {
	return lending.SettleReturnInput{LoanID: loanID, Settlement: s, ActualReturnDate: at, ProcessorID: testStaff}
}

// ──────────────────────────────────────────────────────────────────────────────
// SettleReturn
// ──────────────────────────────────────────────────────────────────────────────

func TestSettleReturn_TodoEnBuenEstado(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 3, 3)
	loans, returns := newLoanUC(store), newReturnUC(store)

	loan := borrowed(t, loans, "t1", 2)
	assert.Equal(t, 1, store.Tool("t1").AvailableStock)

	ret, err := returns.SettleReturn(context.Background(), settle(loan.ID, dlending.PerUnit{Good: 2}, loan.PlannedReturnDate))
	require.NoError(t, err)

	assert.Equal(t, 2, ret.GoodUnits)
	assert.Equal(t, entity.ConditionGood, ret.Condition)
	assert.Equal(t, 0, ret.DaysLate)
	assert.True(t, ret.TotalFine.IsZero())

	got, _ := store.Loan(loan.ID)
	assert.Equal(t, entity.LoanReturned, got.Status)
	tool := store.Tool("t1")
	assert.Equal(t, 3, tool.AvailableStock)
	assert.Equal(t, 3, tool.TotalStock)
	assert.Equal(t, entity.ToolAvailable, tool.Status)
}

func TestSettleReturn_RepartoPorUnidad(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 10, 10)
	loans, returns := newLoanUC(store), newReturnUC(store)

	loan := borrowed(t, loans, "t1", 3)
	require.Equal(t, 7, store.Tool("t1").AvailableStock)

	ret, err := returns.SettleReturn(context.Background(),
		settle(loan.ID, dlending.PerUnit{Good: 1, Damaged: 1, Lost: 1}, loan.PlannedReturnDate))
	require.NoError(t, err)
	assert.Equal(t, entity.ConditionLost, ret.Condition, "condición informativa: peor caso")

	tool := store.Tool("t1")
	assert.Equal(t, 8, tool.AvailableStock)
	assert.Equal(t, 1, tool.RepairStock)
	assert.Equal(t, 9, tool.TotalStock)
}

func TestSettleReturn_DiasDeRetrasoYMulta(t *testing.T) {
	tests := []struct {
		name     string
		offset   time.Duration
		wantDays int
	}{
		{"tres días tarde", 3 * 24 * time.Hour, 3},
		{"mismo día más tarde", 10 * time.Hour, 0},
		{"antes de tiempo", -48 * time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := lendingtest.NewStore()
			seedTool(store, "t1", 2, 2)
			loans, returns := newLoanUC(store), newReturnUC(store)
			loan := borrowed(t, loans, "t1", 1)

			ret, err := returns.SettleReturn(context.Background(),
				settle(loan.ID, dlending.PerUnit{Good: 1}, loan.PlannedReturnDate.Add(tt.offset)))
			require.NoError(t, err)

			assert.Equal(t, tt.wantDays, ret.DaysLate)
			assert.True(t, testFinePerDay.Equal(ret.FinePerDay))
			want := testFinePerDay.Mul(decimal.NewFromInt(int64(tt.wantDays)))
			assert.True(t, want.Equal(ret.TotalFine), "multa esperada %s, obtenida %s", want, ret.TotalFine)
		})
	}
}

func TestSettleReturn_UnidadesNoCuadran(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 5, 5)
	loans, returns := newLoanUC(store), newReturnUC(store)
	loan := borrowed(t, loans, "t1", 3)

	_, err := returns.SettleReturn(context.Background(), settle(loan.ID, dlending.PerUnit{Good: 1, Damaged: 1}, testNow))
	assert.ErrorIs(t, err, domain.ErrUnitMismatch)

	assert.Equal(t, 0, store.ReturnCount(), "no se crea devolución")
	got, _ := store.Loan(loan.ID)
	assert.Equal(t, entity.LoanBorrowed, got.Status)
	tool := store.Tool("t1")
	assert.Equal(t, 2, tool.AvailableStock)
	assert.Equal(t, 5, tool.TotalStock)
}

func TestSettleReturn_CondicionGeneral(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 4, 4)
	loans, returns := newLoanUC(store), newReturnUC(store)
	loan := borrowed(t, loans, "t1", 2)

	ret, err := returns.SettleReturn(context.Background(),
		settle(loan.ID, dlending.OverallCondition{Condition: entity.ConditionDamaged}, testNow))
	require.NoError(t, err)
	assert.Equal(t, 2, ret.DamagedUnits)

	tool := store.Tool("t1")
	assert.Equal(t, 2, tool.AvailableStock)
	assert.Equal(t, 2, tool.RepairStock)
	assert.Equal(t, 4, tool.TotalStock)
}

func TestSettleReturn_DesdeAprobado(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 2, 2)
	loans, returns := newLoanUC(store), newReturnUC(store)
	ctx := context.Background()

	loan := submit(t, loans, "t1", 1)
	_, err := loans.ApproveLoan(ctx, loan.ID, testStaff)
	require.NoError(t, err)

	_, err = returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 1}, testNow))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Tool("t1").AvailableStock)
}

func TestSettleReturn_Errores(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 5, 5)
	loans, returns := newLoanUC(store), newReturnUC(store)
	ctx := context.Background()

	waiting := submit(t, loans, "t1", 1)
	_, err := returns.SettleReturn(ctx, settle(waiting.ID, dlending.PerUnit{Good: 1}, testNow))
	assert.ErrorIs(t, err, domain.ErrInvalidState, "un préstamo en espera no se liquida")

	_, err = returns.SettleReturn(ctx, settle("nope", dlending.PerUnit{Good: 1}, testNow))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = returns.SettleReturn(ctx, settle(waiting.ID, nil, testNow))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	loan := borrowed(t, loans, "t1", 2)
	_, err = returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 2}, testNow))
	require.NoError(t, err)
	_, err = returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 2}, testNow))
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)

	assert.Equal(t, 5, store.Tool("t1").AvailableStock, "la segunda liquidación no suma existencias")
}

// ──────────────────────────────────────────────────────────────────────────────
// DeleteReturn / reversibilidad
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteReturn_RevierteLiquidacion(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 10, 10)
	loans, returns := newLoanUC(store), newReturnUC(store)
	ctx := context.Background()

	loan := borrowed(t, loans, "t1", 3)
	before := store.Tool("t1")

	ret, err := returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 1, Damaged: 1, Lost: 1}, testNow))
	require.NoError(t, err)

	require.NoError(t, returns.DeleteReturn(ctx, ret.ID, testAdmin))

	after := store.Tool("t1")
	assert.Equal(t, before.AvailableStock, after.AvailableStock)
	assert.Equal(t, before.RepairStock, after.RepairStock)
	assert.Equal(t, before.TotalStock, after.TotalStock)

	got, _ := store.Loan(loan.ID)
	assert.Equal(t, entity.LoanBorrowed, got.Status, "el préstamo se reabre")
	assert.Equal(t, 0, store.ReturnCount())

	_, err = returns.GetReturn(ctx, ret.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 3}, testNow))
	require.NoError(t, err, "tras revertir se puede liquidar de nuevo")
	assert.Equal(t, 10, store.Tool("t1").AvailableStock)
}

func TestDeleteReturn_UnidadesYaPrestadas(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 2, 2)
	loans, returns := newLoanUC(store), newReturnUC(store)
	ctx := context.Background()

	first := borrowed(t, loans, "t1", 2)
	ret, err := returns.SettleReturn(ctx, settle(first.ID, dlending.PerUnit{Good: 2}, testNow))
	require.NoError(t, err)
	borrowed(t, loans, "t1", 2)

	err = returns.DeleteReturn(ctx, ret.ID, testAdmin)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, _ := store.Loan(first.ID)
	assert.Equal(t, entity.LoanReturned, got.Status, "el rollback deja el préstamo devuelto")
	assert.Equal(t, 1, store.ReturnCount())
	assert.Equal(t, 0, store.Tool("t1").AvailableStock)
}

func TestDeleteReturn_Inexistente(t *testing.T) {
	store := lendingtest.NewStore()
	returns := newReturnUC(store)
	assert.ErrorIs(t, returns.DeleteReturn(context.Background(), "nope", testAdmin), domain.ErrNotFound)
}

func TestDeleteLoan_DevueltoBorraDevolucionSinTocarStock(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 5, 5)
	loans, returns := newLoanUC(store), newReturnUC(store)
	ctx := context.Background()

	loan := borrowed(t, loans, "t1", 2)
	_, err := returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 1, Lost: 1}, testNow))
	require.NoError(t, err)
	settled := store.Tool("t1")

	require.NoError(t, loans.DeleteLoan(ctx, loan.ID, testAdmin))

	assert.Equal(t, 0, store.ReturnCount())
	assert.Equal(t, settled, store.Tool("t1"))
}

func TestSettleReturn_ConcurrenteLiquidaUnaVez(t *testing.T) {
	const workers = 10
	store := lendingtest.NewStore()
	seedTool(store, "t1", 5, 5)
	loans, returns := newLoanUC(store), newReturnUC(store)
	ctx := context.Background()

	loan := borrowed(t, loans, "t1", 2)

	var (
		wg              sync.WaitGroup
		mu              sync.Mutex
		ok, alreadyDone int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 1, Damaged: 1}, testNow))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrAlreadySettled):
				alreadyDone++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, alreadyDone)
	assert.Equal(t, 1, store.ReturnCount())

	got, _ := store.Loan(loan.ID)
	assert.Equal(t, entity.LoanReturned, got.Status)
	tool := store.Tool("t1")
	assert.Equal(t, 4, tool.AvailableStock)
	assert.Equal(t, 1, tool.RepairStock)
	assert.Equal(t, 5, tool.TotalStock)
}

func TestSettleReturn_CarreraConBorrado(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		store := lendingtest.NewStore()
		seedTool(store, "t1", 5, 5)
		loans, returns := newLoanUC(store), newReturnUC(store)
		loan := borrowed(t, loans, "t1", 2)

		var (
			wg                   sync.WaitGroup
			settleErr, deleteErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, settleErr = returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 1, Lost: 1}, testNow))
		}()
		go func() {
			defer wg.Done()
			deleteErr = loans.DeleteLoan(ctx, loan.ID, testAdmin)
		}()
		wg.Wait()

		require.NoError(t, deleteErr)
		_, exists := store.Loan(loan.ID)
		assert.False(t, exists)
		assert.Equal(t, 0, store.ReturnCount())

		tool := store.Tool("t1")
		if settleErr == nil {
			// Liquidado y después borrado: el borrado no vuelve a tocar el stock.
			assert.Equal(t, 4, tool.AvailableStock)
			assert.Equal(t, 4, tool.TotalStock)
		} else {
			// Borrado primero: se liberó la reserva y la liquidación no encontró el préstamo.
			assert.ErrorIs(t, settleErr, domain.ErrNotFound)
			assert.Equal(t, 5, tool.AvailableStock)
			assert.Equal(t, 5, tool.TotalStock)
		}
		assert.Zero(t, tool.RepairStock)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PreviewFine y lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestPreviewFine(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 2, 2)
	loans, returns := newLoanUC(store), newReturnUC(store)
	ctx := context.Background()

	loan := borrowed(t, loans, "t1", 1)

	p, err := returns.PreviewFine(ctx, loan.ID, loan.PlannedReturnDate.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, p.DaysLate)
	assert.True(t, decimal.NewFromInt(10000).Equal(p.TotalFine))

	p, err = returns.PreviewFine(ctx, loan.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, p.DaysLate, "sin fecha se usa el reloj, antes del vencimiento")

	assert.Equal(t, 0, store.ReturnCount(), "la vista previa no escribe")

	_, err = returns.PreviewFine(ctx, "nope", testNow)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetReturnByLoan(t *testing.T) {
	store := lendingtest.NewStore()
	seedTool(store, "t1", 2, 2)
	loans, returns := newLoanUC(store), newReturnUC(store)
	ctx := context.Background()

	loan := borrowed(t, loans, "t1", 1)
	_, err := returns.GetReturnByLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ret, err := returns.SettleReturn(ctx, settle(loan.ID, dlending.PerUnit{Good: 1}, testNow))
	require.NoError(t, err)

	got, err := returns.GetReturnByLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, ret.ID, got.ID)

	list, err := returns.ListReturns(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
