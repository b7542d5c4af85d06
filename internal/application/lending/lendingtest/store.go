// Package lendingtest almacén transaccional en memoria y dobles de prueba para los casos de uso
// de préstamo. Solo para tests.
package lendingtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Prestamos-api/internal/application/lending"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

type memState struct {
	tools    map[string]entity.Tool
	loans    map[string]entity.Loan
	returns  map[string]entity.LoanReturn
	activity []entity.ActivityLog
}

func (s *memState) clone() *memState {
	c := &memState{
		tools:    make(map[string]entity.Tool, len(s.tools)),
		loans:    make(map[string]entity.Loan, len(s.loans)),
		returns:  make(map[string]entity.LoanReturn, len(s.returns)),
		activity: append([]entity.ActivityLog(nil), s.activity...),
	}
	for k, v := range s.tools {
		c.tools[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	for k, v := range s.returns {
		c.returns[k] = v
	}
	return c
}

// Store almacén transaccional en memoria. Cada Run trabaja sobre una copia del estado confirmado
// y la publica solo si fn termina sin error (commit); las lecturas fuera de tx solo ven estado
// confirmado. txMu serializa las transacciones, emulando los bloqueos de fila del almacén real.
type Store struct {
	txMu   sync.Mutex
	dataMu sync.Mutex
	state  *memState

	failActivity bool
	failCommit   error
}

var _ lending.TxRunner = (*Store)(nil)

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{state: &memState{
		tools:   map[string]entity.Tool{},
		loans:   map[string]entity.Loan{},
		returns: map[string]entity.LoanReturn{},
	}}
}

// Run implementa lending.TxRunner.
func (s *Store) Run(_ context.Context, fn func(repos lending.TxRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.dataMu.Lock()
	work := s.state.clone()
	failActivity, failCommit := s.failActivity, s.failCommit
	s.dataMu.Unlock()

	repos := lending.TxRepos{
		Tools:    &memTools{st: func() *memState { return work }},
		Loans:    &memLoans{st: func() *memState { return work }},
		Returns:  &memReturns{st: func() *memState { return work }},
		Activity: &memActivity{st: func() *memState { return work }, fail: failActivity},
	}
	if err := fn(repos); err != nil {
		return err
	}
	if failCommit != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransactionFailed, failCommit)
	}
	s.dataMu.Lock()
	s.state = work
	s.dataMu.Unlock()
	return nil
}

// committed devuelve un accesor de solo lectura sobre el estado confirmado.
func (s *Store) committed() func() *memState {
	return func() *memState {
		s.dataMu.Lock()
		defer s.dataMu.Unlock()
		return s.state.clone()
	}
}

// LoanRepo repositorio de lectura sobre el estado confirmado.
func (s *Store) LoanRepo() repository.LoanRepository { return &memLoans{st: s.committed()} }

// ReturnRepo repositorio de lectura sobre el estado confirmado.
func (s *Store) ReturnRepo() repository.ReturnRepository { return &memReturns{st: s.committed()} }

// ToolRepo repositorio de lectura sobre el estado confirmado.
func (s *Store) ToolRepo() repository.ToolRepository { return &memTools{st: s.committed()} }

// SetFailActivity hace fallar las escrituras de bitácora.
func (s *Store) SetFailActivity(fail bool) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.failActivity = fail
}

// SetFailCommit hace fallar el commit de las próximas transacciones con err.
func (s *Store) SetFailCommit(err error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.failCommit = err
}

// AddTool siembra una herramienta.
func (s *Store) AddTool(t entity.Tool) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.state.tools[t.ID] = t
}

// Tool devuelve la herramienta confirmada.
func (s *Store) Tool(id string) entity.Tool {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.state.tools[id]
}

// Loan devuelve el préstamo confirmado.
func (s *Store) Loan(id string) (entity.Loan, bool) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	l, ok := s.state.loans[id]
	return l, ok
}

// ReturnCount número de devoluciones confirmadas.
func (s *Store) ReturnCount() int {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return len(s.state.returns)
}

// ActivityLog entradas de bitácora confirmadas.
func (s *Store) ActivityLog() []entity.ActivityLog {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return append([]entity.ActivityLog(nil), s.state.activity...)
}

// ── repositorios ─────────────────────────────────────────────────────────────

type memTools struct{ st func() *memState }

func (r *memTools) GetByID(_ context.Context, id string) (*entity.Tool, error) {
	t, ok := r.st().tools[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *memTools) GetForUpdate(ctx context.Context, id string) (*entity.Tool, error) {
	return r.GetByID(ctx, id)
}

func (r *memTools) UpdateStock(_ context.Context, tool *entity.Tool) error {
	st := r.st()
	if _, ok := st.tools[tool.ID]; !ok {
		return domain.ErrToolNotFound
	}
	st.tools[tool.ID] = *tool
	return nil
}

func (r *memTools) List(_ context.Context, _ repository.ToolFilter) ([]*entity.Tool, error) {
	var out []*entity.Tool
	for _, t := range r.st().tools {
		t := t
		out = append(out, &t)
	}
	return out, nil
}

type memLoans struct{ st func() *memState }

func (r *memLoans) Create(_ context.Context, loan *entity.Loan) error {
	st := r.st()
	for _, l := range st.loans {
		if l.Code == loan.Code {
			return domain.ErrDuplicate
		}
	}
	st.loans[loan.ID] = *loan
	return nil
}

func (r *memLoans) GetByID(_ context.Context, id string) (*entity.Loan, error) {
	l, ok := r.st().loans[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *memLoans) GetForUpdate(ctx context.Context, id string) (*entity.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *memLoans) Update(_ context.Context, loan *entity.Loan) error {
	st := r.st()
	if _, ok := st.loans[loan.ID]; !ok {
		return domain.ErrNotFound
	}
	st.loans[loan.ID] = *loan
	return nil
}

func (r *memLoans) Delete(_ context.Context, id string) error {
	delete(r.st().loans, id)
	return nil
}

func (r *memLoans) List(_ context.Context, f repository.LoanFilter) ([]*entity.Loan, error) {
	var out []*entity.Loan
	for _, l := range r.st().loans {
		if f.UserID != "" && l.UserID != f.UserID {
			continue
		}
		if f.ToolID != "" && l.ToolID != f.ToolID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type memReturns struct{ st func() *memState }

func (r *memReturns) Create(_ context.Context, ret *entity.LoanReturn) error {
	st := r.st()
	for _, x := range st.returns {
		if x.LoanID == ret.LoanID {
			return domain.ErrAlreadySettled
		}
	}
	st.returns[ret.ID] = *ret
	return nil
}

func (r *memReturns) GetByID(_ context.Context, id string) (*entity.LoanReturn, error) {
	x, ok := r.st().returns[id]
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (r *memReturns) GetForUpdate(ctx context.Context, id string) (*entity.LoanReturn, error) {
	return r.GetByID(ctx, id)
}

func (r *memReturns) GetByLoanID(_ context.Context, loanID string) (*entity.LoanReturn, error) {
	for _, x := range r.st().returns {
		if x.LoanID == loanID {
			return &x, nil
		}
	}
	return nil, nil
}

func (r *memReturns) Delete(_ context.Context, id string) error {
	delete(r.st().returns, id)
	return nil
}

func (r *memReturns) List(_ context.Context, limit, offset int) ([]*entity.LoanReturn, error) {
	var out []*entity.LoanReturn
	for _, x := range r.st().returns {
		x := x
		out = append(out, &x)
	}
	return out, nil
}

type memActivity struct {
	st   func() *memState
	fail bool
}

func (r *memActivity) Record(_ context.Context, e *entity.ActivityLog) error {
	if r.fail {
		return errors.New("bitácora caída")
	}
	st := r.st()
	st.activity = append(st.activity, *e)
	return nil
}

// ── utilidades ───────────────────────────────────────────────────────────────

// FixedClock reloj fijo.
type FixedClock struct{ T time.Time }

// Now implementa lending.Clock.
func (c FixedClock) Now() time.Time { return c.T }

// SeqCodes genera códigos PJM-0001, PJM-0002, ...
type SeqCodes struct {
	mu sync.Mutex
	n  int
}

// NewLoanCode implementa lending.CodeGenerator.
func (g *SeqCodes) NewLoanCode(time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("PJM-%04d", g.n), nil
}

// RecordingPublisher guarda lo publicado; con Err fija falla siempre.
type RecordingPublisher struct {
	mu      sync.Mutex
	entries []entity.ActivityLog
	Err     error
}

// Publish implementa lending.ActivityPublisher.
func (p *RecordingPublisher) Publish(_ context.Context, e *entity.ActivityLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.entries = append(p.entries, *e)
	return nil
}

// Entries copia de lo publicado.
func (p *RecordingPublisher) Entries() []entity.ActivityLog {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.ActivityLog(nil), p.entries...)
}

// CategoryRepo categorías fijas para el catálogo.
func (s *Store) CategoryRepo(list ...*entity.Category) repository.CategoryRepository {
	return staticCategories(list)
}

type staticCategories []*entity.Category

func (c staticCategories) GetByID(_ context.Context, id string) (*entity.Category, error) {
	for _, x := range c {
		if x.ID == id {
			return x, nil
		}
	}
	return nil, nil
}

func (c staticCategories) List(context.Context) ([]*entity.Category, error) { return c, nil }
