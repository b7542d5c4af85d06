package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Prestamos-api/internal/application/dto"
	"github.com/jhoicas/Prestamos-api/internal/application/lending"
	"github.com/jhoicas/Prestamos-api/internal/application/lending/lendingtest"
	"github.com/jhoicas/Prestamos-api/internal/application/usecase"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Prestamos-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const (
	borrowerID = "user-borrower"
	otherID    = "user-otro"
	staffID    = "user-staff"
	adminID    = "user-admin"
)

var handlerNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func buildAPI(t *testing.T) (*fiber.App, *lendingtest.Store) {
	t.Helper()
	store := lendingtest.NewStore()
	store.AddTool(entity.Tool{ID: "t1", Code: "BOR-01", Name: "Taladro", TotalStock: 3, AvailableStock: 3, Status: entity.ToolAvailable})

	opts := []lending.Option{
		lending.WithClock(lendingtest.FixedClock{T: handlerNow}),
		lending.WithCodeGenerator(&lendingtest.SeqCodes{}),
	}
	loanUC := lending.NewLoanUseCase(store, store.LoanRepo(), opts...)
	returnUC := lending.NewReturnUseCase(store, store.LoanRepo(), store.ReturnRepo(),
		lending.FinePolicy{FinePerDay: decimal.NewFromInt(5000), Location: time.UTC}, opts...)
	toolUC := usecase.NewToolUseCase(store.ToolRepo(), store.CategoryRepo())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ToolUC:    toolUC,
		LoanUC:    loanUC,
		ReturnUC:  returnUC,
		JWTSecret: testJWTSecret,
	})
	return app, store
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		raw, _ := io.ReadAll(resp.Body)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, out), "respuesta JSON: %s", raw)
		}
	}
	return resp.StatusCode
}

func submitLoan(t *testing.T, app *fiber.App, auth string, qty int) dto.LoanResponse {
	t.Helper()
	var loan dto.LoanResponse
	status := call(t, app, http.MethodPost, "/api/loans", auth, dto.SubmitLoanRequest{
		ToolID: "t1", Quantity: qty, BorrowDate: "2024-03-10", PlannedReturnDate: "2024-03-15",
	}, &loan)
	require.Equal(t, http.StatusCreated, status)
	return loan
}

func intp(n int) *int { return &n }

// ──────────────────────────────────────────────────────────────────────────────
// Préstamos
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_PrestatarioSoloParaSiMismo(t *testing.T) {
	app, _ := buildAPI(t)
	borrower := tokenFor(t, borrowerID, entity.RoleBorrower)

	var loan dto.LoanResponse
	status := call(t, app, http.MethodPost, "/api/loans", borrower, dto.SubmitLoanRequest{
		UserID: otherID, ToolID: "t1", Quantity: 1, BorrowDate: "2024-03-10", PlannedReturnDate: "2024-03-12",
	}, &loan)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, borrowerID, loan.UserID, "un prestatario no solicita en nombre de otro")
	assert.Equal(t, "waiting", loan.Status)
	assert.Equal(t, "2024-03-12", loan.PlannedReturnDate)
}

func TestSubmit_StaffEnNombreDeOtro(t *testing.T) {
	app, _ := buildAPI(t)
	var loan dto.LoanResponse
	status := call(t, app, http.MethodPost, "/api/loans", tokenFor(t, staffID, entity.RoleStaff), dto.SubmitLoanRequest{
		UserID: otherID, ToolID: "t1", Quantity: 1, BorrowDate: "2024-03-10", PlannedReturnDate: "2024-03-12",
	}, &loan)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, otherID, loan.UserID)
}

func TestSubmit_Validaciones(t *testing.T) {
	app, _ := buildAPI(t)
	borrower := tokenFor(t, borrowerID, entity.RoleBorrower)

	var e dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/loans", borrower, dto.SubmitLoanRequest{
		ToolID: "t1", Quantity: 0, BorrowDate: "2024-03-10", PlannedReturnDate: "2024-03-12",
	}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", e.Code)

	status = call(t, app, http.MethodPost, "/api/loans", borrower, dto.SubmitLoanRequest{
		ToolID: "t1", Quantity: 1, BorrowDate: "10/03/2024", PlannedReturnDate: "2024-03-12",
	}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)

	status = call(t, app, http.MethodPost, "/api/loans", borrower, dto.SubmitLoanRequest{
		ToolID: "nope", Quantity: 1, BorrowDate: "2024-03-10", PlannedReturnDate: "2024-03-12",
	}, &e)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "TOOL_NOT_FOUND", e.Code)
}

func TestApprove_SoloStaffYSinSobreventa(t *testing.T) {
	app, store := buildAPI(t)
	borrower := tokenFor(t, borrowerID, entity.RoleBorrower)
	staff := tokenFor(t, staffID, entity.RoleStaff)

	a := submitLoan(t, app, borrower, 2)
	b := submitLoan(t, app, borrower, 2)

	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPost, "/api/loans/"+a.ID+"/approve", borrower, nil, nil))

	var approved dto.LoanResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/loans/"+a.ID+"/approve", staff, nil, &approved))
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.ValidatedBy)
	assert.Equal(t, staffID, *approved.ValidatedBy)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodPost, "/api/loans/"+b.ID+"/approve", staff, nil, &e))
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	assert.Equal(t, 1, store.Tool("t1").AvailableStock)

	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodPost, "/api/loans/"+a.ID+"/approve", staff, nil, &e))
	assert.Equal(t, "INVALID_TRANSITION", e.Code)
}

func TestReject_ConMotivo(t *testing.T) {
	app, _ := buildAPI(t)
	loan := submitLoan(t, app, tokenFor(t, borrowerID, entity.RoleBorrower), 1)

	var out dto.LoanResponse
	status := call(t, app, http.MethodPost, "/api/loans/"+loan.ID+"/reject", tokenFor(t, staffID, entity.RoleStaff),
		dto.RejectLoanRequest{Note: "sin stock en bodega"}, &out)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rejected", out.Status)
	assert.Equal(t, "sin stock en bodega", out.ValidationNote)
}

func TestListYGet_PrestatarioVeSoloLosSuyos(t *testing.T) {
	app, _ := buildAPI(t)
	mine := submitLoan(t, app, tokenFor(t, borrowerID, entity.RoleBorrower), 1)
	theirs := submitLoan(t, app, tokenFor(t, otherID, entity.RoleBorrower), 1)
	borrower := tokenFor(t, borrowerID, entity.RoleBorrower)

	var list dto.LoanListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/loans?user_id="+otherID, borrower, nil, &list))
	require.Len(t, list.Items, 1, "el filtro user_id se ignora para prestatarios")
	assert.Equal(t, mine.ID, list.Items[0].ID)

	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/loans/"+mine.ID, borrower, nil, nil))
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/loans/"+theirs.ID, borrower, nil, nil))

	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/loans", tokenFor(t, staffID, entity.RoleStaff), nil, &list))
	assert.Len(t, list.Items, 2)
}

func TestUpdateYDelete(t *testing.T) {
	app, store := buildAPI(t)
	staff := tokenFor(t, staffID, entity.RoleStaff)
	admin := tokenFor(t, adminID, entity.RoleAdmin)
	loan := submitLoan(t, app, tokenFor(t, borrowerID, entity.RoleBorrower), 1)
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/loans/"+loan.ID+"/approve", staff, nil, nil))

	var out dto.LoanResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPut, "/api/loans/"+loan.ID, staff,
		dto.UpdateLoanRequest{Quantity: intp(3)}, &out))
	assert.Equal(t, 3, out.Quantity)
	assert.Equal(t, 0, store.Tool("t1").AvailableStock)

	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodDelete, "/api/loans/"+loan.ID, staff, nil, nil))
	assert.Equal(t, http.StatusNoContent, call(t, app, http.MethodDelete, "/api/loans/"+loan.ID, admin, nil, nil))
	assert.Equal(t, 3, store.Tool("t1").AvailableStock, "borrar libera la reserva")
}

// ──────────────────────────────────────────────────────────────────────────────
// Devoluciones
// ──────────────────────────────────────────────────────────────────────────────

func TestSettleYDeleteReturn(t *testing.T) {
	app, store := buildAPI(t)
	staff := tokenFor(t, staffID, entity.RoleStaff)
	admin := tokenFor(t, adminID, entity.RoleAdmin)
	loan := submitLoan(t, app, tokenFor(t, borrowerID, entity.RoleBorrower), 2)
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/loans/"+loan.ID+"/lend", staff, nil, nil))

	var e dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/returns", staff, dto.SettleReturnRequest{
		LoanID: loan.ID, GoodUnits: intp(1),
	}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNIT_MISMATCH", e.Code)

	status = call(t, app, http.MethodPost, "/api/returns", staff, dto.SettleReturnRequest{
		LoanID: loan.ID, GoodUnits: intp(2), Condition: "good",
	}, &e)
	assert.Equal(t, http.StatusBadRequest, status, "reparto y condición general a la vez")

	var ret dto.ReturnResponse
	status = call(t, app, http.MethodPost, "/api/returns", staff, dto.SettleReturnRequest{
		LoanID: loan.ID, GoodUnits: intp(1), DamagedUnits: intp(1), ActualReturnDate: "2024-03-18",
	}, &ret)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 3, ret.DaysLate)
	assert.True(t, decimal.NewFromInt(15000).Equal(ret.TotalFine))
	assert.Equal(t, "damaged", ret.Condition)
	assert.Equal(t, 2, store.Tool("t1").AvailableStock)
	assert.Equal(t, 1, store.Tool("t1").RepairStock)

	status = call(t, app, http.MethodPost, "/api/returns", staff, dto.SettleReturnRequest{LoanID: loan.ID, Condition: "good"}, &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_SETTLED", e.Code)

	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodDelete, "/api/returns/"+ret.ID, staff, nil, nil))
	assert.Equal(t, http.StatusNoContent, call(t, app, http.MethodDelete, "/api/returns/"+ret.ID, admin, nil, nil))
	assert.Equal(t, 1, store.Tool("t1").AvailableStock)
	assert.Equal(t, 0, store.Tool("t1").RepairStock)

	var got dto.LoanResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/loans/"+loan.ID, staff, nil, &got))
	assert.Equal(t, "borrowed", got.Status)
}

func TestFinePreview(t *testing.T) {
	app, _ := buildAPI(t)
	staff := tokenFor(t, staffID, entity.RoleStaff)
	loan := submitLoan(t, app, tokenFor(t, borrowerID, entity.RoleBorrower), 1)

	var p dto.FinePreviewResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/loans/"+loan.ID+"/fine-preview?at=2024-03-17", staff, nil, &p))
	assert.Equal(t, 2, p.DaysLate)
	assert.True(t, decimal.NewFromInt(10000).Equal(p.TotalFine))
	assert.Equal(t, "2024-03-17", p.At)

	assert.Equal(t, http.StatusForbidden,
		call(t, app, http.MethodGet, "/api/loans/"+loan.ID+"/fine-preview", tokenFor(t, borrowerID, entity.RoleBorrower), nil, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Herramientas
// ──────────────────────────────────────────────────────────────────────────────

func TestTools(t *testing.T) {
	app, _ := buildAPI(t)
	borrower := tokenFor(t, borrowerID, entity.RoleBorrower)

	var tool dto.ToolResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/tools/t1", borrower, nil, &tool))
	assert.Equal(t, "BOR-01", tool.Code)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, "/api/tools/nope", borrower, nil, &e))
	assert.Equal(t, "TOOL_NOT_FOUND", e.Code)

	var list dto.ToolListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/tools", borrower, nil, &list))
	assert.Len(t, list.Items, 1)

	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/tools", "", nil, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrToolNotFound, http.StatusNotFound, "TOOL_NOT_FOUND"},
		{domain.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
		{domain.ErrUnitMismatch, http.StatusBadRequest, "UNIT_MISMATCH"},
		{domain.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{domain.ErrAlreadySettled, http.StatusConflict, "ALREADY_SETTLED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("%w: %w", domain.ErrTransactionFailed, errors.New("conexión perdida")), http.StatusServiceUnavailable, "TRANSACTION_FAILED"},
		{errors.New("otro"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := apphttp.StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(apphttp.RequestLogger(zerolog.New(&buf)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/conflict", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusConflict) })

	for _, path := range []string{"/ok", "/conflict"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "/ok", first["path"])
	assert.EqualValues(t, 200, first["status"])
	assert.Equal(t, "warn", second["level"])
	assert.EqualValues(t, 409, second["status"])
}
