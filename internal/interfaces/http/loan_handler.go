package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Prestamos-api/internal/application/dto"
	"github.com/jhoicas/Prestamos-api/internal/application/lending"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

// LoanHandler ciclo de vida del préstamo.
type LoanHandler struct {
	loans   *lending.LoanUseCase
	returns *lending.ReturnUseCase
}

// NewLoanHandler construye el handler.
func NewLoanHandler(loans *lending.LoanUseCase, returns *lending.ReturnUseCase) *LoanHandler {
	return &LoanHandler{loans: loans, returns: returns}
}

// Submit godoc
// @Summary      Solicitar préstamo
// @Description  El prestatario solicita para sí mismo; admin/staff pueden indicar user_id.
// @Tags         loans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitLoanRequest  true  "Solicitud"
// @Success      201   {object}  dto.LoanResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/loans [post]
func (h *LoanHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitLoanRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.ToolID == "" {
		return badRequest(c, "VALIDATION", "tool_id es requerido")
	}
	borrow, err := dto.ParseDate(in.BorrowDate)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	planned, err := dto.ParseDate(in.PlannedReturnDate)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}

	actorID := GetUserID(c)
	userID := actorID
	if in.UserID != "" && isStaff(c) {
		userID = in.UserID
	}
	loan, err := h.loans.SubmitLoan(c.UserContext(), lending.SubmitLoanInput{
		UserID:            userID,
		ToolID:            in.ToolID,
		Quantity:          in.Quantity,
		BorrowDate:        borrow,
		PlannedReturnDate: planned,
		Purpose:           in.Purpose,
		ActorID:           actorID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewLoanResponse(loan))
}

// List godoc
// @Summary      Listar préstamos
// @Description  Los prestatarios solo ven sus propios préstamos.
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        status   query  string  false  "waiting|approved|borrowed|rejected|returned"
// @Param        tool_id  query  string  false  "Herramienta"
// @Param        user_id  query  string  false  "Usuario (solo admin/staff)"
// @Param        limit    query  int     false  "Límite"  default(20)
// @Param        offset   query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LoanListResponse
// @Router       /api/loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	filter := repository.LoanFilter{
		ToolID: c.Query("tool_id"),
		Status: entity.LoanStatus(c.Query("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if isStaff(c) {
		filter.UserID = c.Query("user_id")
	} else {
		filter.UserID = GetUserID(c)
	}
	list, err := h.loans.ListLoans(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.LoanResponse, 0, len(list))
	for _, l := range list {
		items = append(items, dto.NewLoanResponse(l))
	}
	return c.JSON(dto.LoanListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// GetByID godoc
// @Summary      Obtener préstamo
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loans/{id} [get]
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	loan, err := h.loans.GetLoan(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !isStaff(c) && loan.UserID != GetUserID(c) {
		return writeError(c, domain.ErrForbidden)
	}
	return c.JSON(dto.NewLoanResponse(loan))
}

// Update godoc
// @Summary      Editar préstamo
// @Description  Si el préstamo tiene reserva y cambia herramienta o cantidad, se libera la anterior y se reserva la nueva.
// @Tags         loans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del préstamo"
// @Param        body  body  dto.UpdateLoanRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.LoanResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/loans/{id} [put]
func (h *LoanHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateLoanRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	borrow, err := optionalDate(in.BorrowDate)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	planned, err := optionalDate(in.PlannedReturnDate)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	loan, err := h.loans.UpdateLoan(c.UserContext(), c.Params("id"), lending.UpdateLoanInput{
		ToolID:            in.ToolID,
		Quantity:          in.Quantity,
		BorrowDate:        borrow,
		PlannedReturnDate: planned,
		Purpose:           in.Purpose,
		ActorID:           GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewLoanResponse(loan))
}

// Approve godoc
// @Summary      Aprobar préstamo (reserva existencias)
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/approve [post]
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	loan, err := h.loans.ApproveLoan(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewLoanResponse(loan))
}

// Lend godoc
// @Summary      Entregar préstamo
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/lend [post]
func (h *LoanHandler) Lend(c *fiber.Ctx) error {
	loan, err := h.loans.LendLoan(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewLoanResponse(loan))
}

// Reject godoc
// @Summary      Rechazar préstamo
// @Tags         loans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true   "ID del préstamo"
// @Param        body  body  dto.RejectLoanRequest  false  "Motivo"
// @Success      200   {object}  dto.LoanResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/reject [post]
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectLoanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "cuerpo inválido")
		}
	}
	loan, err := h.loans.RejectLoan(c.UserContext(), c.Params("id"), GetUserID(c), in.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewLoanResponse(loan))
}

// Delete godoc
// @Summary      Borrar préstamo (libera la reserva si la tiene)
// @Tags         loans
// @Security     Bearer
// @Param        id   path  string  true  "ID del préstamo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loans/{id} [delete]
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	if err := h.loans.DeleteLoan(c.UserContext(), c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FinePreview godoc
// @Summary      Multa estimada
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path   string  true   "ID del préstamo"
// @Param        at   query  string  false  "Fecha de devolución supuesta (AAAA-MM-DD); vacío = hoy"
// @Success      200  {object}  dto.FinePreviewResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/fine-preview [get]
func (h *LoanHandler) FinePreview(c *fiber.Ctx) error {
	at, err := dto.ParseDate(c.Query("at"))
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	p, err := h.returns.PreviewFine(c.UserContext(), c.Params("id"), at)
	if err != nil {
		return writeError(c, err)
	}
	shown := at
	if shown.IsZero() {
		shown = time.Now()
	}
	return c.JSON(dto.FinePreviewResponse{
		LoanID:     p.LoanID,
		At:         shown.Format(dto.DateLayout),
		DaysLate:   p.DaysLate,
		FinePerDay: p.FinePerDay,
		TotalFine:  p.TotalFine,
	})
}

func optionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := dto.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
