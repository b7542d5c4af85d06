package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Prestamos-api/internal/application/dto"
	"github.com/jhoicas/Prestamos-api/internal/application/lending"
)

// ReturnHandler liquidación de préstamos.
type ReturnHandler struct {
	uc *lending.ReturnUseCase
}

// NewReturnHandler construye el handler.
func NewReturnHandler(uc *lending.ReturnUseCase) *ReturnHandler {
	return &ReturnHandler{uc: uc}
}

// Settle godoc
// @Summary      Registrar devolución
// @Description  Reparte las unidades entre disponible, reparación y pérdidas; calcula retraso y multa.
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SettleReturnRequest  true  "Liquidación"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *ReturnHandler) Settle(c *fiber.Ctx) error {
	var in dto.SettleReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.LoanID == "" {
		return badRequest(c, "VALIDATION", "loan_id es requerido")
	}
	settlement, err := in.Settlement()
	if err != nil {
		return badRequest(c, "VALIDATION", "indique good_units/damaged_units/lost_units o condition, no ambos")
	}
	actual, err := dto.ParseDate(in.ActualReturnDate)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	ret, err := h.uc.SettleReturn(c.UserContext(), lending.SettleReturnInput{
		LoanID:           in.LoanID,
		Settlement:       settlement,
		ActualReturnDate: actual,
		Note:             in.Note,
		ProcessorID:      GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewReturnResponse(ret))
}

// List godoc
// @Summary      Listar devoluciones
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.ReturnListResponse
// @Router       /api/returns [get]
func (h *ReturnHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	list, err := h.uc.ListReturns(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.ReturnResponse, 0, len(list))
	for _, x := range list {
		items = append(items, dto.NewReturnResponse(x))
	}
	return c.JSON(dto.ReturnListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// GetByID godoc
// @Summary      Obtener devolución
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	ret, err := h.uc.GetReturn(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewReturnResponse(ret))
}

// Delete godoc
// @Summary      Borrar devolución (revierte el reparto y reabre el préstamo)
// @Tags         returns
// @Security     Bearer
// @Param        id   path  string  true  "ID de la devolución"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [delete]
func (h *ReturnHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteReturn(c.UserContext(), c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
