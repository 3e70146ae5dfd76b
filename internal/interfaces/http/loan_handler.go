package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/lending"
)

// LoanHandler préstamos: alta, inicio, devolución y consultas.
type LoanHandler struct {
	uc *lending.LoanUseCase
}

func NewLoanHandler(uc *lending.LoanUseCase) *LoanHandler {
	return &LoanHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar préstamo (reserva una copia de cada edición)
// @Tags         prestamos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLoanRequest  true  "usuario, ediciones, fechas y precio"
// @Success      201   {object}  dto.LoanMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/prestamos [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLoanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.LoanMutationResponse{Mensaje: "Préstamo registrado", Prestamo: *out})
}

// Start godoc
// @Summary      Entregar préstamo (Pendiente -> En curso)
// @Tags         prestamos
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanMutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/prestamos/{id}/iniciar [post]
func (h *LoanHandler) Start(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.Start(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LoanMutationResponse{Mensaje: "Préstamo en curso", Prestamo: *out})
}

// Return godoc
// @Summary      Devolver préstamo (libera las copias)
// @Tags         prestamos
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanMutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/prestamos/{id}/devolver [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.Return(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LoanMutationResponse{Mensaje: "Préstamo devuelto", Prestamo: *out})
}

// GetByID godoc
// @Summary      Obtener préstamo (admin o dueño)
// @Tags         prestamos
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/prestamos/{id} [get]
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.Get(c.UserContext(), id, GetUserID(c), IsAdmin(c))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return notFound(c, "préstamo no encontrado")
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar préstamos
// @Tags         prestamos
// @Security     Bearer
// @Produce      json
// @Param        estado      query  string  false  "Pendiente | En curso | Devuelto"
// @Param        usuario_id  query  int     false  "ID del usuario"
// @Success      200  {array}  dto.LoanResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/prestamos [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	var q dto.LoanListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Mine godoc
// @Summary      Mis préstamos
// @Tags         prestamos
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LoanResponse
// @Router       /api/prestamos/mios [get]
func (h *LoanHandler) Mine(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListByUser(c.UserContext(), GetUserID(c), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
