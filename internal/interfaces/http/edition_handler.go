package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/usecase"
)

// EditionHandler ediciones de un libro y su stock de copias.
type EditionHandler struct {
	uc *usecase.EditionUseCase
}

func NewEditionHandler(uc *usecase.EditionUseCase) *EditionHandler {
	return &EditionHandler{uc: uc}
}

// ListByBook godoc
// @Summary      Ediciones de un libro
// @Tags         ediciones
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del libro"
// @Success      200  {array}  dto.EditionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/libros/{id}/ediciones [get]
func (h *EditionHandler) ListByBook(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.ListByBook(c.UserContext(), bookID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Registrar edición
// @Tags         ediciones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                       true  "ID del libro"
// @Param        body  body  dto.CreateEditionRequest  true  "isbn, anio_publicacion, copias"
// @Success      201   {object}  dto.EditionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/libros/{id}/ediciones [post]
func (h *EditionHandler) Create(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.CreateEditionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), bookID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// SetStock godoc
// @Summary      Ajustar copias de una edición
// @Tags         ediciones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                     true  "ID de la edición"
// @Param        body  body  dto.UpdateStockRequest  true  "disponibles, totales"
// @Success      200   {object}  dto.EditionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ediciones/{id}/copias [put]
func (h *EditionHandler) SetStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.SetStock(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
