package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/usecase"
)

// BookHandler catálogo de libros. Lectura para cualquier usuario autenticado; escritura solo admin.
type BookHandler struct {
	uc *usecase.BookUseCase
}

func NewBookHandler(uc *usecase.BookUseCase) *BookHandler {
	return &BookHandler{uc: uc}
}

// List godoc
// @Summary      Listar libros
// @Tags         libros
// @Security     Bearer
// @Produce      json
// @Param        autor      query  string  false  "Subcadena del autor"
// @Param        categoria  query  string  false  "ID o nombre de la categoría"
// @Param        limit      query  int     false  "Límite (máx 100)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.BookResponse
// @Router       /api/libros [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	var q dto.BookListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener libro
// @Tags         libros
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del libro"
// @Success      200  {object}  dto.BookResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/libros/{id} [get]
func (h *BookHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return notFound(c, "libro no encontrado")
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear libro
// @Tags         libros
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBookRequest  true  "Datos del libro"
// @Success      201   {object}  dto.BookMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/libros [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBookRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BookMutationResponse{Mensaje: "Libro creado", Libro: *out})
}

// Update godoc
// @Summary      Actualizar libro (parcial)
// @Tags         libros
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "ID del libro"
// @Param        body  body  dto.UpdateBookRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.BookMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/libros/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.UpdateBookRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BookMutationResponse{Mensaje: "Libro actualizado", Libro: *out})
}

// Delete godoc
// @Summary      Eliminar libro
// @Tags         libros
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del libro"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/libros/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Mensaje: "Libro eliminado"})
}
