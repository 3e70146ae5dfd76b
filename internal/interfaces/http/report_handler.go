package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/analytics"
)

// HeaderContentSHA256 digest hex del archivo descargado.
const HeaderContentSHA256 = "X-Content-SHA256"

// ReportHandler reportes administrativos en JSON y como archivo.
type ReportHandler struct {
	uc *analytics.ReportUseCase
}

func NewReportHandler(uc *analytics.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Inventory godoc
// @Summary      Inventario de copias por libro
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.InventoryItemDTO
// @Router       /api/reportes/inventario [get]
func (h *ReportHandler) Inventory(c *fiber.Ctx) error {
	out, err := h.uc.Inventory(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ActiveLoans godoc
// @Summary      Préstamos activos (Pendiente y En curso)
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ActiveLoanDTO
// @Router       /api/reportes/prestamos-activos [get]
func (h *ReportHandler) ActiveLoans(c *fiber.Ctx) error {
	out, err := h.uc.ActiveLoans(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TopBorrowers godoc
// @Summary      Usuarios con más préstamos
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Cantidad (por defecto 10, máximo 100)"
// @Success      200  {array}  dto.TopBorrowerDTO
// @Router       /api/reportes/top-usuarios [get]
func (h *ReportHandler) TopBorrowers(c *fiber.Ctx) error {
	out, err := h.uc.TopBorrowers(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UserHistory godoc
// @Summary      Historial de préstamos de un usuario
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del usuario"
// @Success      200  {object}  dto.UserHistoryDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reportes/historial-usuario/{id} [get]
func (h *ReportHandler) UserHistory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.UserHistory(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return notFound(c, "usuario no encontrado")
	}
	return c.JSON(out)
}

// Download godoc
// @Summary      Descargar reporte
// @Description  type: inventory | active-loans | top-borrowers | user-history | all (ZIP). formato: csv | pdf | xml.
// @Tags         reportes
// @Security     Bearer
// @Produce      octet-stream
// @Param        type     query  string  true   "Tipo de reporte"
// @Param        formato  query  string  false  "csv (por defecto), pdf o xml"
// @Param        id       query  int     false  "ID del usuario (user-history)"
// @Param        limit    query  int     false  "Cantidad (top-borrowers)"
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reportes/descargar [get]
func (h *ReportHandler) Download(c *fiber.Ctx) error {
	req := analytics.ExportRequest{
		Type:   c.Query("type"),
		Format: c.Query("formato"),
		UserID: int64(c.QueryInt("id", 0)),
		Limit:  c.QueryInt("limit", 0),
	}
	file, err := h.uc.Export(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Set(HeaderContentSHA256, file.SHA256)
	return c.Send(file.Body)
}
