package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

// Tipos de reporte descargables (?type=).
const (
	ReportInventory    = "inventory"
	ReportActiveLoans  = "active-loans"
	ReportTopBorrowers = "top-borrowers"
	ReportUserHistory  = "user-history"
	ReportAll          = "all"
)

const (
	defaultTopBorrowers = 10
	maxTopBorrowers     = 100
)

// Cabeceras CSV de cada reporte (también columnas del PDF y elementos del XML).
var (
	InventoryHeaders   = []string{"libro_id", "titulo", "autor", "copias_disponibles", "copias_totales"}
	ActiveLoanHeaders  = []string{"prestamo_id", "usuario_nombre", "usuario_ci", "fecha_prestamo", "fecha_devolucion", "dias_prestado", "estado"}
	TopBorrowerHeaders = []string{"posicion", "usuario_id", "nombre", "ci", "total_prestamos"}
	UserHistoryHeaders = []string{"prestamo_id", "fecha_prestamo", "fecha_devolucion", "fecha_entrega", "estado", "precio", "libros"}
)

// ExportRequest parámetros de /api/reportes/descargar.
type ExportRequest struct {
	Type   string
	Format string // csv (por defecto), pdf, xml
	UserID int64  // solo user-history
	Limit  int    // solo top-borrowers
}

// ReportFile archivo listo para enviar. SHA256 es el digest hex de Body.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	SHA256      string
}

// ReportUseCase reportes administrativos: inventario, préstamos activos, ranking de
// lectores e historial por usuario, en JSON o como archivo descargable.
type ReportUseCase struct {
	repo      repository.ReportRepository
	userRepo  repository.UserRepository
	renderers map[string]ports.ReportRenderer
	archiver  ports.ReportArchiver
	topLimit  int
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso. renderers se indexa por formato ("csv", "pdf", "xml").
func NewReportUseCase(
	repo repository.ReportRepository,
	userRepo repository.UserRepository,
	renderers map[string]ports.ReportRenderer,
	archiver ports.ReportArchiver,
	topLimit int,
) *ReportUseCase {
	if topLimit <= 0 {
		topLimit = defaultTopBorrowers
	}
	return &ReportUseCase{
		repo:      repo,
		userRepo:  userRepo,
		renderers: renderers,
		archiver:  archiver,
		topLimit:  topLimit,
		now:       time.Now,
	}
}

// Inventory copias disponibles y totales por libro, ordenado por título.
func (uc *ReportUseCase) Inventory(ctx context.Context) ([]dto.InventoryItemDTO, error) {
	rows, err := uc.repo.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("reporte inventario: %w", err)
	}
	out := make([]dto.InventoryItemDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.InventoryItemDTO{
			BookID:    r.BookID,
			Title:     r.Title,
			Author:    r.Author,
			Available: r.Available,
			Total:     r.Total,
		})
	}
	return out, nil
}

// ActiveLoans préstamos pendientes o en curso, el más antiguo primero.
// El estado se normaliza porque los datos importados arrastran grafías antiguas.
func (uc *ReportUseCase) ActiveLoans(ctx context.Context) ([]dto.ActiveLoanDTO, error) {
	rows, err := uc.repo.ActiveLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("reporte préstamos activos: %w", err)
	}
	now := uc.now()
	out := make([]dto.ActiveLoanDTO, 0, len(rows))
	for _, r := range rows {
		status := normalizeStatus(r.RawStatus)
		loan := entity.Loan{LoanDate: r.LoanDate, DueDate: r.DueDate, Status: status}
		out = append(out, dto.ActiveLoanDTO{
			LoanID:     r.LoanID,
			UserID:     r.UserID,
			UserName:   strings.TrimSpace(r.FirstName + " " + r.LastName),
			UserCI:     r.CI,
			LoanDate:   r.LoanDate.Format(dto.DateLayout),
			DueDate:    r.DueDate.Format(dto.DateLayout),
			DaysOnLoan: loan.DaysOnLoan(now),
			Status:     status.String(),
			Overdue:    loan.IsOverdue(now),
		})
	}
	return out, nil
}

// TopBorrowers ranking de usuarios por número de préstamos. limit<=0 usa el configurado.
func (uc *ReportUseCase) TopBorrowers(ctx context.Context, limit int) ([]dto.TopBorrowerDTO, error) {
	if limit <= 0 {
		limit = uc.topLimit
	}
	if limit > maxTopBorrowers {
		limit = maxTopBorrowers
	}
	rows, err := uc.repo.TopBorrowers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("reporte top usuarios: %w", err)
	}
	out := make([]dto.TopBorrowerDTO, 0, len(rows))
	for i, r := range rows {
		out = append(out, dto.TopBorrowerDTO{
			Position:   i + 1,
			UserID:     r.UserID,
			Name:       strings.TrimSpace(r.FirstName + " " + r.LastName),
			CI:         r.CI,
			TotalLoans: r.TotalLoans,
		})
	}
	return out, nil
}

// UserHistory historial de préstamos de un usuario. (nil, nil) si el usuario no existe.
func (uc *ReportUseCase) UserHistory(ctx context.Context, userID int64) (*dto.UserHistoryDTO, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	rows, err := uc.repo.UserLoanHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reporte historial: %w", err)
	}
	out := &dto.UserHistoryDTO{
		User: dto.HistoryUserDTO{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			CI:        user.CI,
		},
		Loans: make([]dto.HistoryLoanDTO, 0, len(rows)),
	}
	for _, r := range rows {
		item := dto.HistoryLoanDTO{
			ID:       r.LoanID,
			LoanDate: r.LoanDate.Format(dto.DateLayout),
			DueDate:  r.DueDate.Format(dto.DateLayout),
			Status:   normalizeStatus(r.RawStatus).String(),
			Price:    r.Price.Round(2),
			Titles:   r.Titles,
		}
		if item.Titles == nil {
			item.Titles = []string{}
		}
		if r.ReturnedAt != nil {
			item.ReturnedAt = r.ReturnedAt.Format(dto.DateLayout)
		}
		out.Loans = append(out.Loans, item)
	}
	return out, nil
}

// Export genera el archivo del reporte pedido. type=all empaqueta inventario, préstamos
// activos y ranking en un ZIP con el formato indicado.
func (uc *ReportUseCase) Export(ctx context.Context, req ExportRequest) (*ReportFile, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := uc.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: formato desconocido %q (csv, pdf, xml)", domain.ErrInvalidInput, req.Format)
	}
	reportType := strings.ToLower(strings.TrimSpace(req.Type))
	stamp := uc.now().Format("20060102")

	if reportType == ReportAll {
		if uc.archiver == nil {
			return nil, fmt.Errorf("%w: empaquetado no disponible", domain.ErrInvalidInput)
		}
		entries := make([]ports.ArchiveEntry, 0, 3)
		for _, t := range []string{ReportInventory, ReportActiveLoans, ReportTopBorrowers} {
			table, err := uc.Table(ctx, t, req)
			if err != nil {
				return nil, err
			}
			body, err := renderer.Render(ctx, *table)
			if err != nil {
				return nil, fmt.Errorf("reporte %s: %w", t, err)
			}
			entries = append(entries, ports.ArchiveEntry{Name: t + "." + renderer.Extension(), Body: body})
		}
		body, err := uc.archiver.Archive(entries)
		if err != nil {
			return nil, fmt.Errorf("reporte: empaquetar: %w", err)
		}
		return newReportFile("reportes_"+stamp+"."+uc.archiver.Extension(), uc.archiver.ContentType(), body), nil
	}

	table, err := uc.Table(ctx, reportType, req)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(ctx, *table)
	if err != nil {
		return nil, fmt.Errorf("reporte %s: %w", reportType, err)
	}
	name := reportType + "_" + stamp
	if reportType == ReportUserHistory {
		name = reportType + "_" + strconv.FormatInt(req.UserID, 10) + "_" + stamp
	}
	return newReportFile(name+"."+renderer.Extension(), renderer.ContentType(), body), nil
}

// Table construye la tabla (cabecera + filas de texto) de un reporte.
func (uc *ReportUseCase) Table(ctx context.Context, reportType string, req ExportRequest) (*ports.ReportTable, error) {
	table := &ports.ReportTable{Key: reportType, GeneratedAt: uc.now()}
	switch reportType {
	case ReportInventory:
		items, err := uc.Inventory(ctx)
		if err != nil {
			return nil, err
		}
		table.Title = "Inventario de libros"
		table.Headers = InventoryHeaders
		for _, it := range items {
			table.Rows = append(table.Rows, []string{
				itoa64(it.BookID), it.Title, it.Author, strconv.Itoa(it.Available), strconv.Itoa(it.Total),
			})
		}
	case ReportActiveLoans:
		items, err := uc.ActiveLoans(ctx)
		if err != nil {
			return nil, err
		}
		table.Title = "Préstamos activos"
		table.Headers = ActiveLoanHeaders
		for _, it := range items {
			table.Rows = append(table.Rows, []string{
				itoa64(it.LoanID), it.UserName, it.UserCI, it.LoanDate, it.DueDate, strconv.Itoa(it.DaysOnLoan), it.Status,
			})
		}
	case ReportTopBorrowers:
		items, err := uc.TopBorrowers(ctx, req.Limit)
		if err != nil {
			return nil, err
		}
		table.Title = "Usuarios con más préstamos"
		table.Headers = TopBorrowerHeaders
		for _, it := range items {
			table.Rows = append(table.Rows, []string{
				strconv.Itoa(it.Position), itoa64(it.UserID), it.Name, it.CI, strconv.Itoa(it.TotalLoans),
			})
		}
	case ReportUserHistory:
		if req.UserID <= 0 {
			return nil, fmt.Errorf("%w: el reporte user-history requiere id de usuario", domain.ErrInvalidInput)
		}
		hist, err := uc.UserHistory(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if hist == nil {
			return nil, domain.ErrUserNotFound
		}
		table.Title = strings.TrimSpace(fmt.Sprintf("Historial de préstamos: %s %s (%s)",
			hist.User.FirstName, hist.User.LastName, hist.User.CI))
		table.Headers = UserHistoryHeaders
		for _, it := range hist.Loans {
			table.Rows = append(table.Rows, []string{
				itoa64(it.ID), it.LoanDate, it.DueDate, it.ReturnedAt, it.Status, it.Price.StringFixed(2), strings.Join(it.Titles, "; "),
			})
		}
	default:
		return nil, fmt.Errorf("%w: tipo de reporte desconocido %q", domain.ErrInvalidInput, reportType)
	}
	return table, nil
}

func newReportFile(name, contentType string, body []byte) *ReportFile {
	sum := sha256.Sum256(body)
	return &ReportFile{Filename: name, ContentType: contentType, Body: body, SHA256: hex.EncodeToString(sum[:])}
}

// normalizeStatus devuelve la grafía canónica; si el valor es irreconocible se conserva tal cual.
func normalizeStatus(raw string) entity.LoanStatus {
	st, err := entity.ParseLoanStatus(raw)
	if err != nil {
		return entity.LoanStatus(strings.TrimSpace(raw))
	}
	return st
}

func itoa64(n int64) string { return strconv.FormatInt(n, 10) }
