package ports

import (
	"context"
	"time"
)

// ReportTable reporte tabular ya formateado como texto: cabecera + filas.
type ReportTable struct {
	Key         string // inventory, active-loans, top-borrowers, user-history
	Title       string
	Headers     []string
	Rows        [][]string
	GeneratedAt time.Time
}

// ReportRenderer serializa un ReportTable en un formato descargable (csv, pdf, xml).
type ReportRenderer interface {
	Render(ctx context.Context, table ReportTable) ([]byte, error)
	ContentType() string
	Extension() string
}

// ArchiveEntry archivo dentro de un paquete comprimido.
type ArchiveEntry struct {
	Name string
	Body []byte
}

// ReportArchiver empaqueta varios reportes en un único archivo (ZIP).
type ReportArchiver interface {
	Archive(entries []ArchiveEntry) ([]byte, error)
	ContentType() string
	Extension() string
}
