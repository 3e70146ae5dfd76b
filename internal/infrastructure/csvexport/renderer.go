// Package csvexport serializa reportes tabulares como CSV (cabecera + una fila por registro).
package csvexport

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

// Renderer implementa ports.ReportRenderer para CSV.
type Renderer struct{}

// NewRenderer construye el renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Render escribe la cabecera y las filas. Toda fila debe tener tantas columnas como la cabecera.
func (r *Renderer) Render(_ context.Context, table ports.ReportTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, table.Headers, table.Rows); err != nil {
		return nil, fmt.Errorf("csv %s: %w", table.Key, err)
	}
	return buf.Bytes(), nil
}

// Write vuelca header + rows en w.
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("fila %d: %d columnas, se esperaban %d", i+1, len(row), len(header))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Renderer) ContentType() string { return "text/csv; charset=utf-8" }
func (r *Renderer) Extension() string   { return "csv" }

var _ ports.ReportRenderer = (*Renderer)(nil)
