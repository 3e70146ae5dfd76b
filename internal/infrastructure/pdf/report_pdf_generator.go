// Package pdf genera la versión imprimible de los reportes administrativos.
//
// Layout de la página A4 (horizontal si el reporte tiene más de 5 columnas):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Biblioteca + título del reporte  │  Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: una columna por cabecera, filas alternadas          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: total de registros                                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorStripe  = &props.Color{Red: 235, Green: 241, Blue: 247}
)

const gridSize = 12

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa ports.ReportRenderer usando Maroto v2.
type MarotoReportGenerator struct {
	institution string
}

// NewMarotoReportGenerator construye el generador. institution aparece en la cabecera.
func NewMarotoReportGenerator(institution string) *MarotoReportGenerator {
	if institution == "" {
		institution = "Biblioteca"
	}
	return &MarotoReportGenerator{institution: institution}
}

// Render genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) Render(_ context.Context, table ports.ReportTable) ([]byte, error) {
	orient := orientation.Vertical
	if len(table.Headers) > 5 {
		orient = orientation.Horizontal
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orient).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(table.Title, true).
		WithAuthor(g.institution, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(table))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(row.New(3))

	sizes := columnSizes(len(table.Headers))
	m.AddRows(tableHeaderRow(table.Headers, sizes))
	m.AddRows(tableBodyRows(table.Rows, sizes)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(footerRow(len(table.Rows)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *MarotoReportGenerator) ContentType() string { return "application/pdf" }
func (g *MarotoReportGenerator) Extension() string   { return "pdf" }

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: institución + título (izq) y fecha de generación (der).
func (g *MarotoReportGenerator) headerRow(table ports.ReportTable) core.Row {
	fecha := ""
	if !table.GeneratedAt.IsZero() {
		fecha = "Generado: " + table.GeneratedAt.Format("02/01/2006 15:04")
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New(g.institution, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(table.Title, table.Key), props.Text{
				Size: 10, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(fecha, props.Text{
				Size: 8, Align: align.Right, Top: 10, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla en blanco sobre el color primario.
func tableHeaderRow(headers []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(headers))
	for i, h := range headers {
		cols = append(cols, col.New(sizes[i]).Add(text.New(h, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableBodyRows: una fila por registro, con fondo alternado.
func tableBodyRows(rows [][]string, sizes []int) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for n, r := range rows {
		cols := make([]core.Col, 0, len(sizes))
		for i := range sizes {
			val := ""
			if i < len(r) {
				val = r[i]
			}
			cols = append(cols, col.New(sizes[i]).Add(text.New(val, props.Text{
				Size: 8, Top: 1, Left: 1, Right: 1,
			})))
		}
		rr := row.New(7).Add(cols...)
		if n%2 == 1 {
			rr = rr.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		result = append(result, rr)
	}
	return result
}

func footerRow(count int) core.Row {
	return row.New(8).Add(col.New(gridSize).Add(
		text.New(fmt.Sprintf("Total de registros: %d", count), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 2, Color: colorGray,
		}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

// columnSizes reparte las 12 columnas de la grilla; el sobrante va a las primeras.
// Con más de 12 cabeceras cada una recibe 1.
func columnSizes(n int) []int {
	if n <= 0 {
		return nil
	}
	sizes := make([]int, n)
	base, extra := gridSize/n, gridSize%n
	if base == 0 {
		base, extra = 1, 0
	}
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

var _ ports.ReportRenderer = (*MarotoReportGenerator)(nil)
