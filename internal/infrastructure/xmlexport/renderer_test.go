package xmlexport

import (
	"context"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

func sampleTable() ports.ReportTable {
	return ports.ReportTable{
		Key:         "top-borrowers",
		Title:       "Usuarios con más préstamos",
		Headers:     []string{"posicion", "usuario_id", "nombre", "ci", "total_prestamos"},
		Rows:        [][]string{{"1", "4", "Ana & Luis", "123", "9"}, {"2", "7", "Bea", "456", ""}},
		GeneratedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRender_Deterministico(t *testing.T) {
	r := NewRenderer()
	a, err := r.Render(context.Background(), sampleTable())
	require.NoError(t, err)
	b, err := r.Render(context.Background(), sampleTable())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, Digest(a), Digest(b))
	assert.Len(t, Digest(a), 64)
	assert.NotContains(t, string(a), "<?xml")
	assert.Contains(t, string(a), "Ana &amp; Luis")
}

func TestRender_UnRegistroPorFila(t *testing.T) {
	out, err := NewRenderer().Render(context.Background(), sampleTable())
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "reporte", root.Tag)
	assert.Equal(t, "top-borrowers", root.SelectAttrValue("tipo", ""))
	assert.Equal(t, "2", root.SelectAttrValue("registros", ""))

	regs := root.SelectElements("registro")
	require.Len(t, regs, 2)
	assert.Equal(t, "Bea", regs[1].SelectElement("nombre").Text())
	assert.Len(t, regs[0].ChildElements(), 5)
}

func TestElementName(t *testing.T) {
	assert.Equal(t, "libro_id", elementName("libro_id"))
	assert.Equal(t, "_1col", elementName("1col"))
	assert.Equal(t, "dias_prestado", elementName("dias prestado"))
	assert.Equal(t, "campo", elementName(""))
}
