// Package xmlexport serializa reportes como XML canónico (C14N 1.0).
//
// El documento se arma con etree y luego se canonicaliza, de modo que dos exportaciones
// con los mismos datos producen exactamente los mismos bytes y el mismo digest SHA-256.
package xmlexport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

// Renderer implementa ports.ReportRenderer para XML.
type Renderer struct{}

// NewRenderer construye el renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Render construye <reporte> con un <registro> por fila y devuelve su forma canónica.
func (r *Renderer) Render(_ context.Context, table ports.ReportTable) ([]byte, error) {
	doc := Build(table)
	var raw bytes.Buffer
	if _, err := doc.WriteTo(&raw); err != nil {
		return nil, fmt.Errorf("xml %s: serializar: %w", table.Key, err)
	}
	out, err := Canonicalize(raw.Bytes())
	if err != nil {
		return nil, fmt.Errorf("xml %s: canonicalizar: %w", table.Key, err)
	}
	return out, nil
}

// Build arma el árbol etree del reporte.
//
//	<reporte tipo="inventory" titulo="..." generado="...">
//	  <registro><libro_id>1</libro_id>...</registro>
//	</reporte>
func Build(table ports.ReportTable) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("reporte")
	root.CreateAttr("tipo", table.Key)
	if table.Title != "" {
		root.CreateAttr("titulo", table.Title)
	}
	if !table.GeneratedAt.IsZero() {
		root.CreateAttr("generado", table.GeneratedAt.UTC().Format(time.RFC3339))
	}
	root.CreateAttr("registros", fmt.Sprintf("%d", len(table.Rows)))

	names := make([]string, len(table.Headers))
	for i, h := range table.Headers {
		names[i] = elementName(h)
	}
	for _, row := range table.Rows {
		reg := root.CreateElement("registro")
		for i, name := range names {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			reg.CreateElement(name).SetText(val)
		}
	}
	return doc
}

// Canonicalize aplica C14N 1.0 (sin comentarios) a un documento XML.
func Canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// Digest SHA-256 en hexadecimal de los bytes canónicos.
func Digest(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// elementName convierte una cabecera en un nombre de elemento XML válido.
func elementName(h string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(h) {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r) || r == '-' || r == '.':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "campo"
	}
	return b.String()
}

func (r *Renderer) ContentType() string { return "application/xml; charset=utf-8" }
func (r *Renderer) Extension() string   { return "xml" }

var _ ports.ReportRenderer = (*Renderer)(nil)
