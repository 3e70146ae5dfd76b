// Package bundle empaqueta varios reportes en un ZIP en memoria.
package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

// ZipArchiver implementa ports.ReportArchiver.
type ZipArchiver struct {
	now func() time.Time
}

// NewZipArchiver construye el empaquetador.
func NewZipArchiver() *ZipArchiver { return &ZipArchiver{now: time.Now} }

// Archive crea un ZIP con una entrada por archivo. Los nombres se reducen a su base
// (sin directorios) y no pueden repetirse.
func (z *ZipArchiver) Archive(entries []ports.ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := path.Base(strings.ReplaceAll(e.Name, "\\", "/"))
		if name == "." || name == "/" || name == "" {
			return nil, fmt.Errorf("zip: nombre de entrada inválido %q", e.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("zip: entrada duplicada %s", name)
		}
		seen[name] = true
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: z.now()})
		if err != nil {
			return nil, fmt.Errorf("zip: crear entrada %s: %w", name, err)
		}
		if _, err := fw.Write(e.Body); err != nil {
			return nil, fmt.Errorf("zip: escribir %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

func (z *ZipArchiver) ContentType() string { return "application/zip" }
func (z *ZipArchiver) Extension() string   { return "zip" }

var _ ports.ReportArchiver = (*ZipArchiver)(nil)
