package bundle

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

func TestArchive_EntradasLegibles(t *testing.T) {
	out, err := NewZipArchiver().Archive([]ports.ArchiveEntry{
		{Name: "inventory.csv", Body: []byte("a,b\n1,2\n")},
		{Name: "../active-loans.csv", Body: []byte("x\n")},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "inventory.csv", zr.File[0].Name)
	assert.Equal(t, "active-loans.csv", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(body))
}

func TestArchive_Duplicados(t *testing.T) {
	_, err := NewZipArchiver().Archive([]ports.ArchiveEntry{{Name: "a.csv"}, {Name: "dir/a.csv"}})
	assert.Error(t, err)
}
