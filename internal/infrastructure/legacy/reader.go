// Package legacy lee el esquema antiguo de la biblioteca y lo vuelca al esquema actual.
package legacy

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/text/encoding/charmap"
)

// SQLReader lee las tablas antiguas mediante sqlx sobre lib/pq.
type SQLReader struct {
	db     *sqlx.DB
	decode func(string) string
}

// Open conecta con la base antigua. Con latin1, los textos se decodifican desde ISO-8859-1
// (bases SQL_ASCII que guardaban bytes Latin-1).
func Open(ctx context.Context, url string, latin1 bool) (*SQLReader, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect legacy db: %w", err)
	}
	return NewSQLReader(db, latin1), nil
}

// NewSQLReader envuelve una conexión ya abierta.
func NewSQLReader(db *sqlx.DB, latin1 bool) *SQLReader {
	r := &SQLReader{db: db, decode: func(s string) string { return s }}
	if latin1 {
		r.decode = DecodeLatin1
	}
	return r
}

// DecodeLatin1 interpreta cada byte de s como un carácter ISO-8859-1.
func DecodeLatin1(s string) string {
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}

func (r *SQLReader) Close() error {
	return r.db.Close()
}

func (r *SQLReader) Users(ctx context.Context) ([]UserRow, error) {
	var rows []UserRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id_usuario AS id, ci, nombre_usuario AS nombre, apellido_usuario AS apellido,
		       telefono, domicilio
		FROM usuario ORDER BY id_usuario`)
	if err != nil {
		return nil, fmt.Errorf("read usuario: %w", err)
	}
	for i := range rows {
		u := &rows[i]
		u.CI = r.decode(u.CI)
		u.FirstName = r.decode(u.FirstName)
		u.LastName = r.decode(u.LastName)
		u.Phone = r.decode(u.Phone)
		u.Address = r.decode(u.Address)
	}
	return rows, nil
}

func (r *SQLReader) Genres(ctx context.Context) ([]GenreRow, error) {
	var rows []GenreRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT id_genero AS id, nombre_genero AS nombre FROM genero ORDER BY id_genero`); err != nil {
		return nil, fmt.Errorf("read genero: %w", err)
	}
	for i := range rows {
		rows[i].Name = r.decode(rows[i].Name)
	}
	return rows, nil
}

// Books incluye el primer autor de cada libro y sus géneros en el orden de libro_genero.
func (r *SQLReader) Books(ctx context.Context) ([]BookRow, error) {
	var rows []BookRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT l.id_libro AS id, l.titulo_libro AS titulo, l.idioma, l.numero_paginas AS paginas,
		       l.sinopsis,
		       COALESCE((SELECT a.nombre_autor FROM autor_libro al
		                  JOIN autor a ON a.id_autor = al.id_autor
		                 WHERE al.id_libro = l.id_libro
		                 ORDER BY al.id_autor_libro LIMIT 1), '') AS autor
		FROM libro l ORDER BY l.id_libro`)
	if err != nil {
		return nil, fmt.Errorf("read libro: %w", err)
	}
	links, err := r.links(ctx,
		`SELECT id_libro AS parent, id_genero AS child FROM libro_genero ORDER BY id_libro_genero`)
	if err != nil {
		return nil, fmt.Errorf("read libro_genero: %w", err)
	}
	for i := range rows {
		b := &rows[i]
		b.Title = r.decode(b.Title)
		b.Language = r.decode(b.Language)
		b.Description = r.decode(b.Description)
		b.Author = r.decode(b.Author)
		b.GenreIDs = links[b.ID]
	}
	return rows, nil
}

// Editions suma las copias disponibles de cada edición.
func (r *SQLReader) Editions(ctx context.Context) ([]EditionRow, error) {
	var rows []EditionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT e.id_edicion AS id, e.id_libro AS libro_id, e.isbn, e."año_publicacion" AS anio,
		       COALESCE(SUM(c.copias_disponibles), 0) AS disponibles
		FROM edicion e
		LEFT JOIN copia c ON c.id_edicion = e.id_edicion
		GROUP BY e.id_edicion, e.id_libro, e.isbn, e."año_publicacion"
		ORDER BY e.id_edicion`)
	if err != nil {
		return nil, fmt.Errorf("read edicion: %w", err)
	}
	for i := range rows {
		rows[i].ISBN = r.decode(rows[i].ISBN)
	}
	return rows, nil
}

// Loans toma el último estado registrado de cada préstamo; sin estado queda vacío.
func (r *SQLReader) Loans(ctx context.Context) ([]LoanRow, error) {
	var rows []LoanRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT p.id_prestamo AS id, p.id_usuario AS usuario_id, p.fecha_prestamo, p.fecha_devolucion,
		       p.precio_alquiler AS precio,
		       COALESCE((SELECT ep.estado::text FROM estado_prestamo ep
		                  WHERE ep.id_prestamo = p.id_prestamo
		                  ORDER BY ep.id_estado_prestamo DESC LIMIT 1), '') AS estado
		FROM prestamo p ORDER BY p.id_prestamo`)
	if err != nil {
		return nil, fmt.Errorf("read prestamo: %w", err)
	}
	links, err := r.links(ctx,
		`SELECT id_prestamo AS parent, id_edicion AS child FROM prestamo_edicion ORDER BY id_prestamo_edicion`)
	if err != nil {
		return nil, fmt.Errorf("read prestamo_edicion: %w", err)
	}
	for i := range rows {
		rows[i].Price = r.decode(rows[i].Price)
		rows[i].RawStatus = r.decode(rows[i].RawStatus)
		rows[i].EditionIDs = links[rows[i].ID]
	}
	return rows, nil
}

func (r *SQLReader) links(ctx context.Context, query string) (map[int64][]int64, error) {
	var rows []linkRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make(map[int64][]int64, len(rows))
	for _, l := range rows {
		out[l.Parent] = append(out[l.Parent], l.Child)
	}
	return out, nil
}
