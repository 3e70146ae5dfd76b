package dto

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexibleID acepta un id como número JSON o como string numérico (los formularios HTML envían strings).
type FlexibleID int64

// UnmarshalJSON implementa json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		var num json.Number
		if jerr := json.Unmarshal(b, &num); jerr != nil {
			return err
		}
		n, err = num.Int64()
		if err != nil {
			return err
		}
	}
	*f = FlexibleID(n)
	return nil
}

// CreateBookRequest entrada para crear un libro.
type CreateBookRequest struct {
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	Description string       `json:"description"`
	Category    FlexibleID   `json:"category"`
	CategoryIDs []FlexibleID `json:"category_ids"`
	Language    string       `json:"language"`
	Pages       int          `json:"pages"`
}

// UpdateBookRequest actualización parcial: los campos nil no se tocan.
type UpdateBookRequest struct {
	Title       *string      `json:"title"`
	Author      *string      `json:"author"`
	Description *string      `json:"description"`
	Category    *FlexibleID  `json:"category"`
	CategoryIDs []FlexibleID `json:"category_ids"`
	Language    *string      `json:"language"`
	Pages       *int         `json:"pages"`
}

// BookResponse salida de un libro. Category es el nombre de la categoría principal.
type BookResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Language    string    `json:"language,omitempty"`
	Pages       int       `json:"pages,omitempty"`
	Category    string    `json:"category,omitempty"`
	CategoryID  *int64    `json:"category_id"`
	Categories  []int64   `json:"categories"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookMutationResponse respuesta de POST/PUT de libros.
type BookMutationResponse struct {
	Mensaje string       `json:"mensaje"`
	Libro   BookResponse `json:"libro"`
}

// BookListQuery filtros del listado (?autor=&categoria=&limit=&offset=).
type BookListQuery struct {
	Author   string `query:"autor"`
	Category string `query:"categoria"`
	PageRequest
}
