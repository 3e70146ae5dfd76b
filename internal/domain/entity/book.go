package entity

import "time"

// Book representa un título del catálogo. Las copias físicas cuelgan de sus ediciones.
type Book struct {
	ID          int64
	Title       string
	Author      string
	Description string
	Language    string
	Pages       int
	// CategoryID es la categoría principal (puede ser nil si se eliminó la categoría).
	CategoryID   *int64
	CategoryName string
	// CategoryIDs todas las categorías asociadas, incluida la principal.
	CategoryIDs []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookFilter filtros del listado de libros. Campos vacíos no filtran.
type BookFilter struct {
	Author   string // subcadena, sin distinguir mayúsculas
	Category string // id numérico o nombre exacto (sin distinguir mayúsculas)
	Limit    int
	Offset   int
}
