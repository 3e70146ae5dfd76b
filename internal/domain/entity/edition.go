package entity

// Edition versión publicada de un libro (ISBN + año).
type Edition struct {
	ID              int64
	BookID          int64
	ISBN            string
	PublicationYear int
	Available       int // suma de copias disponibles de la edición
	Total           int // suma de copias totales de la edición
}

// CopyStock existencias físicas de una edición.
type CopyStock struct {
	ID        int64
	EditionID int64
	Available int
	Total     int
}

// Valid comprueba 0 <= Available <= Total.
func (c CopyStock) Valid() bool {
	return c.Available >= 0 && c.Total >= 0 && c.Available <= c.Total
}

// CoversLent indica si el total alcanza para las disponibles más las copias retenidas por
// préstamos activos.
func (c CopyStock) CoversLent(lent int) bool {
	return c.Available+lent <= c.Total
}
