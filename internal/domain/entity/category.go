package entity

// Category representa un género literario. Relación muchos a muchos con Book.
type Category struct {
	ID        int64
	Name      string // único
	BookCount int    // libros asociados, calculado en lectura
}
