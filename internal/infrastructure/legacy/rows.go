package legacy

import "time"

// Filas del esquema antiguo (usuario, genero, libro, edicion, copia, prestamo...).

type UserRow struct {
	ID        int64  `db:"id"`
	CI        string `db:"ci"`
	FirstName string `db:"nombre"`
	LastName  string `db:"apellido"`
	Phone     string `db:"telefono"`
	Address   string `db:"domicilio"`
}

type GenreRow struct {
	ID   int64  `db:"id"`
	Name string `db:"nombre"`
}

type BookRow struct {
	ID          int64  `db:"id"`
	Title       string `db:"titulo"`
	Language    string `db:"idioma"`
	Pages       int    `db:"paginas"`
	Description string `db:"sinopsis"`
	Author      string `db:"autor"` // primer autor asociado; vacío si no tiene
	GenreIDs    []int64
}

type EditionRow struct {
	ID        int64  `db:"id"`
	BookID    int64  `db:"libro_id"`
	ISBN      string `db:"isbn"`
	Year      int    `db:"anio"`
	Available int    `db:"disponibles"` // suma de copia.copias_disponibles
}

type LoanRow struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"usuario_id"`
	LoanDate   time.Time `db:"fecha_prestamo"`
	DueDate    time.Time `db:"fecha_devolucion"`
	Price      string    `db:"precio"` // VARCHAR en el esquema antiguo
	RawStatus  string    `db:"estado"` // nombre del enum: Pendiente, En_curso, Devuelto
	EditionIDs []int64
}

type linkRow struct {
	Parent int64 `db:"parent"`
	Child  int64 `db:"child"`
}
