package dto

// CreateEditionRequest alta de edición con sus copias iniciales.
type CreateEditionRequest struct {
	ISBN            string `json:"isbn"`
	PublicationYear int    `json:"anio_publicacion"`
	Copies          int    `json:"copias"`
}

// UpdateStockRequest ajuste manual de copias de una edición.
type UpdateStockRequest struct {
	Available int `json:"disponibles"`
	Total     int `json:"totales"`
}

// EditionResponse edición con su stock.
type EditionResponse struct {
	ID              int64  `json:"id"`
	BookID          int64  `json:"libro_id"`
	ISBN            string `json:"isbn"`
	PublicationYear int    `json:"anio_publicacion"`
	Available       int    `json:"copias_disponibles"`
	Total           int    `json:"copias_totales"`
}
