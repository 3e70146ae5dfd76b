package dto

// CategoryRequest alta o edición de categoría.
type CategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	BookCount int    `json:"book_count"`
}

// CategoryMutationResponse respuesta de POST/PUT.
type CategoryMutationResponse struct {
	Mensaje   string           `json:"mensaje"`
	Categoria CategoryResponse `json:"categoria"`
}
