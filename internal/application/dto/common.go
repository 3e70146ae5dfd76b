package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize aplica límites: Limit por defecto 20, máximo 100; Offset nunca negativo.
func (p *PageRequest) Normalize() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageResponse confirmación de una operación (el frontend muestra "mensaje").
type MessageResponse struct {
	Mensaje string `json:"mensaje"`
}

// DateLayout formato de fechas en la API (YYYY-MM-DD).
const DateLayout = "2006-01-02"
