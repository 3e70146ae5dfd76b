package dto

// DashboardSummaryDTO respuesta de GET /api/dashboard.
type DashboardSummaryDTO struct {
	TotalUsers   int `json:"total_usuarios"`
	TotalBooks   int `json:"total_libros"`
	TotalCopies  int `json:"total_copias"`
	PendingLoans int `json:"prestamos_pendientes"`
	ActiveLoans  int `json:"prestamos_activos"` // pendientes + en curso
	OverdueLoans int `json:"prestamos_vencidos"`
}
