package dto

import "time"

// RegisterRequest entrada de registro: cédula + contraseña (confirmada) y datos personales opcionales.
type RegisterRequest struct {
	CI        string `json:"ci"`
	Password  string `json:"password"`
	Confirm   string `json:"confirm"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Phone     string `json:"telefono"`
	Address   string `json:"domicilio"`
}

// LoginRequest entrada de login por cédula.
type LoginRequest struct {
	CI       string `json:"ci"`
	Password string `json:"password"`
}

// LoginResponse token JWT y usuario autenticado.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse salida de un usuario (sin password). Claves en español como la API original.
type UserResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	CI        string    `json:"ci"`
	Phone     string    `json:"telefono,omitempty"`
	Address   string    `json:"domicilio,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateRoleRequest cambio de rol (admin).
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// RoleResponse rol del usuario autenticado.
type RoleResponse struct {
	Role string `json:"role"`
}
