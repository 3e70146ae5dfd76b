package entity

import (
	"fmt"
	"strings"
	"time"
)

// Role es el rol de un usuario. Conjunto cerrado: admin o user.
type Role string

// Roles válidos para User.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole valida un rol recibido como texto (insensible a mayúsculas y espacios).
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("rol desconocido %q", s)
}

func (r Role) String() string { return string(r) }

// User representa un lector o administrador identificado por su cédula (CI).
type User struct {
	ID           int64
	CI           string
	PasswordHash string // bcrypt; vacío en usuarios importados del esquema antiguo
	Role         Role
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	CreatedAt    time.Time
}

// FullName nombre y apellido separados por espacio (sin espacios sobrantes).
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasPassword indica si el usuario tiene credencial propia.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsAdmin atajo para u.Role == RoleAdmin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
