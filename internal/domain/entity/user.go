package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleCompras    = "compras"
	RoleBodeguero  = "bodeguero"
	RoleVendedor   = "vendedor"
)

// User representa un usuario del back office.
type User struct {
	ID           int64
	Usuario      string // login único
	PasswordHash string // bcrypt hash
	Nombre       string
	Email        string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole indica si role es uno de los roles conocidos.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleCompras, RoleBodeguero, RoleVendedor:
		return true
	}
	return false
}
