package domain

import "time"

// Staff roles. RoleOperations receives the new-sample fan-out.
const (
	RoleAdmin      = "admin"
	RoleSales      = "sales"
	RoleOperations = "operations"
	RoleFinance    = "finance"
	RoleLab        = "lab"
	RoleDoctor     = "doctor"
	RoleSupport    = "support"
)

// User is a staff account (users table). Auth lives elsewhere; the core
// only reads users for the notification fan-out and recycles them like
// any other entity.
type User struct {
	ID string `json:"id" db:"id"` // UUID, PRIMARY KEY

	Account string `json:"account" db:"account"` // human-readable, role-prefixed (idgen.RoleID)
	Name    string `json:"name" db:"name"`
	Email   string `json:"email" db:"email"`
	Role    string `json:"role" db:"role"`
	Status  string `json:"status" db:"status"` // active | disabled

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
