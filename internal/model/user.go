package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User represents an account of the inventory system.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Privileges   Role      `json:"privileges"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role is the numeric privilege level stored with a user.
type Role int

// Privilege levels as issued by the backend.
const (
	RoleInventoryManager Role = 1
	RoleStockKeeper      Role = 2
	RoleAdmin            Role = 3
)

// Valid reports whether r is a known privilege level.
func (r Role) Valid() bool {
	return r >= RoleInventoryManager && r <= RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleInventoryManager:
		return "Inventory Manager"
	case RoleStockKeeper:
		return "Stock Keeper"
	case RoleAdmin:
		return "Administrator"
	default:
		return "Unknown"
	}
}

// ParseRole accepts either the numeric privilege level or a role name.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		r := Role(n)
		if !r.Valid() {
			return 0, fmt.Errorf("invalid privilege level %d", n)
		}
		return r, nil
	}
	switch strings.NewReplacer("-", "", "_", "", " ", "").Replace(s) {
	case "admin", "administrator":
		return RoleAdmin, nil
	case "manager", "inventorymanager":
		return RoleInventoryManager, nil
	case "stockkeeper", "keeper":
		return RoleStockKeeper, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Permission names an action gated by role.
type Permission string

// Permissions checked by the API and the CLI.
const (
	PermManageUsers     Permission = "manage_users"
	PermManageCatalog   Permission = "manage_catalog"
	PermCreateTransfer  Permission = "create_transfer"
	PermReviewTransfer  Permission = "review_transfer"
	PermReviewOrder     Permission = "review_order"
	PermManageCustomers Permission = "manage_customers"
)

var permissions = map[Permission][]Role{
	PermManageUsers:     {RoleAdmin},
	PermManageCatalog:   {RoleAdmin, RoleInventoryManager},
	PermCreateTransfer:  {RoleAdmin, RoleStockKeeper},
	PermReviewTransfer:  {RoleAdmin, RoleInventoryManager},
	PermReviewOrder:     {RoleAdmin, RoleInventoryManager},
	PermManageCustomers: {RoleAdmin, RoleStockKeeper},
}

// Can checks whether role is granted perm. Unknown roles and permissions fail closed.
func Can(role Role, perm Permission) bool {
	for _, r := range permissions[perm] {
		if r == role {
			return true
		}
	}
	return false
}

// MinPasswordLength is the shortest password accepted on signup or change.
const MinPasswordLength = 8

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
