package domain

import (
	"fmt"
	"net/mail"
)

// User 控制台管理的账号。TenantIDs 与 Tenant.UserIDs 互为镜像，
// 由 repository 层在同一事务内维护。
type User struct {
	UserID    string   `json:"user_id" db:"user_id"`
	Name      string   `json:"name" db:"name"`
	Email     string   `json:"email" db:"email"`
	TenantIDs []string `json:"tenant_ids"`
}

// ValidEmail reports whether s parses as an RFC 5322 address.
func ValidEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

// Validate checks scalar fields.
func (u *User) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ValidEmail(u.Email) {
		return fmt.Errorf("invalid email %q", u.Email)
	}
	return nil
}
