package domain

import "fmt"

// Tenant 组织分组（零或多个成员用户）。UserIDs 与 User.TenantIDs 互为镜像。
type Tenant struct {
	TenantID string   `json:"tenant_id" db:"tenant_id"`
	Name     string   `json:"name" db:"name"`
	UserIDs  []string `json:"user_ids"`
}

// Validate checks scalar fields.
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
