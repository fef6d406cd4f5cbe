package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"iot-console/internal/domain"
)

// PostgresDirectoryRepo 用户/租户Repository实现
// Membership edges live in the tenant_users join table; both directions of
// a cascade run inside one transaction.
type PostgresDirectoryRepo struct {
	db *sql.DB
}

func NewPostgresDirectoryRepo(db *sql.DB) *PostgresDirectoryRepo {
	return &PostgresDirectoryRepo{db: db}
}

var _ DirectoryRepository = (*PostgresDirectoryRepo)(nil)

const userSelect = `
	SELECT
		u.user_id::text,
		u.name,
		u.email,
		COALESCE(array_agg(tu.tenant_id::text) FILTER (WHERE tu.tenant_id IS NOT NULL), '{}') as tenant_ids
	FROM users u
	LEFT JOIN tenant_users tu ON tu.user_id = u.user_id`

const tenantSelect = `
	SELECT
		t.tenant_id::text,
		t.name,
		COALESCE(array_agg(tu.user_id::text) FILTER (WHERE tu.user_id IS NOT NULL), '{}') as user_ids
	FROM tenants t
	LEFT JOIN tenant_users tu ON tu.tenant_id = t.tenant_id`

func scanUserRows(rows *sql.Rows) ([]*domain.User, error) {
	out := []*domain.User{}
	for rows.Next() {
		var u domain.User
		var tenantIDs pq.StringArray
		if err := rows.Scan(&u.UserID, &u.Name, &u.Email, &tenantIDs); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.TenantIDs = []string(tenantIDs)
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return out, nil
}

func (r *PostgresDirectoryRepo) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, userSelect+" GROUP BY u.user_id ORDER BY u.name")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()
	return scanUserRows(rows)
}

func (r *PostgresDirectoryRepo) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	var tenantIDs pq.StringArray
	err := r.db.QueryRowContext(ctx,
		userSelect+" WHERE u.user_id = $1::uuid GROUP BY u.user_id", userID,
	).Scan(&u.UserID, &u.Name, &u.Email, &tenantIDs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.TenantIDs = []string(tenantIDs)
	return &u, nil
}

func (r *PostgresDirectoryRepo) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	id := user.UserID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, name, email) VALUES ($1::uuid, $2, $3)`,
		id, user.Name, user.Email,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateID
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &domain.User{UserID: id, Name: user.Name, Email: user.Email, TenantIDs: []string{}}, nil
}

func (r *PostgresDirectoryRepo) UpdateUser(ctx context.Context, userID string, patch UserPatch) (*domain.User, error) {
	cur, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		cur.Name = *patch.Name
	}
	if patch.Email != nil {
		cur.Email = *patch.Email
	}
	if err := cur.Validate(); err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, email = $3 WHERE user_id = $1::uuid`,
		userID, cur.Name, cur.Email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return cur, nil
}

func (r *PostgresDirectoryRepo) DeleteUser(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// cascade: drop every membership edge referencing the user
	if _, err := tx.ExecContext(ctx, `DELETE FROM tenant_users WHERE user_id = $1::uuid`, userID); err != nil {
		return fmt.Errorf("failed to cascade user memberships: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1::uuid`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *PostgresDirectoryRepo) ListTenants(ctx context.Context) ([]*domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, tenantSelect+" GROUP BY t.tenant_id ORDER BY t.name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	out := []*domain.Tenant{}
	for rows.Next() {
		var t domain.Tenant
		var userIDs pq.StringArray
		if err := rows.Scan(&t.TenantID, &t.Name, &userIDs); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		t.UserIDs = []string(userIDs)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", err)
	}
	return out, nil
}

func (r *PostgresDirectoryRepo) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	var t domain.Tenant
	var userIDs pq.StringArray
	err := r.db.QueryRowContext(ctx,
		tenantSelect+" WHERE t.tenant_id = $1::uuid GROUP BY t.tenant_id", tenantID,
	).Scan(&t.TenantID, &t.Name, &userIDs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	t.UserIDs = []string(userIDs)
	return &t, nil
}

func (r *PostgresDirectoryRepo) CreateTenant(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	id := tenant.TenantID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (tenant_id, name) VALUES ($1::uuid, $2)`,
		id, tenant.Name,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateID
		}
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return &domain.Tenant{TenantID: id, Name: tenant.Name, UserIDs: []string{}}, nil
}

func (r *PostgresDirectoryRepo) UpdateTenant(ctx context.Context, tenantID string, patch TenantPatch) (*domain.Tenant, error) {
	cur, err := r.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		cur.Name = *patch.Name
	}
	if err := cur.Validate(); err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE tenants SET name = $2 WHERE tenant_id = $1::uuid`,
		tenantID, cur.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	return cur, nil
}

func (r *PostgresDirectoryRepo) DeleteTenant(ctx context.Context, tenantID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tenant_users WHERE tenant_id = $1::uuid`, tenantID); err != nil {
		return fmt.Errorf("failed to cascade tenant memberships: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tenants WHERE tenant_id = $1::uuid`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *PostgresDirectoryRepo) AssignUserToTenant(ctx context.Context, tenantID, userID string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE tenant_id = $1::uuid)`, tenantID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1::uuid)`, userID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tenant_users (tenant_id, user_id) VALUES ($1::uuid, $2::uuid)
		 ON CONFLICT (tenant_id, user_id) DO NOTHING`,
		tenantID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign user to tenant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyMember
	}
	return nil
}

func (r *PostgresDirectoryRepo) RemoveUserFromTenant(ctx context.Context, tenantID, userID string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE tenant_id = $1::uuid)`, tenantID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	// removing an absent edge is a no-op
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tenant_users WHERE tenant_id = $1::uuid AND user_id = $2::uuid`,
		tenantID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove user from tenant: %w", err)
	}
	return nil
}

func (r *PostgresDirectoryRepo) AvailableUsers(ctx context.Context, tenantID string) ([]*domain.User, error) {
	if _, err := r.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		userSelect+`
		WHERE u.user_id NOT IN (SELECT user_id FROM tenant_users WHERE tenant_id = $1::uuid)
		GROUP BY u.user_id ORDER BY u.name`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list available users: %w", err)
	}
	defer rows.Close()
	return scanUserRows(rows)
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
