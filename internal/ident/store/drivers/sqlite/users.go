package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/stackworks/ident/internal/ident/domain"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, email, password_hash, first_name, last_name, avatar,
	phone_number, date_of_birth, is_email_verified, is_two_factor_enabled,
	last_login_at, is_active, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	return r.scanUser(ctx, row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email.String())
	return r.scanUser(ctx, row)
}

func (r *usersRepo) EmailExists(ctx context.Context, email domain.Email) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)`, email.String()).Scan(&exists)
	return exists, err
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, avatar,
			phone_number, date_of_birth, is_email_verified,
			is_two_factor_enabled, last_login_at, is_active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email.String(), u.PasswordHash,
		u.Profile.FirstName, u.Profile.LastName, u.Profile.Avatar,
		u.Profile.PhoneNumber, nullTime(u.Profile.DateOfBirth),
		u.Profile.IsEmailVerified, u.Profile.IsTwoFactorEnabled,
		nullTime(u.Profile.LastLoginAt), u.IsActive,
		u.CreatedAt, u.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET
			first_name = ?, last_name = ?, avatar = ?, phone_number = ?,
			date_of_birth = ?, is_email_verified = ?, is_two_factor_enabled = ?,
			last_login_at = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.Profile.FirstName, u.Profile.LastName, u.Profile.Avatar,
		u.Profile.PhoneNumber, nullTime(u.Profile.DateOfBirth),
		u.Profile.IsEmailVerified, u.Profile.IsTwoFactorEnabled,
		nullTime(u.Profile.LastLoginAt), u.IsActive, u.UpdatedAt,
		u.ID.String(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id domain.UserID, newHash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) AssignRole(ctx context.Context, id domain.UserID, roleID string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`,
		id.String(), roleID)
	return err
}

func (r *usersRepo) scanUser(ctx context.Context, row *sql.Row) (domain.User, error) {
	var (
		u           domain.User
		id, email   string
		dateOfBirth sql.NullTime
		lastLoginAt sql.NullTime
	)
	err := row.Scan(
		&id, &email, &u.PasswordHash,
		&u.Profile.FirstName, &u.Profile.LastName, &u.Profile.Avatar,
		&u.Profile.PhoneNumber, &dateOfBirth,
		&u.Profile.IsEmailVerified, &u.Profile.IsTwoFactorEnabled,
		&lastLoginAt, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.ID = domain.UserID(id)
	u.Email = domain.Email(email)
	u.Profile.DateOfBirth = timePtr(dateOfBirth)
	u.Profile.LastLoginAt = timePtr(lastLoginAt)

	roles, err := loadRolesForUser(ctx, r.q, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	u.Roles = roles

	return u, nil
}

func loadRolesForUser(ctx context.Context, q dbtx, id domain.UserID) ([]domain.Role, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, r.level, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.level DESC`, id.String())
	if err != nil {
		return nil, err
	}

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description,
			&role.Level, &role.CreatedAt, &role.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		roles = append(roles, role)
	}
	// Release the rows before the permission queries; the pool holds a
	// single connection.
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		perms, err := loadPermissionsForRole(ctx, q, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}

	return roles, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
