package db

import (
	"context"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, full_name, email, password_hash, role, active, institution_id, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var roleStr string
	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &roleStr,
		&user.Active, &user.InstitutionID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.UserRole(roleStr)
	return &user, nil
}

// GetUserByID returns a user by id.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get user by ID", err)
	}
	return user, nil
}

// GetUserByEmail returns a user by normalized email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, models.NormalizeEmail(email)))
	if err != nil {
		return nil, mapError("get user by email", err)
	}
	return user, nil
}

// CreateUser inserts a user and sets its generated id.
// A taken email yields models.ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password_hash, role, active, institution_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, user.FullName, user.Email, user.PasswordHash, string(user.Role), user.Active,
		user.InstitutionID, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return mapError("create user", err)
	}
	return nil
}
