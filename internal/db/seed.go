package db

import (
	"context"
	"fmt"
	"time"

	"github.com/MacJediWizard/certvault/internal/auth"
	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/jackc/pgx/v5"
)

// SeedUser is a bootstrap account created on an empty database.
type SeedUser struct {
	FullName string
	Email    string
	Password string
	Role     models.UserRole
}

// DefaultSeedUsers are the development accounts, one per role.
var DefaultSeedUsers = []SeedUser{
	{FullName: "System Administrator", Email: "admin@system.com", Password: "admin123", Role: models.UserRoleSystemAdmin},
	{FullName: "Certificate Administrator", Email: "certadmin@system.com", Password: "cert123", Role: models.UserRoleCertificateAdmin},
	{FullName: "Default Instructor", Email: "instructor@system.com", Password: "instructor123", Role: models.UserRoleInstructor},
	{FullName: "Default Student", Email: "student@system.com", Password: "student123", Role: models.UserRoleStudent},
}

// SeedDefaults creates the default institution, one user per role and a sample
// course when the users table is empty. It reports whether anything was written.
func (db *DB) SeedDefaults(ctx context.Context, users []SeedUser) (bool, error) {
	var count int64
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, mapError("count users", err)
	}
	if count > 0 {
		db.logger.Debug().Int64("users", count).Msg("database already seeded")
		return false, nil
	}

	hashes := make([]string, len(users))
	for i, u := range users {
		h, err := auth.HashPassword(u.Password)
		if err != nil {
			return false, err
		}
		hashes[i] = h
	}

	now := time.Now().UTC()
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		var institutionID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO institutions (name, address, contact_info, accreditation_details, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, "Default Institution", "123 Education St", "contact@institution.edu", "Accredited", now).Scan(&institutionID)
		if err != nil {
			return fmt.Errorf("seed institution: %w", err)
		}

		for i, u := range users {
			_, err := tx.Exec(ctx, `
				INSERT INTO users (full_name, email, password_hash, role, active, institution_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, TRUE, $5, $6, $6)
			`, u.FullName, models.NormalizeEmail(u.Email), hashes[i], string(u.Role), institutionID, now)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO courses (course_name, description, completion_criteria, created_at)
			VALUES ($1, $2, $3, $4)
		`, "Introduction to Programming", "Fundamentals of programming", "Pass the final assessment", now)
		if err != nil {
			return fmt.Errorf("seed course: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, mapError("seed defaults", err)
	}

	db.logger.Info().Int("users", len(users)).Msg("seeded default institution, users and course")
	return true, nil
}
