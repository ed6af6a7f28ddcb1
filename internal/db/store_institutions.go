package db

import (
	"context"

	"github.com/MacJediWizard/certvault/internal/models"
)

// GetInstitutionByID returns an institution by id.
func (db *DB) GetInstitutionByID(ctx context.Context, id int64) (*models.Institution, error) {
	var inst models.Institution
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, address, contact_info, accreditation_details, created_at
		FROM institutions
		WHERE id = $1
	`, id).Scan(&inst.ID, &inst.Name, &inst.Address, &inst.ContactInfo, &inst.AccreditationDetails, &inst.CreatedAt)
	if err != nil {
		return nil, mapError("get institution by ID", err)
	}
	return &inst, nil
}

// CreateInstitution inserts an institution and sets its generated id.
func (db *DB) CreateInstitution(ctx context.Context, inst *models.Institution) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO institutions (name, address, contact_info, accreditation_details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, inst.Name, inst.Address, inst.ContactInfo, inst.AccreditationDetails, inst.CreatedAt).Scan(&inst.ID)
	if err != nil {
		return mapError("create institution", err)
	}
	return nil
}
