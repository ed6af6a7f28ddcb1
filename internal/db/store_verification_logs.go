package db

import (
	"context"

	"github.com/MacJediWizard/certvault/internal/models"
)

// CreateVerificationLog appends a verification attempt.
func (db *DB) CreateVerificationLog(ctx context.Context, log *models.VerificationLog) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO verification_logs (certificate_id, requested_code, verifier_info, result, source_address, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, log.CertificateID, log.RequestedCode, log.VerifierInfo, log.Result, log.SourceAddress, log.VerifiedAt).Scan(&log.ID)
	if err != nil {
		return mapError("create verification log", err)
	}
	return nil
}

// ListVerificationLogsByCertificate returns the attempts that matched a certificate, newest first.
func (db *DB) ListVerificationLogsByCertificate(ctx context.Context, certificateID int64) ([]*models.VerificationLog, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, certificate_id, requested_code, verifier_info, result, source_address, verified_at
		FROM verification_logs
		WHERE certificate_id = $1
		ORDER BY verified_at DESC, id DESC
	`, certificateID)
	if err != nil {
		return nil, mapError("list verification logs", err)
	}
	defer rows.Close()

	var logs []*models.VerificationLog
	for rows.Next() {
		var l models.VerificationLog
		if err := rows.Scan(&l.ID, &l.CertificateID, &l.RequestedCode, &l.VerifierInfo,
			&l.Result, &l.SourceAddress, &l.VerifiedAt); err != nil {
			return nil, mapError("scan verification log", err)
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate verification logs", err)
	}
	return logs, nil
}

// CountVerificationLogs returns the total number of recorded attempts.
func (db *DB) CountVerificationLogs(ctx context.Context) (int64, error) {
	var n int64
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM verification_logs`).Scan(&n); err != nil {
		return 0, mapError("count verification logs", err)
	}
	return n, nil
}
