package db

import (
	"context"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/jackc/pgx/v5"
)

const certificateSelect = `
	SELECT c.id, c.certificate_number, c.verification_code, c.course_id, c.recipient_id,
	       c.issue_date, c.status, co.course_name, u.full_name, u.email
	FROM certificates c
	JOIN courses co ON co.id = c.course_id
	JOIN users u ON u.id = c.recipient_id`

func scanCertificate(row pgx.Row) (*models.Certificate, error) {
	var cert models.Certificate
	var statusStr string
	err := row.Scan(
		&cert.ID, &cert.CertificateNumber, &cert.VerificationCode, &cert.CourseID, &cert.RecipientID,
		&cert.IssueDate, &statusStr, &cert.CourseName, &cert.RecipientName, &cert.RecipientEmail,
	)
	if err != nil {
		return nil, err
	}
	cert.Status = models.CertificateStatus(statusStr)
	return &cert, nil
}

func (db *DB) queryCertificates(ctx context.Context, op, sql string, args ...any) ([]*models.Certificate, error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var certs []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return certs, nil
}

// CreateCertificate inserts a certificate and sets its generated id.
// A taken number or verification code yields models.ErrDuplicate;
// a missing course or recipient yields models.ErrNotFound.
func (db *DB) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO certificates (certificate_number, verification_code, course_id, recipient_id, issue_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, cert.CertificateNumber, cert.VerificationCode, cert.CourseID, cert.RecipientID,
		cert.IssueDate, string(cert.Status),
	).Scan(&cert.ID)
	if err != nil {
		return mapError("create certificate", err)
	}
	return nil
}

// GetCertificateByID returns a certificate by id.
func (db *DB) GetCertificateByID(ctx context.Context, id int64) (*models.Certificate, error) {
	cert, err := scanCertificate(db.Pool.QueryRow(ctx, certificateSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, mapError("get certificate by ID", err)
	}
	return cert, nil
}

// GetCertificateByCode returns a certificate by its canonical verification code.
func (db *DB) GetCertificateByCode(ctx context.Context, code string) (*models.Certificate, error) {
	cert, err := scanCertificate(db.Pool.QueryRow(ctx, certificateSelect+` WHERE c.verification_code = $1`, code))
	if err != nil {
		return nil, mapError("get certificate by code", err)
	}
	return cert, nil
}

// ListCertificates returns every certificate, newest first.
func (db *DB) ListCertificates(ctx context.Context) ([]*models.Certificate, error) {
	return db.queryCertificates(ctx, "list certificates",
		certificateSelect+` ORDER BY c.issue_date DESC, c.id DESC`)
}

// ListCertificatesByRecipient returns the certificates awarded to one user, newest first.
func (db *DB) ListCertificatesByRecipient(ctx context.Context, recipientID int64) ([]*models.Certificate, error) {
	return db.queryCertificates(ctx, "list certificates by recipient",
		certificateSelect+` WHERE c.recipient_id = $1 ORDER BY c.issue_date DESC, c.id DESC`, recipientID)
}

// UpdateCertificateStatus writes only the status column and returns the updated row.
func (db *DB) UpdateCertificateStatus(ctx context.Context, id int64, status models.CertificateStatus) (*models.Certificate, error) {
	var cert *models.Certificate
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE certificates SET status = $2 WHERE id = $1`, id, string(status))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		cert, err = scanCertificate(tx.QueryRow(ctx, certificateSelect+` WHERE c.id = $1`, id))
		return err
	})
	if err != nil {
		return nil, mapError("update certificate status", err)
	}
	return cert, nil
}

// DeleteCertificate removes a certificate. Verification logs are left untouched.
func (db *DB) DeleteCertificate(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return mapError("delete certificate", err)
	}
	if tag.RowsAffected() == 0 {
		return mapError("delete certificate", pgx.ErrNoRows)
	}
	return nil
}

// CountCertificatesByStatus returns the number of certificates in each status.
func (db *DB) CountCertificatesByStatus(ctx context.Context) (map[models.CertificateStatus]int64, error) {
	rows, err := db.Pool.Query(ctx, `SELECT status, COUNT(*) FROM certificates GROUP BY status`)
	if err != nil {
		return nil, mapError("count certificates by status", err)
	}
	defer rows.Close()

	counts := make(map[models.CertificateStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, mapError("scan certificate count", err)
		}
		counts[models.CertificateStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate certificate counts", err)
	}
	return counts, nil
}
