package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"labtrack/internal/domain"
	"labtrack/internal/registry"

	"github.com/lib/pq"
)

// PostgresConversionStore implements ConversionStore over lib/pq.
type PostgresConversionStore struct {
	db *sql.DB
}

func NewPostgresConversionStore(db *sql.DB) *PostgresConversionStore {
	return &PostgresConversionStore{db: db}
}

var _ ConversionStore = (*PostgresConversionStore)(nil)

func (s *PostgresConversionStore) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	return registry.ScanLead(ctx, s.db, id)
}

func (s *PostgresConversionStore) UpdateLeadStatus(ctx context.Context, id, status string) (*domain.Lead, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: leads id=%s", domain.ErrNotFound, id)
	}
	return registry.ScanLead(ctx, s.db, id)
}

// ConvertLead: single transaction, program-order writes, FOR UPDATE on
// the lead row. The unique index on samples.lead_id is the backstop if
// two conversions slip past the lock on different connections.
func (s *PostgresConversionStore) ConvertLead(ctx context.Context, leadID string, now time.Time, build BuildRecordsFunc) (*ConversionResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin conversion transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	lead, err := registry.ScanLeadForUpdate(ctx, tx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status != domain.LeadStatusWon {
		return nil, fmt.Errorf("%w: lead %s has status %q, conversion requires %q",
			domain.ErrPrecondition, leadID, lead.Status, domain.LeadStatusWon)
	}

	// 1. advance the lead
	err = tx.QueryRowContext(ctx, `
		UPDATE leads SET status = $2, converted_at = $3, updated_at = $3
		WHERE id = $1
		RETURNING converted_at, updated_at
	`, leadID, domain.LeadStatusConverted, now).Scan(&lead.ConvertedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark lead converted: %w", err)
	}
	lead.Status = domain.LeadStatusConverted

	records, err := build(lead)
	if err != nil {
		return nil, err
	}

	// 2. sample
	sp := records.Sample
	err = tx.QueryRowContext(ctx, `
		INSERT INTO samples (
			id, sample_code, lead_id, status, lab_destination, sample_type,
			patient_name, organization_name, pickup_date, courier_name,
			tracking_number, amount, paid_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, sp.ID, sp.SampleCode, sp.LeadID, sp.Status, sp.LabDestination, sp.SampleType,
		sp.PatientName, sp.OrganizationName, sp.PickupDate, sp.CourierName,
		sp.TrackingNumber, registry.NullNumeric(sp.Amount), registry.NullNumeric(sp.PaidAmount)).
		Scan(&sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err, "samples")
	}

	// 3. finance placeholder
	f := records.Finance
	err = tx.QueryRowContext(ctx, `
		INSERT INTO finance_records (
			id, sample_id, lead_id, sample_code, patient_name, organization_name,
			amount, tax_amount, total_amount, paid_amount, payment_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, f.ID, f.SampleID, f.LeadID, f.SampleCode, f.PatientName, f.OrganizationName,
		registry.NullNumeric(f.Amount), registry.NullNumeric(f.TaxAmount), registry.NullNumeric(f.TotalAmount),
		registry.NullNumeric(f.PaidAmount), f.PaymentStatus).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create finance record: %w", err)
	}

	// 4. lab placeholder
	lp := records.Lab
	err = tx.QueryRowContext(ctx, `
		INSERT INTO lab_processing (id, sample_code, protocol, qc_status, qc_notes, library_prep)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, lp.ID, lp.SampleCode, lp.Protocol, lp.QCStatus, lp.QCNotes, lp.LibraryPrep).
		Scan(&lp.CreatedAt, &lp.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create lab processing record: %w", err)
	}

	// 5. optional counselling
	if gc := records.Counselling; gc != nil {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO genetic_counselling (id, sample_id, lead_id, patient_name, counsellor_name, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at
		`, gc.ID, gc.SampleID, gc.LeadID, gc.PatientName, gc.CounsellorName, gc.Status, gc.Notes).
			Scan(&gc.CreatedAt, &gc.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create genetic counselling record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, mapUniqueViolation(err, "samples")
	}

	return &ConversionResult{Lead: lead, ConversionRecords: *records}, nil
}

func (s *PostgresConversionStore) UpdateSampleStatus(ctx context.Context, id, status string) (*domain.Sample, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE samples SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update sample status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: samples id=%s", domain.ErrNotFound, id)
	}
	return registry.ScanSample(ctx, s.db, id)
}

func (s *PostgresConversionStore) ListActiveUsersByRole(ctx context.Context, role string) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id::text, account, name, COALESCE(email, ''), role, status, created_at, updated_at
		FROM users
		WHERE role = $1 AND status = 'active'
		ORDER BY account
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Account, &u.Name, &u.Email, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// mapUniqueViolation turns a postgres 23505 into domain.ErrConflict so
// the racing-conversion loser gets a conflict-class error.
func mapUniqueViolation(err error, table string) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return fmt.Errorf("%w: duplicate row in %s (%s)", domain.ErrConflict, table, pqErr.Constraint)
	}
	return err
}
