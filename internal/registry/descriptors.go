package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"labtrack/internal/domain"
)

// timestampCols are DB-defaulted on every table and therefore excluded
// when a snapshot is reinserted.
var timestampCols = []string{"created_at", "updated_at"}

func deleteByID(ctx context.Context, x Execer, table, idColumn, id string) (bool, error) {
	res, err := x.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, idColumn), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func notFound(table, id string) error {
	return fmt.Errorf("%w: %s id=%s", domain.ErrNotFound, table, id)
}

// ============================================
// users
// ============================================

type userDescriptor struct{}

func (d *userDescriptor) EntityType() domain.EntityType { return domain.EntityUsers }
func (d *userDescriptor) Table() string                 { return "users" }
func (d *userDescriptor) IDColumn() string              { return "id" }
func (d *userDescriptor) ExcludedOnInsert() []string    { return timestampCols }

func (d *userDescriptor) Fetch(ctx context.Context, q Querier, id string) (json.RawMessage, error) {
	var u domain.User
	err := q.QueryRowContext(ctx, `
		SELECT id::text, account, name, COALESCE(email, ''), role, status, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Account, &u.Name, &u.Email, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("users", id)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(u)
}

func (d *userDescriptor) Insert(ctx context.Context, x Execer, snapshot json.RawMessage) error {
	var u domain.User
	if err := json.Unmarshal(snapshot, &u); err != nil {
		return fmt.Errorf("failed to decode users snapshot: %w", err)
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO users (id, account, name, email, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Account, u.Name, u.Email, u.Role, u.Status)
	return err
}

func (d *userDescriptor) Delete(ctx context.Context, x Execer, id string) (bool, error) {
	return deleteByID(ctx, x, "users", "id", id)
}

// ============================================
// leads
// ============================================

type leadDescriptor struct{}

func (d *leadDescriptor) EntityType() domain.EntityType { return domain.EntityLeads }
func (d *leadDescriptor) Table() string                 { return "leads" }
func (d *leadDescriptor) IDColumn() string              { return "id" }
func (d *leadDescriptor) ExcludedOnInsert() []string    { return timestampCols }

func (d *leadDescriptor) Fetch(ctx context.Context, q Querier, id string) (json.RawMessage, error) {
	l, err := ScanLead(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(l)
}

func (d *leadDescriptor) Insert(ctx context.Context, x Execer, snapshot json.RawMessage) error {
	var l domain.Lead
	if err := json.Unmarshal(snapshot, &l); err != nil {
		return fmt.Errorf("failed to decode leads snapshot: %w", err)
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO leads (
			id, organization_name, contact_name, contact_email, contact_phone,
			category, service_name, follow_up, genetic_counsellor_required,
			status, converted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, l.ID, l.OrganizationName, l.ContactName, l.ContactEmail, l.ContactPhone,
		l.Category, l.ServiceName, l.FollowUp, l.GeneticCounsellorRequired,
		l.Status, l.ConvertedAt)
	return err
}

func (d *leadDescriptor) Delete(ctx context.Context, x Execer, id string) (bool, error) {
	return deleteByID(ctx, x, "leads", "id", id)
}

// ScanLead reads one lead row. Shared with the conversion repository so
// the column list lives in one place.
func ScanLead(ctx context.Context, q Querier, id string) (*domain.Lead, error) {
	return scanLeadRow(q.QueryRowContext(ctx, `
		SELECT id::text, organization_name, contact_name, COALESCE(contact_email, ''),
		       COALESCE(contact_phone, ''), category, COALESCE(service_name, ''),
		       COALESCE(follow_up, ''), genetic_counsellor_required, status,
		       converted_at, created_at, updated_at
		FROM leads
		WHERE id = $1
	`, id), id)
}

// ScanLeadForUpdate is ScanLead with a row lock, used inside the
// conversion transaction so two racing conversions serialize on the
// lead row.
func ScanLeadForUpdate(ctx context.Context, q Querier, id string) (*domain.Lead, error) {
	return scanLeadRow(q.QueryRowContext(ctx, `
		SELECT id::text, organization_name, contact_name, COALESCE(contact_email, ''),
		       COALESCE(contact_phone, ''), category, COALESCE(service_name, ''),
		       COALESCE(follow_up, ''), genetic_counsellor_required, status,
		       converted_at, created_at, updated_at
		FROM leads
		WHERE id = $1
		FOR UPDATE
	`, id), id)
}

func scanLeadRow(row *sql.Row, id string) (*domain.Lead, error) {
	var l domain.Lead
	var convertedAt sql.NullTime
	err := row.Scan(&l.ID, &l.OrganizationName, &l.ContactName, &l.ContactEmail,
		&l.ContactPhone, &l.Category, &l.ServiceName, &l.FollowUp,
		&l.GeneticCounsellorRequired, &l.Status, &convertedAt, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("leads", id)
	}
	if err != nil {
		return nil, err
	}
	if convertedAt.Valid {
		l.ConvertedAt = &convertedAt.Time
	}
	return &l, nil
}

// ============================================
// samples
// ============================================

type sampleDescriptor struct{}

func (d *sampleDescriptor) EntityType() domain.EntityType { return domain.EntitySamples }
func (d *sampleDescriptor) Table() string                 { return "samples" }
func (d *sampleDescriptor) IDColumn() string              { return "id" }
func (d *sampleDescriptor) ExcludedOnInsert() []string    { return timestampCols }

func (d *sampleDescriptor) Fetch(ctx context.Context, q Querier, id string) (json.RawMessage, error) {
	s, err := ScanSample(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

func (d *sampleDescriptor) Insert(ctx context.Context, x Execer, snapshot json.RawMessage) error {
	var s domain.Sample
	if err := json.Unmarshal(snapshot, &s); err != nil {
		return fmt.Errorf("failed to decode samples snapshot: %w", err)
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO samples (
			id, sample_code, lead_id, status, lab_destination, sample_type,
			patient_name, organization_name, pickup_date, courier_name,
			tracking_number, amount, paid_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, s.ID, s.SampleCode, s.LeadID, s.Status, s.LabDestination, s.SampleType,
		s.PatientName, s.OrganizationName, s.PickupDate, s.CourierName,
		s.TrackingNumber, NullNumeric(s.Amount), NullNumeric(s.PaidAmount))
	return err
}

func (d *sampleDescriptor) Delete(ctx context.Context, x Execer, id string) (bool, error) {
	return deleteByID(ctx, x, "samples", "id", id)
}

// ScanSample reads one sample row by primary key.
func ScanSample(ctx context.Context, q Querier, id string) (*domain.Sample, error) {
	var s domain.Sample
	var pickupDate sql.NullTime
	var amount, paidAmount sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT id::text, sample_code, lead_id::text, status,
		       COALESCE(lab_destination, ''), COALESCE(sample_type, ''),
		       COALESCE(patient_name, ''), COALESCE(organization_name, ''),
		       pickup_date, COALESCE(courier_name, ''), COALESCE(tracking_number, ''),
		       amount::text, paid_amount::text, created_at, updated_at
		FROM samples
		WHERE id = $1
	`, id).Scan(&s.ID, &s.SampleCode, &s.LeadID, &s.Status, &s.LabDestination,
		&s.SampleType, &s.PatientName, &s.OrganizationName, &pickupDate,
		&s.CourierName, &s.TrackingNumber, &amount, &paidAmount,
		&s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("samples", id)
	}
	if err != nil {
		return nil, err
	}
	if pickupDate.Valid {
		s.PickupDate = &pickupDate.Time
	}
	s.Amount = amount.String
	s.PaidAmount = paidAmount.String
	return &s, nil
}

// ============================================
// lab_processing
// ============================================

type labProcessingDescriptor struct{}

func (d *labProcessingDescriptor) EntityType() domain.EntityType { return domain.EntityLabProcessing }
func (d *labProcessingDescriptor) Table() string                 { return "lab_processing" }
func (d *labProcessingDescriptor) IDColumn() string              { return "id" }
func (d *labProcessingDescriptor) ExcludedOnInsert() []string    { return timestampCols }

func (d *labProcessingDescriptor) Fetch(ctx context.Context, q Querier, id string) (json.RawMessage, error) {
	var lp domain.LabProcessingRecord
	err := q.QueryRowContext(ctx, `
		SELECT id::text, sample_code, COALESCE(protocol, ''), qc_status,
		       COALESCE(qc_notes, ''), COALESCE(library_prep, ''), created_at, updated_at
		FROM lab_processing
		WHERE id = $1
	`, id).Scan(&lp.ID, &lp.SampleCode, &lp.Protocol, &lp.QCStatus,
		&lp.QCNotes, &lp.LibraryPrep, &lp.CreatedAt, &lp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("lab_processing", id)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(lp)
}

func (d *labProcessingDescriptor) Insert(ctx context.Context, x Execer, snapshot json.RawMessage) error {
	var lp domain.LabProcessingRecord
	if err := json.Unmarshal(snapshot, &lp); err != nil {
		return fmt.Errorf("failed to decode lab_processing snapshot: %w", err)
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO lab_processing (id, sample_code, protocol, qc_status, qc_notes, library_prep)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, lp.ID, lp.SampleCode, lp.Protocol, lp.QCStatus, lp.QCNotes, lp.LibraryPrep)
	return err
}

func (d *labProcessingDescriptor) Delete(ctx context.Context, x Execer, id string) (bool, error) {
	return deleteByID(ctx, x, "lab_processing", "id", id)
}

// ============================================
// finance_records
// ============================================

type financeDescriptor struct{}

func (d *financeDescriptor) EntityType() domain.EntityType { return domain.EntityFinanceRecords }
func (d *financeDescriptor) Table() string                 { return "finance_records" }
func (d *financeDescriptor) IDColumn() string              { return "id" }
func (d *financeDescriptor) ExcludedOnInsert() []string    { return timestampCols }

func (d *financeDescriptor) Fetch(ctx context.Context, q Querier, id string) (json.RawMessage, error) {
	var f domain.FinanceRecord
	err := q.QueryRowContext(ctx, `
		SELECT id::text, sample_id::text, lead_id::text, sample_code,
		       COALESCE(patient_name, ''), COALESCE(organization_name, ''),
		       amount::text, COALESCE(tax_amount::text, '0'), total_amount::text,
		       COALESCE(paid_amount::text, '0'), payment_status, created_at, updated_at
		FROM finance_records
		WHERE id = $1
	`, id).Scan(&f.ID, &f.SampleID, &f.LeadID, &f.SampleCode, &f.PatientName,
		&f.OrganizationName, &f.Amount, &f.TaxAmount, &f.TotalAmount,
		&f.PaidAmount, &f.PaymentStatus, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("finance_records", id)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

func (d *financeDescriptor) Insert(ctx context.Context, x Execer, snapshot json.RawMessage) error {
	var f domain.FinanceRecord
	if err := json.Unmarshal(snapshot, &f); err != nil {
		return fmt.Errorf("failed to decode finance_records snapshot: %w", err)
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO finance_records (
			id, sample_id, lead_id, sample_code, patient_name, organization_name,
			amount, tax_amount, total_amount, paid_amount, payment_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, f.ID, f.SampleID, f.LeadID, f.SampleCode, f.PatientName, f.OrganizationName,
		NullNumeric(f.Amount), NullNumeric(f.TaxAmount), NullNumeric(f.TotalAmount),
		NullNumeric(f.PaidAmount), f.PaymentStatus)
	return err
}

func (d *financeDescriptor) Delete(ctx context.Context, x Execer, id string) (bool, error) {
	return deleteByID(ctx, x, "finance_records", "id", id)
}

// ============================================
// genetic_counselling
// ============================================

type geneticCounsellingDescriptor struct{}

func (d *geneticCounsellingDescriptor) EntityType() domain.EntityType {
	return domain.EntityGeneticCounselling
}
func (d *geneticCounsellingDescriptor) Table() string              { return "genetic_counselling" }
func (d *geneticCounsellingDescriptor) IDColumn() string           { return "id" }
func (d *geneticCounsellingDescriptor) ExcludedOnInsert() []string { return timestampCols }

func (d *geneticCounsellingDescriptor) Fetch(ctx context.Context, q Querier, id string) (json.RawMessage, error) {
	var gc domain.GeneticCounsellingRecord
	err := q.QueryRowContext(ctx, `
		SELECT id::text, sample_id::text, lead_id::text, COALESCE(patient_name, ''),
		       COALESCE(counsellor_name, ''), status, COALESCE(notes, ''),
		       created_at, updated_at
		FROM genetic_counselling
		WHERE id = $1
	`, id).Scan(&gc.ID, &gc.SampleID, &gc.LeadID, &gc.PatientName,
		&gc.CounsellorName, &gc.Status, &gc.Notes, &gc.CreatedAt, &gc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("genetic_counselling", id)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(gc)
}

func (d *geneticCounsellingDescriptor) Insert(ctx context.Context, x Execer, snapshot json.RawMessage) error {
	var gc domain.GeneticCounsellingRecord
	if err := json.Unmarshal(snapshot, &gc); err != nil {
		return fmt.Errorf("failed to decode genetic_counselling snapshot: %w", err)
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO genetic_counselling (id, sample_id, lead_id, patient_name, counsellor_name, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, gc.ID, gc.SampleID, gc.LeadID, gc.PatientName, gc.CounsellorName, gc.Status, gc.Notes)
	return err
}

func (d *geneticCounsellingDescriptor) Delete(ctx context.Context, x Execer, id string) (bool, error) {
	return deleteByID(ctx, x, "genetic_counselling", "id", id)
}

// ============================================
// reports
// ============================================

type reportDescriptor struct{}

func (d *reportDescriptor) EntityType() domain.EntityType { return domain.EntityReports }
func (d *reportDescriptor) Table() string                 { return "reports" }
func (d *reportDescriptor) IDColumn() string              { return "id" }
func (d *reportDescriptor) ExcludedOnInsert() []string    { return timestampCols }

func (d *reportDescriptor) Fetch(ctx context.Context, q Querier, id string) (json.RawMessage, error) {
	var r domain.Report
	err := q.QueryRowContext(ctx, `
		SELECT id::text, sample_id::text, report_type, status, COALESCE(notes, ''),
		       created_at, updated_at
		FROM reports
		WHERE id = $1
	`, id).Scan(&r.ID, &r.SampleID, &r.ReportType, &r.Status, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("reports", id)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

func (d *reportDescriptor) Insert(ctx context.Context, x Execer, snapshot json.RawMessage) error {
	var r domain.Report
	if err := json.Unmarshal(snapshot, &r); err != nil {
		return fmt.Errorf("failed to decode reports snapshot: %w", err)
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO reports (id, sample_id, report_type, status, notes)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.SampleID, r.ReportType, r.Status, r.Notes)
	return err
}

func (d *reportDescriptor) Delete(ctx context.Context, x Execer, id string) (bool, error) {
	return deleteByID(ctx, x, "reports", "id", id)
}

// NullNumeric maps "" to NULL so empty fixed-point strings don't fail
// the NUMERIC cast. Shared by every writer of NUMERIC columns.
func NullNumeric(s string) any {
	if s == "" {
		return nil
	}
	return s
}
