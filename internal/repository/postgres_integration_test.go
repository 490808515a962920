//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strconv"
	"testing"
	"time"

	"labtrack/internal/domain"
	"labtrack/internal/registry"
	"labtrack/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *sql.DB {
	port := 5432
	if v := os.Getenv("TEST_DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			port = n
		}
	}
	cfg := &database.Config{
		Host:     getTestEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     getTestEnv("TEST_DB_USER", "postgres"),
		Password: getTestEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getTestEnv("TEST_DB_NAME", "labtrack"),
		SSLMode:  getTestEnv("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil
	}
	return db
}

func getTestEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// stripExcludedCols drops created_at/updated_at before comparing
// snapshots: the registry excludes them on insert, so they re-default
// to now() when a row is restored.
func stripExcludedCols(t *testing.T, doc json.RawMessage) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(doc, &m))
	delete(m, "createdAt")
	delete(m, "updatedAt")
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return string(b)
}

func createTestLead(t *testing.T, db *sql.DB, status string) string {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO leads (id, organization_name, contact_name, category, service_name, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, "Integration Clinic", "Test Contact", domain.LeadCategoryClinical, "wes panel", status)
	if err != nil {
		t.Fatalf("Failed to create test lead: %v", err)
	}
	return id
}

func cleanupLead(t *testing.T, db *sql.DB, leadID string) {
	db.Exec(`DELETE FROM genetic_counselling WHERE lead_id = $1`, leadID)
	db.Exec(`DELETE FROM finance_records WHERE lead_id = $1`, leadID)
	db.Exec(`DELETE FROM lab_processing WHERE sample_code IN (SELECT sample_code FROM samples WHERE lead_id = $1)`, leadID)
	db.Exec(`DELETE FROM samples WHERE lead_id = $1`, leadID)
	db.Exec(`DELETE FROM leads WHERE id = $1`, leadID)
}

func testRecords(lead *domain.Lead) (*ConversionRecords, error) {
	sampleID := uuid.NewString()
	code := "PG" + time.Now().Format("060102150405")
	return &ConversionRecords{
		Sample: &domain.Sample{
			ID:             sampleID,
			SampleCode:     code,
			LeadID:         lead.ID,
			Status:         domain.SampleStatusPickupScheduled,
			LabDestination: domain.LabDestinationInHouse,
			Amount:         "5000",
		},
		Finance: &domain.FinanceRecord{
			ID:            uuid.NewString(),
			SampleID:      sampleID,
			LeadID:        lead.ID,
			SampleCode:    code,
			Amount:        "5000",
			TotalAmount:   "5000",
			PaymentStatus: domain.PaymentStatusPending,
		},
		Lab: &domain.LabProcessingRecord{
			ID:         uuid.NewString(),
			SampleCode: code,
			QCStatus:   domain.QCStatusPending,
		},
	}, nil
}

// ============================================
// ConversionStore
// ============================================

func TestPostgresConversionStore_ConvertLead(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	store := NewPostgresConversionStore(db)
	ctx := context.Background()
	leadID := createTestLead(t, db, domain.LeadStatusWon)
	defer cleanupLead(t, db, leadID)

	res, err := store.ConvertLead(ctx, leadID, time.Now().UTC(), testRecords)
	require.NoError(t, err)
	require.Equal(t, domain.LeadStatusConverted, res.Lead.Status)
	require.NotNil(t, res.Lead.ConvertedAt)
	require.Equal(t, leadID, res.Sample.LeadID)
	require.False(t, res.Sample.CreatedAt.IsZero())
	require.Equal(t, "5000", res.Finance.TotalAmount)

	// second conversion fails on the status precondition
	_, err = store.ConvertLead(ctx, leadID, time.Now().UTC(), testRecords)
	require.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestPostgresConversionStore_ConvertLead_NotWon(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	store := NewPostgresConversionStore(db)
	leadID := createTestLead(t, db, domain.LeadStatusHot)
	defer cleanupLead(t, db, leadID)

	_, err := store.ConvertLead(context.Background(), leadID, time.Now().UTC(), testRecords)
	require.ErrorIs(t, err, domain.ErrPrecondition)

	// nothing was written
	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM leads WHERE id = $1`, leadID).Scan(&status))
	require.Equal(t, domain.LeadStatusHot, status)
}

// ============================================
// RecycleStore
// ============================================

func TestPostgresRecycleStore_RoundTrip(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	reg, err := registry.Default()
	require.NoError(t, err)
	store := NewPostgresRecycleStore(db, reg)
	ctx := context.Background()

	leadID := createTestLead(t, db, domain.LeadStatusQuoted)
	defer cleanupLead(t, db, leadID)

	snapshot, err := store.FetchEntity(ctx, domain.EntityLeads, leadID)
	require.NoError(t, err)

	entry := &domain.RecycleBinEntry{
		ID:           uuid.NewString(),
		EntityType:   domain.EntityLeads,
		EntityID:     leadID,
		Snapshot:     snapshot,
		OriginalPath: "/leads/" + leadID,
		DeletedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.InsertEntry(ctx, entry))
	defer db.Exec(`DELETE FROM recycle_bin WHERE id = $1`, entry.ID)

	deleted, err := store.DeleteEntity(ctx, domain.EntityLeads, leadID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = store.FetchEntity(ctx, domain.EntityLeads, leadID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.NoError(t, store.RestoreEntry(ctx, got))

	// the row is back under its original id, equal in every field the
	// restore carries over (timestamps re-default), the entry consumed
	restored, err := store.FetchEntity(ctx, domain.EntityLeads, leadID)
	require.NoError(t, err)
	require.JSONEq(t, stripExcludedCols(t, snapshot), stripExcludedCols(t, restored))

	_, err = store.GetEntry(ctx, entry.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresRecycleStore_RestoreCollision(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	reg, err := registry.Default()
	require.NoError(t, err)
	store := NewPostgresRecycleStore(db, reg)
	ctx := context.Background()

	leadID := createTestLead(t, db, domain.LeadStatusQuoted)
	defer cleanupLead(t, db, leadID)

	snapshot, err := store.FetchEntity(ctx, domain.EntityLeads, leadID)
	require.NoError(t, err)
	entry := &domain.RecycleBinEntry{
		ID:         uuid.NewString(),
		EntityType: domain.EntityLeads,
		EntityID:   leadID,
		Snapshot:   snapshot,
		DeletedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.InsertEntry(ctx, entry))
	defer db.Exec(`DELETE FROM recycle_bin WHERE id = $1`, entry.ID)

	// the live row still exists, so the reinsert collides and the entry
	// survives for a retry
	require.ErrorIs(t, store.RestoreEntry(ctx, entry), domain.ErrRestore)
	_, err = store.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
}
