package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"labtrack/internal/domain"
)

// MemoryStore implements ConversionStore and RecycleStore over maps.
// It backs the dev fallback when the DB is disabled, and the unit
// tests. One mutex guards everything; the entity maps are shared
// between both interfaces so a delete-then-restore round trip works
// end to end.
type MemoryStore struct {
	mu sync.Mutex

	leads        map[string]*domain.Lead
	samples      map[string]*domain.Sample
	sampleByLead map[string]string // lead id -> sample id (one sample per lead)
	finance      map[string]*domain.FinanceRecord
	lab          map[string]*domain.LabProcessingRecord
	counselling  map[string]*domain.GeneticCounsellingRecord
	users        map[string]*domain.User
	reports      map[string]*domain.Report
	entries      map[string]*domain.RecycleBinEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:        map[string]*domain.Lead{},
		samples:      map[string]*domain.Sample{},
		sampleByLead: map[string]string{},
		finance:      map[string]*domain.FinanceRecord{},
		lab:          map[string]*domain.LabProcessingRecord{},
		counselling:  map[string]*domain.GeneticCounsellingRecord{},
		users:        map[string]*domain.User{},
		reports:      map[string]*domain.Report{},
		entries:      map[string]*domain.RecycleBinEntry{},
	}
}

var (
	_ ConversionStore = (*MemoryStore)(nil)
	_ RecycleStore    = (*MemoryStore)(nil)
)

// SeedLead inserts a lead directly, for dev bootstrap and tests.
func (s *MemoryStore) SeedLead(l *domain.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.leads[l.ID] = &cp
}

// SeedUser inserts a user directly, for dev bootstrap and tests.
func (s *MemoryStore) SeedUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// ============================================
// ConversionStore
// ============================================

func (s *MemoryStore) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, fmt.Errorf("%w: leads id=%s", domain.ErrNotFound, id)
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) UpdateLeadStatus(ctx context.Context, id, status string) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, fmt.Errorf("%w: leads id=%s", domain.ErrNotFound, id)
	}
	l.Status = status
	l.UpdatedAt = time.Now()
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) ConvertLead(ctx context.Context, leadID string, now time.Time, build BuildRecordsFunc) (*ConversionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[leadID]
	if !ok {
		return nil, fmt.Errorf("%w: leads id=%s", domain.ErrNotFound, leadID)
	}
	if lead.Status != domain.LeadStatusWon {
		return nil, fmt.Errorf("%w: lead %s has status %q, conversion requires %q",
			domain.ErrPrecondition, leadID, lead.Status, domain.LeadStatusWon)
	}
	if _, exists := s.sampleByLead[leadID]; exists {
		return nil, fmt.Errorf("%w: lead %s already has a sample", domain.ErrConflict, leadID)
	}

	// stage on a copy so a build failure leaves the lead untouched
	staged := *lead
	staged.Status = domain.LeadStatusConverted
	converted := now
	staged.ConvertedAt = &converted
	staged.UpdatedAt = now

	records, err := build(&staged)
	if err != nil {
		return nil, err
	}

	for _, sp := range s.samples {
		if sp.SampleCode == records.Sample.SampleCode {
			return nil, fmt.Errorf("%w: duplicate sample code %s", domain.ErrConflict, sp.SampleCode)
		}
	}

	stamp := func(created, updated *time.Time) { *created, *updated = now, now }

	sp := *records.Sample
	stamp(&sp.CreatedAt, &sp.UpdatedAt)
	f := *records.Finance
	stamp(&f.CreatedAt, &f.UpdatedAt)
	lp := *records.Lab
	stamp(&lp.CreatedAt, &lp.UpdatedAt)

	s.leads[leadID] = &staged
	s.samples[sp.ID] = &sp
	s.sampleByLead[leadID] = sp.ID
	s.finance[f.ID] = &f
	s.lab[lp.ID] = &lp

	result := &ConversionResult{Lead: &staged, ConversionRecords: ConversionRecords{
		Sample:  &sp,
		Finance: &f,
		Lab:     &lp,
	}}
	if records.Counselling != nil {
		gc := *records.Counselling
		stamp(&gc.CreatedAt, &gc.UpdatedAt)
		s.counselling[gc.ID] = &gc
		result.Counselling = &gc
	}
	return result, nil
}

func (s *MemoryStore) UpdateSampleStatus(ctx context.Context, id, status string) (*domain.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.samples[id]
	if !ok {
		return nil, fmt.Errorf("%w: samples id=%s", domain.ErrNotFound, id)
	}
	sp.Status = status
	sp.UpdatedAt = time.Now()
	cp := *sp
	return &cp, nil
}

func (s *MemoryStore) ListActiveUsersByRole(ctx context.Context, role string) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.User{}
	for _, u := range s.users {
		if u.Role == role && u.Status == "active" {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

// ============================================
// RecycleStore
// ============================================

func (s *MemoryStore) FetchEntity(ctx context.Context, t domain.EntityType, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok, err := s.entityLocked(t, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s id=%s", domain.ErrNotFound, t, id)
	}
	return json.Marshal(v)
}

func (s *MemoryStore) DeleteEntity(ctx context.Context, t domain.EntityType, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok, err := s.entityLocked(t, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	s.removeEntityLocked(t, id)
	return true, nil
}

func (s *MemoryStore) InsertEntry(ctx context.Context, e *domain.RecycleBinEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entries[e.ID] = &cp
	return nil
}

func (s *MemoryStore) ListEntries(ctx context.Context) ([]*domain.RecycleBinEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.RecycleBinEntry{}
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.After(out[j].DeletedAt) })
	return out, nil
}

func (s *MemoryStore) GetEntry(ctx context.Context, id string) (*domain.RecycleBinEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: recycle_bin id=%s", domain.ErrNotFound, id)
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) DeleteEntry(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

func (s *MemoryStore) RestoreEntry(ctx context.Context, e *domain.RecycleBinEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists, err := s.entityLocked(e.EntityType, e.EntityID); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: %s %s already exists", domain.ErrRestore, e.EntityType, e.EntityID)
	}
	if err := s.insertSnapshotLocked(e.EntityType, e.Snapshot); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRestore, err)
	}
	delete(s.entries, e.ID)
	return nil
}

// entityLocked resolves (type, id) to the typed row. The bool reports
// existence; the error is reserved for unknown types.
func (s *MemoryStore) entityLocked(t domain.EntityType, id string) (any, bool, error) {
	switch t {
	case domain.EntityUsers:
		v, ok := s.users[id]
		return v, ok, nil
	case domain.EntityLeads:
		v, ok := s.leads[id]
		return v, ok, nil
	case domain.EntitySamples:
		v, ok := s.samples[id]
		return v, ok, nil
	case domain.EntityLabProcessing:
		v, ok := s.lab[id]
		return v, ok, nil
	case domain.EntityFinanceRecords:
		v, ok := s.finance[id]
		return v, ok, nil
	case domain.EntityGeneticCounselling:
		v, ok := s.counselling[id]
		return v, ok, nil
	case domain.EntityReports:
		v, ok := s.reports[id]
		return v, ok, nil
	}
	return nil, false, fmt.Errorf("%w: entity type %q is not registered", domain.ErrRestore, t)
}

func (s *MemoryStore) removeEntityLocked(t domain.EntityType, id string) {
	switch t {
	case domain.EntityUsers:
		delete(s.users, id)
	case domain.EntityLeads:
		delete(s.leads, id)
	case domain.EntitySamples:
		if sp, ok := s.samples[id]; ok {
			delete(s.sampleByLead, sp.LeadID)
		}
		delete(s.samples, id)
	case domain.EntityLabProcessing:
		delete(s.lab, id)
	case domain.EntityFinanceRecords:
		delete(s.finance, id)
	case domain.EntityGeneticCounselling:
		delete(s.counselling, id)
	case domain.EntityReports:
		delete(s.reports, id)
	}
}

func (s *MemoryStore) insertSnapshotLocked(t domain.EntityType, snapshot json.RawMessage) error {
	switch t {
	case domain.EntityUsers:
		var u domain.User
		if err := json.Unmarshal(snapshot, &u); err != nil {
			return err
		}
		s.users[u.ID] = &u
	case domain.EntityLeads:
		var l domain.Lead
		if err := json.Unmarshal(snapshot, &l); err != nil {
			return err
		}
		s.leads[l.ID] = &l
	case domain.EntitySamples:
		var sp domain.Sample
		if err := json.Unmarshal(snapshot, &sp); err != nil {
			return err
		}
		s.samples[sp.ID] = &sp
		s.sampleByLead[sp.LeadID] = sp.ID
	case domain.EntityLabProcessing:
		var lp domain.LabProcessingRecord
		if err := json.Unmarshal(snapshot, &lp); err != nil {
			return err
		}
		s.lab[lp.ID] = &lp
	case domain.EntityFinanceRecords:
		var f domain.FinanceRecord
		if err := json.Unmarshal(snapshot, &f); err != nil {
			return err
		}
		s.finance[f.ID] = &f
	case domain.EntityGeneticCounselling:
		var gc domain.GeneticCounsellingRecord
		if err := json.Unmarshal(snapshot, &gc); err != nil {
			return err
		}
		s.counselling[gc.ID] = &gc
	case domain.EntityReports:
		var r domain.Report
		if err := json.Unmarshal(snapshot, &r); err != nil {
			return err
		}
		s.reports[r.ID] = &r
	default:
		return fmt.Errorf("entity type %q is not registered", t)
	}
	return nil
}
