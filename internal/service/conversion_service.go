package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"labtrack/internal/domain"
	"labtrack/internal/idgen"
	"labtrack/internal/metrics"
	"labtrack/internal/notify"
	"labtrack/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversionService is the coordinator turning a won lead into a
// sample plus its placeholder records.
type ConversionService interface {
	Convert(ctx context.Context, req ConvertLeadRequest) (*ConvertLeadResponse, error)
	UpdateLeadStatus(ctx context.Context, leadID, status string) (*domain.Lead, error)
	UpdateSampleStatus(ctx context.Context, sampleID, status string) (*domain.Sample, error)
}

// ============================================
// Request/Response DTOs
// ============================================

// SampleInput is the conversion request body. Amount is the only
// required field; everything else is passed through to the created
// records.
type SampleInput struct {
	Amount      *float64 `json:"amount"`
	PaidAmount  *float64 `json:"paidAmount"`
	TaxAmount   *float64 `json:"taxAmount"`
	TotalAmount *float64 `json:"totalAmount"`

	Status         string `json:"status"` // defaults to pickup_scheduled
	LabDestination string `json:"labDestination"`
	SampleType     string `json:"sampleType"`

	PatientName      string `json:"patientName"`
	OrganizationName string `json:"organizationName"`

	PickupDate     *time.Time `json:"pickupDate"`
	CourierName    string     `json:"courierName"`
	TrackingNumber string     `json:"trackingNumber"`

	Protocol string `json:"protocol"`

	CreateGeneticCounselling bool   `json:"createGeneticCounselling"`
	CounsellorName           string `json:"counsellorName"`
}

type ConvertLeadRequest struct {
	LeadID string
	Input  SampleInput
}

// ConvertLeadResponse is the created/updated cluster.
// GeneticCounselling is null when the heuristic did not fire.
// SideEffects lists post-commit notification failures; they never fail
// the conversion itself.
type ConvertLeadResponse struct {
	Lead               *domain.Lead                     `json:"lead"`
	Sample             *domain.Sample                   `json:"sample"`
	Finance            *domain.FinanceRecord            `json:"finance"`
	LabProcessing      *domain.LabProcessingRecord      `json:"labProcessing"`
	GeneticCounselling *domain.GeneticCounsellingRecord `json:"geneticCounselling"`

	SideEffects []string `json:"-"`
}

// ============================================
// Implementation
// ============================================

type conversionService struct {
	store   repository.ConversionStore
	ids     *idgen.Generator
	emitter notify.Emitter
	metrics *metrics.Registry
	logger  *zap.Logger
	now     func() time.Time
}

func NewConversionService(store repository.ConversionStore, ids *idgen.Generator, emitter notify.Emitter, m *metrics.Registry, logger *zap.Logger) ConversionService {
	return &conversionService{
		store:   store,
		ids:     ids,
		emitter: emitter,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

var _ ConversionService = (*conversionService)(nil)

func (s *conversionService) Convert(ctx context.Context, req ConvertLeadRequest) (*ConvertLeadResponse, error) {
	if req.LeadID == "" {
		return nil, fmt.Errorf("%w: lead id is required", domain.ErrValidation)
	}
	if req.Input.Amount == nil {
		return nil, fmt.Errorf("%w: amount is required", domain.ErrValidation)
	}
	if req.Input.Status != "" && !domain.IsSampleStatus(req.Input.Status) {
		return nil, fmt.Errorf("%w: unknown sample status %q", domain.ErrValidation, req.Input.Status)
	}

	now := s.now()
	start := now

	result, err := s.store.ConvertLead(ctx, req.LeadID, now, func(lead *domain.Lead) (*repository.ConversionRecords, error) {
		return s.buildRecords(lead, req.Input, now)
	})
	s.metrics.ConversionSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ConversionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		if errors.Is(err, domain.ErrNotFound) ||
			errors.Is(err, domain.ErrPrecondition) ||
			errors.Is(err, domain.ErrValidation) ||
			errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.logger.Error("conversion transaction failed",
			zap.String("lead_id", req.LeadID), zap.Error(err))
		return nil, fmt.Errorf("%w: lead %s: %v", domain.ErrConversion, req.LeadID, err)
	}
	s.metrics.ConversionsTotal.WithLabelValues("success").Inc()

	s.logger.Info("lead converted",
		zap.String("lead_id", result.Lead.ID),
		zap.String("sample_id", result.Sample.ID),
		zap.String("sample_code", result.Sample.SampleCode),
		zap.Bool("genetic_counselling", result.Counselling != nil))

	resp := &ConvertLeadResponse{
		Lead:               result.Lead,
		Sample:             result.Sample,
		Finance:            result.Finance,
		LabProcessing:      result.Lab,
		GeneticCounselling: result.Counselling,
	}
	resp.SideEffects = s.emitPostCommit(ctx, result)
	return resp, nil
}

// buildRecords assembles the record cluster inside the transaction.
func (s *conversionService) buildRecords(lead *domain.Lead, in SampleInput, now time.Time) (*repository.ConversionRecords, error) {
	sampleCode := s.ids.SampleID(lead.Category)

	status := in.Status
	if status == "" {
		status = domain.SampleStatusPickupScheduled
	}

	amount := formatAmount(*in.Amount)
	tax := ""
	if in.TaxAmount != nil {
		tax = formatAmount(*in.TaxAmount)
	}
	total := ""
	switch {
	case in.TotalAmount != nil:
		total = formatAmount(*in.TotalAmount)
	case in.TaxAmount != nil:
		total = formatAmount(*in.Amount + *in.TaxAmount)
	default:
		total = amount
	}
	paid := ""
	if in.PaidAmount != nil {
		paid = formatAmount(*in.PaidAmount)
	}

	records := &repository.ConversionRecords{
		Sample: &domain.Sample{
			ID:               uuid.NewString(),
			SampleCode:       sampleCode,
			LeadID:           lead.ID,
			Status:           status,
			LabDestination:   in.LabDestination,
			SampleType:       in.SampleType,
			PatientName:      in.PatientName,
			OrganizationName: firstNonEmpty(in.OrganizationName, lead.OrganizationName),
			PickupDate:       in.PickupDate,
			CourierName:      in.CourierName,
			TrackingNumber:   in.TrackingNumber,
			Amount:           amount,
			PaidAmount:       paid,
		},
		Lab: &domain.LabProcessingRecord{
			ID:         uuid.NewString(),
			SampleCode: sampleCode,
			Protocol:   in.Protocol,
			QCStatus:   domain.QCStatusPending,
		},
	}
	records.Finance = &domain.FinanceRecord{
		ID:               uuid.NewString(),
		SampleID:         records.Sample.ID,
		LeadID:           lead.ID,
		SampleCode:       sampleCode,
		PatientName:      in.PatientName,
		OrganizationName: records.Sample.OrganizationName,
		Amount:           amount,
		TaxAmount:        tax,
		TotalAmount:      total,
		PaidAmount:       paid,
		PaymentStatus:    domain.PaymentStatusPending,
	}

	if s.needsCounselling(lead, in) {
		records.Counselling = &domain.GeneticCounsellingRecord{
			ID:             uuid.NewString(),
			SampleID:       records.Sample.ID,
			LeadID:         lead.ID,
			PatientName:    in.PatientName,
			CounsellorName: in.CounsellorName,
			Status:         "pending",
		}
	}

	return records, nil
}

// needsCounselling is the business heuristic, reproduced as-is: an
// explicit request wins; otherwise the service name must look like a
// counselling-requiring test ("wes" in the service, or "gc" in the
// follow-up) AND the lead must be flagged.
func (s *conversionService) needsCounselling(lead *domain.Lead, in SampleInput) bool {
	if in.CreateGeneticCounselling {
		return true
	}
	service := strings.ToLower(lead.ServiceName)
	followUp := strings.ToLower(lead.FollowUp)
	indicated := strings.Contains(service, "wes") || strings.Contains(followUp, "gc")
	return indicated && lead.GeneticCounsellorRequired
}

// emitPostCommit fires the best-effort notifications. Failures are
// logged, counted and reported back, never raised.
func (s *conversionService) emitPostCommit(ctx context.Context, result *repository.ConversionResult) []string {
	var failures []string
	emit := func(ev notify.Event) {
		if err := s.emitter.Emit(ctx, ev); err != nil {
			s.metrics.EventsDropped.Inc()
			s.logger.Warn("notification emit failed",
				zap.String("kind", ev.Kind), zap.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %v", ev.Kind, err))
		}
	}

	occurred := s.now()
	emit(notify.Event{
		Kind:       notify.EventLeadConverted,
		LeadID:     result.Lead.ID,
		SampleID:   result.Sample.ID,
		SampleCode: result.Sample.SampleCode,
		Message:    fmt.Sprintf("lead %s converted to sample %s", result.Lead.ID, result.Sample.SampleCode),
		OccurredAt: occurred,
	})
	emit(notify.Event{
		Kind:       notify.EventSampleReceived,
		LeadID:     result.Lead.ID,
		SampleID:   result.Sample.ID,
		SampleCode: result.Sample.SampleCode,
		Message:    fmt.Sprintf("sample %s entered the pipeline", result.Sample.SampleCode),
		OccurredAt: occurred,
	})

	ops, err := s.store.ListActiveUsersByRole(ctx, domain.RoleOperations)
	if err != nil {
		s.logger.Warn("operations fan-out skipped", zap.Error(err))
		failures = append(failures, fmt.Sprintf("%s: %v", notify.EventSampleNew, err))
		return failures
	}
	for _, u := range ops {
		emit(notify.Event{
			Kind:        notify.EventSampleNew,
			SampleID:    result.Sample.ID,
			SampleCode:  result.Sample.SampleCode,
			RecipientID: u.ID,
			Message:     fmt.Sprintf("new sample %s awaiting pickup", result.Sample.SampleCode),
			OccurredAt:  occurred,
		})
	}
	return failures
}

func (s *conversionService) UpdateLeadStatus(ctx context.Context, leadID, status string) (*domain.Lead, error) {
	if !domain.IsLeadStatus(status) {
		return nil, fmt.Errorf("%w: unknown lead status %q", domain.ErrValidation, status)
	}
	if status == domain.LeadStatusConverted {
		// converted is only reachable through Convert
		return nil, fmt.Errorf("%w: lead status %q cannot be set directly", domain.ErrConflict, status)
	}

	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionLead(lead.Status, status) {
		return nil, fmt.Errorf("%w: lead status %q cannot move to %q", domain.ErrConflict, lead.Status, status)
	}

	updated, err := s.store.UpdateLeadStatus(ctx, leadID, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lead status updated",
		zap.String("lead_id", leadID),
		zap.String("from", lead.Status),
		zap.String("to", status))
	return updated, nil
}

// UpdateSampleStatus accepts any known status in any order; the
// pipeline order is advisory (see domain.SamplePipeline).
func (s *conversionService) UpdateSampleStatus(ctx context.Context, sampleID, status string) (*domain.Sample, error) {
	if !domain.IsSampleStatus(status) {
		return nil, fmt.Errorf("%w: unknown sample status %q", domain.ErrValidation, status)
	}
	sample, err := s.store.UpdateSampleStatus(ctx, sampleID, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sample status updated",
		zap.String("sample_id", sampleID),
		zap.String("to", status))
	return sample, nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrPrecondition):
		return "precondition_failed"
	case errors.Is(err, domain.ErrValidation):
		return "validation_failed"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

// formatAmount coerces a numeric amount to the fixed-point string kept
// in NUMERIC columns.
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
