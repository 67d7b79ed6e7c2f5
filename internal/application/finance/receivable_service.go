package finance

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gestor/backend/internal/domain/finance"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CategoryReceivablePayment is the cash-ledger category stamped on entries
// emitted by receivable payments.
const CategoryReceivablePayment = "RECEIVABLE_PAYMENT"

// ReceivableService provides application-level receivable operations
type ReceivableService struct {
	scope          TransactionScope
	receivableRepo finance.ReceivableRepository
	events         shared.EventPublisher
	logger         *zap.Logger
}

// NewReceivableService creates a new ReceivableService. events may be nil.
func NewReceivableService(scope TransactionScope, receivableRepo finance.ReceivableRepository, events shared.EventPublisher, logger *zap.Logger) *ReceivableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceivableService{
		scope:          scope,
		receivableRepo: receivableRepo,
		events:         events,
		logger:         logger,
	}
}

// publishEvents drains and publishes an aggregate's pending domain events.
// Event handling is best-effort and never fails the operation.
func (s *ReceivableService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("event publish failed", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}

// PaymentInput is one payment line in a request
type PaymentInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required"`
	Date   time.Time       `json:"date"`
	Notes  string          `json:"notes"`
}

// CreateReceivableRequest is the request to create a receivable
type CreateReceivableRequest struct {
	DebtorID   uuid.UUID       `json:"debtor_id" binding:"required"`
	DebtorName string          `json:"debtor_name" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    *time.Time      `json:"due_date"`
	OriginKind string          `json:"origin_kind"`
	OriginID   uuid.UUID       `json:"origin_id"`
	OriginNumber string        `json:"origin_number"`
	Notes      string          `json:"notes"`
	// Payments accompanies immediate-payment creations; a duplicate deferred
	// record is reconciled by applying these to it instead of creating a
	// conflicting second record.
	Payments []PaymentInput `json:"payments"`
}

// ReceivableResponse represents a receivable in API responses
type ReceivableResponse struct {
	ID               uuid.UUID                    `json:"id"`
	TenantID         uuid.UUID                    `json:"tenant_id"`
	ReceivableNumber string                       `json:"receivable_number"`
	DebtorID         uuid.UUID                    `json:"debtor_id"`
	DebtorName       string                       `json:"debtor_name"`
	OriginKind       string                       `json:"origin_kind"`
	OriginID         uuid.UUID                    `json:"origin_id"`
	OriginNumber     string                       `json:"origin_number,omitempty"`
	OriginalAmount   decimal.Decimal              `json:"original_amount"`
	AccruedInterest  decimal.Decimal              `json:"accrued_interest"`
	PaidAmount       decimal.Decimal              `json:"paid_amount"`
	PendingAmount    decimal.Decimal              `json:"pending_amount"`
	IssueDate        time.Time                    `json:"issue_date"`
	DueDate          *time.Time                   `json:"due_date,omitempty"`
	SettledAt        *time.Time                   `json:"settled_at,omitempty"`
	Status           string                       `json:"status"`
	Interest         *finance.InterestConfig      `json:"interest,omitempty"`
	InterestHistory  finance.InterestApplications `json:"interest_history,omitempty"`
	Payments         finance.PaymentEntries       `json:"payments,omitempty"`
	ParentID         *uuid.UUID                   `json:"parent_id,omitempty"`
	InstallmentSeq   int                          `json:"installment_seq,omitempty"`
	InstallmentCount int                          `json:"installment_count,omitempty"`
	Notes            string                       `json:"notes,omitempty"`
	Overdue          bool                         `json:"overdue"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
	Version          int                          `json:"version"`
}

// CreateReceivableResult reports the outcome of an idempotent creation
type CreateReceivableResult struct {
	Receivable *ReceivableResponse `json:"receivable"`
	Created    bool                `json:"created"`
	Warnings   []string            `json:"warnings,omitempty"`
}

// CreateReceivable creates a receivable. Creation is idempotent on
// (debtor, amount, issue date, origin): a retry returns the existing record.
// When the duplicate still carries a pending balance and the new request
// brings immediate payments, the payments are applied to the existing record
// so deferred and paid-in-full variants of the same transaction converge on
// one receivable.
func (s *ReceivableService) CreateReceivable(ctx context.Context, tenantID uuid.UUID, req CreateReceivableRequest) (*CreateReceivableResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Receivable amount must be positive")
	}

	originKind := finance.OriginKind(req.OriginKind)
	if req.OriginKind == "" {
		originKind = finance.OriginKindManual
	}
	if !originKind.IsValid() {
		return nil, shared.NewDomainError("INVALID_ORIGIN_KIND", "Origin kind is not valid")
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	var (
		result  CreateReceivableResult
		created *finance.Receivable
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.ReceivableRepo().FindDuplicate(ctx, tenantID, req.DebtorID, req.Amount, issueDate, originKind, req.OriginID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if existing != nil {
			warnings, reconcileErr := s.reconcileDuplicate(ctx, repos, existing, req.Payments)
			if reconcileErr != nil {
				return reconcileErr
			}
			result = CreateReceivableResult{
				Receivable: toReceivableResponse(existing),
				Created:    false,
				Warnings:   warnings,
			}
			return nil
		}

		number, err := repos.ReceivableRepo().GenerateNumber(ctx, tenantID)
		if err != nil {
			return err
		}

		receivable, err := finance.NewReceivable(
			tenantID, number, req.DebtorID, req.DebtorName,
			originKind, req.OriginID, req.OriginNumber,
			valueobject.NewMoneyBRL(req.Amount), issueDate, req.DueDate,
		)
		if err != nil {
			return err
		}
		receivable.Notes = req.Notes

		warnings, err := s.applyPayments(ctx, repos, receivable, req.Payments)
		if err != nil {
			return err
		}

		if err := repos.ReceivableRepo().Save(ctx, receivable); err != nil {
			return err
		}

		created = receivable
		result = CreateReceivableResult{
			Receivable: toReceivableResponse(receivable),
			Created:    true,
			Warnings:   warnings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created != nil {
		s.publishEvents(ctx, created)
	}

	return &result, nil
}

// reconcileDuplicate applies the request's immediate payments to an existing
// duplicate that still has a pending balance, then persists it.
func (s *ReceivableService) reconcileDuplicate(ctx context.Context, repos TransactionalRepositories, existing *finance.Receivable, payments []PaymentInput) ([]string, error) {
	if len(payments) == 0 || !existing.Status.CanApplyPayment() {
		return nil, nil
	}

	warnings, err := s.applyPayments(ctx, repos, existing, payments)
	if err != nil {
		return nil, err
	}
	if err := repos.ReceivableRepo().Save(ctx, existing); err != nil {
		return nil, err
	}
	return warnings, nil
}

// applyPayments registers payments on the receivable and emits one cash-ledger
// entry per non-deferred payment method.
func (s *ReceivableService) applyPayments(ctx context.Context, repos TransactionalRepositories, receivable *finance.Receivable, payments []PaymentInput) ([]string, error) {
	var warnings []string
	for _, input := range payments {
		method := finance.PaymentMethod(input.Method)
		entry, err := receivable.RegisterPayment(valueobject.NewMoneyBRL(input.Amount), method, input.Date, input.Notes)
		if err != nil {
			return nil, err
		}
		if entry.Clamped {
			warnings = append(warnings, "payment of "+input.Amount.StringFixed(2)+" exceeded the pending balance and was clamped to "+entry.Amount.StringFixed(2))
		}

		if method.IsDeferred() {
			continue
		}

		ledgerEntry, err := finance.NewCashLedgerEntry(
			receivable.TenantID,
			valueobject.NewMoneyBRL(entry.Amount),
			finance.LedgerDirectionIn,
			entry.Date,
			CategoryReceivablePayment,
			receivable.OriginKind,
			receivable.OriginID,
		)
		if err != nil {
			return nil, err
		}
		ledgerEntry.LinkReceivable(receivable.ID)
		ledgerEntry.Description = "Payment on receivable " + receivable.ReceivableNumber
		ledgerEntry.Metadata["payment_method"] = string(method)
		ledgerEntry.Metadata["payment_id"] = entry.ID.String()

		if err := repos.LedgerRepo().Save(ctx, ledgerEntry); err != nil {
			return nil, err
		}
	}
	return warnings, nil
}

// RegisterPaymentsRequest is the request to register payments on a receivable
type RegisterPaymentsRequest struct {
	Payments []PaymentInput `json:"payments" binding:"required,min=1,dive"`
}

// RegisterPaymentsResult reports the receivable state after the payments
type RegisterPaymentsResult struct {
	Receivable *ReceivableResponse `json:"receivable"`
	Warnings   []string            `json:"warnings,omitempty"`
}

// RegisterPayments applies one or more payments to a receivable. The
// receivable mutation and every emitted cash-ledger entry share one
// transaction.
func (s *ReceivableService) RegisterPayments(ctx context.Context, tenantID, receivableID uuid.UUID, req RegisterPaymentsRequest) (*RegisterPaymentsResult, error) {
	if len(req.Payments) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one payment is required")
	}

	var result RegisterPaymentsResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receivable, err := repos.ReceivableRepo().FindByIDForTenant(ctx, tenantID, receivableID)
		if err != nil {
			return err
		}

		warnings, err := s.applyPayments(ctx, repos, receivable, req.Payments)
		if err != nil {
			return err
		}

		if err := repos.ReceivableRepo().Save(ctx, receivable); err != nil {
			return err
		}

		result = RegisterPaymentsResult{
			Receivable: toReceivableResponse(receivable),
			Warnings:   warnings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ConfigureInterestRequest is the request to set an interest schedule
type ConfigureInterestRequest struct {
	Type      string          `json:"type" binding:"required,oneof=PERCENT FIXED"`
	Rate      decimal.Decimal `json:"rate" binding:"required"`
	StartDate time.Time       `json:"start_date" binding:"required"`
	Frequency string          `json:"frequency" binding:"required,oneof=ONCE DAILY WEEKLY MONTHLY"`
}

// ConfigureInterest sets the interest schedule on a non-settled receivable
func (s *ReceivableService) ConfigureInterest(ctx context.Context, tenantID, receivableID uuid.UUID, req ConfigureInterestRequest) (*ReceivableResponse, error) {
	var response *ReceivableResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receivable, err := repos.ReceivableRepo().FindByIDForTenant(ctx, tenantID, receivableID)
		if err != nil {
			return err
		}

		cfg := finance.InterestConfig{
			Type:      finance.InterestType(req.Type),
			Rate:      req.Rate,
			StartDate: req.StartDate,
			Frequency: finance.InterestFrequency(req.Frequency),
		}
		if err := receivable.ConfigureInterest(cfg); err != nil {
			return err
		}

		if err := repos.ReceivableRepo().Save(ctx, receivable); err != nil {
			return err
		}
		response = toReceivableResponse(receivable)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// InterestApplicationResult reports one interest accrual
type InterestApplicationResult struct {
	ReceivableID     uuid.UUID       `json:"receivable_id"`
	ReceivableNumber string          `json:"receivable_number"`
	Delta            decimal.Decimal `json:"delta"`
	PendingAfter     decimal.Decimal `json:"pending_after"`
}

// ApplyInterest accrues interest on a single receivable
func (s *ReceivableService) ApplyInterest(ctx context.Context, tenantID, receivableID uuid.UUID) (*InterestApplicationResult, error) {
	var result *InterestApplicationResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receivable, err := repos.ReceivableRepo().FindByIDForTenant(ctx, tenantID, receivableID)
		if err != nil {
			return err
		}

		delta, err := receivable.ApplyInterest(time.Now())
		if err != nil {
			return err
		}

		if err := repos.ReceivableRepo().Save(ctx, receivable); err != nil {
			return err
		}

		result = &InterestApplicationResult{
			ReceivableID:     receivable.ID,
			ReceivableNumber: receivable.ReceivableNumber,
			Delta:            delta,
			PendingAfter:     receivable.PendingAmount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BatchInterestFailure reports one failed item of a batch accrual
type BatchInterestFailure struct {
	ReceivableID     uuid.UUID `json:"receivable_id"`
	ReceivableNumber string    `json:"receivable_number"`
	Reason           string    `json:"reason"`
}

// BatchInterestResult partitions a batch accrual into successes and failures
type BatchInterestResult struct {
	Applied []InterestApplicationResult `json:"applied"`
	Failed  []BatchInterestFailure      `json:"failed"`
	Skipped int                         `json:"skipped"`
}

// ApplyInterestBatch accrues interest on every eligible receivable of the
// tenant. Each item runs in its own transaction; a failure is recorded and
// the batch continues.
func (s *ReceivableService) ApplyInterestBatch(ctx context.Context, tenantID uuid.UUID) (*BatchInterestResult, error) {
	now := time.Now()
	candidates, err := s.receivableRepo.FindInterestEligible(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}

	result := &BatchInterestResult{
		Applied: []InterestApplicationResult{},
		Failed:  []BatchInterestFailure{},
	}

	for i := range candidates {
		candidate := candidates[i]
		if !candidate.ShouldApplyInterest(now) {
			result.Skipped++
			continue
		}

		applied, err := s.ApplyInterest(ctx, tenantID, candidate.ID)
		if err != nil {
			s.logger.Warn("batch interest application failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("receivable_id", candidate.ID.String()),
				zap.Error(err))
			result.Failed = append(result.Failed, BatchInterestFailure{
				ReceivableID:     candidate.ID,
				ReceivableNumber: candidate.ReceivableNumber,
				Reason:           err.Error(),
			})
			continue
		}
		result.Applied = append(result.Applied, *applied)
	}

	return result, nil
}

// SplitInstallmentsRequest is the request to split a receivable
type SplitInstallmentsRequest struct {
	Count        int       `json:"count" binding:"required,min=2"`
	IntervalDays int       `json:"interval_days" binding:"required,min=1"`
	FirstDueDate time.Time `json:"first_due_date" binding:"required"`
}

// SplitInstallmentsResult reports the parent and the created children
type SplitInstallmentsResult struct {
	Parent       *ReceivableResponse  `json:"parent"`
	Installments []ReceivableResponse `json:"installments"`
}

// SplitInstallments divides a receivable's pending balance into installments.
// Parent and children are persisted atomically.
func (s *ReceivableService) SplitInstallments(ctx context.Context, tenantID, receivableID uuid.UUID, req SplitInstallmentsRequest) (*SplitInstallmentsResult, error) {
	var result SplitInstallmentsResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receivable, err := repos.ReceivableRepo().FindByIDForTenant(ctx, tenantID, receivableID)
		if err != nil {
			return err
		}

		numberFor := func(seq int) string {
			return receivable.ReceivableNumber + "/" + installmentSuffix(seq, req.Count)
		}

		children, err := receivable.SplitIntoInstallments(req.Count, req.IntervalDays, req.FirstDueDate, numberFor)
		if err != nil {
			return err
		}

		if err := repos.ReceivableRepo().Save(ctx, receivable); err != nil {
			return err
		}
		installments := make([]ReceivableResponse, len(children))
		for i, child := range children {
			if err := repos.ReceivableRepo().Save(ctx, child); err != nil {
				return err
			}
			installments[i] = *toReceivableResponse(child)
		}

		result = SplitInstallmentsResult{
			Parent:       toReceivableResponse(receivable),
			Installments: installments,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PropagateOriginChange recomputes the receivables linked to an origin
// document after its total was edited. Split parents are left untouched
// since their balance lives on the children. All updates happen in one
// transaction.
func (s *ReceivableService) PropagateOriginChange(ctx context.Context, tenantID uuid.UUID, originKind finance.OriginKind, originID uuid.UUID, oldTotal, newTotal decimal.Decimal) ([]ReceivableResponse, error) {
	var responses []ReceivableResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		linked, err := repos.ReceivableRepo().FindByOrigin(ctx, tenantID, originKind, originID)
		if err != nil {
			return err
		}

		responses = make([]ReceivableResponse, 0, len(linked))
		for i := range linked {
			receivable := &linked[i]
			// A split parent delegated its balance to its children; scaling
			// it as well would double-count the debt.
			if receivable.IsSplitParent() {
				continue
			}
			if err := receivable.ApplyOriginTotalChange(oldTotal, newTotal); err != nil {
				return err
			}
			if err := repos.ReceivableRepo().Save(ctx, receivable); err != nil {
				return err
			}
			responses = append(responses, *toReceivableResponse(receivable))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// ReceivableListFilter defines filtering options for list queries
type ReceivableListFilter struct {
	Search     string     `form:"search"`
	DebtorID   *uuid.UUID `form:"debtor_id"`
	Status     string     `form:"status"`
	OriginKind string     `form:"origin_kind"`
	Overdue    *bool      `form:"overdue"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// GetReceivable gets a receivable by ID
func (s *ReceivableService) GetReceivable(ctx context.Context, tenantID, id uuid.UUID) (*ReceivableResponse, error) {
	receivable, err := s.receivableRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toReceivableResponse(receivable), nil
}

// ListReceivables lists receivables with filtering and pagination
func (s *ReceivableService) ListReceivables(ctx context.Context, tenantID uuid.UUID, filter ReceivableListFilter) ([]ReceivableResponse, int64, error) {
	repoFilter := finance.ReceivableFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		DebtorID: filter.DebtorID,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		Overdue:  filter.Overdue,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.PageSize <= 0 {
		repoFilter.PageSize = 20
	}
	if filter.Status != "" {
		status := finance.ReceivableStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Receivable status is not valid")
		}
		repoFilter.Status = &status
	}
	if filter.OriginKind != "" {
		kind := finance.OriginKind(filter.OriginKind)
		if !kind.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_ORIGIN_KIND", "Origin kind is not valid")
		}
		repoFilter.OriginKind = &kind
	}

	receivables, err := s.receivableRepo.FindAllForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.receivableRepo.CountForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ReceivableResponse, len(receivables))
	for i := range receivables {
		responses[i] = *toReceivableResponse(&receivables[i])
	}
	return responses, total, nil
}

// GetInstallments returns the children of a split receivable
func (s *ReceivableService) GetInstallments(ctx context.Context, tenantID, parentID uuid.UUID) ([]ReceivableResponse, error) {
	installments, err := s.receivableRepo.FindInstallments(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	responses := make([]ReceivableResponse, len(installments))
	for i := range installments {
		responses[i] = *toReceivableResponse(&installments[i])
	}
	return responses, nil
}

// RemoveReceivable tombstones a receivable
func (s *ReceivableService) RemoveReceivable(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.receivableRepo.Remove(ctx, tenantID, id)
}

func toReceivableResponse(r *finance.Receivable) *ReceivableResponse {
	return &ReceivableResponse{
		ID:               r.ID,
		TenantID:         r.TenantID,
		ReceivableNumber: r.ReceivableNumber,
		DebtorID:         r.DebtorID,
		DebtorName:       r.DebtorName,
		OriginKind:       string(r.OriginKind),
		OriginID:         r.OriginID,
		OriginNumber:     r.OriginNumber,
		OriginalAmount:   r.OriginalAmount,
		AccruedInterest:  r.AccruedInterest,
		PaidAmount:       r.PaidAmount,
		PendingAmount:    r.PendingAmount,
		IssueDate:        r.IssueDate,
		DueDate:          r.DueDate,
		SettledAt:        r.SettledAt,
		Status:           string(r.Status),
		Interest:         r.Interest,
		InterestHistory:  r.InterestHistory,
		Payments:         r.Payments,
		ParentID:         r.ParentID,
		InstallmentSeq:   r.InstallmentSeq,
		InstallmentCount: r.InstallmentCount,
		Notes:            r.Notes,
		Overdue:          r.IsOverdue(),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.Version,
	}
}

// installmentSuffix renders the child's position within the plan, e.g. "2-6"
func installmentSuffix(seq, count int) string {
	return strconv.Itoa(seq) + "-" + strconv.Itoa(count)
}
