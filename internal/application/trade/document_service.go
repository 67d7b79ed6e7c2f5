package trade

import (
	"context"
	"errors"
	"time"

	appfinance "github.com/gestor/backend/internal/application/finance"
	"github.com/gestor/backend/internal/domain/finance"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/domain/shared/valueobject"
	"github.com/gestor/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DocumentService manages source documents (sales, service orders, wrap jobs)
// and their downstream accounts-receivable records.
type DocumentService struct {
	scope        TransactionScope
	documentRepo trade.SourceDocumentRepository
	receivables  *appfinance.ReceivableService
	logger       *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(scope TransactionScope, documentRepo trade.SourceDocumentRepository, receivables *appfinance.ReceivableService, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		scope:        scope,
		documentRepo: documentRepo,
		receivables:  receivables,
		logger:       logger,
	}
}

// DocumentPaymentInput is one payment line on a document
type DocumentPaymentInput struct {
	Method string          `json:"method" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Date   time.Time       `json:"date"`
}

// CreateDocumentRequest is the request to issue a source document
type CreateDocumentRequest struct {
	Kind       trade.DocumentKind     `json:"kind" binding:"required"`
	CustomerID uuid.UUID              `json:"customer_id" binding:"required"`
	SellerID   *uuid.UUID             `json:"seller_id,omitempty"`
	Total      decimal.Decimal        `json:"total" binding:"required"`
	Payments   []DocumentPaymentInput `json:"payments"`
	Complete   bool                   `json:"complete"`
	Description string                `json:"description"`
}

// DocumentResponse is the API representation of a source document
type DocumentResponse struct {
	ID             uuid.UUID              `json:"id"`
	DocumentNumber string                 `json:"document_number"`
	Kind           trade.DocumentKind     `json:"kind"`
	CustomerID     uuid.UUID              `json:"customer_id"`
	CustomerName   string                 `json:"customer_name"`
	SellerID       *uuid.UUID             `json:"seller_id,omitempty"`
	Total          decimal.Decimal        `json:"total"`
	Payments       trade.DocumentPayments `json:"payments"`
	Status         trade.DocumentStatus   `json:"status"`
	IssuedAt       time.Time              `json:"issued_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	Description    string                 `json:"description,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// CreateDocumentResult reports the issued document and any receivable it produced
type CreateDocumentResult struct {
	Document   *DocumentResponse              `json:"document"`
	Receivable *appfinance.ReceivableResponse `json:"receivable,omitempty"`
	Warnings   []string                       `json:"warnings,omitempty"`
}

// CreateDocument issues a new document with a sequential number, records its
// payment lines and, when credit remains outstanding, opens a receivable for
// the customer. Credit owed by an employee's own customer identity is not
// turned into a receivable: it settles through the payroll monthly close.
func (s *DocumentService) CreateDocument(ctx context.Context, tenantID uuid.UUID, req CreateDocumentRequest) (*CreateDocumentResult, error) {
	var (
		doc              *trade.SourceDocument
		employeeCustomer bool
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByIDForTenant(ctx, tenantID, req.CustomerID)
		if err != nil {
			return err
		}

		number, err := repos.DocumentRepo().GenerateNumber(ctx, tenantID, req.Kind)
		if err != nil {
			return err
		}

		doc, err = trade.NewSourceDocument(tenantID, number, req.Kind, customer.ID, customer.Name, valueobject.NewMoneyBRL(req.Total))
		if err != nil {
			return err
		}
		doc.Description = req.Description
		if req.SellerID != nil {
			if _, err := repos.EmployeeRepo().FindByIDForTenant(ctx, tenantID, *req.SellerID); err != nil {
				return err
			}
			doc.SetSeller(*req.SellerID)
		}

		for _, line := range req.Payments {
			if _, err := doc.AddPayment(line.Method, line.Amount, line.Date); err != nil {
				return err
			}
		}
		if req.Complete {
			if err := doc.Complete(); err != nil {
				return err
			}
		}
		if err := repos.DocumentRepo().Save(ctx, doc); err != nil {
			return err
		}

		_, err = repos.EmployeeRepo().FindByCustomerID(ctx, tenantID, customer.ID)
		switch {
		case err == nil:
			employeeCustomer = true
		case errors.Is(err, shared.ErrNotFound):
			employeeCustomer = false
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CreateDocumentResult{Document: toDocumentResponse(doc)}

	credit := doc.Payments.CreditSum()
	if credit.IsPositive() && !employeeCustomer {
		receivable, err := s.openReceivable(ctx, tenantID, doc, credit)
		if err != nil {
			return nil, err
		}
		result.Receivable = receivable.Receivable
		result.Warnings = receivable.Warnings
	}

	s.logger.Info("document issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("kind", string(doc.Kind)),
		zap.Bool("employee_customer", employeeCustomer))

	return result, nil
}

// openReceivable opens the receivable backing a document's outstanding credit.
// Creation is idempotent on (debtor, amount, issue date, origin), so a retry
// after a crash between the document insert and this call converges on one
// record.
func (s *DocumentService) openReceivable(ctx context.Context, tenantID uuid.UUID, doc *trade.SourceDocument, credit decimal.Decimal) (*appfinance.CreateReceivableResult, error) {
	return s.receivables.CreateReceivable(ctx, tenantID, appfinance.CreateReceivableRequest{
		DebtorID:     doc.CustomerID,
		DebtorName:   doc.CustomerName,
		Amount:       credit,
		IssueDate:    doc.IssuedAt,
		OriginKind:   string(originKindFor(doc.Kind)),
		OriginID:     doc.ID,
		OriginNumber: doc.DocumentNumber,
	})
}

// UpdateTotalRequest is the request to edit a document total after issuance
type UpdateTotalRequest struct {
	NewTotal decimal.Decimal `json:"new_total" binding:"required"`
}

// UpdateTotalResult reports the edited document and the receivables adjusted
// proportionally to the change
type UpdateTotalResult struct {
	Document    *DocumentResponse               `json:"document"`
	Receivables []appfinance.ReceivableResponse `json:"receivables,omitempty"`
}

// UpdateDocumentTotal edits a document's total and propagates the change
// proportionally to every receivable originated by it.
func (s *DocumentService) UpdateDocumentTotal(ctx context.Context, tenantID, documentID uuid.UUID, req UpdateTotalRequest) (*UpdateTotalResult, error) {
	var (
		doc      *trade.SourceDocument
		previous decimal.Decimal
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.DocumentRepo().FindByIDForTenant(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		previous, err = doc.UpdateTotal(valueobject.NewMoneyBRL(req.NewTotal))
		if err != nil {
			return err
		}
		return repos.DocumentRepo().Save(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	adjusted, err := s.receivables.PropagateOriginChange(ctx, tenantID, originKindFor(doc.Kind), doc.ID, previous, req.NewTotal)
	if err != nil {
		return nil, err
	}

	return &UpdateTotalResult{
		Document:    toDocumentResponse(doc),
		Receivables: adjusted,
	}, nil
}

// CompleteDocument marks an open document as completed
func (s *DocumentService) CompleteDocument(ctx context.Context, tenantID, documentID uuid.UUID) (*DocumentResponse, error) {
	var doc *trade.SourceDocument
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.DocumentRepo().FindByIDForTenant(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if err := doc.Complete(); err != nil {
			return err
		}
		return repos.DocumentRepo().Save(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// GetDocument returns one document by ID
func (s *DocumentService) GetDocument(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// GetDocumentByNumber returns one document by its sequential number
func (s *DocumentService) GetDocumentByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*DocumentResponse, error) {
	doc, err := s.documentRepo.FindByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// ListDocuments returns documents matching the filter, with the total count
func (s *DocumentService) ListDocuments(ctx context.Context, tenantID uuid.UUID, filter trade.DocumentFilter) ([]DocumentResponse, int64, error) {
	docs, err := s.documentRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.documentRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = *toDocumentResponse(doc)
	}
	return responses, total, nil
}

// RemoveDocument tombstones a document
func (s *DocumentService) RemoveDocument(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.documentRepo.Remove(ctx, tenantID, id)
}

func originKindFor(kind trade.DocumentKind) finance.OriginKind {
	switch kind {
	case trade.DocumentKindProductSale:
		return finance.OriginKindProductSale
	case trade.DocumentKindServiceOrder:
		return finance.OriginKindServiceOrder
	case trade.DocumentKindWrapJob:
		return finance.OriginKindWrapJob
	}
	return finance.OriginKindManual
}

func toDocumentResponse(d *trade.SourceDocument) *DocumentResponse {
	return &DocumentResponse{
		ID:             d.ID,
		DocumentNumber: d.DocumentNumber,
		Kind:           d.Kind,
		CustomerID:     d.CustomerID,
		CustomerName:   d.CustomerName,
		SellerID:       d.SellerID,
		Total:          d.Total,
		Payments:       d.Payments,
		Status:         d.Status,
		IssuedAt:       d.IssuedAt,
		CompletedAt:    d.CompletedAt,
		Description:    d.Description,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
