package trial

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	trialDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/trial"
	"github.com/frahmantamala/vendor-portal/internal/core/events"
	"github.com/frahmantamala/vendor-portal/internal/storage"
	"github.com/google/uuid"
)

// RepositoryAPI scopes trial lookups by vendorID; an empty vendorID matches every vendor.
type RepositoryAPI interface {
	ExistsForVendor(ctx context.Context, vendorID string) (bool, error)
	Create(ctx context.Context, t NewTrial) (int64, error)
	List(ctx context.Context, vendorID string, filter ListFilter) ([]*Trial, error)
	// GetByID returns internal.ErrTrialNotFound for trials outside vendorID.
	GetByID(ctx context.Context, vendorID string, trialID int64) (*Trial, error)
	Update(ctx context.Context, trialID int64, changes Changes) error
	// UpdateIRBStatus writes the trial row and appends history in one transaction, returning the prior effective status.
	UpdateIRBStatus(ctx context.Context, trialID int64, change IRBChange) (string, error)
	ListIRBHistory(ctx context.Context, trialID int64) ([]*IRBHistoryEntry, error)
	CreatePayment(ctx context.Context, row *trialDatamodel.Payment) error
	ListPayments(ctx context.Context, trialID int64) ([]*Payment, error)
	// CreateDocument assigns doc.Version as one past the latest version with the same trial, type and name.
	CreateDocument(ctx context.Context, doc *Document) error
	ListDocuments(ctx context.Context, trialID int64) ([]*Document, error)
	GetDocument(ctx context.Context, trialID, documentID int64) (*Document, error)
	Stats(ctx context.Context, vendorID string) (*Stats, error)
}

type Service struct {
	repo      RepositoryAPI
	store     storage.ObjectStore
	publisher events.Publisher
	cfg       internal.StorageConfig
	logger    *slog.Logger

	// Now is swapped in tests.
	Now func() time.Time
}

func NewService(repo RepositoryAPI, store storage.ObjectStore, publisher events.Publisher, cfg internal.StorageConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		Now:       time.Now,
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	// the write is committed; a failing subscriber must not turn it into an error response
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) Create(ctx context.Context, c Caller, dto CreateTrialDTO) (*Trial, error) {
	if !c.Scoped() {
		return nil, internal.ErrVendorOnly
	}

	dto.Normalize()
	newTrial, verr := dto.Validate(c)
	if verr != nil {
		return nil, verr
	}

	exists, err := s.repo.ExistsForVendor(ctx, c.VendorID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Warn("second trial rejected", "vendor_id", c.VendorID)
		return nil, internal.ErrTrialAlreadyExists
	}

	trialID, err := s.repo.Create(ctx, newTrial)
	if err != nil {
		s.logger.Error("failed to create trial", "vendor_id", c.VendorID, "error", err)
		return nil, err
	}

	s.logger.Info("clinical trial created", "trial_id", trialID, "vendor_id", c.VendorID, "created_by", c.UserID)
	return s.repo.GetByID(ctx, c.VendorID, trialID)
}

func (s *Service) List(ctx context.Context, c Caller, filter ListFilter) ([]*Trial, error) {
	if !slices.Contains(TrialStatuses, filter.TrialStatus) {
		filter.TrialStatus = ""
	}
	if !slices.Contains(IRBStatuses, filter.IRBStatus) {
		filter.IRBStatus = ""
	}
	return s.repo.List(ctx, c.VendorID, filter)
}

func (s *Service) Get(ctx context.Context, c Caller, trialID int64) (*Trial, error) {
	return s.repo.GetByID(ctx, c.VendorID, trialID)
}

func (s *Service) Update(ctx context.Context, c Caller, trialID int64, dto UpdateTrialDTO) (*Trial, error) {
	changes, verr := dto.Validate()
	if verr != nil {
		return nil, verr
	}

	if _, err := s.repo.GetByID(ctx, c.VendorID, trialID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, trialID, changes); err != nil {
		s.logger.Error("failed to update trial", "trial_id", trialID, "error", err)
		return nil, err
	}

	s.logger.Info("clinical trial updated", "trial_id", trialID, "updated_by", c.UserID)
	return s.repo.GetByID(ctx, c.VendorID, trialID)
}

func (s *Service) UpdateIRBStatus(ctx context.Context, c Caller, trialID int64, dto IRBStatusUpdateDTO) (*IRBStatusResponse, error) {
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	t, err := s.repo.GetByID(ctx, c.VendorID, trialID)
	if err != nil {
		return nil, err
	}

	oldStatus, err := s.repo.UpdateIRBStatus(ctx, trialID, IRBChange{
		NewStatus: dto.NewStatus,
		Comments:  dto.Comments,
		ChangedBy: c.UserID,
		ChangedAt: s.Now(),
	})
	if err != nil {
		s.logger.Error("failed to update irb status", "trial_id", trialID, "error", err)
		return nil, err
	}

	s.logger.Info("irb status updated",
		"trial_id", trialID,
		"old_status", oldStatus,
		"new_status", dto.NewStatus,
		"changed_by", c.UserID)
	s.publish(ctx, events.NewIRBStatusChangedEvent(trialID, t.VendorID, oldStatus, dto.NewStatus, c.UserID))

	return &IRBStatusResponse{
		Success:   true,
		Message:   "IRB status updated successfully",
		TrialID:   trialID,
		OldStatus: oldStatus,
		NewStatus: dto.NewStatus,
	}, nil
}

func (s *Service) IRBHistory(ctx context.Context, c Caller, trialID int64) (*IRBHistoryResponse, error) {
	if _, err := s.repo.GetByID(ctx, c.VendorID, trialID); err != nil {
		return nil, err
	}

	history, err := s.repo.ListIRBHistory(ctx, trialID)
	if err != nil {
		return nil, err
	}
	return &IRBHistoryResponse{
		Success:      true,
		TrialID:      trialID,
		HistoryCount: len(history),
		History:      history,
	}, nil
}

func (s *Service) CreatePayment(ctx context.Context, c Caller, trialID int64, dto CreatePaymentDTO) (*Payment, error) {
	row, verr := dto.Validate(trialID, c.UserID, s.Now())
	if verr != nil {
		return nil, verr
	}

	if _, err := s.repo.GetByID(ctx, c.VendorID, trialID); err != nil {
		return nil, err
	}

	if err := s.repo.CreatePayment(ctx, row); err != nil {
		s.logger.Error("failed to record payment", "trial_id", trialID, "error", err)
		return nil, err
	}

	s.logger.Info("trial payment recorded",
		"trial_id", trialID,
		"payment_id", row.PaymentID,
		"installment", row.InstallmentNumber,
		"amount", row.Amount)
	s.publish(ctx, events.NewTrialPaymentRecordedEvent(row.PaymentID, trialID, row.InstallmentNumber, row.Amount, row.PaymentMethod))

	return PaymentFromDataModel(row), nil
}

func (s *Service) ListPayments(ctx context.Context, c Caller, trialID int64) ([]*Payment, error) {
	if _, err := s.repo.GetByID(ctx, c.VendorID, trialID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, trialID)
}

func (s *Service) ListDocuments(ctx context.Context, c Caller, trialID int64) ([]*Document, error) {
	if _, err := s.repo.GetByID(ctx, c.VendorID, trialID); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, trialID)
}

// DocumentKey is the object key for an upload; the uuid keeps re-uploads of one filename apart.
func DocumentKey(trialID int64, filename string) string {
	return fmt.Sprintf("trials/%d/%s-%s", trialID, uuid.New().String(), filename)
}

func (s *Service) UploadDocument(ctx context.Context, c Caller, trialID int64, dto UploadDocumentDTO) (*Document, error) {
	dto.Normalize()
	if verr := dto.Validate(s.cfg.MaxUploadBytes); verr != nil {
		return nil, verr
	}

	if _, err := s.repo.GetByID(ctx, c.VendorID, trialID); err != nil {
		return nil, err
	}

	key := DocumentKey(trialID, dto.Filename)
	if err := s.store.Put(ctx, key, dto.ContentType, dto.Body, dto.Size); err != nil {
		return nil, internal.NewExternalError("Failed to store document", internal.ErrCodeStorageFailed, err)
	}

	doc := &Document{
		TrialID:          trialID,
		DocumentType:     dto.DocumentType,
		DocumentName:     dto.DocumentName,
		StorageKey:       key,
		StorageURL:       s.store.ObjectURL(key),
		FileSize:         dto.Size,
		MimeType:         dto.ContentType,
		UploadedByUserID: c.UserID,
		UploadedAt:       s.Now(),
		Notes:            dto.Notes,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		s.logger.Error("failed to save document metadata", "trial_id", trialID, "storage_key", key, "error", err)
		// the request context may already be cancelled
		if derr := s.store.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.logger.Error("orphaned document object left in store", "trial_id", trialID, "storage_key", key, "error", derr)
		}
		return nil, err
	}

	s.logger.Info("trial document uploaded",
		"trial_id", trialID,
		"document_id", doc.DocumentID,
		"document_type", doc.DocumentType,
		"version", doc.Version)
	s.publish(ctx, events.NewTrialDocumentUploadedEvent(doc.DocumentID, trialID, doc.DocumentType, doc.Version))

	return doc, nil
}

func (s *Service) DownloadDocument(ctx context.Context, c Caller, trialID, documentID int64) (*DownloadResponse, error) {
	if _, err := s.repo.GetByID(ctx, c.VendorID, trialID); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetDocument(ctx, trialID, documentID)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	url, err := s.store.PresignGet(ctx, doc.StorageKey, ttl)
	if err != nil {
		return nil, internal.NewExternalError("Failed to create download link", internal.ErrCodeStorageFailed, err)
	}

	return &DownloadResponse{
		DocumentID:   doc.DocumentID,
		DocumentName: doc.DocumentName,
		MimeType:     doc.MimeType,
		URL:          url,
		ExpiresIn:    int(ttl.Seconds()),
	}, nil
}

func (s *Service) UploadLimit() int64 {
	return s.cfg.MaxUploadBytes
}

// Stats aggregates the caller's trials for the vendor dashboard.
func (s *Service) Stats(ctx context.Context, c Caller) (*Stats, error) {
	if !c.Scoped() {
		return nil, internal.ErrVendorOnly
	}
	return s.repo.Stats(ctx, c.VendorID)
}
