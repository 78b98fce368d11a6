package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/vendor-portal/internal"
	accountPostgres "github.com/frahmantamala/vendor-portal/internal/account/postgres"
	trialDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/trial"
	"github.com/frahmantamala/vendor-portal/internal/trial"
	"gorm.io/gorm"
)

// effectiveIRBStatus is the latest history row's status, or the trial row's own status before any history exists.
const effectiveIRBStatus = `COALESCE((SELECT h.new_status FROM trial_irb_history h
	WHERE h.trial_id = ct.trial_id
	ORDER BY h.changed_at DESC, h.history_id DESC LIMIT 1), ct.irb_status)`

const trialColumns = `ct.trial_id, ct.vendor_id, ct.trial_name, ct.trial_description, ct.product_name, ct.trial_status, ` +
	effectiveIRBStatus + ` AS irb_status,
	ct.irb_submission_date, ct.irb_approval_date, ct.trial_start_date, ct.trial_end_date,
	ct.created_by_user_id, ct.created_at, ct.updated_at`

type TrialRepository struct {
	db *gorm.DB
}

func NewTrialRepository(db *gorm.DB) trial.RepositoryAPI {
	return &TrialRepository{db: db}
}

func (r *TrialRepository) ExistsForVendor(ctx context.Context, vendorID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trialDatamodel.ClinicalTrial{}).
		Where("vendor_id = ?", vendorID).
		Count(&count).Error
	return count > 0, err
}

func (r *TrialRepository) Create(ctx context.Context, t trial.NewTrial) (int64, error) {
	row := t.ToDataModel()
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, err
	}
	return row.TrialID, nil
}

// scoped limits the trial query to vendorID unless it is empty.
func (r *TrialRepository) scoped(ctx context.Context, vendorID string) *gorm.DB {
	q := r.db.WithContext(ctx).Table("clinical_trial AS ct")
	if vendorID != "" {
		q = q.Where("ct.vendor_id = ?", vendorID)
	}
	return q
}

func (r *TrialRepository) List(ctx context.Context, vendorID string, f trial.ListFilter) ([]*trial.Trial, error) {
	q := r.scoped(ctx, vendorID)
	if f.TrialStatus != "" {
		q = q.Where("ct.trial_status = ?", f.TrialStatus)
	}
	if f.IRBStatus != "" {
		q = q.Where(effectiveIRBStatus+" = ?", f.IRBStatus)
	}

	var rows []trialDatamodel.TrialView
	err := q.Select(trialColumns).
		Order("ct.created_at DESC, ct.trial_id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*trial.Trial, 0, len(rows))
	for i := range rows {
		out = append(out, trial.FromDataModel(&rows[i]))
	}
	return out, nil
}

func (r *TrialRepository) GetByID(ctx context.Context, vendorID string, trialID int64) (*trial.Trial, error) {
	var rows []trialDatamodel.TrialView
	err := r.scoped(ctx, vendorID).
		Select(trialColumns).
		Where("ct.trial_id = ?", trialID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, internal.ErrTrialNotFound
	}
	return trial.FromDataModel(&rows[0]), nil
}

func (r *TrialRepository) Update(ctx context.Context, trialID int64, changes trial.Changes) error {
	res := r.db.WithContext(ctx).Model(&trialDatamodel.ClinicalTrial{}).
		Where("trial_id = ?", trialID).
		Updates(changes.Columns())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrTrialNotFound
	}
	return nil
}

func (r *TrialRepository) UpdateIRBStatus(ctx context.Context, trialID int64, change trial.IRBChange) (string, error) {
	var oldStatus string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current trialDatamodel.ClinicalTrial
		if err := tx.Where("trial_id = ?", trialID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrTrialNotFound
			}
			return err
		}

		err := tx.Table("clinical_trial AS ct").
			Select(effectiveIRBStatus).
			Where("ct.trial_id = ?", trialID).
			Row().
			Scan(&oldStatus)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal.ErrTrialNotFound
			}
			return err
		}

		cols := map[string]interface{}{
			"irb_status": change.NewStatus,
			"updated_at": change.ChangedAt,
		}
		if change.NewStatus == trial.IRBSubmitted && current.IRBSubmissionDate == nil {
			cols["irb_submission_date"] = change.ChangedAt
		}
		if change.NewStatus == trial.IRBApproved {
			cols["irb_approval_date"] = change.ChangedAt
		}
		if err := tx.Model(&trialDatamodel.ClinicalTrial{}).Where("trial_id = ?", trialID).Updates(cols).Error; err != nil {
			return err
		}

		old := oldStatus
		return tx.Create(&trialDatamodel.IRBHistory{
			TrialID:         trialID,
			OldStatus:       &old,
			NewStatus:       change.NewStatus,
			ChangedByUserID: change.ChangedBy,
			Comments:        change.Comments,
			ChangedAt:       change.ChangedAt,
		}).Error
	})
	return oldStatus, err
}

func (r *TrialRepository) ListIRBHistory(ctx context.Context, trialID int64) ([]*trial.IRBHistoryEntry, error) {
	var rows []trialDatamodel.IRBHistoryView
	err := r.db.WithContext(ctx).
		Table("trial_irb_history AS h").
		Joins("LEFT JOIN user_account u ON u.user_id = h.changed_by_user_id").
		Select(`h.history_id, h.trial_id, h.old_status, h.new_status, h.changed_by_user_id,
			u.username AS changed_by_username, h.comments, h.changed_at`).
		Where("h.trial_id = ?", trialID).
		Order("h.changed_at DESC, h.history_id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*trial.IRBHistoryEntry, 0, len(rows))
	for i := range rows {
		out = append(out, trial.HistoryFromDataModel(&rows[i]))
	}
	return out, nil
}

func (r *TrialRepository) CreatePayment(ctx context.Context, row *trialDatamodel.Payment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *TrialRepository) ListPayments(ctx context.Context, trialID int64) ([]*trial.Payment, error) {
	var rows []trialDatamodel.Payment
	err := r.db.WithContext(ctx).
		Where("trial_id = ?", trialID).
		Order("installment_number ASC, payment_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*trial.Payment, 0, len(rows))
	for i := range rows {
		out = append(out, trial.PaymentFromDataModel(&rows[i]))
	}
	return out, nil
}

func (r *TrialRepository) CreateDocument(ctx context.Context, doc *trial.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int
		err := tx.Model(&trialDatamodel.Document{}).
			Select("COALESCE(MAX(version), 0)").
			Where("trial_id = ? AND document_type = ? AND document_name = ?", doc.TrialID, doc.DocumentType, doc.DocumentName).
			Row().
			Scan(&latest)
		if err != nil {
			return err
		}

		doc.Version = latest + 1
		row := doc.ToDataModel()
		if err := tx.Create(row).Error; err != nil {
			// a concurrent upload of the same document took this version
			if _, dup := accountPostgres.UniqueViolation(err); dup {
				return internal.ErrDocumentVersionTaken.WithCause(err)
			}
			return err
		}
		doc.DocumentID = row.DocumentID
		return nil
	})
}

func (r *TrialRepository) ListDocuments(ctx context.Context, trialID int64) ([]*trial.Document, error) {
	var rows []trialDatamodel.Document
	err := r.db.WithContext(ctx).
		Where("trial_id = ?", trialID).
		Order("uploaded_at DESC, document_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*trial.Document, 0, len(rows))
	for i := range rows {
		out = append(out, trial.DocumentFromDataModel(&rows[i]))
	}
	return out, nil
}

func (r *TrialRepository) GetDocument(ctx context.Context, trialID, documentID int64) (*trial.Document, error) {
	var row trialDatamodel.Document
	err := r.db.WithContext(ctx).
		Where("trial_id = ? AND document_id = ?", trialID, documentID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrDocumentNotFound
		}
		return nil, err
	}
	return trial.DocumentFromDataModel(&row), nil
}

func (r *TrialRepository) Stats(ctx context.Context, vendorID string) (*trial.Stats, error) {
	var row trialDatamodel.TrialStats
	err := r.db.WithContext(ctx).Raw(`SELECT
			COUNT(*) AS total_trials,
			COALESCE(SUM(CASE WHEN ct.trial_status IN (?, ?) THEN 1 ELSE 0 END), 0) AS active_trials,
			COALESCE(SUM(CASE WHEN ct.trial_status = ? THEN 1 ELSE 0 END), 0) AS completed_trials,
			COALESCE(SUM(CASE WHEN `+effectiveIRBStatus+` IN (?, ?, ?, ?, ?) THEN 1 ELSE 0 END), 0) AS pending_irb,
			COALESCE(SUM(CASE WHEN `+effectiveIRBStatus+` = ? THEN 1 ELSE 0 END), 0) AS approved_irb
		FROM clinical_trial ct
		WHERE ct.vendor_id = ?`,
		trial.StatusPreparing, trial.StatusActive,
		trial.StatusCompleted,
		trial.IRBPreparation, trial.IRBSubmitted, trial.IRBUnderReview, trial.IRBChangesRequested, trial.IRBResubmitted,
		trial.IRBApproved,
		vendorID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &trial.Stats{
		TotalTrials:     row.TotalTrials,
		ActiveTrials:    row.ActiveTrials,
		CompletedTrials: row.CompletedTrials,
		PendingIRB:      row.PendingIRB,
		ApprovedIRB:     row.ApprovedIRB,
	}, nil
}
