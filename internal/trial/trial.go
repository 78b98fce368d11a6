package trial

import (
	"time"

	trialDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/trial"
)

const dateLayout = "2006-01-02"

const (
	StatusPreparing = "preparing"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusSuspended = "suspended"
	StatusCancelled = "cancelled"
)

var TrialStatuses = []string{StatusPreparing, StatusActive, StatusCompleted, StatusSuspended, StatusCancelled}

// IRB review states. Any value may follow any other; the workflow is advisory.
const (
	IRBPreparation      = "preparation"
	IRBSubmitted        = "submitted"
	IRBUnderReview      = "under_review"
	IRBChangesRequested = "changes_requested"
	IRBResubmitted      = "resubmitted"
	IRBApproved         = "approved"
	IRBRejected         = "rejected"
)

var IRBStatuses = []string{
	IRBPreparation, IRBSubmitted, IRBUnderReview, IRBChangesRequested,
	IRBResubmitted, IRBApproved, IRBRejected,
}

const PaymentCompleted = "completed"

var PaymentMethods = []string{"credit_card", "wire_transfer", "check", "cash", "ach"}

var DocumentTypes = []string{"protocol", "consent_form", "irb_submission", "irb_approval", "report", "other"}

// Caller is who a trial operation runs for. An empty VendorID means the unscoped admin paths.
type Caller struct {
	UserID   int64
	VendorID string
}

func (c Caller) Scoped() bool {
	return c.VendorID != ""
}

type Trial struct {
	TrialID           int64      `json:"trial_id"`
	VendorID          string     `json:"vendor_id"`
	TrialName         string     `json:"trial_name"`
	TrialDescription  *string    `json:"trial_description"`
	ProductName       string     `json:"product_name"`
	TrialStatus       string     `json:"trial_status"`
	IRBStatus         string     `json:"irb_status"`
	IRBSubmissionDate *time.Time `json:"irb_submission_date"`
	IRBApprovalDate   *time.Time `json:"irb_approval_date"`
	TrialStartDate    *string    `json:"trial_start_date"`
	TrialEndDate      *string    `json:"trial_end_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CreatedByUserID   int64      `json:"created_by_user_id"`
}

func FromDataModel(row *trialDatamodel.TrialView) *Trial {
	return &Trial{
		TrialID:           row.TrialID,
		VendorID:          row.VendorID,
		TrialName:         row.TrialName,
		TrialDescription:  row.TrialDescription,
		ProductName:       row.ProductName,
		TrialStatus:       row.TrialStatus,
		IRBStatus:         row.IRBStatus,
		IRBSubmissionDate: row.IRBSubmissionDate,
		IRBApprovalDate:   row.IRBApprovalDate,
		TrialStartDate:    formatDate(row.TrialStartDate),
		TrialEndDate:      formatDate(row.TrialEndDate),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
		CreatedByUserID:   row.CreatedByUserID,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// NewTrial is a validated creation request.
type NewTrial struct {
	VendorID         string
	TrialName        string
	TrialDescription *string
	ProductName      string
	TrialStartDate   *time.Time
	TrialEndDate     *time.Time
	CreatedByUserID  int64
}

func (n NewTrial) ToDataModel() *trialDatamodel.ClinicalTrial {
	return &trialDatamodel.ClinicalTrial{
		VendorID:         n.VendorID,
		TrialName:        n.TrialName,
		TrialDescription: n.TrialDescription,
		ProductName:      n.ProductName,
		TrialStatus:      StatusPreparing,
		IRBStatus:        IRBPreparation,
		TrialStartDate:   n.TrialStartDate,
		TrialEndDate:     n.TrialEndDate,
		CreatedByUserID:  n.CreatedByUserID,
	}
}

// Changes is a partial trial update; nil fields are left alone.
type Changes struct {
	TrialName        *string
	TrialDescription *string
	ProductName      *string
	TrialStatus      *string
	TrialStartDate   *time.Time
	TrialEndDate     *time.Time
}

func (c Changes) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.TrialName != nil {
		cols["trial_name"] = *c.TrialName
	}
	if c.TrialDescription != nil {
		cols["trial_description"] = *c.TrialDescription
	}
	if c.ProductName != nil {
		cols["product_name"] = *c.ProductName
	}
	if c.TrialStatus != nil {
		cols["trial_status"] = *c.TrialStatus
	}
	if c.TrialStartDate != nil {
		cols["trial_start_date"] = *c.TrialStartDate
	}
	if c.TrialEndDate != nil {
		cols["trial_end_date"] = *c.TrialEndDate
	}
	return cols
}

type ListFilter struct {
	TrialStatus string
	IRBStatus   string
}

// IRBChange is one status transition to record.
type IRBChange struct {
	NewStatus string
	Comments  *string
	ChangedBy int64
	ChangedAt time.Time
}

type IRBStatusResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	TrialID   int64  `json:"trial_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

type IRBHistoryEntry struct {
	HistoryID         int64     `json:"history_id"`
	TrialID           int64     `json:"trial_id"`
	OldStatus         *string   `json:"old_status"`
	NewStatus         string    `json:"new_status"`
	ChangedByUserID   int64     `json:"changed_by_user_id"`
	ChangedByUsername *string   `json:"changed_by_username"`
	Comments          *string   `json:"comments"`
	ChangedAt         time.Time `json:"changed_at"`
}

func HistoryFromDataModel(row *trialDatamodel.IRBHistoryView) *IRBHistoryEntry {
	return &IRBHistoryEntry{
		HistoryID:         row.HistoryID,
		TrialID:           row.TrialID,
		OldStatus:         row.OldStatus,
		NewStatus:         row.NewStatus,
		ChangedByUserID:   row.ChangedByUserID,
		ChangedByUsername: row.ChangedByUsername,
		Comments:          row.Comments,
		ChangedAt:         row.ChangedAt,
	}
}

type IRBHistoryResponse struct {
	Success      bool               `json:"success"`
	TrialID      int64              `json:"trial_id"`
	HistoryCount int                `json:"history_count"`
	History      []*IRBHistoryEntry `json:"history"`
}

type Payment struct {
	PaymentID         int64      `json:"payment_id"`
	TrialID           int64      `json:"trial_id"`
	InstallmentNumber int        `json:"installment_number"`
	Amount            float64    `json:"amount"`
	PaymentStatus     string     `json:"payment_status"`
	DueDate           *string    `json:"due_date"`
	PaidDate          *time.Time `json:"paid_date"`
	PaymentMethod     string     `json:"payment_method"`
	TransactionID     *string    `json:"transaction_id"`
	Notes             *string    `json:"notes"`
	CreatedByUserID   int64      `json:"created_by_user_id"`
	CreatedAt         time.Time  `json:"created_at"`
}

func PaymentFromDataModel(row *trialDatamodel.Payment) *Payment {
	return &Payment{
		PaymentID:         row.PaymentID,
		TrialID:           row.TrialID,
		InstallmentNumber: row.InstallmentNumber,
		Amount:            row.Amount,
		PaymentStatus:     row.PaymentStatus,
		DueDate:           formatDate(row.DueDate),
		PaidDate:          row.PaidDate,
		PaymentMethod:     row.PaymentMethod,
		TransactionID:     row.TransactionID,
		Notes:             row.Notes,
		CreatedByUserID:   row.CreatedByUserID,
		CreatedAt:         row.CreatedAt,
	}
}

type Document struct {
	DocumentID       int64     `json:"document_id"`
	TrialID          int64     `json:"trial_id"`
	DocumentType     string    `json:"document_type"`
	DocumentName     string    `json:"document_name"`
	StorageKey       string    `json:"storage_key"`
	StorageURL       string    `json:"storage_url"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	UploadedByUserID int64     `json:"uploaded_by_user_id"`
	UploadedAt       time.Time `json:"uploaded_at"`
	Version          int       `json:"version"`
	Notes            *string   `json:"notes"`
}

func DocumentFromDataModel(row *trialDatamodel.Document) *Document {
	return &Document{
		DocumentID:       row.DocumentID,
		TrialID:          row.TrialID,
		DocumentType:     row.DocumentType,
		DocumentName:     row.DocumentName,
		StorageKey:       row.StorageKey,
		StorageURL:       row.StorageURL,
		FileSize:         row.FileSize,
		MimeType:         row.MimeType,
		UploadedByUserID: row.UploadedByUserID,
		UploadedAt:       row.UploadedAt,
		Version:          row.Version,
		Notes:            row.Notes,
	}
}

func (d *Document) ToDataModel() *trialDatamodel.Document {
	return &trialDatamodel.Document{
		DocumentID:       d.DocumentID,
		TrialID:          d.TrialID,
		DocumentType:     d.DocumentType,
		DocumentName:     d.DocumentName,
		StorageKey:       d.StorageKey,
		StorageURL:       d.StorageURL,
		FileSize:         d.FileSize,
		MimeType:         d.MimeType,
		UploadedByUserID: d.UploadedByUserID,
		UploadedAt:       d.UploadedAt,
		Version:          d.Version,
		Notes:            d.Notes,
	}
}

type DownloadResponse struct {
	DocumentID   int64  `json:"document_id"`
	DocumentName string `json:"document_name"`
	MimeType     string `json:"mime_type"`
	URL          string `json:"url"`
	ExpiresIn    int    `json:"expires_in"`
}

type Stats struct {
	TotalTrials     int64 `json:"total_trials"`
	ActiveTrials    int64 `json:"active_trials"`
	CompletedTrials int64 `json:"completed_trials"`
	PendingIRB      int64 `json:"pending_irb"`
	ApprovedIRB     int64 `json:"approved_irb"`
}
