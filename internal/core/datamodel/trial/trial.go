package trial

import "time"

type ClinicalTrial struct {
	TrialID           int64      `gorm:"column:trial_id;primaryKey;autoIncrement"`
	VendorID          string     `gorm:"column:vendor_id;size:50;index;not null"`
	TrialName         string     `gorm:"column:trial_name;size:200;not null"`
	TrialDescription  *string    `gorm:"column:trial_description;size:1000"`
	ProductName       string     `gorm:"column:product_name;size:200;not null"`
	TrialStatus       string     `gorm:"column:trial_status;size:30;not null"`
	IRBStatus         string     `gorm:"column:irb_status;size:30;not null"`
	IRBSubmissionDate *time.Time `gorm:"column:irb_submission_date"`
	IRBApprovalDate   *time.Time `gorm:"column:irb_approval_date"`
	TrialStartDate    *time.Time `gorm:"column:trial_start_date;type:date"`
	TrialEndDate      *time.Time `gorm:"column:trial_end_date;type:date"`
	CreatedByUserID   int64      `gorm:"column:created_by_user_id;not null"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ClinicalTrial) TableName() string {
	return "clinical_trial"
}

// IRBHistory rows are insert-only.
type IRBHistory struct {
	HistoryID       int64     `gorm:"column:history_id;primaryKey;autoIncrement"`
	TrialID         int64     `gorm:"column:trial_id;index;not null"`
	OldStatus       *string   `gorm:"column:old_status;size:30"`
	NewStatus       string    `gorm:"column:new_status;size:30;not null"`
	ChangedByUserID int64     `gorm:"column:changed_by_user_id;not null"`
	Comments        *string   `gorm:"column:comments;size:500"`
	ChangedAt       time.Time `gorm:"column:changed_at;not null"`
}

func (IRBHistory) TableName() string {
	return "trial_irb_history"
}

type Payment struct {
	PaymentID         int64      `gorm:"column:payment_id;primaryKey;autoIncrement"`
	TrialID           int64      `gorm:"column:trial_id;index;not null"`
	InstallmentNumber int        `gorm:"column:installment_number;not null"`
	Amount            float64    `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentStatus     string     `gorm:"column:payment_status;size:20;not null"`
	DueDate           *time.Time `gorm:"column:due_date;type:date"`
	PaidDate          *time.Time `gorm:"column:paid_date"`
	PaymentMethod     string     `gorm:"column:payment_method;size:30;not null"`
	TransactionID     *string    `gorm:"column:transaction_id;size:100"`
	Notes             *string    `gorm:"column:notes;size:500"`
	CreatedByUserID   int64      `gorm:"column:created_by_user_id;not null"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Payment) TableName() string {
	return "trial_payment"
}

type Document struct {
	DocumentID       int64     `gorm:"column:document_id;primaryKey;autoIncrement"`
	TrialID          int64     `gorm:"column:trial_id;index;uniqueIndex:trial_document_version_key,priority:1;not null"`
	DocumentType     string    `gorm:"column:document_type;size:50;uniqueIndex:trial_document_version_key,priority:2;not null"`
	DocumentName     string    `gorm:"column:document_name;size:255;uniqueIndex:trial_document_version_key,priority:3;not null"`
	StorageKey       string    `gorm:"column:storage_key;size:500;not null"`
	StorageURL       string    `gorm:"column:storage_url;size:1000;not null"`
	FileSize         int64     `gorm:"column:file_size;not null"`
	MimeType         string    `gorm:"column:mime_type;size:100"`
	UploadedByUserID int64     `gorm:"column:uploaded_by_user_id;not null"`
	UploadedAt       time.Time `gorm:"column:uploaded_at;not null"`
	Version          int       `gorm:"column:version;uniqueIndex:trial_document_version_key,priority:4;not null;default:1"`
	Notes            *string   `gorm:"column:notes;size:500"`
}

func (Document) TableName() string {
	return "trial_document"
}

// TrialView is a clinical_trial row with irb_status replaced by the effective status.
type TrialView struct {
	TrialID           int64
	VendorID          string
	TrialName         string
	TrialDescription  *string
	ProductName       string
	TrialStatus       string
	IRBStatus         string
	IRBSubmissionDate *time.Time
	IRBApprovalDate   *time.Time
	TrialStartDate    *time.Time
	TrialEndDate      *time.Time
	CreatedByUserID   int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type IRBHistoryView struct {
	HistoryID         int64
	TrialID           int64
	OldStatus         *string
	NewStatus         string
	ChangedByUserID   int64
	ChangedByUsername *string
	Comments          *string
	ChangedAt         time.Time
}

// TrialStats is the per-vendor dashboard aggregate.
type TrialStats struct {
	TotalTrials     int64
	ActiveTrials    int64
	CompletedTrials int64
	PendingIRB      int64
	ApprovedIRB     int64
}
