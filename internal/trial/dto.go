package trial

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/core/common/validation"
	trialDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/trial"
)

type CreateTrialDTO struct {
	TrialName        string  `json:"trial_name"`
	TrialDescription *string `json:"trial_description,omitempty"`
	ProductName      string  `json:"product_name"`
	TrialStartDate   *string `json:"trial_start_date,omitempty"`
	TrialEndDate     *string `json:"trial_end_date,omitempty"`
}

func (d *CreateTrialDTO) Normalize() {
	d.TrialName = strings.TrimSpace(d.TrialName)
	d.ProductName = strings.TrimSpace(d.ProductName)
}

func (d CreateTrialDTO) Validate(c Caller) (NewTrial, *internal.AppError) {
	v := validation.NewValidator()
	v.Field("trial_name", d.TrialName).Required().MaxLength(200)
	v.Field("trial_description", d.TrialDescription).MaxLength(1000)
	v.Field("product_name", d.ProductName).Required().MaxLength(200)
	if err := v.Validate(); err != nil {
		return NewTrial{}, err
	}

	start, end, err := parseTrialDates(d.TrialStartDate, d.TrialEndDate)
	if err != nil {
		return NewTrial{}, err
	}

	return NewTrial{
		VendorID:         c.VendorID,
		TrialName:        d.TrialName,
		TrialDescription: d.TrialDescription,
		ProductName:      d.ProductName,
		TrialStartDate:   start,
		TrialEndDate:     end,
		CreatedByUserID:  c.UserID,
	}, nil
}

type UpdateTrialDTO struct {
	TrialName        *string `json:"trial_name,omitempty"`
	TrialDescription *string `json:"trial_description,omitempty"`
	ProductName      *string `json:"product_name,omitempty"`
	TrialStatus      *string `json:"trial_status,omitempty"`
	TrialStartDate   *string `json:"trial_start_date,omitempty"`
	TrialEndDate     *string `json:"trial_end_date,omitempty"`
}

func (d UpdateTrialDTO) Validate() (Changes, *internal.AppError) {
	v := validation.NewValidator()
	if d.TrialName != nil {
		v.Field("trial_name", d.TrialName).Required().MaxLength(200)
	}
	v.Field("trial_description", d.TrialDescription).MaxLength(1000)
	if d.ProductName != nil {
		v.Field("product_name", d.ProductName).Required().MaxLength(200)
	}
	v.Field("trial_status", d.TrialStatus).OneOf(internal.ErrCodeInvalidTrialStatus, TrialStatuses...)
	if err := v.Validate(); err != nil {
		return Changes{}, err
	}

	start, end, err := parseTrialDates(d.TrialStartDate, d.TrialEndDate)
	if err != nil {
		return Changes{}, err
	}

	changes := Changes{
		TrialName:        d.TrialName,
		TrialDescription: d.TrialDescription,
		ProductName:      d.ProductName,
		TrialStatus:      d.TrialStatus,
		TrialStartDate:   start,
		TrialEndDate:     end,
	}
	if len(changes.Columns()) == 0 {
		return Changes{}, internal.NewValidationError("No fields to update", internal.ErrCodeValidationFailed)
	}
	return changes, nil
}

func parseTrialDates(rawStart, rawEnd *string) (*time.Time, *time.Time, *internal.AppError) {
	start, err := validation.ParseDate("trial_start_date", rawStart)
	if err != nil {
		return nil, nil, err
	}
	end, err := validation.ParseDate("trial_end_date", rawEnd)
	if err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, internal.NewValidationFieldError("trial_end_date",
			"trial_end_date cannot be before trial_start_date", internal.ErrCodeInvalidDate)
	}
	return start, end, nil
}

type IRBStatusUpdateDTO struct {
	NewStatus string  `json:"new_status"`
	Comments  *string `json:"comments,omitempty"`
}

func (d IRBStatusUpdateDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("new_status", d.NewStatus).Required().OneOf(internal.ErrCodeInvalidIRBStatus, IRBStatuses...)
	v.Field("comments", d.Comments).MaxLength(500)
	return v.Validate()
}

type CreatePaymentDTO struct {
	InstallmentNumber int     `json:"installment_number"`
	Amount            float64 `json:"amount"`
	PaymentMethod     string  `json:"payment_method"`
	DueDate           *string `json:"due_date,omitempty"`
	TransactionID     *string `json:"transaction_id,omitempty"`
	Notes             *string `json:"notes,omitempty"`
}

// Validate returns the row to insert. Payments are recorded after the fact, so they are always completed.
func (d CreatePaymentDTO) Validate(trialID, createdBy int64, now time.Time) (*trialDatamodel.Payment, *internal.AppError) {
	v := validation.NewValidator()
	v.Field("installment_number", d.InstallmentNumber).MinInt(1, internal.ErrCodeValidationFailed)
	v.Field("amount", d.Amount).MinFloat(0, internal.ErrCodeInvalidAmount)
	v.Field("payment_method", d.PaymentMethod).Required().OneOf(internal.ErrCodeInvalidMethod, PaymentMethods...)
	v.Field("transaction_id", d.TransactionID).MaxLength(100)
	v.Field("notes", d.Notes).MaxLength(500)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	due, err := validation.ParseDate("due_date", d.DueDate)
	if err != nil {
		return nil, err
	}

	return &trialDatamodel.Payment{
		TrialID:           trialID,
		InstallmentNumber: d.InstallmentNumber,
		Amount:            d.Amount,
		PaymentStatus:     PaymentCompleted,
		DueDate:           due,
		PaidDate:          &now,
		PaymentMethod:     d.PaymentMethod,
		TransactionID:     d.TransactionID,
		Notes:             d.Notes,
		CreatedByUserID:   createdBy,
	}, nil
}

// UploadDocumentDTO is a parsed multipart upload. Body is read once.
type UploadDocumentDTO struct {
	DocumentType string
	DocumentName string
	Notes        *string
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

func (d *UploadDocumentDTO) Normalize() {
	d.DocumentType = strings.TrimSpace(d.DocumentType)
	d.Filename = path.Base(strings.ReplaceAll(d.Filename, "\\", "/"))
	d.DocumentName = strings.TrimSpace(d.DocumentName)
	if d.DocumentName == "" {
		d.DocumentName = d.Filename
	}
	if d.Notes != nil && strings.TrimSpace(*d.Notes) == "" {
		d.Notes = nil
	}
}

func (d UploadDocumentDTO) Validate(maxBytes int64) *internal.AppError {
	v := validation.NewValidator()
	v.Field("document_type", d.DocumentType).Required().OneOf(internal.ErrCodeInvalidDocument, DocumentTypes...)
	v.Field("document_name", d.DocumentName).Required().MaxLength(255)
	v.Field("notes", d.Notes).MaxLength(500)
	v.Field("file", d.Size).Custom(func(interface{}) *internal.AppError {
		if d.Body == nil || d.Size == 0 {
			return internal.NewValidationFieldError("file", "file is required and cannot be empty", internal.ErrCodeInvalidDocument)
		}
		if maxBytes > 0 && d.Size > maxBytes {
			return internal.NewValidationFieldError("file", "file exceeds the maximum upload size", internal.ErrCodeInvalidDocument)
		}
		return nil
	})
	return v.Validate()
}
