package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAccountRegistered     = "account.registered"
	EventTypeIRBStatusChanged      = "trial.irb_status_changed"
	EventTypeTrialPaymentRecorded  = "trial.payment_recorded"
	EventTypeTrialDocumentUploaded = "trial.document_uploaded"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type AccountRegisteredEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func NewAccountRegisteredEvent(userID int64, username, role string) *AccountRegisteredEvent {
	return &AccountRegisteredEvent{
		BaseEvent: newBase(EventTypeAccountRegistered, map[string]interface{}{
			"user_id":  userID,
			"username": username,
			"role":     role,
		}),
		UserID:   userID,
		Username: username,
		Role:     role,
	}
}

type IRBStatusChangedEvent struct {
	BaseEvent
	TrialID   int64  `json:"trial_id"`
	VendorID  string `json:"vendor_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ChangedBy int64  `json:"changed_by"`
}

func NewIRBStatusChangedEvent(trialID int64, vendorID, oldStatus, newStatus string, changedBy int64) *IRBStatusChangedEvent {
	return &IRBStatusChangedEvent{
		BaseEvent: newBase(EventTypeIRBStatusChanged, map[string]interface{}{
			"trial_id":   trialID,
			"vendor_id":  vendorID,
			"old_status": oldStatus,
			"new_status": newStatus,
			"changed_by": changedBy,
		}),
		TrialID:   trialID,
		VendorID:  vendorID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
	}
}

type TrialPaymentRecordedEvent struct {
	BaseEvent
	PaymentID         int64   `json:"payment_id"`
	TrialID           int64   `json:"trial_id"`
	InstallmentNumber int     `json:"installment_number"`
	Amount            float64 `json:"amount"`
	PaymentMethod     string  `json:"payment_method"`
}

func NewTrialPaymentRecordedEvent(paymentID, trialID int64, installment int, amount float64, method string) *TrialPaymentRecordedEvent {
	return &TrialPaymentRecordedEvent{
		BaseEvent: newBase(EventTypeTrialPaymentRecorded, map[string]interface{}{
			"payment_id":         paymentID,
			"trial_id":           trialID,
			"installment_number": installment,
			"amount":             amount,
			"payment_method":     method,
		}),
		PaymentID:         paymentID,
		TrialID:           trialID,
		InstallmentNumber: installment,
		Amount:            amount,
		PaymentMethod:     method,
	}
}

type TrialDocumentUploadedEvent struct {
	BaseEvent
	DocumentID   int64  `json:"document_id"`
	TrialID      int64  `json:"trial_id"`
	DocumentType string `json:"document_type"`
	Version      int    `json:"version"`
}

func NewTrialDocumentUploadedEvent(documentID, trialID int64, documentType string, version int) *TrialDocumentUploadedEvent {
	return &TrialDocumentUploadedEvent{
		BaseEvent: newBase(EventTypeTrialDocumentUploaded, map[string]interface{}{
			"document_id":   documentID,
			"trial_id":      trialID,
			"document_type": documentType,
			"version":       version,
		}),
		DocumentID:   documentID,
		TrialID:      trialID,
		DocumentType: documentType,
		Version:      version,
	}
}
