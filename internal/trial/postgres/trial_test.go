package postgres_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/core/datamodel/dbtest"
	trialDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/trial"
	"github.com/frahmantamala/vendor-portal/internal/trial"
	trialPostgres "github.com/frahmantamala/vendor-portal/internal/trial/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestTrialPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Trial Postgres Suite")
}

func strPtr(s string) *string {
	return &s
}

var _ = Describe("Trial PostgreSQL Repository", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		repo     trial.RepositoryAPI
		ownerID  int64
		vendorID string
		trialID  int64
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		ownerID, vendorID, err = dbtest.SeedVendor(db, "trial_owner")
		Expect(err).NotTo(HaveOccurred())

		repo = trialPostgres.NewTrialRepository(db)
		trialID, err = repo.Create(ctx, trial.NewTrial{
			VendorID:        vendorID,
			TrialName:       "Gut Flora Phase 1",
			ProductName:     "DailyBiotic",
			CreatedByUserID: ownerID,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates trials in preparation", func() {
		t, err := repo.GetByID(ctx, vendorID, trialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.TrialStatus).To(Equal(trial.StatusPreparing))
		Expect(t.IRBStatus).To(Equal(trial.IRBPreparation))

		exists, err := repo.ExistsForVendor(ctx, vendorID)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())
	})

	It("scopes lookups to the vendor unless unscoped", func() {
		_, err := repo.GetByID(ctx, "VND999999", trialID)
		Expect(err).To(Equal(internal.ErrTrialNotFound))

		t, err := repo.GetByID(ctx, "", trialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.VendorID).To(Equal(vendorID))
	})

	It("reads the latest history row as the current IRB status", func() {
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		Expect(db.Create(&trialDatamodel.IRBHistory{
			TrialID: trialID, OldStatus: strPtr(trial.IRBPreparation), NewStatus: trial.IRBSubmitted,
			ChangedByUserID: ownerID, ChangedAt: base,
		}).Error).To(Succeed())
		Expect(db.Create(&trialDatamodel.IRBHistory{
			TrialID: trialID, OldStatus: strPtr(trial.IRBSubmitted), NewStatus: trial.IRBUnderReview,
			ChangedByUserID: ownerID, ChangedAt: base.Add(time.Hour),
		}).Error).To(Succeed())

		var row trialDatamodel.ClinicalTrial
		Expect(db.First(&row, trialID).Error).To(Succeed())
		Expect(row.IRBStatus).To(Equal(trial.IRBPreparation))

		t, err := repo.GetByID(ctx, vendorID, trialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.IRBStatus).To(Equal(trial.IRBUnderReview))

		listed, err := repo.List(ctx, vendorID, trial.ListFilter{IRBStatus: trial.IRBUnderReview})
		Expect(err).NotTo(HaveOccurred())
		Expect(listed).To(HaveLen(1))

		listed, err = repo.List(ctx, vendorID, trial.ListFilter{IRBStatus: trial.IRBPreparation})
		Expect(err).NotTo(HaveOccurred())
		Expect(listed).To(BeEmpty())
	})

	It("records transitions with the prior effective status and stamps dates", func() {
		submittedAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
		old, err := repo.UpdateIRBStatus(ctx, trialID, trial.IRBChange{
			NewStatus: trial.IRBSubmitted, ChangedBy: ownerID, ChangedAt: submittedAt,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(old).To(Equal(trial.IRBPreparation))

		old, err = repo.UpdateIRBStatus(ctx, trialID, trial.IRBChange{
			NewStatus: trial.IRBApproved, ChangedBy: ownerID, ChangedAt: submittedAt.Add(48 * time.Hour),
			Comments: strPtr("board signed off"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(old).To(Equal(trial.IRBSubmitted))

		t, err := repo.GetByID(ctx, vendorID, trialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.IRBStatus).To(Equal(trial.IRBApproved))
		Expect(t.IRBSubmissionDate).NotTo(BeNil())
		Expect(t.IRBApprovalDate).NotTo(BeNil())

		history, err := repo.ListIRBHistory(ctx, trialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(2))
		Expect(history[0].NewStatus).To(Equal(trial.IRBApproved))
		Expect(*history[0].ChangedByUsername).To(Equal("trial_owner"))
		Expect(*history[0].Comments).To(Equal("board signed off"))
		Expect(*history[1].OldStatus).To(Equal(trial.IRBPreparation))
	})

	It("fails the transition for an unknown trial without writing history", func() {
		_, err := repo.UpdateIRBStatus(ctx, trialID+100, trial.IRBChange{
			NewStatus: trial.IRBSubmitted, ChangedBy: ownerID, ChangedAt: time.Now(),
		})
		Expect(err).To(Equal(internal.ErrTrialNotFound))

		var count int64
		Expect(db.Model(&trialDatamodel.IRBHistory{}).Count(&count).Error).To(Succeed())
		Expect(count).To(BeZero())
	})

	It("versions documents per trial, type and name", func() {
		newDoc := func(name string) *trial.Document {
			return &trial.Document{
				TrialID: trialID, DocumentType: "protocol", DocumentName: name,
				StorageKey: "k", StorageURL: "u", FileSize: 10, UploadedByUserID: ownerID, UploadedAt: time.Now(),
			}
		}

		first := newDoc("protocol.pdf")
		Expect(repo.CreateDocument(ctx, first)).To(Succeed())
		second := newDoc("protocol.pdf")
		Expect(repo.CreateDocument(ctx, second)).To(Succeed())
		other := newDoc("amendment.pdf")
		Expect(repo.CreateDocument(ctx, other)).To(Succeed())

		Expect(first.Version).To(Equal(1))
		Expect(second.Version).To(Equal(2))
		Expect(other.Version).To(Equal(1))

		got, err := repo.GetDocument(ctx, trialID, second.DocumentID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Version).To(Equal(2))

		_, err = repo.GetDocument(ctx, trialID+1, second.DocumentID)
		Expect(err).To(Equal(internal.ErrDocumentNotFound))
	})

	It("reports a version taken by a concurrent upload as a conflict", func() {
		// a competing upload commits the same version between our MAX(version) read and insert
		raced := false
		Expect(db.Callback().Create().Before("gorm:create").Register("concurrent_upload", func(tx *gorm.DB) {
			row, ok := tx.Statement.Dest.(*trialDatamodel.Document)
			if !ok || raced {
				return
			}
			raced = true
			_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
				`INSERT INTO trial_document (trial_id, document_type, document_name, storage_key, storage_url, file_size, uploaded_by_user_id, uploaded_at, version)
				VALUES (?, ?, ?, 'other', 'other', 1, ?, ?, ?)`,
				row.TrialID, row.DocumentType, row.DocumentName, row.UploadedByUserID, time.Now(), row.Version)
			Expect(err).NotTo(HaveOccurred())
		})).To(Succeed())

		err := repo.CreateDocument(ctx, &trial.Document{
			TrialID: trialID, DocumentType: "protocol", DocumentName: "protocol.pdf",
			StorageKey: "k", StorageURL: "u", FileSize: 10, UploadedByUserID: ownerID, UploadedAt: time.Now(),
		})
		Expect(errors.Is(err, internal.ErrDocumentVersionTaken)).To(BeTrue())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusConflict))
	})

	It("lists payments by installment", func() {
		now := time.Now()
		for _, n := range []int{2, 1} {
			Expect(repo.CreatePayment(ctx, &trialDatamodel.Payment{
				TrialID: trialID, InstallmentNumber: n, Amount: 1500.50, PaymentStatus: trial.PaymentCompleted,
				PaidDate: &now, PaymentMethod: "ach", CreatedByUserID: ownerID,
			})).To(Succeed())
		}

		payments, err := repo.ListPayments(ctx, trialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(payments).To(HaveLen(2))
		Expect(payments[0].InstallmentNumber).To(Equal(1))
		Expect(payments[1].Amount).To(BeNumerically("~", 1500.50, 0.001))
	})

	It("aggregates dashboard stats from the effective IRB status", func() {
		_, err := repo.UpdateIRBStatus(ctx, trialID, trial.IRBChange{
			NewStatus: trial.IRBApproved, ChangedBy: ownerID, ChangedAt: time.Now(),
		})
		Expect(err).NotTo(HaveOccurred())

		stats, err := repo.Stats(ctx, vendorID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalTrials).To(Equal(int64(1)))
		Expect(stats.ActiveTrials).To(Equal(int64(1)))
		Expect(stats.ApprovedIRB).To(Equal(int64(1)))
		Expect(stats.PendingIRB).To(BeZero())
	})
})
