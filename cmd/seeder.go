package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/vendor-portal/internal/account"
	authPostgres "github.com/frahmantamala/vendor-portal/internal/auth/postgres"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	employeeDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/employee"
	patientDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/patient"
	trialDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/trial"
	vendorDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/vendor"
	"github.com/frahmantamala/vendor-portal/internal/trial"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	seedPassword   = "password"
	seedVendorUser = "demo_vendor"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo vendor, its employees, a patient and a clinical trial.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := clearSeed(db); err != nil {
				log.Fatalf("failed to clear seed data: %v", err)
			}
			fmt.Println("Cleared existing demo data")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			return seed(tx, string(hash))
		}); err != nil {
			log.Fatalf("failed to seed: %v", err)
		}

		fmt.Printf("Seed complete; every demo account uses the password %q\n", seedPassword)
	},
}

func seed(tx *gorm.DB, hash string) error {
	var existing accountDatamodel.UserAccount
	err := tx.Where("username = ?", seedVendorUser).First(&existing).Error
	if err == nil {
		fmt.Println("demo vendor already exists; nothing to seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	owner := &accountDatamodel.UserAccount{
		Username: seedVendorUser, Email: "vendor@demo.example.com", PasswordHash: hash,
		FirstName: "Dana", LastName: "Vendor", Role: string(account.RoleVendor), Status: account.StatusActive,
	}
	if err := tx.Create(owner).Error; err != nil {
		return fmt.Errorf("insert vendor account: %w", err)
	}

	vendorID := authPostgres.VendorIDFor(owner.UserID)
	if err := tx.Create(&vendorDatamodel.Vendor{
		VendorID: vendorID, UserID: owner.UserID, CompanyName: "Demo Biotics",
	}).Error; err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	fmt.Println("Seeded vendor:", vendorID)

	for _, role := range []string{"manager", "editor", "viewer"} {
		acct := &accountDatamodel.UserAccount{
			Username: "demo_" + role, Email: role + "@demo.example.com", PasswordHash: hash,
			FirstName: "Demo", LastName: role, Role: string(account.RoleEmployee), Status: account.StatusActive,
		}
		if err := tx.Create(acct).Error; err != nil {
			return fmt.Errorf("insert %s account: %w", role, err)
		}
		if err := tx.Create(&employeeDatamodel.VendorEmployee{
			UserID: acct.UserID, VendorID: vendorID, EmployeeRole: role,
			Status: account.StatusActive, CreatedByUserID: &owner.UserID,
		}).Error; err != nil {
			return fmt.Errorf("insert %s employee: %w", role, err)
		}
		fmt.Printf("Seeded employee: %s (%s)\n", acct.Username, role)
	}

	patientAcct := &accountDatamodel.UserAccount{
		Username: "demo_patient", Email: "patient@demo.example.com", PasswordHash: hash,
		FirstName: "Pat", LastName: "Demo", Role: string(account.RolePatient), Status: account.StatusActive,
	}
	if err := tx.Create(patientAcct).Error; err != nil {
		return fmt.Errorf("insert patient account: %w", err)
	}
	dob := time.Date(1985, 6, 30, 0, 0, 0, 0, time.UTC)
	city := "Boston"
	if err := tx.Create(&patientDatamodel.Customer{
		UserID: patientAcct.UserID, CreatedByVendorID: vendorID, DateOfBirth: &dob, City: &city,
	}).Error; err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	fmt.Println("Seeded patient:", patientAcct.Username)

	if err := tx.Create(&trialDatamodel.ClinicalTrial{
		VendorID: vendorID, TrialName: "Gut Flora Phase 1", ProductName: "DailyBiotic",
		TrialStatus: trial.StatusPreparing, IRBStatus: trial.IRBPreparation, CreatedByUserID: owner.UserID,
	}).Error; err != nil {
		return fmt.Errorf("insert trial: %w", err)
	}
	fmt.Println("Seeded clinical trial for", vendorID)

	return nil
}

// clearSeed removes the demo vendor and everything hanging off it.
func clearSeed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var v vendorDatamodel.Vendor
		err := tx.Joins("JOIN user_account u ON u.user_id = vendor.user_id").
			Where("u.username = ?", seedVendorUser).
			First(&v).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		trialIDs := tx.Model(&trialDatamodel.ClinicalTrial{}).Select("trial_id").Where("vendor_id = ?", v.VendorID)
		for _, model := range []interface{}{&trialDatamodel.Document{}, &trialDatamodel.Payment{}, &trialDatamodel.IRBHistory{}} {
			if err := tx.Where("trial_id IN (?)", trialIDs).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("vendor_id = ?", v.VendorID).Delete(&trialDatamodel.ClinicalTrial{}).Error; err != nil {
			return err
		}

		memberIDs := tx.Model(&employeeDatamodel.VendorEmployee{}).Select("user_id").Where("vendor_id = ?", v.VendorID)
		patientIDs := tx.Model(&patientDatamodel.Customer{}).Select("user_id").Where("created_by_vendor_id = ?", v.VendorID)

		var userIDs []int64
		if err := memberIDs.Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}
		var patientUserIDs []int64
		if err := patientIDs.Pluck("user_id", &patientUserIDs).Error; err != nil {
			return err
		}
		userIDs = append(append(userIDs, patientUserIDs...), v.UserID)

		if err := tx.Where("vendor_id = ?", v.VendorID).Delete(&employeeDatamodel.VendorEmployee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("created_by_vendor_id = ?", v.VendorID).Delete(&patientDatamodel.Customer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vendor_id = ?", v.VendorID).Delete(&vendorDatamodel.Vendor{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id IN ?", userIDs).Delete(&accountDatamodel.UserAccount{}).Error
	})
}
