// Package dbtest opens an in-memory sqlite database with every table migrated, for repository and handler specs.
package dbtest

import (
	"fmt"

	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	employeeDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/employee"
	patientDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/patient"
	trialDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/trial"
	vendorDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/vendor"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// every pooled connection would otherwise get its own empty in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&accountDatamodel.UserAccount{},
		&vendorDatamodel.Vendor{},
		&employeeDatamodel.VendorEmployee{},
		&patientDatamodel.Customer{},
		&trialDatamodel.ClinicalTrial{},
		&trialDatamodel.IRBHistory{},
		&trialDatamodel.Payment{},
		&trialDatamodel.Document{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}
