package employee

import "time"

type VendorEmployee struct {
	EmployeeID      int64     `gorm:"column:employee_id;primaryKey;autoIncrement"`
	UserID          int64     `gorm:"column:user_id;uniqueIndex:vendor_employee_user_id_key;not null"`
	VendorID        string    `gorm:"column:vendor_id;size:50;index;not null"`
	EmployeeRole    string    `gorm:"column:employee_role;size:20;not null"`
	Department      *string   `gorm:"column:department;size:100"`
	Status          string    `gorm:"column:status;size:20;not null;default:active"`
	CreatedByUserID *int64    `gorm:"column:created_by_user_id"`
	UpdatedByUserID *int64    `gorm:"column:updated_by_user_id"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (VendorEmployee) TableName() string {
	return "vendor_employee"
}

// EmployeeView is one employee joined with its account, vendor and creator.
type EmployeeView struct {
	EmployeeID        int64     `gorm:"column:employee_id"`
	UserID            int64     `gorm:"column:user_id"`
	Username          string    `gorm:"column:username"`
	Email             string    `gorm:"column:email"`
	FirstName         string    `gorm:"column:first_name"`
	LastName          string    `gorm:"column:last_name"`
	Phone             *string   `gorm:"column:phone"`
	EmployeeRole      string    `gorm:"column:employee_role"`
	Department        *string   `gorm:"column:department"`
	Status            string    `gorm:"column:status"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
	CreatedByUsername *string   `gorm:"column:created_by_username"`
	CreatedByName     *string   `gorm:"column:created_by_name"`
	VendorID          string    `gorm:"column:vendor_id"`
	VendorCompanyName string    `gorm:"column:vendor_company_name"`
}
