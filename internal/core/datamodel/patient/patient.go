package patient

import "time"

// Customer is the patient profile row; the login lives in user_account.
type Customer struct {
	CustomerID        int64      `gorm:"column:customer_id;primaryKey;autoIncrement"`
	UserID            int64      `gorm:"column:user_id;uniqueIndex:customer_user_id_key;not null"`
	CreatedByVendorID string     `gorm:"column:created_by_vendor_id;size:50;index;not null"`
	Phone             *string    `gorm:"column:phone;size:20"`
	DateOfBirth       *time.Time `gorm:"column:date_of_birth;type:date"`
	Gender            *string    `gorm:"column:gender;size:20"`
	Address           *string    `gorm:"column:address;size:255"`
	City              *string    `gorm:"column:city;size:100"`
	State             *string    `gorm:"column:state;size:100"`
	PostalCode        *string    `gorm:"column:postal_code;size:20"`
	Country           *string    `gorm:"column:country;size:100"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string {
	return "customer"
}

// PatientView is a customer joined with its login.
type PatientView struct {
	CustomerID        int64      `gorm:"column:customer_id"`
	UserID            int64      `gorm:"column:user_id"`
	Username          string     `gorm:"column:username"`
	Email             string     `gorm:"column:email"`
	FirstName         string     `gorm:"column:first_name"`
	LastName          string     `gorm:"column:last_name"`
	Phone             *string    `gorm:"column:phone"`
	Status            string     `gorm:"column:status"`
	Age               *int       `gorm:"column:age"`
	Gender            *string    `gorm:"column:gender"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	CreatedByVendorID string     `gorm:"column:created_by_vendor_id"`
	DateOfBirth       *time.Time `gorm:"column:date_of_birth"`
	Address           *string    `gorm:"column:address"`
	City              *string    `gorm:"column:city"`
	State             *string    `gorm:"column:state"`
	PostalCode        *string    `gorm:"column:postal_code"`
	Country           *string    `gorm:"column:country"`
}
