package patient

import (
	"time"

	patientDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/patient"
)

const dateLayout = "2006-01-02"

// Patient is a vendor's customer as returned by the API.
type Patient struct {
	CustomerID        int64     `json:"customer_id"`
	UserID            int64     `json:"user_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Phone             *string   `json:"phone"`
	Status            string    `json:"status"`
	Age               *int      `json:"age,omitempty"`
	Gender            *string   `json:"gender,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	CreatedByVendorID string    `json:"created_by_vendor_id"`
	DateOfBirth       *string   `json:"date_of_birth,omitempty"`
	Address           *string   `json:"address,omitempty"`
	City              *string   `json:"city,omitempty"`
	State             *string   `json:"state,omitempty"`
	PostalCode        *string   `json:"postal_code,omitempty"`
	Country           *string   `json:"country,omitempty"`
}

func FromDataModel(row *patientDatamodel.PatientView) *Patient {
	p := &Patient{
		CustomerID:        row.CustomerID,
		UserID:            row.UserID,
		Username:          row.Username,
		Email:             row.Email,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		Phone:             row.Phone,
		Status:            row.Status,
		Age:               row.Age,
		Gender:            row.Gender,
		CreatedAt:         row.CreatedAt,
		CreatedByVendorID: row.CreatedByVendorID,
		Address:           row.Address,
		City:              row.City,
		State:             row.State,
		PostalCode:        row.PostalCode,
		Country:           row.Country,
	}
	if row.DateOfBirth != nil {
		dob := row.DateOfBirth.Format(dateLayout)
		p.DateOfBirth = &dob
	}
	return p
}

// Profile is the customer-row half of a patient.
type Profile struct {
	Phone       *string
	DateOfBirth *time.Time
	Gender      *string
	Address     *string
	City        *string
	State       *string
	PostalCode  *string
	Country     *string
}

func (p Profile) ToDataModel(userID int64, vendorID string) *patientDatamodel.Customer {
	return &patientDatamodel.Customer{
		UserID:            userID,
		CreatedByVendorID: vendorID,
		Phone:             p.Phone,
		DateOfBirth:       p.DateOfBirth,
		Gender:            p.Gender,
		Address:           p.Address,
		City:              p.City,
		State:             p.State,
		PostalCode:        p.PostalCode,
		Country:           p.Country,
	}
}

// Changes is a partial update; nil fields are left alone.
type Changes struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	Age         *int
	Gender      *string
	DateOfBirth *time.Time
	Address     *string
	City        *string
	State       *string
	PostalCode  *string
	Country     *string
}

func (c Changes) AccountColumns() map[string]interface{} {
	cols := map[string]interface{}{}
	set := func(name string, v *string) {
		if v != nil {
			cols[name] = *v
		}
	}
	set("first_name", c.FirstName)
	set("last_name", c.LastName)
	set("email", c.Email)
	set("phone", c.Phone)
	set("gender", c.Gender)
	if c.Age != nil {
		cols["age"] = *c.Age
	}
	return cols
}

// CustomerColumns mirrors phone and gender onto the customer row, where the profile also keeps them.
func (c Changes) CustomerColumns() map[string]interface{} {
	cols := map[string]interface{}{}
	set := func(name string, v *string) {
		if v != nil {
			cols[name] = *v
		}
	}
	set("phone", c.Phone)
	set("gender", c.Gender)
	set("address", c.Address)
	set("city", c.City)
	set("state", c.State)
	set("postal_code", c.PostalCode)
	set("country", c.Country)
	if c.DateOfBirth != nil {
		cols["date_of_birth"] = *c.DateOfBirth
	}
	return cols
}

type ListFilter struct {
	Search string
	Status string
	Limit  int
	Offset int
}

type ListResponse struct {
	Patients   []*Patient `json:"patients"`
	TotalCount int64      `json:"total_count"`
	VendorID   string     `json:"vendor_id"`
}

type CreateResponse struct {
	Message         string `json:"message"`
	CustomerID      int64  `json:"customer_id"`
	UserID          int64  `json:"user_id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	CreatedByVendor string `json:"created_by_vendor"`
}

type MutationResponse struct {
	Message    string `json:"message"`
	CustomerID int64  `json:"customer_id"`
	Status     string `json:"status,omitempty"`
}
