package patient

import (
	"strings"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/core/common/validation"
)

type CreatePatientDTO struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Age         *int    `json:"age,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
	PostalCode  *string `json:"postal_code,omitempty"`
	Country     *string `json:"country,omitempty"`
}

func (d *CreatePatientDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	if d.Phone != nil {
		p := validation.NormalizePhone(*d.Phone)
		d.Phone = &p
	}
}

// Validate checks the payload and parses date_of_birth.
func (d CreatePatientDTO) Validate() (Profile, *internal.AppError) {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().Username()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required().MinLength(6).MaxBytes(validation.MaxPasswordBytes, internal.ErrCodeInvalidPassword)
	v.Field("first_name", d.FirstName).Required().MaxLength(100)
	v.Field("last_name", d.LastName).Required().MaxLength(100)
	v.Field("phone", d.Phone).Phone()
	v.Field("age", d.Age).MinInt(0, internal.ErrCodeValidationFailed).MaxInt(150, internal.ErrCodeValidationFailed)
	profileFields(v, d.Gender, d.Address, d.City, d.State, d.PostalCode, d.Country)
	if err := v.Validate(); err != nil {
		return Profile{}, err
	}

	dob, err := parseBirthDate(d.DateOfBirth)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		Phone:       d.Phone,
		DateOfBirth: dob,
		Gender:      d.Gender,
		Address:     d.Address,
		City:        d.City,
		State:       d.State,
		PostalCode:  d.PostalCode,
		Country:     d.Country,
	}, nil
}

func (d CreatePatientDTO) Account() *account.Account {
	return &account.Account{
		Username:  d.Username,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Role:      account.RolePatient,
		Status:    account.StatusActive,
		Phone:     d.Phone,
		Age:       d.Age,
		Gender:    d.Gender,
	}
}

type UpdatePatientDTO struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Age         *int    `json:"age,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
	PostalCode  *string `json:"postal_code,omitempty"`
	Country     *string `json:"country,omitempty"`
}

func (d *UpdatePatientDTO) Normalize() {
	if d.FirstName != nil {
		s := strings.TrimSpace(*d.FirstName)
		d.FirstName = &s
	}
	if d.LastName != nil {
		s := strings.TrimSpace(*d.LastName)
		d.LastName = &s
	}
	if d.Email != nil {
		s := strings.ToLower(strings.TrimSpace(*d.Email))
		d.Email = &s
	}
	if d.Phone != nil {
		p := validation.NormalizePhone(*d.Phone)
		d.Phone = &p
	}
}

func (d UpdatePatientDTO) Validate() (Changes, *internal.AppError) {
	v := validation.NewValidator()
	if d.FirstName != nil {
		v.Field("first_name", d.FirstName).Required().MaxLength(100)
	}
	if d.LastName != nil {
		v.Field("last_name", d.LastName).Required().MaxLength(100)
	}
	if d.Email != nil {
		v.Field("email", d.Email).Required().Email()
	}
	v.Field("phone", d.Phone).Phone()
	v.Field("age", d.Age).MinInt(0, internal.ErrCodeValidationFailed).MaxInt(150, internal.ErrCodeValidationFailed)
	profileFields(v, d.Gender, d.Address, d.City, d.State, d.PostalCode, d.Country)
	if err := v.Validate(); err != nil {
		return Changes{}, err
	}

	dob, err := parseBirthDate(d.DateOfBirth)
	if err != nil {
		return Changes{}, err
	}

	return Changes{
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Email:       d.Email,
		Phone:       d.Phone,
		Age:         d.Age,
		Gender:      d.Gender,
		DateOfBirth: dob,
		Address:     d.Address,
		City:        d.City,
		State:       d.State,
		PostalCode:  d.PostalCode,
		Country:     d.Country,
	}, nil
}

func profileFields(v *validation.ValidationBuilder, gender, address, city, state, postalCode, country *string) {
	v.Field("gender", gender).MaxLength(20)
	v.Field("address", address).MaxLength(255)
	v.Field("city", city).MaxLength(100)
	v.Field("state", state).MaxLength(100)
	v.Field("postal_code", postalCode).MaxLength(20)
	v.Field("country", country).MaxLength(100)
}

func parseBirthDate(raw *string) (*time.Time, *internal.AppError) {
	dob, err := validation.ParseDate("date_of_birth", raw)
	if err != nil {
		return nil, err
	}
	v := validation.NewValidator()
	v.Field("date_of_birth", dob).NotFuture()
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return dob, nil
}
