package account

import "time"

type UserAccount struct {
	UserID       int64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username     string    `gorm:"column:username;size:50;uniqueIndex:user_account_username_key;not null"`
	Email        string    `gorm:"column:email;size:255;uniqueIndex:user_account_email_key;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	FirstName    string    `gorm:"column:first_name;size:100"`
	LastName     string    `gorm:"column:last_name;size:100"`
	Role         string    `gorm:"column:role;size:20;not null"`
	Status       string    `gorm:"column:status;size:20;not null;default:active"`
	Phone        *string   `gorm:"column:phone;size:20"`
	Age          *int      `gorm:"column:age"`
	Gender       *string   `gorm:"column:gender;size:20"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserAccount) TableName() string {
	return "user_account"
}
