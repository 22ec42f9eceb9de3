package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account. It holds no OTP material; pending codes live in the
// challenge store.
type User struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	Name          string `gorm:"size:255;not null"`
	Email         string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash  string `gorm:"size:255;not null"`
	EmailVerified bool   `gorm:"not null;default:false"`
	IsPremium     bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserView is the public projection returned to clients.
type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
