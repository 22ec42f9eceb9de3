package wallet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Type string

const (
	TypeCash    Type = "CASH"
	TypeBank    Type = "BANK"
	TypeEWallet Type = "EWALLET"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCash, TypeBank, TypeEWallet:
		return true
	default:
		return false
	}
}

const DefaultCurrency = "VND"

type Wallet struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"userId"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Type      Type      `gorm:"size:16;not null;default:CASH" json:"type"`
	Currency  string    `gorm:"size:8;not null;default:VND" json:"currency"`
	Balance   float64   `gorm:"type:numeric(18,2);not null;default:0" json:"balance"`
	IsDefault bool      `gorm:"not null;default:false" json:"isDefault"`
	IsHidden  bool      `gorm:"not null;default:false" json:"isHidden"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
