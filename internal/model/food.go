package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Food is a catalog item.
type Food struct {
	ID          string          `json:"_id" bson:"_id" gorm:"type:char(36);primaryKey"`
	Name        string          `json:"name" bson:"name" gorm:"size:255;not null;index"`
	Description string          `json:"description" bson:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" bson:"price" gorm:"type:decimal(20,2);not null"`
	Category    string          `json:"category" bson:"category" gorm:"size:100;index"`
	Image       string          `json:"image" bson:"image" gorm:"size:512"`
	ImageURL    string          `json:"image_url,omitempty" bson:"-" gorm:"-"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (f *Food) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
