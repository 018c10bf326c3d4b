package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reconciliation is a journal row for one applied publish/hide decision.
type Reconciliation struct {
	ID             string        `json:"id" gorm:"type:varchar(36);primary_key"`
	ProductID      string        `json:"product_id" gorm:"index;not null"`
	DisplayName    string        `json:"display_name"`
	TotalInventory int           `json:"total_inventory"`
	Status         ProductStatus `json:"status" gorm:"not null"`
	Version        uint64        `json:"version"`
	Error          *string       `json:"error,omitempty"`
	AppliedAt      time.Time     `json:"applied_at" gorm:"index"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (r *Reconciliation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (r *Reconciliation) Succeeded() bool {
	return r.Error == nil
}
