package models

import (
	"time"
)

// Payment records one reservation against the payment gateway. Exactly one row
// per order id and per gateway transaction id; status only ever moves
// READY -> COMPLETED.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   string    `gorm:"uniqueIndex;size:255;not null" json:"order_id"`
	UserID    string    `gorm:"size:255;not null;index" json:"user_id"`
	SongID    string    `gorm:"size:255;not null" json:"song_id"`
	TID       string    `gorm:"column:tid;uniqueIndex;size:255;not null" json:"tid"`
	Status    string    `gorm:"size:20;not null;default:'READY'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
