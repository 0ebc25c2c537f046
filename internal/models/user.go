package models

import (
	"time"
)

// User is keyed by the identity provider's stable subject id, not an
// auto-increment id — the provider owns identity, we only mirror it.
type User struct {
	ID        string    `gorm:"primaryKey;size:255" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Image     string    `gorm:"size:512;not null" json:"image"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Uploads   []Song `gorm:"foreignKey:OwnerID" json:"uploads,omitempty"`
	Downloads []Song `gorm:"many2many:user_downloads" json:"downloads,omitempty"`
}
