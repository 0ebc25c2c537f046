package models

import (
	"time"
)

type Song struct {
	ID            string    `gorm:"primaryKey;size:16" json:"id"`
	Title         string    `gorm:"size:255;index;not null" json:"title"`
	Image         string    `gorm:"size:512;not null" json:"image"`
	FileURL       string    `gorm:"size:512;not null" json:"fileUrl"`
	UploadDate    time.Time `json:"uploadDate"`
	Duration      float64   `gorm:"not null" json:"duration"`
	DownloadCount int       `gorm:"default:0" json:"downloadCount"`
	Description   string    `gorm:"size:255;not null" json:"description"`
	OwnerID       string    `gorm:"size:255;index" json:"owner_id"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Song) TableName() string {
	return "songs"
}
