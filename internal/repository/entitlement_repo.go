package repository

import (
	"groov/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntitlementRepository manages the user_downloads relation: which users hold
// download rights to which songs. Rights are granted, never revoked.
type EntitlementRepository struct {
	db *gorm.DB
}

func NewEntitlementRepository(db *gorm.DB) *EntitlementRepository {
	return &EntitlementRepository{db: db}
}

// WithTx returns a copy bound to an open transaction.
func (r *EntitlementRepository) WithTx(tx *gorm.DB) *EntitlementRepository {
	return &EntitlementRepository{db: tx}
}

func (r *EntitlementRepository) Has(userID, songID string) (bool, error) {
	var count int64
	err := r.db.Table("user_downloads").
		Where("user_id = ? AND song_id = ?", userID, songID).
		Count(&count).Error
	return count > 0, err
}

// Grant adds the entitlement with set semantics: a duplicate grant is a no-op,
// never an error and never a second row.
func (r *EntitlementRepository) Grant(userID, songID string) error {
	return r.db.Table("user_downloads").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]interface{}{"user_id": userID, "song_id": songID}).Error
}

func (r *EntitlementRepository) List(userID string) ([]models.Song, error) {
	var songs []models.Song
	err := r.db.
		Joins("JOIN user_downloads ud ON ud.song_id = songs.id").
		Where("ud.user_id = ?", userID).
		Find(&songs).Error
	return songs, err
}
