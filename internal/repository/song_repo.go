package repository

import (
	"groov/internal/models"

	"gorm.io/gorm"
)

type SongRepository struct {
	db *gorm.DB
}

func NewSongRepository(db *gorm.DB) *SongRepository {
	return &SongRepository{db: db}
}

func (r *SongRepository) Create(s *models.Song) error {
	return r.db.Create(s).Error
}

func (r *SongRepository) GetByID(id string) (*models.Song, error) {
	var s models.Song
	err := r.db.Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SongRepository) List() ([]models.Song, error) {
	var songs []models.Song
	err := r.db.Order("upload_date DESC").Find(&songs).Error
	return songs, err
}

// Search matches song titles case-insensitively by substring.
func (r *SongRepository) Search(query string) ([]models.Song, error) {
	var songs []models.Song
	err := r.db.Where("LOWER(title) LIKE LOWER(?)", "%"+query+"%").Find(&songs).Error
	return songs, err
}

func (r *SongRepository) ListByOwner(ownerID string) ([]models.Song, error) {
	var songs []models.Song
	err := r.db.Where("owner_id = ?", ownerID).Order("upload_date DESC").Find(&songs).Error
	return songs, err
}

func (r *SongRepository) Update(s *models.Song) error {
	return r.db.Save(s).Error
}

func (r *SongRepository) IncrementDownloadCount(id string) error {
	return r.db.Model(&models.Song{}).Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}

// Delete removes the song and its entitlement join rows in one transaction.
func (r *SongRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_downloads WHERE song_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Song{}).Error
	})
}
