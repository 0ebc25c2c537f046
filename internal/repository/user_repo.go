package repository

import (
	"groov/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var u models.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes the user together with owned songs and entitlement rows.
// Cascade happens in one transaction so a partial delete never becomes
// visible.
func (r *UserRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var songIDs []string
		if err := tx.Model(&models.Song{}).Where("owner_id = ?", id).Pluck("id", &songIDs).Error; err != nil {
			return err
		}
		if len(songIDs) > 0 {
			if err := tx.Exec("DELETE FROM user_downloads WHERE song_id IN ?", songIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_id = ?", id).Delete(&models.Song{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM user_downloads WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.User{}).Error
	})
}
