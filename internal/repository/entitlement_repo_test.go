package repository

import (
	"fmt"
	"testing"

	"groov/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Song{}, &models.Payment{}))
	return db
}

func seedUserAndSong(t *testing.T, db *gorm.DB, userID, songID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{
		ID: userID, Name: "u", Image: "/i.png", Email: userID + "@example.com",
	}).Error)
	require.NoError(t, db.Create(&models.Song{
		ID: songID, Title: "Track " + songID, Image: "/img.png", FileURL: "/media/audio/t.mp3",
		Duration: 180, Description: "u", OwnerID: userID,
	}).Error)
}

func TestGrantAndHas(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntitlementRepository(db)
	seedUserAndSong(t, db, "u1", "s1")

	ok, err := repo.Has("u1", "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Grant("u1", "s1"))

	ok, err = repo.Has("u1", "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntitlementRepository(db)
	seedUserAndSong(t, db, "u1", "s1")

	require.NoError(t, repo.Grant("u1", "s1"))
	require.NoError(t, repo.Grant("u1", "s1"))

	var count int64
	require.NoError(t, db.Table("user_downloads").
		Where("user_id = ? AND song_id = ?", "u1", "s1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListEntitlements(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntitlementRepository(db)
	seedUserAndSong(t, db, "u1", "s1")
	require.NoError(t, db.Create(&models.Song{
		ID: "s2", Title: "Track s2", Image: "/img.png", FileURL: "/media/audio/t2.mp3",
		Duration: 200, Description: "u", OwnerID: "u1",
	}).Error)

	require.NoError(t, repo.Grant("u1", "s1"))
	require.NoError(t, repo.Grant("u1", "s2"))

	songs, err := repo.List("u1")
	require.NoError(t, err)
	require.Len(t, songs, 2)

	ids := []string{songs[0].ID, songs[1].ID}
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)
}

func TestListEmptyForUnknownUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntitlementRepository(db)

	songs, err := repo.List("nobody")
	require.NoError(t, err)
	assert.Empty(t, songs)
}
