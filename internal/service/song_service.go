package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"groov/internal/domain"
	"groov/internal/models"
	"groov/internal/repository"
	"groov/internal/ws"
	"groov/pkg/cloudinary"
	"groov/pkg/media"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SongService handles the catalog: upload, edit, delete, search and the
// entitlement-gated download.
type SongService struct {
	songs        *repository.SongRepository
	entitlements *repository.EntitlementRepository
	store        *media.Store
	cloud        cloudinary.Client // nil when unconfigured; cover art then goes to the media dir
	events       *ws.EventHub
}

func NewSongService(
	songs *repository.SongRepository,
	entitlements *repository.EntitlementRepository,
	store *media.Store,
	cloud cloudinary.Client,
	events *ws.EventHub,
) *SongService {
	return &SongService{
		songs:        songs,
		entitlements: entitlements,
		store:        store,
		cloud:        cloud,
		events:       events,
	}
}

// Upload stores the audio and cover art, probes the track duration and
// creates the song record.
func (s *SongService) Upload(ctx context.Context, owner *models.User, title string, audioFile, imageFile *multipart.FileHeader) (*models.Song, error) {
	uniqueID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	audioName := fmt.Sprintf("%s_%s%s", fileSafeTitle(title), uniqueID, filepath.Ext(audioFile.Filename))

	audio, err := audioFile.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read audio file", domain.ErrInvalid)
	}
	defer audio.Close()
	fileURL, err := s.store.SaveAudio(audioName, audio)
	if err != nil {
		return nil, err
	}
	audioPath, _ := s.store.AudioPath(audioName)
	duration, err := media.AudioDuration(audioPath)
	if err != nil {
		s.store.Remove(fileURL)
		return nil, fmt.Errorf("%w: not a valid mp3", domain.ErrInvalid)
	}

	imageURL, err := s.saveCover(ctx, title, uniqueID, imageFile)
	if err != nil {
		s.store.Remove(fileURL)
		return nil, err
	}

	song := &models.Song{
		ID:          uniqueID,
		Title:       title,
		Image:       imageURL,
		FileURL:     fileURL,
		UploadDate:  time.Now(),
		Duration:    duration,
		Description: owner.Name,
		OwnerID:     owner.ID,
	}
	if err := s.songs.Create(song); err != nil {
		s.store.Remove(fileURL)
		s.store.Remove(imageURL)
		return nil, err
	}
	if s.events != nil {
		s.events.SongUploaded(song.ID, song.Title)
	}
	return song, nil
}

// Edit retitles a song and optionally replaces its cover art. Only the owner
// may edit.
func (s *SongService) Edit(ctx context.Context, user *models.User, songID, title string, imageFile *multipart.FileHeader) (*models.Song, error) {
	song, err := s.get(songID)
	if err != nil {
		return nil, err
	}
	if song.OwnerID != user.ID {
		return nil, fmt.Errorf("%w: not the owner", domain.ErrForbidden)
	}
	song.Title = title
	if imageFile != nil {
		uniqueID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
		imageURL, err := s.saveCover(ctx, title, uniqueID, imageFile)
		if err != nil {
			return nil, err
		}
		s.store.Remove(song.Image)
		song.Image = imageURL
	}
	song.UploadDate = time.Now()
	if err := s.songs.Update(song); err != nil {
		return nil, err
	}
	return song, nil
}

// Delete removes the song record, its entitlement rows and stored files.
func (s *SongService) Delete(user *models.User, songID string) error {
	song, err := s.get(songID)
	if err != nil {
		return err
	}
	if song.OwnerID != user.ID {
		return fmt.Errorf("%w: not the owner", domain.ErrForbidden)
	}
	if err := s.songs.Delete(song.ID); err != nil {
		return err
	}
	s.store.Remove(song.FileURL)
	s.store.Remove(song.Image)
	return nil
}

// Download gates the file stream on entitlement. It returns the on-disk path
// and the suggested download filename; the caller streams the file.
func (s *SongService) Download(user *models.User, songID string) (path, filename string, err error) {
	if songID == "" || songID == "null" {
		return "", "", fmt.Errorf("%w: missing song id", domain.ErrInvalid)
	}
	song, err := s.get(songID)
	if err != nil {
		return "", "", err
	}
	ok, err := s.entitlements.Has(user.ID, song.ID)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", fmt.Errorf("%w: payment required", domain.ErrForbidden)
	}
	path, exists := s.store.AudioPath(filepath.Base(song.FileURL))
	if !exists {
		// record exists but the blob is gone; surface the desync
		return "", "", fmt.Errorf("%w: file missing for song %s", domain.ErrNotFound, song.ID)
	}
	if err := s.songs.IncrementDownloadCount(song.ID); err != nil {
		return "", "", err
	}
	return path, song.Title + ".mp3", nil
}

func (s *SongService) List() ([]models.Song, error) {
	return s.songs.List()
}

func (s *SongService) Search(query string) ([]models.Song, error) {
	if query == "" {
		return s.songs.List()
	}
	return s.songs.Search(query)
}

func (s *SongService) Get(songID string) (*models.Song, error) {
	return s.get(songID)
}

func (s *SongService) get(songID string) (*models.Song, error) {
	song, err := s.songs.GetByID(songID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: song %s", domain.ErrNotFound, songID)
		}
		return nil, err
	}
	return song, nil
}

func (s *SongService) saveCover(ctx context.Context, title, uniqueID string, imageFile *multipart.FileHeader) (string, error) {
	img, err := imageFile.Open()
	if err != nil {
		return "", fmt.Errorf("%w: could not read image file", domain.ErrInvalid)
	}
	defer img.Close()
	if s.cloud != nil {
		return s.cloud.UploadImage(ctx, img, "groov/covers", "cover_"+uniqueID)
	}
	imageName := fmt.Sprintf("%s_%s%s", fileSafeTitle(title), uniqueID, filepath.Ext(imageFile.Filename))
	return s.store.SaveImage(imageName, img)
}

// fileSafeTitle flattens a client-supplied title into a single path element
// so the stored filename cannot escape the media root.
func fileSafeTitle(title string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, title)
	safe = strings.Trim(safe, ". ")
	if safe == "" {
		safe = "track"
	}
	return safe
}
