package handler

import (
	"net/http"
	"net/url"

	"groov/internal/middleware"
	"groov/internal/models"
	"groov/internal/service"

	"github.com/gin-gonic/gin"
)

type SongHandler struct {
	songSvc *service.SongService
}

func NewSongHandler(songSvc *service.SongService) *SongHandler {
	return &SongHandler{songSvc: songSvc}
}

type songResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Image         string  `json:"image"`
	FileURL       string  `json:"fileUrl,omitempty"`
	Description   string  `json:"description"`
	Duration      float64 `json:"duration"`
	UploadDate    string  `json:"uploadDate"`
	DownloadCount int     `json:"downloadCount"`
}

func toSongResponse(s models.Song, withFileURL bool) songResponse {
	r := songResponse{
		ID:            s.ID,
		Title:         s.Title,
		Image:         s.Image,
		Description:   s.Description,
		Duration:      s.Duration,
		UploadDate:    s.UploadDate.Format("2006-01-02"),
		DownloadCount: s.DownloadCount,
	}
	if withFileURL {
		r.FileURL = s.FileURL
	}
	return r
}

func toSongResponses(songs []models.Song, withFileURL bool) []songResponse {
	out := make([]songResponse, 0, len(songs))
	for _, s := range songs {
		out = append(out, toSongResponse(s, withFileURL))
	}
	return out
}

// List returns the full catalog.
func (h *SongHandler) List(c *gin.Context) {
	songs, err := h.songSvc.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toSongResponses(songs, true)})
}

// Search matches titles by substring. File URLs are withheld from search
// results; downloads go through the gated endpoint.
func (h *SongHandler) Search(c *gin.Context) {
	songs, err := h.songSvc.Search(c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toSongResponses(songs, false)})
}

// Upload stores a new track (multipart: title, audio_file, image_file).
func (h *SongHandler) Upload(c *gin.Context) {
	user := middleware.GetUser(c)
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	audioFile, err := c.FormFile("audio_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio_file required"})
		return
	}
	imageFile, err := c.FormFile("image_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_file required"})
		return
	}
	song, err := h.songSvc.Upload(c.Request.Context(), user, title, audioFile, imageFile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"song_id": song.ID})
}

// Edit retitles a song and optionally replaces the cover art.
func (h *SongHandler) Edit(c *gin.Context) {
	user := middleware.GetUser(c)
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	imageFile, _ := c.FormFile("image_file") // optional
	song, err := h.songSvc.Edit(c.Request.Context(), user, c.Param("song_id"), title, imageFile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"song_id": song.ID})
}

// Delete removes an owned song.
func (h *SongHandler) Delete(c *gin.Context) {
	user := middleware.GetUser(c)
	if err := h.songSvc.Delete(user, c.Param("song_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "song deleted"})
}

// Download streams the audio file to an entitled user.
func (h *SongHandler) Download(c *gin.Context) {
	user := middleware.GetUser(c)
	path, filename, err := h.songSvc.Download(user, c.Param("song_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	// RFC 5987 encoding keeps non-ASCII titles intact
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.File(path)
}
