package handler

import (
	"net/http"

	"groov/internal/middleware"
	"groov/internal/repository"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	users        *repository.UserRepository
	songs        *repository.SongRepository
	entitlements *repository.EntitlementRepository
}

func NewProfileHandler(users *repository.UserRepository, songs *repository.SongRepository, entitlements *repository.EntitlementRepository) *ProfileHandler {
	return &ProfileHandler{users: users, songs: songs, entitlements: entitlements}
}

// GetProfile returns the authenticated user and their uploads.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user := middleware.GetUser(c)
	uploads, err := h.songs.ListByOwner(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"name":       user.Name,
			"image":      user.Image,
			"createDate": user.CreatedAt.Format("2006-01-02"),
		},
		"uploads": toSongResponses(uploads, true),
	})
}

// DeleteAccount removes the user and cascades their uploads.
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	user := middleware.GetUser(c)
	if err := h.users.Delete(user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully."})
}

// ListDownloads returns the songs a user has purchased. Users may only read
// their own list.
func (h *ProfileHandler) ListDownloads(c *gin.Context) {
	user := middleware.GetUser(c)
	if c.Param("user_id") != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	songs, err := h.entitlements.List(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSongResponses(songs, true))
}
