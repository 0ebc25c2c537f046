package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"groov/config"
	"groov/internal/service"

	"github.com/gin-gonic/gin"
)

const tokeninfoURL = "https://oauth2.googleapis.com/tokeninfo"

type AuthHandler struct {
	cfg     *config.Config
	authSvc *service.AuthService

	// TokeninfoBase is where ID tokens are verified. Tests point it at an
	// httptest server standing in for Google.
	TokeninfoBase string
}

func NewAuthHandler(cfg *config.Config, authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{cfg: cfg, authSvc: authSvc, TokeninfoBase: tokeninfoURL}
}

// tokeninfoResponse is the response from https://oauth2.googleapis.com/tokeninfo?id_token=...
type tokeninfoResponse struct {
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleLogin accepts a Google ID token, verifies it, upserts the user and
// returns an access token. The refresh token travels only in an HTTP-only
// cookie.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	resp, err := http.Get(h.TokeninfoBase + "?id_token=" + url.QueryEscape(req.Token))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token verification failed"})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id_token", "detail": string(body)})
		return
	}
	var info tokeninfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid token info"})
		return
	}
	if h.cfg.OAuth.GoogleClientID != "" && info.Aud != h.cfg.OAuth.GoogleClientID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token issued for another client"})
		return
	}
	if info.Sub == "" || info.Email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incomplete identity assertion"})
		return
	}

	user, pair, err := h.authSvc.LoginWithProfile(info.Sub, info.Name, info.Email, info.Picture)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setRefreshCookie(c, pair.Refresh)
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"image": user.Image,
		},
		"token": pair.Access,
	})
}

// Refresh rotates the access token from the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}
	access, err := h.authSvc.Refresh(refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": access})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, refresh string) {
	c.SetSameSite(http.SameSiteLaxMode)
	secure := h.cfg.Server.Env == "production"
	c.SetCookie("refresh_token", refresh, int(h.cfg.JWT.RefreshExpiry.Seconds()), "/", "", secure, true)
}
