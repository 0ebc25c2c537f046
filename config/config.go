package config

import (
	"os"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	KakaoPay   KakaoPayConfig
	Media      MediaConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// KakaoPayConfig holds the gateway credentials. RedirectBaseURL is the
// frontend origin the gateway sends the user back to after authorization.
type KakaoPayConfig struct {
	BaseURL         string
	CID             string
	SecretKey       string
	RedirectBaseURL string
	Timeout         time.Duration
}

type MediaConfig struct {
	Dir string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8000"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "groov:groov@tcp(localhost:3306)/groov?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_SECRET_KEY", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET_KEY", "change-me-refresh"),
			AccessExpiry:  60 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
			Issuer:        "groov",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URL", "http://localhost:8000/auth/google/callback"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		KakaoPay: KakaoPayConfig{
			BaseURL:         getenv("KAKAOPAY_BASE_URL", "https://open-api.kakaopay.com"),
			CID:             os.Getenv("CID"),
			SecretKey:       os.Getenv("KAKAO_DEV_KEY"),
			RedirectBaseURL: getenv("REDIRECT_BASE_URL", "http://localhost:5173"),
			Timeout:         10 * time.Second,
		},
		Media: MediaConfig{
			Dir: getenv("MEDIA_DIR", "media"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
