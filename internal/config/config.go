// Package config loads the portal configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/imaging"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/mail"
)

// Config holds all runtime settings.
type Config struct {
	Addr      string // listen address
	DBPath    string // SQLite database file
	UploadDir string // uploaded image directory
	BaseURL   string // external base URL for links in emails
	Secret    string // signing key for session and confirmation tokens

	ImageWidth  int // letterbox target width
	ImageHeight int // letterbox target height
	JPEGQuality int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg := &Config{
		Addr:         envString("CAMPUSHUB_ADDR", ":8080"),
		DBPath:       envString("CAMPUSHUB_DB", "campushub.sqlite3"),
		UploadDir:    envString("CAMPUSHUB_UPLOAD_DIR", "uploads"),
		BaseURL:      envString("CAMPUSHUB_BASE_URL", "http://localhost:8080"),
		Secret:       os.Getenv("CAMPUSHUB_SECRET"),
		SMTPHost:     os.Getenv("CAMPUSHUB_SMTP_HOST"),
		SMTPUsername: os.Getenv("CAMPUSHUB_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("CAMPUSHUB_SMTP_PASSWORD"),
	}

	var err error
	if cfg.ImageWidth, err = envInt("CAMPUSHUB_IMAGE_WIDTH", imaging.DefaultWidth); err != nil {
		return nil, err
	}
	if cfg.ImageHeight, err = envInt("CAMPUSHUB_IMAGE_HEIGHT", imaging.DefaultHeight); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = envInt("CAMPUSHUB_JPEG_QUALITY", imaging.DefaultQuality); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = envInt("CAMPUSHUB_SMTP_PORT", 587); err != nil {
		return nil, err
	}

	cfg.MailFrom = envString("CAMPUSHUB_MAIL_FROM", cfg.SMTPUsername)

	return cfg, nil
}

// ImagingOptions returns the configured letterbox target box.
func (c *Config) ImagingOptions() imaging.Options {
	return imaging.Options{Width: c.ImageWidth, Height: c.ImageHeight, Quality: c.JPEGQuality}
}

// Notifier returns the SMTP notifier when a mail server is configured, and
// a log-only notifier otherwise.
func (c *Config) Notifier() mail.Notifier {
	if c.SMTPHost == "" {
		return mail.LogNotifier{}
	}
	return &mail.SMTPNotifier{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
