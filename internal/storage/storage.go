// Package storage provides the download ledger using GORM and SQLite
package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Download statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Sentinel errors following Dave Cheney's principle: define errors as values
var (
	ErrNilDownload       = errors.New("download cannot be nil")
	ErrNotFound          = errors.New("download not found")
	ErrIdentifierMissing = errors.New("download identifier is required")
)

// Download represents one archive fetch attempt
type Download struct {
	ID uint `gorm:"primaryKey"`

	// What was downloaded
	Identifier string `gorm:"not null;index:idx_identifier"`
	SourceName string `gorm:"not null"`
	SourceURL  string `gorm:"not null"`
	LocalPath  string
	FileSize   int64

	// Expected size from the catalog listing, zero when unknown
	ExpectedSize int64

	// When
	DownloadedAt time.Time `gorm:"not null;index"`

	// Integrity
	SHA256 string `gorm:"type:varchar(64)"`

	// Status
	Status       string `gorm:"not null;index"`
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines the interface for download ledger operations
type Store interface {
	Close() error
	RecordDownload(*Download) error
	GetDownload(identifier string) (*Download, error)
	ListAll() ([]*Download, error)
	ListByIdentifier(identifier string) ([]*Download, error)
	GetStats() (*Stats, error)
}

// Stats summarises the ledger
type Stats struct {
	TotalDownloads int64         `json:"total_downloads"`
	TotalBytes     int64         `json:"total_bytes"`
	UniqueApps     int64         `json:"unique_apps"`
	ByStatus       []StatusCount `json:"by_status"`
}

// StatusCount is the number of ledger rows with one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DB wraps gorm.DB with our download operations
type DB struct {
	db *gorm.DB
}

// Config holds database configuration
type Config struct {
	DatabasePath string
	LogLevel     string // silent, error, warn, info
}

// InitDB initializes the database connection and runs migrations
func InitDB(cfg Config) (*DB, error) {
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; downloads record attempts concurrently.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto-migrate schema
	if err := db.AutoMigrate(&Download{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// RecordDownload appends an attempt to the ledger
func (d *DB) RecordDownload(download *Download) error {
	if download == nil {
		return ErrNilDownload
	}
	if download.Identifier == "" {
		return ErrIdentifierMissing
	}
	if download.DownloadedAt.IsZero() {
		download.DownloadedAt = time.Now()
	}
	if err := d.db.Create(download).Error; err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// GetDownload returns the most recent successful download of an app
func (d *DB) GetDownload(identifier string) (*Download, error) {
	var download Download
	err := d.db.Where("identifier = ? AND status = ?", identifier, StatusSuccess).
		Order("downloaded_at DESC").First(&download).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get download: %w", err)
	}
	return &download, nil
}

// ListAll returns all attempts, newest first
func (d *DB) ListAll() ([]*Download, error) {
	var downloads []*Download
	if err := d.db.Order("downloaded_at DESC").Find(&downloads).Error; err != nil {
		return nil, fmt.Errorf("failed to list all downloads: %w", err)
	}
	return downloads, nil
}

// ListByIdentifier returns all attempts for one app, newest first
func (d *DB) ListByIdentifier(identifier string) ([]*Download, error) {
	var downloads []*Download
	if err := d.db.Where("identifier = ?", identifier).Order("downloaded_at DESC").
		Find(&downloads).Error; err != nil {
		return nil, fmt.Errorf("failed to list downloads for app %s: %w", identifier, err)
	}
	return downloads, nil
}

// GetStats returns ledger statistics
func (d *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	if err := d.db.Model(&Download{}).Count(&stats.TotalDownloads).Error; err != nil {
		return nil, fmt.Errorf("failed to count total downloads: %w", err)
	}

	if err := d.db.Model(&Download{}).Where("status = ?", StatusSuccess).
		Select("COALESCE(SUM(file_size), 0)").Scan(&stats.TotalBytes).Error; err != nil {
		return nil, fmt.Errorf("failed to sum downloaded bytes: %w", err)
	}

	if err := d.db.Model(&Download{}).Where("status = ?", StatusSuccess).
		Distinct("identifier").Count(&stats.UniqueApps).Error; err != nil {
		return nil, fmt.Errorf("failed to count unique apps: %w", err)
	}

	if err := d.db.Model(&Download{}).Select("status, COUNT(*) as count").
		Group("status").Order("status").Scan(&stats.ByStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}

	return stats, nil
}
