package services

import (
	"database/sql"
	"fmt"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
)

// UpdateSettingsInput is the admin edit of the queue gate.
type UpdateSettingsInput struct {
	Active       bool   `json:"active"`
	OpeningTime  string `json:"opening_time" binding:"required"`
	ClosingTime  string `json:"closing_time" binding:"required"`
	MaxQueueSize int    `json:"max_queue_size" binding:"required,gt=0"`
}

// SettingsService exposes the singleton queue settings. Updates lock the row
// so an edit never interleaves with an in-flight join's checks.
type SettingsService interface {
	GetSettings() (*models.QueueSettings, error)
	UpdateSettings(input UpdateSettingsInput) (*models.QueueSettings, error)
	SetActive(active bool) (*models.QueueSettings, error)
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
	outboxRepo   repositories.OutboxRepository
	db           *sql.DB
}

// NewSettingsService creates a new instance of SettingsService.
func NewSettingsService(sr repositories.SettingsRepository, or repositories.OutboxRepository, db *sql.DB) SettingsService {
	return &settingsService{settingsRepo: sr, outboxRepo: or, db: db}
}

func (s *settingsService) GetSettings() (*models.QueueSettings, error) {
	return s.settingsRepo.GetSettings()
}

func (s *settingsService) UpdateSettings(input UpdateSettingsInput) (*models.QueueSettings, error) {
	if err := ValidateClock(input.OpeningTime); err != nil {
		return nil, err
	}
	if err := ValidateClock(input.ClosingTime); err != nil {
		return nil, err
	}
	if input.MaxQueueSize <= 0 {
		return nil, fmt.Errorf("%w: max queue size must be positive", ErrValidation)
	}

	return s.apply(func(settings *models.QueueSettings) {
		settings.Active = input.Active
		settings.OpeningTime = input.OpeningTime
		settings.ClosingTime = input.ClosingTime
		settings.MaxQueueSize = input.MaxQueueSize
	})
}

// SetActive is the panic switch: it closes or reopens the gate without
// touching the rest of the settings. Tickets already in the queue continue
// through their lifecycle either way.
func (s *settingsService) SetActive(active bool) (*models.QueueSettings, error) {
	return s.apply(func(settings *models.QueueSettings) {
		settings.Active = active
	})
}

func (s *settingsService) apply(mutate func(*models.QueueSettings)) (*models.QueueSettings, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	settings, err := s.settingsRepo.GetSettingsForUpdate(tx)
	if err != nil {
		return nil, err
	}
	mutate(settings)

	if err := s.settingsRepo.UpdateSettings(tx, settings); err != nil {
		return nil, err
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventSettingsUpdated, settings); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settings transaction: %w", err)
	}
	return s.settingsRepo.GetSettings()
}
