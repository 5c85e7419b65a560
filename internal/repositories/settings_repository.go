package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"
)

// SettingsRepository defines the interface for queue settings persistence.
// The table holds exactly one row (id = 1).
type SettingsRepository interface {
	GetSettings() (*models.QueueSettings, error)
	// GetSettingsForUpdate locks the singleton row until the caller's
	// transaction ends. Joins take this lock first so gate, capacity and
	// duplicate checks are serialized against concurrent joins and against
	// settings changes.
	GetSettingsForUpdate(executor SQLExecutor) (*models.QueueSettings, error)
	UpdateSettings(executor SQLExecutor, settings *models.QueueSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

const settingsSelect = `SELECT id, active, opening_time, closing_time, max_queue_size, updated_at
	FROM queue_settings
	WHERE id = 1`

func scanSettings(row scanner) (*models.QueueSettings, error) {
	settings := &models.QueueSettings{}
	err := row.Scan(&settings.ID, &settings.Active, &settings.OpeningTime,
		&settings.ClosingTime, &settings.MaxQueueSize, &settings.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingsRepository) GetSettings() (*models.QueueSettings, error) {
	settings, err := scanSettings(r.db.QueryRow(settingsSelect))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting queue settings: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingsRepository) GetSettingsForUpdate(executor SQLExecutor) (*models.QueueSettings, error) {
	settings, err := scanSettings(executor.QueryRow(settingsSelect + ` FOR UPDATE`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking queue settings: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingsRepository) UpdateSettings(executor SQLExecutor, settings *models.QueueSettings) error {
	query := `UPDATE queue_settings
	          SET active = $1, opening_time = $2, closing_time = $3, max_queue_size = $4, updated_at = $5
	          WHERE id = 1`
	result, err := executor.Exec(query,
		settings.Active, settings.OpeningTime, settings.ClosingTime, settings.MaxQueueSize, time.Now())
	if err != nil {
		return fmt.Errorf("%w: updating queue settings: %v", ErrDatabaseError, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for settings update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
