package services

import (
	"database/sql"
	"errors"
	"fmt"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
)

// --- Data Transfer Objects (DTOs) ---

// CreateServiceInput describes a new catalog service.
type CreateServiceInput struct {
	Name            string  `json:"name" binding:"required"`
	Price           float64 `json:"price" binding:"required,gt=0"`
	DurationMinutes int     `json:"duration_minutes"`
}

// UpdateServiceInput edits a catalog service. Existing cart lines keep their
// snapshots; only future attaches see the new values.
type UpdateServiceInput struct {
	Name            string  `json:"name" binding:"required"`
	Price           float64 `json:"price" binding:"required,gt=0"`
	DurationMinutes int     `json:"duration_minutes"`
	Active          bool    `json:"active"`
}

// CreateBarberInput registers a chair. UserID links an existing account;
// nil creates a shell barber to be linked later.
type CreateBarberInput struct {
	UserID               *int64  `json:"user_id"`
	DisplayName          string  `json:"display_name" binding:"required"`
	CommissionPercentage float64 `json:"commission_percentage"`
	DirectEntry          bool    `json:"direct_entry"`
}

// UpdateBarberInput edits a barber profile.
type UpdateBarberInput struct {
	DisplayName          string  `json:"display_name" binding:"required"`
	Available            bool    `json:"available"`
	CommissionPercentage float64 `json:"commission_percentage"`
	DirectEntry          bool    `json:"direct_entry"`
}

// --- End of DTOs ---

// CatalogService manages the service menu and the barber roster.
type CatalogService interface {
	CreateService(input CreateServiceInput) (*models.Service, error)
	GetService(serviceID int64) (*models.Service, error)
	ListServices(activeOnly bool) ([]models.Service, error)
	UpdateService(serviceID int64, input UpdateServiceInput) (*models.Service, error)
	DeleteService(serviceID int64) error

	CreateBarber(input CreateBarberInput) (*models.Barber, error)
	GetBarber(barberID int64) (*models.Barber, error)
	GetBarberByUserID(userID int64) (*models.Barber, error)
	ListBarbers(includeOffline bool) ([]models.Barber, error)
	UpdateBarber(barberID int64, input UpdateBarberInput) (*models.Barber, error)
	SetBarberStatus(barberID int64, status string) (*models.Barber, error)
	SetCommission(barberID int64, percentage float64) (*models.Barber, error)
}

type catalogService struct {
	serviceRepo repositories.ServiceRepository
	barberRepo  repositories.BarberRepository
	db          *sql.DB
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(sr repositories.ServiceRepository, br repositories.BarberRepository, db *sql.DB) CatalogService {
	return &catalogService{serviceRepo: sr, barberRepo: br, db: db}
}

func (s *catalogService) CreateService(input CreateServiceInput) (*models.Service, error) {
	if input.DurationMinutes <= 0 {
		input.DurationMinutes = defaultServiceMinutes
	}
	service := &models.Service{
		Name:            input.Name,
		Price:           input.Price,
		DurationMinutes: input.DurationMinutes,
		Active:          true,
	}
	if _, err := s.serviceRepo.CreateService(s.db, service); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *catalogService) GetService(serviceID int64) (*models.Service, error) {
	service, err := s.serviceRepo.GetServiceByID(serviceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return service, nil
}

func (s *catalogService) ListServices(activeOnly bool) ([]models.Service, error) {
	return s.serviceRepo.GetServices(activeOnly)
}

func (s *catalogService) UpdateService(serviceID int64, input UpdateServiceInput) (*models.Service, error) {
	service := &models.Service{
		ID:              serviceID,
		Name:            input.Name,
		Price:           input.Price,
		DurationMinutes: input.DurationMinutes,
		Active:          input.Active,
	}
	if service.DurationMinutes <= 0 {
		service.DurationMinutes = defaultServiceMinutes
	}
	if err := s.serviceRepo.UpdateService(s.db, service); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return s.GetService(serviceID)
}

// DeleteService removes an unused service outright; a service with history
// is deactivated instead so old carts and records keep resolving.
func (s *catalogService) DeleteService(serviceID int64) error {
	referenced, err := s.serviceRepo.IsServiceReferenced(serviceID)
	if err != nil {
		return err
	}
	if referenced {
		if err := s.serviceRepo.SetServiceActive(s.db, serviceID, false); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrServiceNotFound
			}
			return err
		}
		return fmt.Errorf("%w: service ID %d deactivated instead", ErrServiceInUse, serviceID)
	}

	if err := s.serviceRepo.DeleteService(s.db, serviceID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrServiceNotFound
		}
		return err
	}
	return nil
}

func (s *catalogService) CreateBarber(input CreateBarberInput) (*models.Barber, error) {
	if input.CommissionPercentage < 0 || input.CommissionPercentage > 100 {
		return nil, fmt.Errorf("%w: commission percentage must be between 0 and 100", ErrValidation)
	}
	barber := &models.Barber{
		UserID:               input.UserID,
		DisplayName:          input.DisplayName,
		Available:            true,
		Status:               models.BarberStatusOffline,
		CommissionPercentage: input.CommissionPercentage,
		DirectEntry:          input.DirectEntry,
	}
	if _, err := s.barberRepo.CreateBarber(s.db, barber); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: user already linked to a barber", ErrValidation)
		}
		return nil, err
	}
	return barber, nil
}

func (s *catalogService) GetBarber(barberID int64) (*models.Barber, error) {
	barber, err := s.barberRepo.GetBarberByID(barberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, err
	}
	return barber, nil
}

func (s *catalogService) GetBarberByUserID(userID int64) (*models.Barber, error) {
	barber, err := s.barberRepo.GetBarberByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, err
	}
	return barber, nil
}

func (s *catalogService) ListBarbers(includeOffline bool) ([]models.Barber, error) {
	return s.barberRepo.GetBarbers(includeOffline)
}

func (s *catalogService) UpdateBarber(barberID int64, input UpdateBarberInput) (*models.Barber, error) {
	if input.CommissionPercentage < 0 || input.CommissionPercentage > 100 {
		return nil, fmt.Errorf("%w: commission percentage must be between 0 and 100", ErrValidation)
	}
	barber := &models.Barber{
		ID:                   barberID,
		DisplayName:          input.DisplayName,
		Available:            input.Available,
		CommissionPercentage: input.CommissionPercentage,
		DirectEntry:          input.DirectEntry,
	}
	if err := s.barberRepo.UpdateBarber(s.db, barber); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, err
	}
	return s.GetBarber(barberID)
}

func (s *catalogService) SetBarberStatus(barberID int64, status string) (*models.Barber, error) {
	switch status {
	case models.BarberStatusOnline, models.BarberStatusAway, models.BarberStatusOffline:
	default:
		return nil, fmt.Errorf("%w: unknown barber status %q", ErrValidation, status)
	}
	if err := s.barberRepo.UpdateBarberStatus(s.db, barberID, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, err
	}
	return s.GetBarber(barberID)
}

func (s *catalogService) SetCommission(barberID int64, percentage float64) (*models.Barber, error) {
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("%w: commission percentage must be between 0 and 100", ErrValidation)
	}
	if err := s.barberRepo.UpdateCommissionPercentage(s.db, barberID, percentage); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, err
	}
	return s.GetBarber(barberID)
}
