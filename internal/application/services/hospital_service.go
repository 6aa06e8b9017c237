package services

import (
	"context"

	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/repositories"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// HospitalService manages the singleton hospital profile
type HospitalService struct {
	repo     repositories.HospitalRepository
	notifier ChangeNotifier
}

// NewHospitalService creates a new hospital service
func NewHospitalService(repo repositories.HospitalRepository, notifier ChangeNotifier) *HospitalService {
	return &HospitalService{repo: repo, notifier: notifierOrNop(notifier)}
}

// Get returns the saved profile
func (s *HospitalService) Get(ctx context.Context) (*entities.HospitalProfile, error) {
	profile, err := s.repo.Get(ctx)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewNotFoundError("hospital profile has not been saved")
	}
	return profile, err
}

// Save validates and stores the profile. The first save creates it; later
// saves update it in place and keep its creation time.
func (s *HospitalService) Save(ctx context.Context, profile *entities.HospitalProfile) error {
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, profile); err != nil {
		return err
	}
	s.notifier.Notify(ctx, entities.CollectionHospital, entities.ChangeUpdated, profile.ID)
	return nil
}

// Clear removes the profile
func (s *HospitalService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.notifier.Notify(ctx, entities.CollectionHospital, entities.ChangeCleared, 0)
	return nil
}
