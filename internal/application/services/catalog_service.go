package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/repositories"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// CatalogService handles business logic for the test catalog
type CatalogService struct {
	repo     repositories.TestDefinitionRepository
	notifier ChangeNotifier
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repositories.TestDefinitionRepository, notifier ChangeNotifier) *CatalogService {
	return &CatalogService{repo: repo, notifier: notifierOrNop(notifier)}
}

// Add validates def and stores it. Names are unique and compared exactly.
func (s *CatalogService) Add(ctx context.Context, def *entities.TestDefinition) error {
	def.Name = strings.TrimSpace(def.Name)
	if err := def.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.GetByName(ctx, def.Name)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}
	if existing != nil {
		return apperrors.NewDuplicateNameError(fmt.Sprintf("test %q already exists", def.Name))
	}

	// The unique index still rejects a concurrent insert of the same name.
	if err := s.repo.Create(ctx, def); err != nil {
		return err
	}
	s.notifier.Notify(ctx, entities.CollectionTests, entities.ChangeCreated, def.ID)
	return nil
}

// Update merges patch into test id. Renaming onto an existing name fails
// with a duplicate name error from the store.
func (s *CatalogService) Update(ctx context.Context, id int64, patch entities.TestDefinitionPatch) (*entities.TestDefinition, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	def, err := s.repo.Update(ctx, id, patch)
	if apperrors.IsNotFound(err) {
		return nil, testNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, entities.CollectionTests, entities.ChangeUpdated, id)
	return def, nil
}

// Delete removes test id and reports whether it existed. Encounters that
// used the test keep their snapshot.
func (s *CatalogService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.notifier.Notify(ctx, entities.CollectionTests, entities.ChangeDeleted, id)
	}
	return deleted, nil
}

// Get retrieves a test by ID
func (s *CatalogService) Get(ctx context.Context, id int64) (*entities.TestDefinition, error) {
	def, err := s.repo.GetByID(ctx, id)
	if apperrors.IsNotFound(err) {
		return nil, testNotFound(id)
	}
	return def, err
}

// GetByName retrieves a test by its exact name
func (s *CatalogService) GetByName(ctx context.Context, name string) (*entities.TestDefinition, error) {
	def, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("test %q not found", name))
	}
	return def, err
}

// List retrieves the whole catalog
func (s *CatalogService) List(ctx context.Context) ([]*entities.TestDefinition, error) {
	return s.repo.List(ctx)
}

// Search matches term case-insensitively against name and description. An
// empty term returns the whole catalog.
func (s *CatalogService) Search(ctx context.Context, term string) ([]*entities.TestDefinition, error) {
	tests, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tests, nil
	}

	matches := make([]*entities.TestDefinition, 0)
	for _, t := range tests {
		if strings.Contains(strings.ToLower(t.Name), term) || strings.Contains(strings.ToLower(t.Description), term) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

func testNotFound(id int64) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("test %d not found", id))
}
