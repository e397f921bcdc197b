package service

import (
	"context"
	"strings"

	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/repository"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name string
	Icon string
	Type domain.TransactionKind
}

// CategoryService manages the caller's categories.
type CategoryService struct {
	categories repository.CategoryRepository
	resolver   ProfileResolver
}

// NewCategoryService constructs service.
func NewCategoryService(categories repository.CategoryRepository, resolver ProfileResolver) *CategoryService {
	return &CategoryService{categories: categories, resolver: resolver}
}

// Save creates a category; names are unique per profile.
func (s *CategoryService) Save(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	exists, err := s.categories.ExistsByName(ctx, profile.ID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, categoryConflict(name)
	}

	category := &domain.Category{
		ProfileID: profile.ID,
		Name:      name,
		Icon:      in.Icon,
		Type:      in.Type,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, categoryConflict(name)
		}
		return nil, err
	}
	return category, nil
}

// List returns every category of the caller.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}
	return s.categories.ListByProfile(ctx, profile.ID)
}

// ListByType returns the caller's categories of one kind.
func (s *CategoryService) ListByType(ctx context.Context, kind domain.TransactionKind) ([]domain.Category, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}
	return s.categories.ListByType(ctx, profile.ID, kind)
}

// Update rewrites a category owned by the caller.
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (*domain.Category, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, id, profile.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("category", map[string]any{"id": id})
		}
		return nil, err
	}

	category.Name = strings.TrimSpace(in.Name)
	category.Icon = in.Icon
	category.Type = in.Type
	if err := s.categories.Update(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, categoryConflict(category.Name)
		}
		return nil, err
	}
	return category, nil
}

func categoryConflict(name string) error {
	return apperrors.NewConflict("category with this name already exists", map[string]any{"name": name})
}
