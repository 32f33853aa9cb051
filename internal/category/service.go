package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/subtrack/internal/listing"
	"github.com/MrJamesThe3rd/subtrack/internal/validation"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context, filter ListFilter) (listing.Result[*Category], error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type Params struct {
	Name string `validate:"required,max=255"`
}

type ListFilter struct {
	Name *string
	Sort *listing.Sort
	Page listing.Page
}

func (p *Params) normalize() error {
	p.Name = strings.TrimSpace(p.Name)

	if err := validation.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params Params) (*Category, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	c := &Category{Name: params.Name}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) (listing.Result[*Category], error) {
	filter.Page = filter.Page.Normalize()
	return s.repo.ListCategories(ctx, filter)
}

// Rename changes the name of an existing category.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, params Params) (*Category, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = params.Name
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Delete removes the category. Expenses referencing it keep existing with no category.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, id)
}
