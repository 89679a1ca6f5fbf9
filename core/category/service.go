package category

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/dictation"
)

var (
	// errors
	ErrNotFound   = errors.New("category not found")
	ErrNameExists = errors.New("a category with this name already exists")
	ErrUnknownIDs = errors.New("unknown category ids")

	idFunc  = func() string { return uuid.New().String() } // mockable
	nowFunc = time.Now                                     // mockable
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excludedCategories ...Category) error
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		GetCategoryByID(ctx context.Context, id string) (Category, error)
		GetCategoriesByID(ctx context.Context, ids []string) ([]Category, error)
		// FilterCategories does a case-insensitive match on Category.Name or Category.Description.
		FilterCategories(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Category, error)
		UpdateCategory(ctx context.Context, cat Category) (Category, error)
		DeleteCategoriesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckUniqueness(name string, exclCategories ...Category) error
		Create(ctx context.Context, nc NewCategory) (Category, error)
		GetByID(ctx context.Context, id string) (Category, error)
		Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Category, error)
		Update(ctx context.Context, id string, uc UpdateCategory) (Category, error)
		Delete(ctx context.Context, ids ...string) error

		// dictation-side dependency
		ValidateIDs(ids []string) error
		RefsByID(ids []string) ([]dictation.CategoryRef, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)
var _ dictation.CategoryService = (Service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(name string, exclCategories ...Category) error {
	if err := svc.repo.CheckNameUniqueness(context.Background(), name, exclCategories...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewCategory) (Category, error) {
	now := nowFunc().UTC()
	cat := Category{
		ID:          idFunc(),
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCategory(ctx, cat)
}

func (svc *service) GetByID(ctx context.Context, id string) (Category, error) {
	return svc.repo.GetCategoryByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Category, error) {
	return svc.repo.FilterCategories(ctx, *filter, orderings...)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateCategory) (Category, error) {
	cat := Category{
		ID:          id,
		Name:        uc.Name,
		Description: uc.Description,
		UpdatedAt:   nowFunc().UTC(),
	}
	return svc.repo.UpdateCategory(ctx, cat)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCategoriesByID(ctx, ids...)
}

func (svc *service) ValidateIDs(ids []string) error {
	cats, err := svc.repo.GetCategoriesByID(context.Background(), ids)
	if err != nil {
		return err
	}
	if len(cats) != len(ids) {
		return ErrUnknownIDs
	}
	return nil
}

func (svc *service) RefsByID(ids []string) ([]dictation.CategoryRef, error) {
	cats, err := svc.repo.GetCategoriesByID(context.Background(), ids)
	if err != nil {
		return nil, err
	}
	refs := make([]dictation.CategoryRef, 0, len(cats))
	for _, cat := range cats {
		refs = append(refs, dictation.CategoryRef{ID: cat.ID, Name: cat.Name})
	}
	return refs, nil
}
