package dummyrepos

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/category"
)

type categoryRepository struct {
	mutex sync.RWMutex
	db    map[string]*category.Category
}

var _ category.Repository = (*categoryRepository)(nil)

func NewCategoryRepository() *categoryRepository {
	return &categoryRepository{db: make(map[string]*category.Category)}
}

func (repo *categoryRepository) CheckNameUniqueness(_ context.Context, name string, excludedCategories ...category.Category) error {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	excluded := func(cat *category.Category) bool {
		for _, excl := range excludedCategories {
			if cat.ID == excl.ID {
				return true
			}
		}
		return false
	}

	for _, cat := range repo.db {
		if excluded(cat) {
			continue
		}
		if strings.EqualFold(cat.Name, name) {
			return category.ErrNameExists
		}
	}
	return nil
}

func (repo *categoryRepository) CreateCategory(_ context.Context, cat category.Category) (category.Category, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.db[cat.ID] = &cat
	return cat, nil
}

func (repo *categoryRepository) GetCategoryByID(_ context.Context, id string) (category.Category, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	cat, ok := repo.db[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	return *cat, nil
}

func (repo *categoryRepository) GetCategoriesByID(_ context.Context, ids []string) ([]category.Category, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	cats := make([]category.Category, 0, len(ids))
	for _, id := range ids {
		if cat, ok := repo.db[id]; ok {
			cats = append(cats, *cat)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (repo *categoryRepository) FilterCategories(_ context.Context, filter category.QueryFilter, orderings ...core.DBOrdering) ([]category.Category, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	cats := make([]category.Category, 0, len(repo.db))
	for _, cat := range repo.db {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(cat.Name), search) &&
				!strings.Contains(strings.ToLower(cat.Description), search) {
				continue
			}
		}
		cats = append(cats, *cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (repo *categoryRepository) UpdateCategory(_ context.Context, cat category.Category) (category.Category, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	orig, ok := repo.db[cat.ID]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	if cat.Name != "" {
		orig.Name = cat.Name
	}
	orig.Description = cat.Description
	if !cat.UpdatedAt.IsZero() {
		orig.UpdatedAt = cat.UpdatedAt
	}
	return *orig, nil
}

func (repo *categoryRepository) DeleteCategoriesByID(_ context.Context, ids ...string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db, id)
	}
	return nil
}
