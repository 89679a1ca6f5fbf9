package dummyrepos

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/dictation"
)

type dictationRepository struct {
	mutex    sync.RWMutex
	db       map[string]*dictation.Dictation
	attempts []dictation.Attempt
}

var _ dictation.Repository = (*dictationRepository)(nil)

func NewDictationRepository() *dictationRepository {
	return &dictationRepository{db: make(map[string]*dictation.Dictation)}
}

func (repo *dictationRepository) CreateDictation(_ context.Context, d dictation.Dictation) (dictation.Dictation, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.db[d.ID] = &d
	return d, nil
}

func (repo *dictationRepository) GetDictationByID(_ context.Context, id string) (dictation.Dictation, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	d, ok := repo.db[id]
	if !ok {
		return dictation.Dictation{}, dictation.ErrNotFound
	}
	return *d, nil
}

func (repo *dictationRepository) FilterDictations(_ context.Context, filter dictation.QueryFilter, orderings ...core.DBOrdering) ([]dictation.Dictation, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	matches := func(d *dictation.Dictation) bool {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(d.Title), search) &&
				!strings.Contains(strings.ToLower(d.Description), search) {
				return false
			}
		}
		if filter.CategoryID != "" {
			var found bool
			for _, ref := range d.Categories {
				if ref.ID == filter.CategoryID {
					found = true
				}
			}
			if !found {
				return false
			}
		}
		if filter.AuthorID != "" && d.AuthorID != filter.AuthorID {
			return false
		}
		if filter.IsActive != nil && d.IsActive != *filter.IsActive {
			return false
		}
		if !filter.CreatedFrom.IsZero() && d.CreatedAt.Before(filter.CreatedFrom) {
			return false
		}
		if !filter.CreatedTo.IsZero() && d.CreatedAt.After(filter.CreatedTo) {
			return false
		}
		return true
	}

	dictations := make([]dictation.Dictation, 0, len(repo.db))
	for _, d := range repo.db {
		if matches(d) {
			dictations = append(dictations, *d)
		}
	}
	sort.Slice(dictations, func(i, j int) bool { return dictations[i].CreatedAt.After(dictations[j].CreatedAt) })
	return dictations, nil
}

func (repo *dictationRepository) UpdateDictation(_ context.Context, d dictation.Dictation, isActive *bool) (dictation.Dictation, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	orig, ok := repo.db[d.ID]
	if !ok {
		return dictation.Dictation{}, dictation.ErrNotFound
	}

	if d.Title != "" {
		orig.Title = d.Title
	}
	if d.Description != "" {
		orig.Description = d.Description
	}
	if d.Audio != nil {
		orig.Audio = d.Audio
		orig.AudioMime = d.AudioMime
	}
	if !d.UpdatedAt.IsZero() {
		orig.UpdatedAt = d.UpdatedAt
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	return *orig, nil
}

func (repo *dictationRepository) SetDictationCategories(_ context.Context, id string, categoryIDs []string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	d, ok := repo.db[id]
	if !ok {
		return dictation.ErrNotFound
	}

	refs := make([]dictation.CategoryRef, 0, len(categoryIDs))
	for _, catID := range categoryIDs {
		refs = append(refs, dictation.CategoryRef{ID: catID})
	}
	d.Categories = refs
	return nil
}

func (repo *dictationRepository) DeleteDictationsByID(_ context.Context, ids ...string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db, id)
	}
	return nil
}

func (repo *dictationRepository) CreateAttempt(_ context.Context, att dictation.Attempt) (dictation.Attempt, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.attempts = append(repo.attempts, att)
	return att, nil
}

func (repo *dictationRepository) FilterAttempts(_ context.Context, filter dictation.AttemptFilter) ([]dictation.Attempt, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	atts := make([]dictation.Attempt, 0, len(repo.attempts))
	for _, att := range repo.attempts {
		if filter.DictationID != "" && att.DictationID != filter.DictationID {
			continue
		}
		if filter.StudentID != "" && att.StudentID != filter.StudentID {
			continue
		}
		atts = append(atts, att)
	}
	sort.SliceStable(atts, func(i, j int) bool { return atts[i].SubmittedAt.Before(atts[j].SubmittedAt) })
	return atts, nil
}
