package dictation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/romangrishanov/ditado/core"
)

var (
	// errors
	ErrNotFound     = errors.New("dictation not found")
	ErrNoBlanks     = errors.New("text must contain at least one [word] blank")
	ErrInvalidAudio = errors.New("invalid audio payload")
	ErrNotAuthor    = errors.New("only the author or an admin may modify a dictation")
	ErrInactive     = errors.New("dictation is not active")

	idFunc  = func() string { return uuid.New().String() } // mockable
	nowFunc = time.Now                                     // mockable
)

type (
	Repository interface {
		CreateDictation(ctx context.Context, d Dictation) (Dictation, error)
		GetDictationByID(ctx context.Context, id string) (Dictation, error)
		// FilterDictations applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Dictation.Title or Dictation.Description.
		FilterDictations(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Dictation, error)
		UpdateDictation(ctx context.Context, d Dictation, isActive *bool) (Dictation, error)
		SetDictationCategories(ctx context.Context, id string, categoryIDs []string) error
		DeleteDictationsByID(ctx context.Context, ids ...string) error

		CreateAttempt(ctx context.Context, att Attempt) (Attempt, error)
		// FilterAttempts returns attempts ordered by submission time, oldest first.
		FilterAttempts(ctx context.Context, filter AttemptFilter) ([]Attempt, error)
	}

	// CategoryService is the category-side dependency of this package;
	// implemented by the category package.
	CategoryService interface {
		ValidateIDs(ids []string) error
		RefsByID(ids []string) ([]CategoryRef, error)
	}

	Service interface {
		Create(ctx context.Context, nd NewDictation, authorID, authorName string) (Dictation, error)
		GetByID(ctx context.Context, id string) (Dictation, error)
		// GetForTaking returns the student view of an active dictation:
		// blanks are emptied and the audio is inlined as a data URI.
		GetForTaking(ctx context.Context, id string) (TakeView, error)
		Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Dictation, error)
		Update(ctx context.Context, id string, ud UpdateDictation, actorID string, isAdmin bool) (Dictation, error)
		Delete(ctx context.Context, actorID string, isAdmin bool, ids ...string) error

		// Submit grades a student's answers against the dictation and records the attempt.
		Submit(ctx context.Context, dictationID, studentID string, answers map[string]string) (Attempt, error)
		QueryAttempts(ctx context.Context, filter AttemptFilter) ([]Attempt, error)
		// FirstAttempts returns each student's earliest attempt at a dictation.
		FirstAttempts(ctx context.Context, dictationID string) ([]Attempt, error)
	}

	service struct {
		repo   Repository
		catSvc CategoryService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, catSvc CategoryService) Service {
	return &service{
		repo:   repo,
		catSvc: catSvc,
	}
}

func (svc *service) Create(ctx context.Context, nd NewDictation, authorID, authorName string) (Dictation, error) {
	now := nowFunc().UTC()
	d := Dictation{
		ID:          idFunc(),
		Title:       nd.Title,
		Description: nd.Description,
		IsActive:    true,
		AuthorID:    authorID,
		AuthorName:  authorName,
		Segments:    svc.buildSegments(nd.Text),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nd.Audio != "" {
		raw, mime, err := DecodeAudio(nd.Audio)
		if err != nil {
			return Dictation{}, err
		}
		d.Audio = raw
		d.AudioMime = mime
	}
	if len(nd.CategoryIDs) > 0 {
		refs, err := svc.catSvc.RefsByID(nd.CategoryIDs)
		if err != nil {
			return Dictation{}, err
		}
		d.Categories = refs
	}

	d, err := svc.repo.CreateDictation(ctx, d)
	if err != nil {
		return Dictation{}, err
	}
	if len(nd.CategoryIDs) > 0 {
		if err = svc.repo.SetDictationCategories(ctx, d.ID, nd.CategoryIDs); err != nil {
			return Dictation{}, err
		}
	}
	return d, nil
}

func (svc *service) buildSegments(text string) []Segment {
	segments := ParseText(text)
	for i := range segments {
		segments[i].ID = idFunc()
	}
	return segments
}

func (svc *service) GetByID(ctx context.Context, id string) (Dictation, error) {
	return svc.repo.GetDictationByID(ctx, id)
}

// TakeView is the student-facing rendition of a dictation: blank contents are
// withheld so the answers never reach the frontend.
type TakeView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	AudioDataURI string    `json:"audio,omitempty"`
	Segments     []Segment `json:"segments"`
}

func (svc *service) GetForTaking(ctx context.Context, id string) (TakeView, error) {
	d, err := svc.repo.GetDictationByID(ctx, id)
	if err != nil {
		return TakeView{}, err
	}
	if !d.IsActive {
		return TakeView{}, ErrInactive
	}

	segments := make([]Segment, len(d.Segments))
	copy(segments, d.Segments)
	for i, seg := range segments {
		if seg.Kind == Blank {
			segments[i].Content = ""
		}
	}

	return TakeView{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		AudioDataURI: d.AudioDataURI(),
		Segments:     segments,
	}, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Dictation, error) {
	return svc.repo.FilterDictations(ctx, *filter, orderings...)
}

func (svc *service) Update(ctx context.Context, id string, ud UpdateDictation, actorID string, isAdmin bool) (Dictation, error) {
	orig, err := svc.repo.GetDictationByID(ctx, id)
	if err != nil {
		return Dictation{}, err
	}
	if orig.AuthorID != actorID && !isAdmin {
		return Dictation{}, ErrNotAuthor
	}

	d := Dictation{
		ID:          id,
		Title:       ud.Title,
		Description: ud.Description,
		UpdatedAt:   nowFunc().UTC(),
	}
	if ud.Audio != "" {
		raw, mime, err := DecodeAudio(ud.Audio)
		if err != nil {
			return Dictation{}, err
		}
		d.Audio = raw
		d.AudioMime = mime
	}

	d, err = svc.repo.UpdateDictation(ctx, d, ud.IsActive)
	if err != nil {
		return Dictation{}, err
	}
	if ud.CategoryIDs != nil {
		if err = svc.repo.SetDictationCategories(ctx, id, ud.CategoryIDs); err != nil {
			return Dictation{}, err
		}
		refs, err := svc.catSvc.RefsByID(ud.CategoryIDs)
		if err != nil {
			return Dictation{}, err
		}
		d.Categories = refs
	}
	return d, nil
}

func (svc *service) Delete(ctx context.Context, actorID string, isAdmin bool, ids ...string) error {
	if !isAdmin {
		for _, id := range ids {
			d, err := svc.repo.GetDictationByID(ctx, id)
			if err != nil {
				return err
			}
			if d.AuthorID != actorID {
				return ErrNotAuthor
			}
		}
	}
	return svc.repo.DeleteDictationsByID(ctx, ids...)
}

func (svc *service) Submit(ctx context.Context, dictationID, studentID string, answers map[string]string) (Attempt, error) {
	d, err := svc.repo.GetDictationByID(ctx, dictationID)
	if err != nil {
		return Attempt{}, err
	}
	if !d.IsActive {
		return Attempt{}, ErrInactive
	}

	res := Grade(d.Segments, answers)

	att := Attempt{
		ID:          idFunc(),
		DictationID: dictationID,
		StudentID:   studentID,
		Score:       res.Score,
		Answers:     make([]AttemptAnswer, 0, len(res.Details)),
		SubmittedAt: nowFunc().UTC(),
	}
	for _, det := range res.Details {
		att.Answers = append(att.Answers, AttemptAnswer{
			SegmentID: det.SegmentID,
			Expected:  det.Expected,
			Provided:  det.Provided,
			Correct:   det.Correct,
			ErrorKind: det.ErrorKind,
		})
	}
	return svc.repo.CreateAttempt(ctx, att)
}

func (svc *service) QueryAttempts(ctx context.Context, filter AttemptFilter) ([]Attempt, error) {
	return svc.repo.FilterAttempts(ctx, filter)
}

func (svc *service) FirstAttempts(ctx context.Context, dictationID string) ([]Attempt, error) {
	atts, err := svc.repo.FilterAttempts(ctx, AttemptFilter{DictationID: dictationID})
	if err != nil {
		return nil, err
	}

	// attempts come back oldest first; keep the first one per student
	seen := make(map[string]bool, len(atts))
	firsts := make([]Attempt, 0, len(atts))
	for _, att := range atts {
		if seen[att.StudentID] {
			continue
		}
		seen[att.StudentID] = true
		firsts = append(firsts, att)
	}
	return firsts, nil
}
