package dictation

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/romangrishanov/ditado/core"
)

type fakeRepo struct {
	dictations map[string]Dictation
	attempts   []Attempt
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{dictations: make(map[string]Dictation)}
}

func (r *fakeRepo) CreateDictation(_ context.Context, d Dictation) (Dictation, error) {
	r.dictations[d.ID] = d
	return d, nil
}

func (r *fakeRepo) GetDictationByID(_ context.Context, id string) (Dictation, error) {
	if d, ok := r.dictations[id]; ok {
		return d, nil
	}
	return Dictation{}, ErrNotFound
}

func (r *fakeRepo) FilterDictations(_ context.Context, _ QueryFilter, _ ...core.DBOrdering) ([]Dictation, error) {
	res := make([]Dictation, 0, len(r.dictations))
	for _, d := range r.dictations {
		res = append(res, d)
	}
	return res, nil
}

func (r *fakeRepo) UpdateDictation(_ context.Context, d Dictation, isActive *bool) (Dictation, error) {
	orig, ok := r.dictations[d.ID]
	if !ok {
		return Dictation{}, ErrNotFound
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
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = d.UpdatedAt
	r.dictations[d.ID] = orig
	return orig, nil
}

func (r *fakeRepo) SetDictationCategories(_ context.Context, _ string, _ []string) error { return nil }

func (r *fakeRepo) DeleteDictationsByID(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.dictations, id)
	}
	return nil
}

func (r *fakeRepo) CreateAttempt(_ context.Context, att Attempt) (Attempt, error) {
	r.attempts = append(r.attempts, att)
	return att, nil
}

func (r *fakeRepo) FilterAttempts(_ context.Context, filter AttemptFilter) ([]Attempt, error) {
	var res []Attempt
	for _, att := range r.attempts {
		if filter.DictationID != "" && att.DictationID != filter.DictationID {
			continue
		}
		if filter.StudentID != "" && att.StudentID != filter.StudentID {
			continue
		}
		res = append(res, att)
	}
	return res, nil
}

type fakeCatSvc struct{}

func (fakeCatSvc) ValidateIDs([]string) error { return nil }
func (fakeCatSvc) RefsByID(ids []string) ([]CategoryRef, error) {
	refs := make([]CategoryRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, CategoryRef{ID: id, Name: "cat " + id})
	}
	return refs, nil
}

func newTestService(t *testing.T) (Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, fakeCatSvc{}), repo
}

func createDictation(t *testing.T, svc Service, text string) Dictation {
	t.Helper()
	d, err := svc.Create(context.Background(), NewDictation{Title: "Ditado 1", Text: text}, "author1", "Prof. Ana")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return d
}

func TestService_Create(t *testing.T) {
	svc, _ := newTestService(t)

	audio := "data:audio/ogg;base64," + base64.StdEncoding.EncodeToString([]byte("some audio"))
	d, err := svc.Create(context.Background(), NewDictation{
		Title: "Animais",
		Text:  "O [cachorro] late e a [gata] mia.",
		Audio: audio,
	}, "author1", "Prof. Ana")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if d.ID == "" {
		t.Error("dictation has no ID")
	}
	if !d.IsActive {
		t.Error("new dictation should be active")
	}
	if d.AuthorID != "author1" || d.AuthorName != "Prof. Ana" {
		t.Errorf("author = %s/%s", d.AuthorID, d.AuthorName)
	}
	if len(d.Segments) != 5 {
		t.Fatalf("len(Segments) = %d; want 5", len(d.Segments))
	}
	for i, seg := range d.Segments {
		if seg.ID == "" {
			t.Errorf("segment %d has no ID", i)
		}
	}
	if string(d.Audio) != "some audio" || d.AudioMime != "audio/ogg" {
		t.Errorf("audio = %q (%s)", d.Audio, d.AudioMime)
	}
}

func TestService_GetForTaking(t *testing.T) {
	svc, repo := newTestService(t)
	d := createDictation(t, svc, "A [casa] é azul.")

	view, err := svc.GetForTaking(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetForTaking() failed: %v", err)
	}

	for _, seg := range view.Segments {
		if seg.Kind == Blank && seg.Content != "" {
			t.Errorf("blank content leaked to student view: %q", seg.Content)
		}
	}
	// the stored dictation keeps its answers
	stored := repo.dictations[d.ID]
	if stored.Segments[1].Content != "casa" {
		t.Errorf("stored blank = %q; want casa", stored.Segments[1].Content)
	}

	// inactive dictations cannot be taken
	inactive := false
	if _, err = svc.Update(context.Background(), d.ID, UpdateDictation{IsActive: &inactive}, "author1", false); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if _, err = svc.GetForTaking(context.Background(), d.ID); err != ErrInactive {
		t.Errorf("GetForTaking() on inactive = %v; want %v", err, ErrInactive)
	}
}

func TestService_Submit(t *testing.T) {
	svc, _ := newTestService(t)
	d := createDictation(t, svc, "O [cachorro] late e a [gata] mia.")

	answers := map[string]string{
		d.Segments[1].ID: "cachoro",
		d.Segments[3].ID: "gata",
	}
	att, err := svc.Submit(context.Background(), d.ID, "student1", answers)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	if att.Score != 50 {
		t.Errorf("Score = %v; want 50", att.Score)
	}
	if len(att.Answers) != 2 {
		t.Fatalf("len(Answers) = %d; want 2", len(att.Answers))
	}
	if att.Answers[0].ErrorKind != KindSpelling {
		t.Errorf("Answers[0].ErrorKind = %s; want %s", att.Answers[0].ErrorKind, KindSpelling)
	}
	if !att.Answers[1].Correct {
		t.Error("Answers[1] should be correct")
	}

	// unknown dictation
	if _, err = svc.Submit(context.Background(), "nope", "student1", nil); err != ErrNotFound {
		t.Errorf("Submit() on unknown dictation = %v; want %v", err, ErrNotFound)
	}
}

func TestService_UpdatePermissions(t *testing.T) {
	svc, _ := newTestService(t)
	d := createDictation(t, svc, "A [casa] é azul.")

	if _, err := svc.Update(context.Background(), d.ID, UpdateDictation{Title: "Hacked"}, "intruder", false); err != ErrNotAuthor {
		t.Errorf("Update() by non-author = %v; want %v", err, ErrNotAuthor)
	}
	if _, err := svc.Update(context.Background(), d.ID, UpdateDictation{Title: "Admin edit"}, "intruder", true); err != nil {
		t.Errorf("Update() by admin failed: %v", err)
	}
	if _, err := svc.Update(context.Background(), d.ID, UpdateDictation{Title: "Author edit"}, "author1", false); err != nil {
		t.Errorf("Update() by author failed: %v", err)
	}
}

func TestService_UpdateKeepsSegments(t *testing.T) {
	svc, repo := newTestService(t)
	d := createDictation(t, svc, "A [casa] é azul.")

	_, err := svc.Update(context.Background(), d.ID, UpdateDictation{
		Title:       "Novo título",
		Description: "Nova descrição",
	}, "author1", false)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	// segments anchor graded attempt answers and must survive metadata edits
	stored := repo.dictations[d.ID]
	if len(stored.Segments) != len(d.Segments) {
		t.Fatalf("len(Segments) = %d; want %d", len(stored.Segments), len(d.Segments))
	}
	for i, seg := range stored.Segments {
		if seg.ID != d.Segments[i].ID || seg.Content != d.Segments[i].Content {
			t.Errorf("segment %d changed: %+v", i, seg)
		}
	}
}

func TestService_UpdateKeepsDescription(t *testing.T) {
	svc, repo := newTestService(t)
	d, err := svc.Create(context.Background(), NewDictation{
		Title:       "Ditado 1",
		Description: "Sons do S",
		Text:        "A [casa] é azul.",
	}, "author1", "Prof. Ana")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if _, err = svc.Update(context.Background(), d.ID, UpdateDictation{Title: "Novo título"}, "author1", false); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if desc := repo.dictations[d.ID].Description; desc != "Sons do S" {
		t.Errorf("Description = %q; want Sons do S", desc)
	}
}

func TestService_Delete(t *testing.T) {
	svc, repo := newTestService(t)
	d := createDictation(t, svc, "A [casa] é azul.")

	if err := svc.Delete(context.Background(), "intruder", false, d.ID); err != ErrNotAuthor {
		t.Errorf("Delete() by non-author = %v; want %v", err, ErrNotAuthor)
	}
	if err := svc.Delete(context.Background(), "author1", false, d.ID); err != nil {
		t.Fatalf("Delete() by author failed: %v", err)
	}
	if len(repo.dictations) != 0 {
		t.Error("dictation not deleted")
	}
}

func TestService_FirstAttempts(t *testing.T) {
	svc, _ := newTestService(t)
	d := createDictation(t, svc, "A [casa] é azul.")
	blankID := d.Segments[1].ID

	submit := func(student, answer string) Attempt {
		att, err := svc.Submit(context.Background(), d.ID, student, map[string]string{blankID: answer})
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		return att
	}
	first1 := submit("student1", "caza")
	submit("student1", "casa")
	first2 := submit("student2", "casa")

	firsts, err := svc.FirstAttempts(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("FirstAttempts() failed: %v", err)
	}
	if len(firsts) != 2 {
		t.Fatalf("len(firsts) = %d; want 2", len(firsts))
	}
	if firsts[0].ID != first1.ID || firsts[1].ID != first2.ID {
		t.Errorf("firsts = %+v", firsts)
	}
}
