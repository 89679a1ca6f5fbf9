package classroom

import (
	"context"
	"testing"
	"time"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/dictation"
	"github.com/romangrishanov/ditado/core/user"
)

type fakeRepo struct {
	classrooms  map[string]Classroom
	assignments map[string]Assignment
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		classrooms:  make(map[string]Classroom),
		assignments: make(map[string]Assignment),
	}
}

func (r *fakeRepo) CreateClassroom(_ context.Context, cls Classroom) (Classroom, error) {
	r.classrooms[cls.ID] = cls
	return cls, nil
}

func (r *fakeRepo) GetClassroomByID(_ context.Context, id string) (Classroom, error) {
	if cls, ok := r.classrooms[id]; ok {
		return cls, nil
	}
	return Classroom{}, ErrNotFound
}

func (r *fakeRepo) FilterClassrooms(_ context.Context, _ QueryFilter, _ ...core.DBOrdering) ([]Classroom, error) {
	res := make([]Classroom, 0, len(r.classrooms))
	for _, cls := range r.classrooms {
		res = append(res, cls)
	}
	return res, nil
}

func (r *fakeRepo) UpdateClassroom(_ context.Context, cls Classroom, isActive *bool) (Classroom, error) {
	orig, ok := r.classrooms[cls.ID]
	if !ok {
		return Classroom{}, ErrNotFound
	}
	if cls.Name != "" {
		orig.Name = cls.Name
	}
	if cls.Grade != "" {
		orig.Grade = cls.Grade
	}
	if cls.SchoolYear != "" {
		orig.SchoolYear = cls.SchoolYear
	}
	if cls.Semester != "" {
		orig.Semester = cls.Semester
	}
	if cls.Description != "" {
		orig.Description = cls.Description
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = cls.UpdatedAt
	r.classrooms[cls.ID] = orig
	return orig, nil
}

func (r *fakeRepo) DeleteClassroomsByID(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.classrooms, id)
	}
	return nil
}

func (r *fakeRepo) AddStudent(_ context.Context, classroomID, studentID string) error {
	cls := r.classrooms[classroomID]
	cls.StudentIDs = append(cls.StudentIDs, studentID)
	r.classrooms[classroomID] = cls
	return nil
}

func (r *fakeRepo) RemoveStudent(_ context.Context, classroomID, studentID string) error {
	cls := r.classrooms[classroomID]
	for i, id := range cls.StudentIDs {
		if id == studentID {
			cls.StudentIDs = append(cls.StudentIDs[:i], cls.StudentIDs[i+1:]...)
			break
		}
	}
	r.classrooms[classroomID] = cls
	return nil
}

func (r *fakeRepo) CreateAssignment(_ context.Context, asg Assignment) (Assignment, error) {
	r.assignments[asg.ID] = asg
	return asg, nil
}

func (r *fakeRepo) GetAssignmentByID(_ context.Context, id string) (Assignment, error) {
	if asg, ok := r.assignments[id]; ok {
		return asg, nil
	}
	return Assignment{}, ErrAssignmentNotFound
}

func (r *fakeRepo) FilterAssignments(_ context.Context, classroomID string) ([]Assignment, error) {
	var res []Assignment
	for _, asg := range r.assignments {
		if asg.ClassroomID == classroomID {
			res = append(res, asg)
		}
	}
	return res, nil
}

func (r *fakeRepo) DeleteAssignmentsByID(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.assignments, id)
	}
	return nil
}

type fakeUserSvc struct {
	users map[string]user.User
}

func (svc fakeUserSvc) GetByID(_ context.Context, id string) (user.User, error) {
	if usr, ok := svc.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

type fakeDictSvc struct {
	dictations map[string]dictation.Dictation
	firsts     []dictation.Attempt
}

func (svc fakeDictSvc) GetByID(_ context.Context, id string) (dictation.Dictation, error) {
	if d, ok := svc.dictations[id]; ok {
		return d, nil
	}
	return dictation.Dictation{}, dictation.ErrNotFound
}

func (svc fakeDictSvc) FirstAttempts(_ context.Context, _ string) ([]dictation.Attempt, error) {
	return svc.firsts, nil
}

func wrongAnswer(kind dictation.ErrorKind, word string) dictation.AttemptAnswer {
	return dictation.AttemptAnswer{Expected: word, Correct: false, ErrorKind: kind}
}

func TestService_AssignmentReport(t *testing.T) {
	repo := newFakeRepo()
	dueAt := time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)

	repo.classrooms["c1"] = Classroom{
		ID:         "c1",
		Name:       "4º ano A",
		TeacherID:  "teacher1",
		StudentIDs: []string{"s1", "s2", "s3"},
	}
	repo.assignments["a1"] = Assignment{
		ID:          "a1",
		ClassroomID: "c1",
		DictationID: "d1",
		DueAt:       dueAt,
	}

	usrSvc := fakeUserSvc{users: map[string]user.User{
		"s1": {ID: "s1", Name: "Alice"},
		"s2": {ID: "s2", Name: "Bruno"},
	}}
	dictSvc := fakeDictSvc{firsts: []dictation.Attempt{
		{
			ID: "att1", DictationID: "d1", StudentID: "s1", Score: 50,
			SubmittedAt: dueAt.Add(-time.Hour),
			Answers: []dictation.AttemptAnswer{
				{Correct: true},
				wrongAnswer(dictation.KindAccent, "pássaro"),
				wrongAnswer(dictation.KindAccent, "árvore"),
				wrongAnswer(dictation.KindSpelling, "cachorro"),
			},
		},
		{
			ID: "att2", DictationID: "d1", StudentID: "s2", Score: 75,
			SubmittedAt: dueAt.Add(time.Hour), // late
			Answers: []dictation.AttemptAnswer{
				{Correct: true},
				{Correct: true},
				{Correct: true},
				wrongAnswer(dictation.KindSpelling, "cachorro"),
			},
		},
		// not in the classroom; must be ignored
		{ID: "att3", DictationID: "d1", StudentID: "outsider", Score: 100},
	}}

	svc := NewService(repo, usrSvc, dictSvc)

	summary, err := svc.AssignmentReport(context.Background(), "a1")
	if err != nil {
		t.Fatalf("AssignmentReport() failed: %v", err)
	}

	if summary.ClassSize != 3 {
		t.Errorf("ClassSize = %d; want 3", summary.ClassSize)
	}
	if summary.SubmittedCount != 2 {
		t.Errorf("SubmittedCount = %d; want 2", summary.SubmittedCount)
	}
	if summary.AverageScore != 62.5 {
		t.Errorf("AverageScore = %v; want 62.5", summary.AverageScore)
	}
	if len(summary.Students) != 2 {
		t.Fatalf("len(Students) = %d; want 2", len(summary.Students))
	}

	alice := summary.Students[0]
	if alice.StudentName != "Alice" {
		t.Errorf("StudentName = %q; want Alice", alice.StudentName)
	}
	if alice.Late {
		t.Error("Alice submitted before the due date")
	}
	if alice.ErrorCount != 3 || alice.WordCount != 4 {
		t.Errorf("Alice errors/words = %d/%d; want 3/4", alice.ErrorCount, alice.WordCount)
	}
	if alice.MostCommonError != dictation.KindAccent {
		t.Errorf("Alice MostCommonError = %s; want %s", alice.MostCommonError, dictation.KindAccent)
	}

	bruno := summary.Students[1]
	if !bruno.Late {
		t.Error("Bruno submitted after the due date")
	}

	if len(summary.KindCounts) != 2 {
		t.Fatalf("len(KindCounts) = %d; want 2", len(summary.KindCounts))
	}
	// accent (2) and spelling (2) tie; taxonomy order breaks the tie
	if summary.KindCounts[0].Count != 2 || summary.KindCounts[1].Count != 2 {
		t.Errorf("KindCounts = %+v", summary.KindCounts)
	}
	for _, kc := range summary.KindCounts {
		if kc.Description == "" {
			t.Errorf("missing description for %s", kc.Kind)
		}
	}

	// cachorro was missed by both students
	if len(summary.WordCounts) != 3 {
		t.Fatalf("len(WordCounts) = %d; want 3", len(summary.WordCounts))
	}
	if wc := summary.WordCounts[0]; wc.Word != "cachorro" || wc.Count != 2 {
		t.Errorf("WordCounts[0] = %+v; want cachorro missed twice", wc)
	}
}

func TestService_AssignmentReport_noDueDate(t *testing.T) {
	repo := newFakeRepo()
	repo.classrooms["c1"] = Classroom{ID: "c1", TeacherID: "teacher1", StudentIDs: []string{"s1"}}
	repo.assignments["a1"] = Assignment{ID: "a1", ClassroomID: "c1", DictationID: "d1"}

	dictSvc := fakeDictSvc{firsts: []dictation.Attempt{
		{ID: "att1", DictationID: "d1", StudentID: "s1", Score: 100, SubmittedAt: time.Now().UTC()},
	}}
	svc := NewService(repo, fakeUserSvc{}, dictSvc)

	summary, err := svc.AssignmentReport(context.Background(), "a1")
	if err != nil {
		t.Fatalf("AssignmentReport() failed: %v", err)
	}
	if summary.Students[0].Late {
		t.Error("no due date means never late")
	}
}

func TestService_AddStudent(t *testing.T) {
	repo := newFakeRepo()
	repo.classrooms["c1"] = Classroom{ID: "c1", TeacherID: "teacher1"}

	usrSvc := fakeUserSvc{users: map[string]user.User{
		"s1":       {ID: "s1", Name: "Alice", Roles: user.StudentRoles},
		"teacher2": {ID: "teacher2", Name: "Prof. Zé", Roles: user.TeacherRoles},
	}}
	svc := NewService(repo, usrSvc, fakeDictSvc{})
	ctx := context.Background()

	if err := svc.AddStudent(ctx, "c1", "s1", "intruder", false); err != ErrNotOwner {
		t.Errorf("AddStudent() by non-owner = %v; want %v", err, ErrNotOwner)
	}
	if err := svc.AddStudent(ctx, "c1", "teacher2", "teacher1", false); err != ErrNotAStudent {
		t.Errorf("AddStudent() with a teacher = %v; want %v", err, ErrNotAStudent)
	}
	if err := svc.AddStudent(ctx, "c1", "s1", "teacher1", false); err != nil {
		t.Fatalf("AddStudent() failed: %v", err)
	}
	if err := svc.AddStudent(ctx, "c1", "s1", "teacher1", false); err != ErrAlreadyEnrolled {
		t.Errorf("AddStudent() twice = %v; want %v", err, ErrAlreadyEnrolled)
	}
}

func TestService_AssignDictation(t *testing.T) {
	repo := newFakeRepo()
	repo.classrooms["c1"] = Classroom{ID: "c1", TeacherID: "teacher1"}

	dictSvc := fakeDictSvc{dictations: map[string]dictation.Dictation{
		"d1": {ID: "d1", Title: "Animais", IsActive: true},
		"d2": {ID: "d2", Title: "Inativo", IsActive: false},
	}}
	svc := NewService(repo, fakeUserSvc{}, dictSvc)
	ctx := context.Background()

	if _, err := svc.AssignDictation(ctx, "c1", NewAssignment{DictationID: "d2"}, "teacher1", false); err != dictation.ErrInactive {
		t.Errorf("AssignDictation() of inactive = %v; want %v", err, dictation.ErrInactive)
	}

	asg, err := svc.AssignDictation(ctx, "c1", NewAssignment{DictationID: "d1"}, "teacher1", false)
	if err != nil {
		t.Fatalf("AssignDictation() failed: %v", err)
	}
	if asg.DictationTitle != "Animais" {
		t.Errorf("DictationTitle = %q; want Animais", asg.DictationTitle)
	}
	if !asg.DueAt.IsZero() {
		t.Error("DueAt should stay zero when not provided")
	}
}
