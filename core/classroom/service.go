package classroom

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/dictation"
	"github.com/romangrishanov/ditado/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("classroom not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrNotOwner           = errors.New("only the classroom's teacher or an admin may modify it")
	ErrNotAStudent        = errors.New("user is not a student")
	ErrAlreadyEnrolled    = errors.New("student is already in this classroom")

	idFunc  = func() string { return uuid.New().String() } // mockable
	nowFunc = time.Now                                     // mockable
)

type (
	Repository interface {
		CreateClassroom(ctx context.Context, cls Classroom) (Classroom, error)
		// GetClassroomByID loads the classroom with its StudentIDs.
		GetClassroomByID(ctx context.Context, id string) (Classroom, error)
		// FilterClassrooms applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Classroom.Name.
		FilterClassrooms(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Classroom, error)
		UpdateClassroom(ctx context.Context, cls Classroom, isActive *bool) (Classroom, error)
		DeleteClassroomsByID(ctx context.Context, ids ...string) error

		AddStudent(ctx context.Context, classroomID, studentID string) error
		RemoveStudent(ctx context.Context, classroomID, studentID string) error

		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// FilterAssignments returns a classroom's assignments, most recent first.
		FilterAssignments(ctx context.Context, classroomID string) ([]Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error
	}

	// UserService is the user-side dependency of this package.
	UserService interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	// DictationService is the dictation-side dependency of this package.
	DictationService interface {
		GetByID(ctx context.Context, id string) (dictation.Dictation, error)
		FirstAttempts(ctx context.Context, dictationID string) ([]dictation.Attempt, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewClassroom, teacherID, teacherName string) (Classroom, error)
		GetByID(ctx context.Context, id string) (Classroom, error)
		Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Classroom, error)
		Update(ctx context.Context, id string, uc UpdateClassroom, actorID string, isAdmin bool) (Classroom, error)
		Delete(ctx context.Context, actorID string, isAdmin bool, ids ...string) error

		AddStudent(ctx context.Context, classroomID, studentID, actorID string, isAdmin bool) error
		RemoveStudent(ctx context.Context, classroomID, studentID, actorID string, isAdmin bool) error

		AssignDictation(ctx context.Context, classroomID string, na NewAssignment, actorID string, isAdmin bool) (Assignment, error)
		Assignments(ctx context.Context, classroomID string) ([]Assignment, error)
		UnassignDictation(ctx context.Context, assignmentID, actorID string, isAdmin bool) error

		// AssignmentReport aggregates each student's FIRST attempt at the
		// assigned dictation; retries never improve a report.
		AssignmentReport(ctx context.Context, assignmentID string) (AssignmentSummary, error)
	}

	service struct {
		repo    Repository
		usrSvc  UserService
		dictSvc DictationService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc UserService, dictSvc DictationService) Service {
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		dictSvc: dictSvc,
	}
}

func (svc *service) Create(ctx context.Context, nc NewClassroom, teacherID, teacherName string) (Classroom, error) {
	now := nowFunc().UTC()
	cls := Classroom{
		ID:          idFunc(),
		Name:        nc.Name,
		Grade:       nc.Grade,
		SchoolYear:  nc.SchoolYear,
		Semester:    nc.Semester,
		Description: nc.Description,
		IsActive:    true,
		TeacherID:   teacherID,
		TeacherName: teacherName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateClassroom(ctx, cls)
}

func (svc *service) GetByID(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroomByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Classroom, error) {
	return svc.repo.FilterClassrooms(ctx, *filter, orderings...)
}

// checkOwner loads the classroom and ensures the actor may modify it.
func (svc *service) checkOwner(ctx context.Context, id, actorID string, isAdmin bool) (Classroom, error) {
	cls, err := svc.repo.GetClassroomByID(ctx, id)
	if err != nil {
		return Classroom{}, err
	}
	if cls.TeacherID != actorID && !isAdmin {
		return Classroom{}, ErrNotOwner
	}
	return cls, nil
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateClassroom, actorID string, isAdmin bool) (Classroom, error) {
	if _, err := svc.checkOwner(ctx, id, actorID, isAdmin); err != nil {
		return Classroom{}, err
	}
	cls := Classroom{
		ID:          id,
		Name:        uc.Name,
		Grade:       uc.Grade,
		SchoolYear:  uc.SchoolYear,
		Semester:    uc.Semester,
		Description: uc.Description,
		UpdatedAt:   nowFunc().UTC(),
	}
	return svc.repo.UpdateClassroom(ctx, cls, uc.IsActive)
}

func (svc *service) Delete(ctx context.Context, actorID string, isAdmin bool, ids ...string) error {
	if !isAdmin {
		for _, id := range ids {
			if _, err := svc.checkOwner(ctx, id, actorID, isAdmin); err != nil {
				return err
			}
		}
	}
	return svc.repo.DeleteClassroomsByID(ctx, ids...)
}

func (svc *service) AddStudent(ctx context.Context, classroomID, studentID, actorID string, isAdmin bool) error {
	cls, err := svc.checkOwner(ctx, classroomID, actorID, isAdmin)
	if err != nil {
		return err
	}
	if cls.HasStudent(studentID) {
		return ErrAlreadyEnrolled
	}

	usr, err := svc.usrSvc.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	if !usr.IsStudent() {
		return ErrNotAStudent
	}
	return svc.repo.AddStudent(ctx, classroomID, studentID)
}

func (svc *service) RemoveStudent(ctx context.Context, classroomID, studentID, actorID string, isAdmin bool) error {
	if _, err := svc.checkOwner(ctx, classroomID, actorID, isAdmin); err != nil {
		return err
	}
	return svc.repo.RemoveStudent(ctx, classroomID, studentID)
}

func (svc *service) AssignDictation(ctx context.Context, classroomID string, na NewAssignment, actorID string, isAdmin bool) (Assignment, error) {
	if _, err := svc.checkOwner(ctx, classroomID, actorID, isAdmin); err != nil {
		return Assignment{}, err
	}

	d, err := svc.dictSvc.GetByID(ctx, na.DictationID)
	if err != nil {
		return Assignment{}, err
	}
	if !d.IsActive {
		return Assignment{}, dictation.ErrInactive
	}

	asg := Assignment{
		ID:             idFunc(),
		ClassroomID:    classroomID,
		DictationID:    d.ID,
		DictationTitle: d.Title,
		DueAt:          na.DueAt.UTC(),
		AssignedAt:     nowFunc().UTC(),
	}
	if na.DueAt.IsZero() {
		asg.DueAt = time.Time{}
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *service) Assignments(ctx context.Context, classroomID string) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, classroomID)
}

func (svc *service) UnassignDictation(ctx context.Context, assignmentID, actorID string, isAdmin bool) error {
	asg, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if _, err = svc.checkOwner(ctx, asg.ClassroomID, actorID, isAdmin); err != nil {
		return err
	}
	return svc.repo.DeleteAssignmentsByID(ctx, assignmentID)
}
