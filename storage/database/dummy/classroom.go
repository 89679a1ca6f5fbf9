package dummyrepos

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/classroom"
)

type classroomRepository struct {
	mutex       sync.RWMutex
	db          map[string]*classroom.Classroom
	assignments map[string]*classroom.Assignment
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository() *classroomRepository {
	return &classroomRepository{
		db:          make(map[string]*classroom.Classroom),
		assignments: make(map[string]*classroom.Assignment),
	}
}

func (repo *classroomRepository) CreateClassroom(_ context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.db[cls.ID] = &cls
	return cls, nil
}

func (repo *classroomRepository) GetClassroomByID(_ context.Context, id string) (classroom.Classroom, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	cls, ok := repo.db[id]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return *cls, nil
}

func (repo *classroomRepository) FilterClassrooms(_ context.Context, filter classroom.QueryFilter, orderings ...core.DBOrdering) ([]classroom.Classroom, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	classrooms := make([]classroom.Classroom, 0, len(repo.db))
	for _, cls := range repo.db {
		if filter.Search != "" && !strings.Contains(strings.ToLower(cls.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.TeacherID != "" && cls.TeacherID != filter.TeacherID {
			continue
		}
		if filter.StudentID != "" && !cls.HasStudent(filter.StudentID) {
			continue
		}
		classrooms = append(classrooms, *cls)
	}
	sort.Slice(classrooms, func(i, j int) bool { return classrooms[i].Name < classrooms[j].Name })
	return classrooms, nil
}

func (repo *classroomRepository) UpdateClassroom(_ context.Context, cls classroom.Classroom, isActive *bool) (classroom.Classroom, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	orig, ok := repo.db[cls.ID]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
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
	if !cls.UpdatedAt.IsZero() {
		orig.UpdatedAt = cls.UpdatedAt
	}
	return *orig, nil
}

func (repo *classroomRepository) DeleteClassroomsByID(_ context.Context, ids ...string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db, id)
	}
	return nil
}

func (repo *classroomRepository) AddStudent(_ context.Context, classroomID, studentID string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	cls, ok := repo.db[classroomID]
	if !ok {
		return classroom.ErrNotFound
	}
	if !cls.HasStudent(studentID) {
		cls.StudentIDs = append(cls.StudentIDs, studentID)
	}
	return nil
}

func (repo *classroomRepository) RemoveStudent(_ context.Context, classroomID, studentID string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	cls, ok := repo.db[classroomID]
	if !ok {
		return classroom.ErrNotFound
	}
	for i, id := range cls.StudentIDs {
		if id == studentID {
			cls.StudentIDs = append(cls.StudentIDs[:i], cls.StudentIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (repo *classroomRepository) CreateAssignment(_ context.Context, asg classroom.Assignment) (classroom.Assignment, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *classroomRepository) GetAssignmentByID(_ context.Context, id string) (classroom.Assignment, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	asg, ok := repo.assignments[id]
	if !ok {
		return classroom.Assignment{}, classroom.ErrAssignmentNotFound
	}
	return *asg, nil
}

func (repo *classroomRepository) FilterAssignments(_ context.Context, classroomID string) ([]classroom.Assignment, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	assignments := make([]classroom.Assignment, 0, len(repo.assignments))
	for _, asg := range repo.assignments {
		if asg.ClassroomID == classroomID {
			assignments = append(assignments, *asg)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].AssignedAt.After(assignments[j].AssignedAt) })
	return assignments, nil
}

func (repo *classroomRepository) DeleteAssignmentsByID(_ context.Context, ids ...string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, id := range ids {
		delete(repo.assignments, id)
	}
	return nil
}
