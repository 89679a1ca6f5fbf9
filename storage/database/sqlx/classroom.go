package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/classroom"
)

type classroomRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Grade       string    `db:"grade"`
	SchoolYear  string    `db:"school_year"`
	Semester    string    `db:"semester"`
	Description string    `db:"description"`
	IsActive    bool      `db:"is_active"`
	TeacherID   string    `db:"teacher_id"`
	TeacherName string    `db:"teacher_name"`
	CreatedAt   null.Time `db:"created_at"`
	UpdatedAt   null.Time `db:"updated_at"`
}

func (row classroomRow) toClassroom() classroom.Classroom {
	return classroom.Classroom{
		ID:          row.ID,
		Name:        row.Name,
		Grade:       row.Grade,
		SchoolYear:  row.SchoolYear,
		Semester:    row.Semester,
		Description: row.Description,
		IsActive:    row.IsActive,
		TeacherID:   row.TeacherID,
		TeacherName: row.TeacherName,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

type assignmentRow struct {
	ID             string    `db:"id"`
	ClassroomID    string    `db:"classroom_id"`
	DictationID    string    `db:"dictation_id"`
	DictationTitle string    `db:"dictation_title"`
	DueAt          null.Time `db:"due_at"`
	AssignedAt     null.Time `db:"assigned_at"`
}

func (row assignmentRow) toAssignment() classroom.Assignment {
	return classroom.Assignment{
		ID:             row.ID,
		ClassroomID:    row.ClassroomID,
		DictationID:    row.DictationID,
		DictationTitle: row.DictationTitle,
		DueAt:          row.DueAt.Time,
		AssignedAt:     row.AssignedAt.Time,
	}
}

const classroomSelect = `
	SELECT c.id, c.name, c.grade, c.school_year, c.semester, c.description, c.is_active,
	       c.teacher_id, u.name AS teacher_name, c.created_at, c.updated_at
	FROM classroom c
	JOIN "user" u ON u.id = c.teacher_id`

type classroomRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(db *sqlx.DB) *classroomRepository {
	return &classroomRepository{db: db}
}

func (repo *classroomRepository) CreateClassroom(ctx context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO classroom (id, name, grade, school_year, semester, description, is_active, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		cls.ID, cls.Name, cls.Grade, cls.SchoolYear, cls.Semester, cls.Description, cls.IsActive,
		cls.TeacherID, cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "creating classroom")
	}
	return cls, nil
}

func (repo *classroomRepository) GetClassroomByID(ctx context.Context, id string) (classroom.Classroom, error) {
	var row classroomRow
	if err := repo.db.GetContext(ctx, &row, classroomSelect+" WHERE c.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return classroom.Classroom{}, classroom.ErrNotFound
		}
		return classroom.Classroom{}, errors.Wrap(err, "getting classroom")
	}
	cls := row.toClassroom()

	err := repo.db.SelectContext(ctx, &cls.StudentIDs,
		"SELECT student_id FROM classroom_student WHERE classroom_id = $1", id)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "getting classroom students")
	}
	return cls, nil
}

func (repo *classroomRepository) FilterClassrooms(ctx context.Context, filter classroom.QueryFilter, orderings ...core.DBOrdering) ([]classroom.Classroom, error) {
	query := classroomSelect
	var conds []string
	var args []interface{}

	if filter.Search != "" {
		conds = append(conds, "c.name ILIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.TeacherID != "" {
		conds = append(conds, "c.teacher_id = ?")
		args = append(args, filter.TeacherID)
	}
	if filter.StudentID != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM classroom_student cs WHERE cs.classroom_id = c.id AND cs.student_id = ?)")
		args = append(args, filter.StudentID)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(orderings, "c.name")

	var rows []classroomRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering classrooms")
	}

	classrooms := make([]classroom.Classroom, 0, len(rows))
	for _, row := range rows {
		classrooms = append(classrooms, row.toClassroom())
	}
	return classrooms, nil
}

func (repo *classroomRepository) UpdateClassroom(ctx context.Context, cls classroom.Classroom, isActive *bool) (classroom.Classroom, error) {
	orig, err := repo.GetClassroomByID(ctx, cls.ID)
	if err != nil {
		return classroom.Classroom{}, err
	}
	merged := orig
	if cls.Name != "" {
		merged.Name = cls.Name
	}
	if cls.Grade != "" {
		merged.Grade = cls.Grade
	}
	if cls.SchoolYear != "" {
		merged.SchoolYear = cls.SchoolYear
	}
	if cls.Semester != "" {
		merged.Semester = cls.Semester
	}
	if cls.Description != "" {
		merged.Description = cls.Description
	}
	if isActive != nil {
		merged.IsActive = *isActive
	}
	if !cls.UpdatedAt.IsZero() {
		merged.UpdatedAt = cls.UpdatedAt
	}

	_, err = repo.db.ExecContext(ctx, `
		UPDATE classroom
		SET name = $2, grade = $3, school_year = $4, semester = $5, description = $6, is_active = $7, updated_at = $8
		WHERE id = $1`,
		merged.ID, merged.Name, merged.Grade, merged.SchoolYear, merged.Semester, merged.Description,
		merged.IsActive, merged.UpdatedAt,
	)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "updating classroom")
	}
	return merged, nil
}

func (repo *classroomRepository) DeleteClassroomsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM classroom WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting classrooms")
	}
	return nil
}

func (repo *classroomRepository) AddStudent(ctx context.Context, classroomID, studentID string) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO classroom_student (classroom_id, student_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		classroomID, studentID,
	)
	return errors.Wrap(err, "adding student")
}

func (repo *classroomRepository) RemoveStudent(ctx context.Context, classroomID, studentID string) error {
	_, err := repo.db.ExecContext(ctx,
		"DELETE FROM classroom_student WHERE classroom_id = $1 AND student_id = $2",
		classroomID, studentID,
	)
	return errors.Wrap(err, "removing student")
}

func (repo *classroomRepository) CreateAssignment(ctx context.Context, asg classroom.Assignment) (classroom.Assignment, error) {
	var dueAt null.Time
	if !asg.DueAt.IsZero() {
		dueAt = null.TimeFrom(asg.DueAt)
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO classroom_assignment (id, classroom_id, dictation_id, due_at, assigned_at)
		VALUES ($1, $2, $3, $4, $5)`,
		asg.ID, asg.ClassroomID, asg.DictationID, dueAt, asg.AssignedAt,
	)
	if err != nil {
		return classroom.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return asg, nil
}

const assignmentSelect = `
	SELECT a.id, a.classroom_id, a.dictation_id, d.title AS dictation_title, a.due_at, a.assigned_at
	FROM classroom_assignment a
	JOIN dictation d ON d.id = a.dictation_id`

func (repo *classroomRepository) GetAssignmentByID(ctx context.Context, id string) (classroom.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, assignmentSelect+" WHERE a.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return classroom.Assignment{}, classroom.ErrAssignmentNotFound
		}
		return classroom.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.toAssignment(), nil
}

func (repo *classroomRepository) FilterAssignments(ctx context.Context, classroomID string) ([]classroom.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.SelectContext(ctx, &rows,
		assignmentSelect+" WHERE a.classroom_id = $1 ORDER BY a.assigned_at DESC", classroomID)
	if err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}

	assignments := make([]classroom.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toAssignment())
	}
	return assignments, nil
}

func (repo *classroomRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM classroom_assignment WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting assignments")
	}
	return nil
}
