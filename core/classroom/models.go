package classroom

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/romangrishanov/ditado/core"
)

// Classroom is a group of students managed by a teacher.
type Classroom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Grade       string    `json:"grade,omitempty"`       // "4º ano"...
	SchoolYear  string    `json:"school_year,omitempty"` // "2026"...
	Semester    string    `json:"semester,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	TeacherID   string    `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	StudentIDs  []string  `json:"student_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (c *Classroom) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Assignment is a dictation assigned to a classroom with a due date.
type Assignment struct {
	ID             string    `json:"id"`
	ClassroomID    string    `json:"classroom_id"`
	DictationID    string    `json:"dictation_id"`
	DictationTitle string    `json:"dictation_title,omitempty"`
	DueAt          time.Time `json:"due_at,omitempty"`  // UTC; zero means no due date
	AssignedAt     time.Time `json:"assigned_at"`       // UTC
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name        string `json:"name" validate:"required"`
	Grade       string `json:"grade"`
	SchoolYear  string `json:"school_year"`
	Semester    string `json:"semester"`
	Description string `json:"description"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Grade = core.CleanString(nc.Grade)
	nc.SchoolYear = core.CleanString(nc.SchoolYear)
	nc.Semester = core.CleanString(nc.Semester)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateClassroom defines what information may be provided to modify an existing Classroom.
type UpdateClassroom struct {
	Name        string `json:"name"`
	Grade       string `json:"grade"`
	SchoolYear  string `json:"school_year"`
	Semester    string `json:"semester"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (uc *UpdateClassroom) Validate(orig Classroom, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	uc.Grade = core.CleanString(uc.Grade)
	uc.SchoolYear = core.CleanString(uc.SchoolYear)
	uc.Semester = core.CleanString(uc.Semester)
	uc.Description = core.CleanString(uc.Description)
	return validate.Struct(uc)
}

// NewAssignment contains information needed to assign a dictation to a classroom.
type NewAssignment struct {
	DictationID string    `json:"dictation_id" validate:"required"`
	DueAt       time.Time `json:"due_at"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.DictationID = core.CleanString(na.DictationID)
	return validate.Struct(na)
}

type QueryFilter struct {
	Search    string `query:"search"`
	TeacherID string `query:"teacher"`
	StudentID string `query:"student"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.TeacherID == "" && qf.StudentID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
