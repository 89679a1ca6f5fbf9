package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/romangrishanov/ditado/core/classroom"
	"github.com/romangrishanov/ditado/core/dictation"
	"github.com/romangrishanov/ditado/core/user"
	testutil "github.com/romangrishanov/ditado/tests"
)

func Test_classroomApi_create(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Profa", "profalu", "lu@test.br", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Heitor", "heitor", "heitor@test.br", "", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "created", token: getToken(t, teacher), wantCode: http.StatusCreated,
			body: marchallObj(t, classroom.NewClassroom{
				Name: "Turma A", Grade: "4º ano", SchoolYear: "2026", Semester: "1",
				Description: "Turma da manhã",
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/classrooms"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
				}
				var cls classroom.Classroom
				if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if cls.TeacherID != teacher.ID {
					t.Errorf("TeacherID = %q; want %q", cls.TeacherID, teacher.ID)
				}
				if cls.Grade != "4º ano" || cls.SchoolYear != "2026" || cls.Semester != "1" {
					t.Errorf("Grade/SchoolYear/Semester = %q/%q/%q", cls.Grade, cls.SchoolYear, cls.Semester)
				}
				if cls.Description != "Turma da manhã" {
					t.Errorf("Description = %q; want Turma da manhã", cls.Description)
				}
				if !cls.IsActive {
					t.Error("new classroom should be active")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classroomApi_students(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Profa", "profalu", "lu@test.br", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, usrRepo, "Prof", "profjoao", "joao@test.br", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Heitor", "heitor", "heitor@test.br", "", []string{user.RoleStudent}, true)
	cls := testutil.CreateClassroom(t, clsRepo, "Turma A", teacher.ID, teacher.Name)

	teacherToken := getToken(t, teacher)
	body := marchallObj(t, map[string]string{"student_id": student.ID})

	// only the owning teacher may enroll students
	req, rec := newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/students", getToken(t, other), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner enroll: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/students", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("enroll: code = %v; body %s", rec.Code, rec.Body.String())
	}

	// enrolling twice is a validation error
	req, rec = newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/students", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("double enroll: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// teachers cannot be enrolled as students
	req, rec = newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/students", teacherToken,
		marchallObj(t, map[string]string{"student_id": other.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("enroll teacher: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// the enrolled student sees the classroom
	req, rec = newAuthRequest(http.MethodGet, "/v1/classrooms", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("student listing: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var classrooms []classroom.Classroom
	if err := json.Unmarshal(rec.Body.Bytes(), &classrooms); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(classrooms) != 1 || classrooms[0].ID != cls.ID {
		t.Errorf("student listing = %+v; want the enrolled classroom only", classrooms)
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/classrooms/"+cls.ID+"/students/"+student.ID, teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unenroll: code = %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_classroomApi_assignments(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Profa", "profalu", "lu@test.br", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Heitor", "heitor", "heitor@test.br", "", []string{user.RoleStudent}, true)
	cls := testutil.CreateClassroom(t, clsRepo, "Turma A", teacher.ID, teacher.Name, student.ID)
	d := testutil.CreateDictation(t, dictRepo, "Ditado 1", "O [gato] e o [rato].", teacher.ID, teacher.Name, true)
	inactive := testutil.CreateDictation(t, dictRepo, "Rascunho", "Ainda [nada].", teacher.ID, teacher.Name, false)

	teacherToken := getToken(t, teacher)

	// inactive dictations cannot be assigned
	req, rec := newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/assignments", teacherToken,
		marchallObj(t, classroom.NewAssignment{DictationID: inactive.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("assign inactive: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/assignments", teacherToken,
		marchallObj(t, classroom.NewAssignment{DictationID: d.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("assign: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var asg classroom.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &asg); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if asg.DictationTitle != d.Title {
		t.Errorf("DictationTitle = %q; want %q", asg.DictationTitle, d.Title)
	}
	if !asg.DueAt.IsZero() {
		t.Errorf("DueAt = %v; want zero (no due date)", asg.DueAt)
	}

	// the student submits; the teacher pulls the report
	answers := map[string]string{
		d.Segments[1].ID: "gato",
		d.Segments[3].ID: "rito",
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/dictations/"+d.ID+"/attempts", getToken(t, student),
		marchallObj(t, dictation.NewAttempt{Answers: answers}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: code = %v; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/classrooms/assignments/"+asg.ID+"/report", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var summary classroom.AssignmentSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if summary.ClassSize != 1 || summary.SubmittedCount != 1 {
		t.Errorf("summary = %+v; want 1 student, 1 submission", summary)
	}
	if summary.AverageScore != 50 {
		t.Errorf("AverageScore = %v; want 50", summary.AverageScore)
	}
	if len(summary.Students) != 1 || summary.Students[0].StudentID != student.ID {
		t.Errorf("Students = %+v; want the enrolled student", summary.Students)
	}

	// the assignment shows up for the student, the report does not
	req, rec = newAuthRequest(http.MethodGet, "/v1/classrooms/"+cls.ID+"/assignments", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("assignments listing: code = %v; body %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/classrooms/assignments/"+asg.ID+"/report", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student report: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/classrooms/assignments/"+asg.ID, teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unassign: code = %v; body %s", rec.Code, rec.Body.String())
	}
}
