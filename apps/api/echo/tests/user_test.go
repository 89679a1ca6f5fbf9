package tests

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"testing"

	echoapi "github.com/romangrishanov/ditado/apps/api/echo"
	"github.com/romangrishanov/ditado/core/user"
	emailsvc "github.com/romangrishanov/ditado/services/email"
	testutil "github.com/romangrishanov/ditado/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Heitor", "heitor", "heitor@test.br", "S3cr3tPwd!", []string{user.RoleStudent}, true)
	naughty := testutil.CreateUser(t, usrRepo, "Nando", "nandinho", "nando@test.br", "S3cr3tPwd!", []string{user.RoleStudent}, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", body: login("ghost", "S3cr3tPwd!"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: login(student.Username, "nope"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive account", body: login(naughty.Username, "S3cr3tPwd!"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: login(student.Username, "S3cr3tPwd!"), wantCode: http.StatusOK},
		{name: "login with email", body: login(student.Email, "S3cr3tPwd!"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_accessRequest(t *testing.T) {
	app := setup(t)
	emailsvc.SentMessages = nil // reset

	body := marchallObj(t, user.AccessRequest{
		Name:             "Ana Clara",
		Email:            "ana@test.br",
		EnrollmentNumber: "2026-042",
		Password:         "S3nh4Segura!",
		PasswordConfirm:  "S3nh4Segura!",
	})
	req, rec := newRequest(http.MethodPost, "/v1/users/access-request", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var usr user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if usr.Active() {
		t.Error("new access request should be inactive")
	}
	if !usr.IsStudent() {
		t.Errorf("new access request should be a student; roles = %v", usr.Roles)
	}
	if usr.EnrollmentNumber != "2026-042" {
		t.Errorf("EnrollmentNumber = %q; want %q", usr.EnrollmentNumber, "2026-042")
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("1 email expected; got %d", len(emailsvc.SentMessages))
	}
	wantTo := mail.Address{Name: "Ana Clara", Address: "ana@test.br"}
	if to := emailsvc.SentMessages[0].To[0]; to != wantTo {
		t.Errorf("email To = %v; want %v", to, wantTo)
	}

	// the pending request shows up for a teacher and can be approved
	teacher := testutil.CreateUser(t, usrRepo, "Profa", "profalu", "lu@test.br", "", []string{user.RoleTeacher}, true)
	teacherToken := getToken(t, teacher)

	req, rec = newAuthRequest(http.MethodGet, "/v1/users/access-requests", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var pending []user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(pending) != 1 || pending[0].ID != usr.ID {
		t.Fatalf("pending = %+v; want the requested account only", pending)
	}

	emailsvc.SentMessages = nil // reset
	req, rec = newAuthRequest(http.MethodPost, "/v1/users/access-requests/"+usr.ID+"/approve", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var approved user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &approved); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if !approved.Active() {
		t.Error("approved account should be active")
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Errorf("1 approval email expected; got %d", len(emailsvc.SentMessages))
	}
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Heitor", "heitor", "heitor@test.br", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Profa", "profalu", "lu@test.br", "", []string{user.RoleTeacher}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.br", "", []string{user.RoleAdmin}, true)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Teacher is not admin", path: "/v1/users", token: getToken(t, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{name: "Get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, student, teacher, admin)},
		{name: "search", path: "/v1/users?search=heitor", token: adminToken, wantData: marchallList(t, student)},
		{name: "role filter", path: "/v1/users?role=" + user.RoleTeacher, token: adminToken, wantData: marchallList(t, teacher)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
