package tests

import (
	"net/http"
	"testing"

	"github.com/romangrishanov/ditado/core/category"
	"github.com/romangrishanov/ditado/core/user"
	testutil "github.com/romangrishanov/ditado/tests"
)

func Test_categoryApi(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.br", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Profa", "profalu", "lu@test.br", "", []string{user.RoleTeacher}, true)
	cat := testutil.CreateCategory(t, catRepo, "Acentuação")

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/categories",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Query (any authed user)", method: http.MethodGet, path: "/v1/categories",
			token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallList(t, cat),
		},
		{
			name: "Retrieve", method: http.MethodGet, path: "/v1/categories/" + cat.ID,
			token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallObj(t, cat),
		},
		{
			name: "Retrieve (unknown)", method: http.MethodGet, path: "/v1/categories/nope",
			token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Create requires admin", method: http.MethodPost, path: "/v1/categories",
			token: getToken(t, teacher), body: marchallObj(t, category.NewCategory{Name: "Lacunas"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Create duplicate name", method: http.MethodPost, path: "/v1/categories",
			token: adminToken, body: marchallObj(t, category.NewCategory{Name: "acentuação"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": category.ErrNameExists.Error()}),
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/categories",
			token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
