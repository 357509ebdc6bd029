package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

func Test_schoolApi_roleMatrix(t *testing.T) {
	app := newTestApp(t)
	app.createUser("admin", user.RoleAdmin)
	teacher := app.createUser("teacher", user.RoleTeacher)
	student := app.createUser("student", user.RoleStudent)

	tokens := map[string]string{
		"anonymous": "",
		"student":   app.token("student"),
		"teacher":   app.token("teacher"),
		"admin":     app.token("admin"),
	}

	writes := []struct {
		path    string
		body    string
		allowed string
	}{
		{"/api/classes", fmt.Sprintf(`{"name":"Algebra","teacherId":%d}`, teacher.ID), "admin"},
		{"/api/classes/1/assignments", `{"title":"HW1"}`, "teacher"},
		{"/api/assignments/1/grades", fmt.Sprintf(`{"studentId":%d,"score":95}`, student.ID), "teacher"},
		{"/api/classes/1/attendance", fmt.Sprintf(`{"studentId":%d,"date":"2024-03-01T00:00:00Z","status":"present"}`, student.ID), "teacher"},
	}
	for _, w := range writes {
		for _, role := range []string{"anonymous", "student", "teacher", "admin"} {
			want := http.StatusForbidden
			switch role {
			case "anonymous":
				want = http.StatusUnauthorized
			case w.allowed:
				want = http.StatusCreated
			}
			t.Run(fmt.Sprintf("POST %s as %s", w.path, role), func(t *testing.T) {
				rec := app.do(httpTest{method: http.MethodPost, path: w.path, token: tokens[role], body: []byte(w.body)})
				assert.Equal(t, want, rec.Code, rec.Body.String())
			})
		}
	}

	reads := []string{
		"/api/classes",
		"/api/classes/1",
		"/api/classes/1/assignments",
		"/api/classes/1/attendance",
		fmt.Sprintf("/api/students/%d/grades", student.ID),
	}
	for _, path := range reads {
		for _, role := range []string{"anonymous", "student", "teacher", "admin"} {
			t.Run(fmt.Sprintf("GET %s as %s", path, role), func(t *testing.T) {
				rec := app.do(httpTest{method: http.MethodGet, path: path, token: tokens[role]})
				assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			})
		}
	}
}

func Test_schoolApi_gradebook(t *testing.T) {
	app := newTestApp(t)
	app.createUser("admin", user.RoleAdmin)
	teacher := app.createUser("teacher", user.RoleTeacher)
	student := app.createUser("student", user.RoleStudent)
	adminToken, teacherToken, studentToken := app.token("admin"), app.token("teacher"), app.token("student")

	app.run([]httpTest{
		{name: "no classes", method: http.MethodGet, path: "/api/classes", wantData: marshalList(t)},
		{
			name: "create class", method: http.MethodPost, path: "/api/classes", token: adminToken,
			body:     []byte(fmt.Sprintf(`{"name":" Algebra ","teacherId":%d}`, teacher.ID)),
			wantCode: http.StatusCreated,
			wantData: []byte(fmt.Sprintf(`{"id":1,"name":"Algebra","teacherId":%d,"description":null}`, teacher.ID)),
		},
		{
			name: "create assignment", method: http.MethodPost, path: "/api/classes/1/assignments", token: teacherToken,
			body:     []byte(`{"title":"HW1","dueDate":"2024-03-08T12:00:00Z"}`),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"id":1,"classId":1,"title":"HW1","description":null,"dueDate":"2024-03-08T12:00:00Z"}`),
		},
		{
			name: "grade assignment", method: http.MethodPost, path: "/api/assignments/1/grades", token: teacherToken,
			body:     []byte(fmt.Sprintf(`{"studentId":%d,"score":95,"feedback":"well done"}`, student.ID)),
			wantCode: http.StatusCreated,
			wantData: []byte(fmt.Sprintf(`{"id":1,"studentId":%d,"assignmentId":1,"score":95,"feedback":"well done"}`, student.ID)),
		},
		{
			name: "student reads own grades", method: http.MethodGet, path: fmt.Sprintf("/api/students/%d/grades", student.ID), token: studentToken,
			wantData: []byte(fmt.Sprintf(`[{"id":1,"studentId":%d,"assignmentId":1,"score":95,"feedback":"well done"}]`, student.ID)),
		},
		{
			name: "mark attendance", method: http.MethodPost, path: "/api/classes/1/attendance", token: teacherToken,
			body:     []byte(fmt.Sprintf(`{"studentId":%d,"date":"2024-03-01T09:00:00+02:00","status":"PRESENT"}`, student.ID)),
			wantCode: http.StatusCreated,
			wantData: []byte(fmt.Sprintf(`{"id":1,"studentId":%d,"classId":1,"date":"2024-03-01T07:00:00Z","status":"present"}`, student.ID)),
		},
		{
			name: "list classes", method: http.MethodGet, path: "/api/classes/",
			wantData: []byte(fmt.Sprintf(`[{"id":1,"name":"Algebra","teacherId":%d,"description":null}]`, teacher.ID)),
		},
		{
			name: "list assignments", method: http.MethodGet, path: "/api/classes/1/assignments",
			wantData: []byte(`[{"id":1,"classId":1,"title":"HW1","description":null,"dueDate":"2024-03-08T12:00:00Z"}]`),
		},
		{
			name: "list attendance", method: http.MethodGet, path: "/api/classes/1/attendance",
			wantData: []byte(fmt.Sprintf(`[{"id":1,"studentId":%d,"classId":1,"date":"2024-03-01T07:00:00Z","status":"present"}]`, student.ID)),
		},
		{name: "other class has no assignments", method: http.MethodGet, path: "/api/classes/2/assignments", wantData: marshalList(t)},
		{name: "other student has no grades", method: http.MethodGet, path: "/api/students/99/grades", wantData: marshalList(t)},
	})
}

func Test_schoolApi_validation(t *testing.T) {
	app := newTestApp(t)
	app.createUser("admin", user.RoleAdmin)
	app.createUser("teacher", user.RoleTeacher)
	adminToken, teacherToken := app.token("admin"), app.token("teacher")

	app.run([]httpTest{
		{
			name: "class required fields", method: http.MethodPost, path: "/api/classes", token: adminToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"name": "this field is required", "teacherId": "this field is required"}),
		},
		{
			name: "assignment required fields", method: http.MethodPost, path: "/api/classes/1/assignments", token: teacherToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"title": "this field is required"}),
		},
		{
			name: "grade required fields", method: http.MethodPost, path: "/api/assignments/1/grades", token: teacherToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"studentId": "this field is required", "score": "this field is required"}),
		},
		{
			name: "attendance required fields", method: http.MethodPost, path: "/api/classes/1/attendance", token: teacherToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"studentId": "this field is required",
				"date":      "this field is required",
				"status":    "this field is required",
			}),
		},
		{
			name: "malformed date", method: http.MethodPost, path: "/api/classes/1/attendance", token: teacherToken,
			body: []byte(`{"studentId":3,"date":"yesterday","status":"present"}`), wantCode: http.StatusBadRequest,
		},
	})

	scoreTests := []struct {
		name  string
		score int
		ok    bool
	}{
		{"zero", 0, true},
		{"max", 100, true},
		{"negative", -1, false},
		{"above max", 101, false},
	}
	for _, tt := range scoreTests {
		t.Run("score "+tt.name, func(t *testing.T) {
			rec := app.do(httpTest{
				method: http.MethodPost, path: "/api/assignments/1/grades", token: teacherToken,
				body: []byte(fmt.Sprintf(`{"studentId":3,"score":%d}`, tt.score)),
			})
			if tt.ok {
				assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
				return
			}
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, fieldErrors(t, rec), "score")
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		rec := app.do(httpTest{
			method: http.MethodPost, path: "/api/classes/1/attendance", token: teacherToken,
			body: []byte(`{"studentId":3,"date":"2024-03-01T00:00:00Z","status":"sick"}`),
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, fieldErrors(t, rec), "status")
	})
}

func Test_schoolApi_pathIDs(t *testing.T) {
	app := newTestApp(t)
	app.createUser("teacher", user.RoleTeacher)
	teacherToken := app.token("teacher")

	app.run([]httpTest{
		{name: "unknown class", method: http.MethodGet, path: "/api/classes/99", wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "class not found"})},
		{name: "non-numeric class", method: http.MethodGet, path: "/api/classes/abc", wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "zero class", method: http.MethodGet, path: "/api/classes/0", wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "negative class", method: http.MethodGet, path: "/api/classes/-1", wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "non-numeric assignments", method: http.MethodGet, path: "/api/classes/abc/assignments", wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "non-numeric attendance", method: http.MethodGet, path: "/api/classes/abc/attendance", wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "non-numeric student", method: http.MethodGet, path: "/api/students/abc/grades", wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{
			name: "non-numeric assignment", method: http.MethodPost, path: "/api/assignments/abc/grades", token: teacherToken,
			body: []byte(`{"studentId":3,"score":50}`), wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound),
		},
		{
			name: "access is checked before the id", method: http.MethodPost, path: "/api/classes/abc/assignments",
			body: []byte(`{"title":"HW1"}`), wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errNotAuthenticated),
		},
		{name: "unknown route", method: http.MethodGet, path: "/api/nope", wantCode: http.StatusNotFound},
	})
}

// strictSchool rejects classes the way the PostgreSQL store does when a constraint fails.
type strictSchool struct {
	school.Repository
}

func (strictSchool) CreateClass(context.Context, school.Class) (school.Class, error) {
	return school.Class{}, core.NewValidationError(
		errors.Wrap(storage.ErrInvalidInput, `new row for relation "classes" violates check constraint "classes_teacher_id_check"`),
	)
}

func Test_schoolApi_storeRejectsInput(t *testing.T) {
	store := inmemdb.Open()
	deps := testDeps(testConfig(), store)
	deps.SchoolSvc = school.NewService(strictSchool{store.School()})
	app := &testApp{t: t, srv: NewServer(deps), store: store}
	app.createUser("admin", user.RoleAdmin)

	app.run([]httpTest{
		{
			name: "constraint violation", method: http.MethodPost, path: "/api/classes", token: app.token("admin"),
			body:     []byte(`{"name":"Algebra","teacherId":7}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{
				Error: `new row for relation "classes" violates check constraint "classes_teacher_id_check": invalid input`,
			}),
		},
	})
}
