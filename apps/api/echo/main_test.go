package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/analytics"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	logsvc "github.com/trezcool/shule/services/logger"
	sessionsvc "github.com/trezcool/shule/services/session"
	"github.com/trezcool/shule/storage"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/storage/database/storetest"
)

const testPassword = "Str0ng!Pwd#2024"

var (
	errNotAuthenticated = httpErr{Error: "user not authenticated"}
	errPermissionDenied = httpErr{Error: "permission denied"}
	errNotFound         = httpErr{Error: "not found"}
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	cookie   *http.Cookie
	wantCode int
	wantData []byte
}

type testApp struct {
	t     *testing.T
	srv   *Server
	store storage.Store
}

func testConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Shule",
		Build:     "test",
		SecretKey: "test-secret-key",
		Server: core.ServerConfig{
			Host:           "localhost",
			Address:        ":0",
			SessionMaxAge:  time.Hour,
			SessionCookie:  "shule_session",
			DisableReqLogs: true,
			BodyLimit:      "4K",
		},
		Database: core.DatabaseConfig{Backend: core.BackendMemory},
	}
}

func testDeps(conf *core.Config, store storage.Store) ServerDeps {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	return ServerDeps{
		Conf:         conf,
		Logger:       logger,
		UserSvc:      user.NewService(store.Users()),
		SchoolSvc:    school.NewService(store.School()),
		AnalyticsSvc: analytics.NewService(store.Analytics()),
		Sessions:     sessionsvc.NewMemStore(conf.Server.SessionMaxAge, false, []byte(conf.SecretKey)),
		Validate:     validate,
		Translator:   translator,
	}
}

// newTestApp serves the API over an empty in-memory store.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := inmemdb.Open()
	return &testApp{t: t, srv: NewServer(testDeps(testConfig(), store)), store: store}
}

func (app *testApp) createUser(uname string, role user.Role) user.User {
	app.t.Helper()
	return storetest.CreateUser(app.t, app.store.Users(), uname, testPassword, role, "User "+uname)
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	app.t.Helper()
	var body io.Reader
	if tt.body != nil {
		body = bytes.NewReader(tt.body)
	}
	req := httptest.NewRequest(tt.method, tt.path, body)
	req.Header.Set("Content-Type", "application/json")
	if tt.token != "" {
		req.Header.Set("Authorization", "Bearer "+tt.token)
	}
	if tt.cookie != nil {
		req.AddCookie(tt.cookie)
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

// login returns the bearer token and the session cookie of a fresh session.
func (app *testApp) login(uname string) (string, *http.Cookie) {
	app.t.Helper()
	rec := app.do(httpTest{
		method: http.MethodPost,
		path:   "/api/login",
		body:   marshalObj(app.t, LoginRequest{Username: uname, Password: testPassword}),
	})
	require.Equal(app.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(app.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(app.t, resp.Token)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "shule_session" {
			cookie = c
		}
	}
	require.NotNil(app.t, cookie)
	return resp.Token, cookie
}

func (app *testApp) token(uname string) string {
	app.t.Helper()
	token, _ := app.login(uname)
	return token
}

func (app *testApp) run(tests []httpTest) {
	app.t.Helper()
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		app.t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	return marshalObj(t, objs)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

// fieldErrors decodes a validation error body.
func fieldErrors(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var flds map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flds), rec.Body.String())
	return flds
}
