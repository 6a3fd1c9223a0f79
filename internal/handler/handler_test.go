package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rfidattendance/internal/account"
	"rfidattendance/internal/apperr"
	"rfidattendance/internal/attendance"
	"rfidattendance/internal/auth"
	"rfidattendance/internal/export"
	"rfidattendance/internal/student"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeStudents struct {
	students []student.Student
	entries  []attendance.Entry
	editErr  error
	lastEdit student.Candidate
}

func (f *fakeStudents) Register(_ context.Context, st student.Student) (student.Student, error) {
	st.ID = 1
	return st, nil
}

func (f *fakeStudents) List(context.Context) ([]student.Student, error) { return f.students, nil }

func (f *fakeStudents) Edit(_ context.Context, _ int64, cand student.Candidate) (student.EditResult, error) {
	f.lastEdit = cand
	if f.editErr != nil {
		return student.EditResult{}, f.editErr
	}
	return student.EditResult{Changed: []string{"studentNumber"}, Affected: 1, LogsRepointed: 1}, nil
}

func (f *fakeStudents) Delete(context.Context, int64) (student.DeleteResult, error) {
	return student.DeleteResult{}, apperr.NotFound("Student not found.")
}

func (f *fakeStudents) LogScan(_ context.Context, tag string) (student.Scan, error) {
	if tag != "AA11" {
		return student.Scan{}, apperr.NotFound("Student not found.")
	}
	return student.Scan{StudentNumber: "2021-001", Name: "Ana", Date: "2024-02-01", Time: "08:30:00"}, nil
}

func (f *fakeStudents) TimeIns(context.Context) ([]attendance.Entry, error) { return f.entries, nil }

type fakeAccounts struct{}

func (f *fakeAccounts) Register(_ context.Context, name, email, _ string) (account.Session, error) {
	return account.Session{Token: "t", User: account.User{IDNo: 1, Name: name, Email: email, Role: auth.RoleUser}}, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (account.Session, error) {
	if password != "pw" {
		return account.Session{}, apperr.Unauthorized("Invalid credentials")
	}
	return account.Session{Token: "t", User: account.User{IDNo: 1, Email: email}}, nil
}

func (f *fakeAccounts) Logout(_ context.Context, id int64, name string) (account.SessionEntry, error) {
	return account.SessionEntry{UserIDNo: id, UserName: name, Action: account.ActionLogout}, nil
}

func (f *fakeAccounts) Logs(context.Context) ([]account.SessionEntry, error) { return nil, nil }
func (f *fakeAccounts) Users(context.Context) ([]account.User, error)        { return nil, nil }

func (f *fakeAccounts) Edit(_ context.Context, id int64, _ account.Changes) (account.User, error) {
	return account.User{IDNo: id}, nil
}

func (f *fakeAccounts) Delete(context.Context, int64) error { return nil }

func (f *fakeAccounts) ForgotPassword(context.Context, string) error {
	return apperr.NotFound("Email not found")
}

func (f *fakeAccounts) ResetPassword(context.Context, string, string) error {
	return apperr.Unauthorized("Invalid or expired reset token")
}

type env struct {
	r        *gin.Engine
	students *fakeStudents
	accounts *fakeAccounts
	issuer   *auth.Issuer
}

func newEnv(t *testing.T) env {
	t.Helper()
	e := env{
		r:        gin.New(),
		students: &fakeStudents{},
		accounts: &fakeAccounts{},
		issuer:   auth.NewIssuer("rfid-attendance", "secret"),
	}
	New(e.students, e.accounts, zap.NewNop()).Routes(e.r, e.issuer, func(c *gin.Context) { c.Next() })
	return e
}

func (e env) token(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	tok, _, err := e.issuer.Issue(auth.Identity{UserID: 1, Role: role, Email: "a@example.com", Name: "A"}, ttl)
	require.NoError(t, err)
	return tok
}

func (e env) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct{ Message string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

var adminRoutes = []struct{ method, path, body string }{
	{http.MethodPost, "/api/auth/all-logs", ""},
	{http.MethodGet, "/api/auth/users", ""},
	{http.MethodPut, "/api/auth/users/1", `{"name":"x"}`},
	{http.MethodDelete, "/api/auth/users/1", ""},
	{http.MethodGet, "/api/students/allstudents", ""},
	{http.MethodGet, "/api/students/time-ins/export", ""},
	{http.MethodPut, "/api/students/1", `{"name":"x"}`},
	{http.MethodDelete, "/api/students/1", ""},
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	e := newEnv(t)
	user := e.token(t, auth.RoleUser, time.Hour)
	for _, rt := range adminRoutes {
		w := e.do(rt.method, rt.path, rt.body, user)
		assert.Equal(t, http.StatusForbidden, w.Code, rt.path)
	}
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	e := newEnv(t)
	expired := e.token(t, auth.RoleAdmin, -time.Minute)
	tampered := e.token(t, auth.RoleAdmin, time.Hour) + "x"
	routes := append(adminRoutes, struct{ method, path, body string }{http.MethodPost, "/api/students/register", "{}"})
	for _, rt := range routes {
		for _, tok := range []string{"", expired, tampered} {
			w := e.do(rt.method, rt.path, rt.body, tok)
			assert.Equal(t, http.StatusUnauthorized, w.Code, rt.path)
		}
	}
}

func TestLogScan(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/api/students/rfid", `{"rfidTag":"AA11"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"RFID scan recorded successfully","student":{"studentNumber":"2021-001","name":"Ana","date":"2024-02-01","time":"08:30:00"}}`, w.Body.String())

	w = e.do(http.MethodPost, "/api/students/rfid", `{"rfidTag":"ZZ"}`, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Student not found.", message(t, w))
}

func TestEmptyListsAreNotFound(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.RoleAdmin, time.Hour)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/students/time-ins", "", "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/students/allstudents", "", admin).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/auth/users", "", admin).Code)
}

func TestEditStudentMapsErrors(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.RoleAdmin, time.Hour)

	w := e.do(http.MethodPut, "/api/students/1", `{"studentNumber":"2021-001","status":"Active"}`, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, student.StatusActive, *e.students.lastEdit.Status)
	assert.Nil(t, e.students.lastEdit.Name)

	w = e.do(http.MethodPut, "/api/students/1", `{"status":"Expelled"}`, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, message(t, w), "Invalid status")

	w = e.do(http.MethodPut, "/api/students/abc", `{}`, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.students.editErr = apperr.Conflict("RFID tag is already registered.")
	w = e.do(http.MethodPut, "/api/students/1", `{"rfidTag":"T"}`, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	e.students.editErr = errors.New("connection reset by peer")
	w = e.do(http.MethodPut, "/api/students/1", `{"rfidTag":"T"}`, admin)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", message(t, w))
}

func TestDeleteStudentNotFound(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodDelete, "/api/students/9", "", e.token(t, auth.RoleAdmin, time.Hour))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportTimeIns(t *testing.T) {
	e := newEnv(t)
	e.students.entries = []attendance.Entry{{TimeIn: attendance.TimeIn{StudentNumber: "1", Date: "2024-02-01", Time: "08:30:00"}, Name: "Ana"}}
	w := e.do(http.MethodGet, "/api/students/time-ins/export", "", e.token(t, auth.RoleAdmin, time.Hour))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestCredentialRoutes(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/auth/register", `{"name":"Ana","email":"ana@example.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/auth/login", `{"email":"a","password":"no"}`, "").Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/auth/login", `{"email":"a","password":"pw"}`, "").Code)

	w = e.do(http.MethodPost, "/api/auth/logout", `{"userId":1,"name":"Ana"}`, "")
	assert.Equal(t, "Logout successful for Ana", message(t, w))

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/auth/forgot-password", `{"email":"x"}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/auth/reset-password", `{"token":"x","newPassword":"y"}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/auth/login", `not json`, "").Code)

	admin := e.token(t, auth.RoleAdmin, time.Hour)
	w = e.do(http.MethodPost, "/api/auth/all-logs", "", admin)
	assert.JSONEq(t, `{"message":"Logs retrieved successfully","logs":[]}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/healthz", Health(map[string]func(context.Context) bool{
		"db":    func(context.Context) bool { return true },
		"redis": func(context.Context) bool { return false },
	}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","db":true,"redis":false}`, w.Body.String())
}
