// Package handler exposes the students and credentials over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rfidattendance/internal/account"
	"rfidattendance/internal/apperr"
	"rfidattendance/internal/attendance"
	"rfidattendance/internal/auth"
	"rfidattendance/internal/httpmiddleware"
	"rfidattendance/internal/observability"
	"rfidattendance/internal/student"
)

// Students is the registry surface the handlers use.
type Students interface {
	Register(ctx context.Context, st student.Student) (student.Student, error)
	List(ctx context.Context) ([]student.Student, error)
	Edit(ctx context.Context, id int64, cand student.Candidate) (student.EditResult, error)
	Delete(ctx context.Context, id int64) (student.DeleteResult, error)
	LogScan(ctx context.Context, tag string) (student.Scan, error)
	TimeIns(ctx context.Context) ([]attendance.Entry, error)
}

// Accounts is the credential lifecycle surface the handlers use.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (account.Session, error)
	Login(ctx context.Context, email, password string) (account.Session, error)
	Logout(ctx context.Context, userID int64, name string) (account.SessionEntry, error)
	Logs(ctx context.Context) ([]account.SessionEntry, error)
	Users(ctx context.Context) ([]account.User, error)
	Edit(ctx context.Context, id int64, ch account.Changes) (account.User, error)
	Delete(ctx context.Context, id int64) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Handler holds the services behind the routes.
type Handler struct {
	students Students
	accounts Accounts
	log      *zap.Logger
}

func New(students Students, accounts Accounts, log *zap.Logger) *Handler {
	registerValidators()
	return &Handler{students: students, accounts: accounts, log: log}
}

// Routes mounts the API on r. limit guards the public endpoints that write.
func (h *Handler) Routes(r gin.IRouter, issuer *auth.Issuer, limit gin.HandlerFunc) {
	authn := auth.RequireAuth(issuer)
	admin := auth.RequireRole(auth.RoleAdmin)

	a := r.Group("/api/auth")
	a.POST("/register", limit, h.registerUser)
	a.POST("/login", limit, h.login)
	a.POST("/logout", h.logout)
	a.POST("/all-logs", authn, admin, h.allLogs)
	a.GET("/users", authn, admin, h.listUsers)
	a.PUT("/users/:userId", authn, admin, h.editUser)
	a.DELETE("/users/:userId", authn, admin, h.deleteUser)
	a.POST("/forgot-password", limit, h.forgotPassword)
	a.POST("/reset-password", limit, h.resetPassword)

	s := r.Group("/api/students")
	s.POST("/register", authn, h.registerStudent)
	s.GET("/allstudents", authn, admin, h.listStudents)
	s.POST("/rfid", limit, h.logScan)
	s.GET("/time-ins", h.timeIns)
	s.GET("/time-ins/export", authn, admin, h.exportTimeIns)
	s.PUT("/:id", authn, admin, h.editStudent)
	s.DELETE("/:id", authn, admin, h.deleteStudent)
}

var validatorsOnce sync.Once

// registerValidators adds the custom binding rules to gin's validator.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("student_status", func(fl validator.FieldLevel) bool {
			return student.Status(fl.Field().String()).Valid()
		})
	})
}

// bind decodes the JSON body into dst and classifies failures.
func bind(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "student_status" {
				return apperr.Validation("Invalid status. Valid statuses are: Active, Inactive, Graduated")
			}
		}
	}
	return apperr.Validation("Invalid request body.")
}

func pathID(c *gin.Context, name, what string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid " + what + " id.")
	}
	return id, nil
}

// fail writes the error envelope. Internal causes are logged and reported,
// never returned.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		id, route := httpmiddleware.RequestIDFrom(c), c.FullPath()
		h.log.Error("request failed", zap.String("id", id), zap.String("route", route), zap.Error(err))
		observability.CaptureErr(err, map[string]string{"request_id": id, "route": route})
	}
	c.AbortWithStatusJSON(apperr.Status(kind), gin.H{"message": apperr.PublicMessage(err)})
}

func ok(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"message": message}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Health reports database and Redis reachability.
func Health(checks map[string]func(context.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		for name, check := range checks {
			healthy := check(c.Request.Context())
			body[name] = healthy
			if !healthy {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	}
}
