package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"rfidattendance/internal/account"
	"rfidattendance/internal/apperr"
)

type userView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func viewOf(u account.User) userView {
	return userView{ID: u.IDNo, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (h *Handler) registerUser(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	sess, err := h.accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "User registered successfully", gin.H{
		"user":      viewOf(sess.User),
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt.Unix(),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Login successful", gin.H{
		"user":      viewOf(sess.User),
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt.Unix(),
	})
}

func (h *Handler) logout(c *gin.Context) {
	var req struct {
		UserID int64  `json:"userId"`
		Name   string `json:"name"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	e, err := h.accounts.Logout(c.Request.Context(), req.UserID, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, fmt.Sprintf("Logout successful for %s", e.UserName), nil)
}

func (h *Handler) allLogs(c *gin.Context) {
	logs, err := h.accounts.Logs(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if logs == nil {
		logs = []account.SessionEntry{}
	}
	ok(c, http.StatusOK, "Logs retrieved successfully", gin.H{"logs": logs})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.accounts.Users(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(users) == 0 {
		h.fail(c, apperr.NotFound("No users found"))
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewOf(u))
	}
	ok(c, http.StatusOK, "Users retrieved successfully", gin.H{"users": views})
}

func (h *Handler) editUser(c *gin.Context) {
	id, err := pathID(c, "userId", "user")
	if err != nil {
		h.fail(c, err)
		return
	}
	var ch account.Changes
	if err := bind(c, &ch); err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.accounts.Edit(c.Request.Context(), id, ch)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "User updated successfully", gin.H{"user": viewOf(u)})
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, err := pathID(c, "userId", "user")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.accounts.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Password reset instructions have been sent", nil)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Password reset successfully", nil)
}
