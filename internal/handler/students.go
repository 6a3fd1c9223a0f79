package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rfidattendance/internal/apperr"
	"rfidattendance/internal/export"
	"rfidattendance/internal/student"
)

type studentRequest struct {
	IDNo          string `json:"idNo"`
	Name          string `json:"name"`
	StudentNumber string `json:"studentNumber"`
	Institute     string `json:"institute"`
	RFIDTag       string `json:"rfidTag"`
	Status        string `json:"status" binding:"omitempty,student_status"`
}

type candidateRequest struct {
	IDNo          *string `json:"idNo"`
	Name          *string `json:"name"`
	StudentNumber *string `json:"studentNumber"`
	Institute     *string `json:"institute"`
	RFIDTag       *string `json:"rfidTag"`
	Status        *string `json:"status" binding:"omitempty,student_status"`
}

func (r candidateRequest) candidate() student.Candidate {
	cand := student.Candidate{
		IDNo: r.IDNo, Name: r.Name, StudentNumber: r.StudentNumber, Institute: r.Institute, RFIDTag: r.RFIDTag,
	}
	if r.Status != nil {
		st := student.Status(*r.Status)
		cand.Status = &st
	}
	return cand
}

func (h *Handler) registerStudent(c *gin.Context) {
	var req studentRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	st, err := h.students.Register(c.Request.Context(), student.Student{
		IDNo: req.IDNo, Name: req.Name, StudentNumber: req.StudentNumber,
		Institute: req.Institute, RFIDTag: req.RFIDTag, Status: student.Status(req.Status),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Student registered successfully", gin.H{"student": st})
}

func (h *Handler) listStudents(c *gin.Context) {
	list, err := h.students.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(list) == 0 {
		h.fail(c, apperr.NotFound("No students found"))
		return
	}
	ok(c, http.StatusOK, "Students retrieved successfully", gin.H{"students": list})
}

func (h *Handler) logScan(c *gin.Context) {
	var req struct {
		RFIDTag string `json:"rfidTag"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	scan, err := h.students.LogScan(c.Request.Context(), req.RFIDTag)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "RFID scan recorded successfully", gin.H{"student": scan})
}

func (h *Handler) timeIns(c *gin.Context) {
	entries, err := h.students.TimeIns(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(entries) == 0 {
		h.fail(c, apperr.NotFound("No time-ins found"))
		return
	}
	ok(c, http.StatusOK, "Time-ins retrieved successfully", gin.H{"timeIns": entries})
}

func (h *Handler) exportTimeIns(c *gin.Context) {
	entries, err := h.students.TimeIns(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteTimeIns(&buf, entries); err != nil {
		h.fail(c, apperr.Internal(err))
		return
	}
	name := fmt.Sprintf("time-ins_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handler) editStudent(c *gin.Context) {
	id, err := pathID(c, "id", "student")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req candidateRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.students.Edit(c.Request.Context(), id, req.candidate())
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := "Student updated successfully."
	if res.Affected == 0 {
		msg = "No changes detected."
	}
	ok(c, http.StatusOK, msg, gin.H{
		"changed":       nonNil(res.Changed),
		"affected":      res.Affected,
		"logsRepointed": res.LogsRepointed,
		"student":       res.Student,
	})
}

func (h *Handler) deleteStudent(c *gin.Context) {
	id, err := pathID(c, "id", "student")
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.students.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Student deleted successfully.", gin.H{"student": res.Student, "logsDeleted": res.LogsDeleted})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
