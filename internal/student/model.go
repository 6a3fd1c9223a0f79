package student

import (
	"strings"
	"time"

	"rfidattendance/internal/apperr"
)

// Status is a student's enrolment state.
type Status string

const (
	StatusActive    Status = "Active"
	StatusInactive  Status = "Inactive"
	StatusGraduated Status = "Graduated"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusGraduated:
		return true
	}
	return false
}

// Student is a registered student. StudentNumber is the natural key that
// attendance rows refer to.
type Student struct {
	ID            int64     `json:"id"`
	IDNo          string    `json:"idNo"`
	Name          string    `json:"name"`
	StudentNumber string    `json:"studentNumber"`
	Institute     string    `json:"institute"`
	RFIDTag       string    `json:"rfidTag"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate trims and checks a registration record. An empty status defaults
// to Active.
func (s *Student) Validate() error {
	for _, f := range []*string{&s.IDNo, &s.Name, &s.StudentNumber, &s.Institute, &s.RFIDTag} {
		*f = strings.TrimSpace(*f)
	}
	if blank(s.IDNo) || blank(s.Name) || blank(s.StudentNumber) || blank(s.Institute) || blank(s.RFIDTag) {
		return apperr.Validation("Please provide idNo, name, student number, institute, and RFID tag")
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	if !s.Status.Valid() {
		return invalidStatus()
	}
	return nil
}

// Candidate is a proposed new state for a student. A nil field requests no
// change.
type Candidate struct {
	IDNo          *string `json:"idNo"`
	Name          *string `json:"name"`
	StudentNumber *string `json:"studentNumber"`
	Institute     *string `json:"institute"`
	RFIDTag       *string `json:"rfidTag"`
	Status        *Status `json:"status"`
}

// Normalized returns c with every present text field trimmed, the same way
// Register stores them and LogScan looks tags up.
func (c Candidate) Normalized() Candidate {
	for _, f := range []**string{&c.IDNo, &c.Name, &c.StudentNumber, &c.Institute, &c.RFIDTag} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	return c
}

// Validate rejects present-but-empty fields and unknown statuses.
func (c Candidate) Validate() error {
	for _, f := range []*string{c.IDNo, c.Name, c.StudentNumber, c.Institute, c.RFIDTag} {
		if f != nil && blank(*f) {
			return apperr.Validation("Fields idNo, name, student number, institute, and RFID tag cannot be empty.")
		}
	}
	if c.Status != nil && !c.Status.Valid() {
		return invalidStatus()
	}
	return nil
}

// EditResult reports what an edit changed. Affected is zero when the
// candidate matched the stored record.
type EditResult struct {
	Changed       []string `json:"changed"`
	Affected      int64    `json:"affected"`
	LogsRepointed int64    `json:"logsRepointed"`
	Student       Student  `json:"student"`
}

// DeleteResult reports a removed student and the attendance rows removed with it.
type DeleteResult struct {
	Student     Student `json:"student"`
	LogsDeleted int64   `json:"logsDeleted"`
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func invalidStatus() error {
	return apperr.Validation("Invalid status. Valid statuses are: Active, Inactive, Graduated")
}
