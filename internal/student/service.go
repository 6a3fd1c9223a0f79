package student

import (
	"context"
	"strings"

	"rfidattendance/internal/apperr"
	"rfidattendance/internal/attendance"
	"rfidattendance/internal/metrics"
)

// Store is the persistence the registry needs.
type Store interface {
	Create(ctx context.Context, s Student) (Student, error)
	List(ctx context.Context) ([]Student, error)
	Get(ctx context.Context, id int64) (Student, error)
	Edit(ctx context.Context, id int64, cand Candidate) (EditResult, error)
	Delete(ctx context.Context, id int64) (DeleteResult, error)
	LogScan(ctx context.Context, tag string, record RecordFunc) (Student, attendance.TimeIn, error)
}

// Scan is the acknowledgement returned to a reader after a tag is logged.
type Scan struct {
	StudentNumber string `json:"studentNumber"`
	Name          string `json:"name"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

// Service validates requests and drives the registry.
type Service struct {
	repo Store
	logs *attendance.Service
}

// NewService wires the registry to its store and the attendance log.
func NewService(repo Store, logs *attendance.Service) *Service {
	return &Service{repo: repo, logs: logs}
}

// Register creates a student. Status defaults to Active.
func (s *Service) Register(ctx context.Context, st Student) (Student, error) {
	if err := st.Validate(); err != nil {
		return Student{}, err
	}
	return s.repo.Create(ctx, st)
}

// List returns all students.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	return s.repo.List(ctx)
}

// Get returns one student.
func (s *Service) Get(ctx context.Context, id int64) (Student, error) {
	return s.repo.Get(ctx, id)
}

// Edit applies the differing fields of cand to student id. A candidate that
// matches the stored record yields Affected == 0 and no write.
func (s *Service) Edit(ctx context.Context, id int64, cand Candidate) (EditResult, error) {
	cand = cand.Normalized()
	if err := cand.Validate(); err != nil {
		metrics.StudentEdits.WithLabelValues("invalid").Inc()
		return EditResult{}, err
	}
	res, err := s.repo.Edit(ctx, id, cand)
	switch {
	case err != nil:
		metrics.StudentEdits.WithLabelValues(apperr.KindOf(err).String()).Inc()
	case res.Affected == 0:
		metrics.StudentEdits.WithLabelValues("unchanged").Inc()
	default:
		metrics.StudentEdits.WithLabelValues("updated").Inc()
	}
	return res, err
}

// Delete removes a student together with its attendance rows.
func (s *Service) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	return s.repo.Delete(ctx, id)
}

// LogScan records a time-in for the student holding tag.
func (s *Service) LogScan(ctx context.Context, tag string) (Scan, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Scan{}, apperr.Validation("RFID tag is required.")
	}
	st, in, err := s.repo.LogScan(ctx, tag, s.logs.Record)
	if err != nil {
		metrics.Scans.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return Scan{}, err
	}
	metrics.Scans.WithLabelValues("recorded").Inc()
	return Scan{StudentNumber: st.StudentNumber, Name: st.Name, Date: in.Date, Time: in.Time}, nil
}

// TimeIns returns the joined attendance log, newest first.
func (s *Service) TimeIns(ctx context.Context) ([]attendance.Entry, error) {
	return s.logs.List(ctx)
}
