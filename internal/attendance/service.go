package attendance

import (
	"context"
	"errors"

	"rfidattendance/internal/civiltime"
	"rfidattendance/internal/store"
)

// TimeIn is one append-only scan event.
type TimeIn struct {
	ID            int64  `json:"id"`
	StudentNumber string `json:"studentNumber"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

// Entry is a time-in joined with the owning student's details.
type Entry struct {
	TimeIn
	Name      string `json:"name"`
	Institute string `json:"institute"`
}

// Recorder is the storage the Service needs.
type Recorder interface {
	Insert(ctx context.Context, q store.Querier, in TimeIn) (TimeIn, error)
	List(ctx context.Context) ([]Entry, error)
}

// Service stamps and records scans. Every scan is kept; repeated scans of
// the same tag are not collapsed.
type Service struct {
	repo  Recorder
	clock civiltime.Clock
}

// NewService creates a service backed by a repository. A nil clock uses the
// wall clock.
func NewService(repo Recorder, clock civiltime.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// Record appends a time-in for studentNumber on q, stamped with the civil
// clock.
func (s *Service) Record(ctx context.Context, q store.Querier, studentNumber string) (TimeIn, error) {
	if studentNumber == "" {
		return TimeIn{}, errors.New("student number required")
	}
	date, clock := s.clock.Now()
	return s.repo.Insert(ctx, q, TimeIn{StudentNumber: studentNumber, Date: date, Time: clock})
}

// List returns the joined log, newest first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}
