package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func stored() Student {
	return Student{
		ID:            1,
		IDNo:          "S1",
		Name:          "Ana",
		StudentNumber: "2020-999",
		Institute:     "CS",
		RFIDTag:       "AA11",
		Status:        StatusActive,
	}
}

func TestDiffOnlyStudentNumber(t *testing.T) {
	cand := Candidate{
		IDNo:          ptr("S1"),
		Name:          ptr("Ana"),
		StudentNumber: ptr("2021-001"),
		Institute:     ptr("CS"),
		RFIDTag:       ptr("AA11"),
		Status:        ptr(StatusActive),
	}
	p := Diff(stored(), cand)
	assert.Equal(t, []string{"studentNumber"}, p.Fields())
	require.NotNil(t, p.StudentNumber)
	assert.Equal(t, "2021-001", *p.StudentNumber)
	assert.False(t, p.Empty())
}

func TestDiffAbsentFieldsRequestNoChange(t *testing.T) {
	p := Diff(stored(), Candidate{})
	assert.True(t, p.Empty())
	assert.Nil(t, p.Fields())
}

func TestDiffIdenticalCandidateIsEmpty(t *testing.T) {
	s := stored()
	cand := Candidate{
		IDNo: &s.IDNo, Name: &s.Name, StudentNumber: &s.StudentNumber,
		Institute: &s.Institute, RFIDTag: &s.RFIDTag, Status: &s.Status,
	}
	assert.True(t, Diff(s, cand).Empty())
}

func TestDiffDoesNotAliasCandidate(t *testing.T) {
	name := "Bea"
	p := Diff(stored(), Candidate{Name: &name})
	name = "Cid"
	require.NotNil(t, p.Name)
	assert.Equal(t, "Bea", *p.Name)
}

func TestApplyMergesChangedFields(t *testing.T) {
	cand := Candidate{Name: ptr("Bea"), RFIDTag: ptr("BB22"), Status: ptr(StatusGraduated)}
	before := stored()
	after := Diff(before, cand).Apply(before)

	assert.Equal(t, "Bea", after.Name)
	assert.Equal(t, "BB22", after.RFIDTag)
	assert.Equal(t, StatusGraduated, after.Status)
	assert.Equal(t, before.StudentNumber, after.StudentNumber)
	assert.Equal(t, before.IDNo, after.IDNo)
	assert.Equal(t, before.Institute, after.Institute)
}

func TestPatchFieldOrderIsFixed(t *testing.T) {
	cand := Candidate{
		Status: ptr(StatusInactive), RFIDTag: ptr("X"), Institute: ptr("EE"),
		StudentNumber: ptr("N"), Name: ptr("Z"), IDNo: ptr("I"),
	}
	assert.Equal(t,
		[]string{"idNo", "name", "studentNumber", "institute", "rfidTag", "status"},
		Diff(stored(), cand).Fields())
}

func TestStatusArg(t *testing.T) {
	assert.Nil(t, Patch{}.statusArg())
	got := Patch{Status: ptr(StatusInactive)}.statusArg()
	require.NotNil(t, got)
	assert.Equal(t, "Inactive", *got)
}
