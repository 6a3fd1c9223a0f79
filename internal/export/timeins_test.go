package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rfidattendance/internal/attendance"
)

func TestWriteTimeIns(t *testing.T) {
	entries := []attendance.Entry{
		{TimeIn: attendance.TimeIn{ID: 2, StudentNumber: "2021-001", Date: "2024-02-01", Time: "08:30:00"}, Name: "Ana", Institute: "CS"},
		{TimeIn: attendance.TimeIn{ID: 1, StudentNumber: "2021-002", Date: "2024-01-31", Time: "07:55:10"}, Name: "Bea", Institute: "IT"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTimeIns(&buf, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetTimeIns)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, timeInHeader, rows[0])
	assert.Equal(t, []string{"2024-02-01", "08:30:00", "2021-001", "Ana", "CS"}, rows[1])
	assert.Equal(t, []string{"2024-01-31", "07:55:10", "2021-002", "Bea", "IT"}, rows[2])

	style, err := f.GetCellStyle(SheetTimeIns, "E1")
	require.NoError(t, err)
	assert.NotZero(t, style)
	width, err := f.GetColWidth(SheetTimeIns, "C")
	require.NoError(t, err)
	assert.Equal(t, 18.0, width)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteTimeInsReportsWriteFailure(t *testing.T) {
	err := WriteTimeIns(brokenWriter{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
