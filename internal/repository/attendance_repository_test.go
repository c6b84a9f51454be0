package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	recorded := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "date", "present", "excused", "remark", "recorded_at", "updated_at"}).
		AddRow(int64(5), int64(7), int64(3), date, true, false, nil, recorded, recorded)

	mock.ExpectQuery(`INSERT INTO attendance \(student_id, course_id, date, present, excused, remark, recorded_at, updated_at\)`).
		WithArgs(int64(7), int64(3), date, true, false, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.AttendanceRecord{
		StudentID: 7, CourseID: 3, Date: date, Present: true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), stored.ID)
	require.True(t, stored.Present)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStatistics(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"total_days", "present_days", "excused_days", "unexcused_days"}).
		AddRow(int64(3), int64(2), int64(1), int64(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total_days`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(rows)

	stats, err := repo.Statistics(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalDays)
	require.Equal(t, int64(2), stats.PresentDays)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(`DELETE FROM attendance WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
