package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrollmentRows(studentID, courseID int64, status models.EnrollmentStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "student_id", "course_id", "registration_date", "withdrawal_date", "status", "final_grade", "remarks", "created_at", "updated_at"}).
		AddRow(int64(1), studentID, courseID, now, nil, status, nil, nil, now, now)
}

func TestEnrollmentRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM enrollments WHERE student_id = \$1 AND course_id = \$2`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`UPDATE courses SET current_participants = current_participants \+ 1`).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO enrollments`).
		WillReturnRows(enrollmentRows(7, 3, models.EnrollmentStatusRegistered))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: 7, CourseID: 3, RegistrationDate: time.Now().UTC(), Status: models.EnrollmentStatusRegistered}
	err := repo.Enroll(context.Background(), enrollment)
	require.NoError(t, err)
	require.Equal(t, int64(1), enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollCourseFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM enrollments WHERE student_id = \$1 AND course_id = \$2`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`UPDATE courses SET current_participants = current_participants \+ 1`).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: 7, CourseID: 3, RegistrationDate: time.Now().UTC(), Status: models.EnrollmentStatusRegistered}
	err := repo.Enroll(context.Background(), enrollment)
	require.ErrorIs(t, err, ErrCourseFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM enrollments WHERE student_id = \$1 AND course_id = \$2`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: 7, CourseID: 3, RegistrationDate: time.Now().UTC(), Status: models.EnrollmentStatusRegistered}
	err := repo.Enroll(context.Background(), enrollment)
	require.ErrorIs(t, err, ErrDuplicateEnrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryWithdraw(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE enrollments SET status = \$3, withdrawal_date = \$4`).
		WillReturnRows(enrollmentRows(7, 3, models.EnrollmentStatusWithdrawn))
	mock.ExpectExec(`UPDATE courses SET current_participants = current_participants - 1`).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment, err := repo.Withdraw(context.Background(), 7, 3, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusWithdrawn, enrollment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM enrollments WHERE student_id = \$1 AND course_id = \$2`).
		WithArgs(int64(7), int64(3), models.EnrollmentStatusRegistered, models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsRoster(context.Background(), 7, 3)
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
