package repositories_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"attendance_backend/internal/models"
	"attendance_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var attendanceCols = []string{"id", "emp_id", "checkin_datetime", "checkout_datetime"}

func TestTransactor(t *testing.T) {
	ctx := context.Background()
	empID := uuid.New()

	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM employees WHERE emp_id = $1 FOR UPDATE")).
			WithArgs(empID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
		mock.ExpectCommit()

		employees := repositories.NewEmployeeRepository(db)
		err := repositories.NewTransactor(db).WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			return employees.LockEmployee(ctx, exec, empID)
		})
		assert.NoError(t, err)
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs(empID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		employees := repositories.NewEmployeeRepository(db)
		err := repositories.NewTransactor(db).WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			return employees.LockEmployee(ctx, exec, empID)
		})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

		called := false
		err := repositories.NewTransactor(db).WithinTx(ctx, func(repositories.SQLExecutor) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, repositories.ErrDatabaseError)
		assert.False(t, called)
	})
}

func TestAttendanceRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	empID := uuid.New()
	checkin := models.NewLocalDateTime(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	checkout := models.NewLocalDateTime(time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC))

	t.Run("create check-in", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendances (emp_id, checkin_datetime)")).
			WithArgs(empID, checkin.Time).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

		a, err := repositories.NewAttendanceRepository(db).CreateCheckin(ctx, db, empID, checkin)
		require.NoError(t, err)
		assert.Equal(t, int64(11), a.ID)
		assert.True(t, a.IsOpen())
	})

	t.Run("second open session violates the partial index", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendances")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "attendances_one_open_per_employee"})

		_, err := repositories.NewAttendanceRepository(db).CreateCheckin(ctx, db, empID, checkin)
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
	})

	t.Run("latest checkout", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(checkout_datetime) FROM attendances WHERE emp_id = $1")).
			WithArgs(empID).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(checkout.Time))

		latest, err := repositories.NewAttendanceRepository(db).FindLatestCheckout(ctx, db, empID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, checkout, *latest)
	})

	t.Run("no closed session has no latest checkout", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(checkout_datetime)")).
			WithArgs(empID).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		latest, err := repositories.NewAttendanceRepository(db).FindLatestCheckout(ctx, db, empID)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("latest checkout query failure", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(checkout_datetime)")).
			WillReturnError(errors.New("connection reset"))

		_, err := repositories.NewAttendanceRepository(db).FindLatestCheckout(ctx, db, empID)
		assert.ErrorIs(t, err, repositories.ErrDatabaseError)
	})

	t.Run("find open session", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE emp_id = $1 AND checkout_datetime IS NULL")).
			WithArgs(empID).
			WillReturnRows(sqlmock.NewRows(attendanceCols).AddRow(int64(11), empID.String(), checkin.Time, nil))

		a, err := repositories.NewAttendanceRepository(db).FindOpenByEmployee(ctx, db, empID)
		require.NoError(t, err)
		assert.Equal(t, empID, a.EmpID)
		assert.Equal(t, checkin, a.CheckinDatetime)
		assert.Nil(t, a.CheckoutDatetime)
	})

	t.Run("no open session", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("checkout_datetime IS NULL")).
			WithArgs(empID).
			WillReturnRows(sqlmock.NewRows(attendanceCols))

		_, err := repositories.NewAttendanceRepository(db).FindOpenByEmployee(ctx, db, empID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("close session", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE attendances SET checkout_datetime = $1")).
			WithArgs(checkout.Time, int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repositories.NewAttendanceRepository(db).CloseSession(ctx, db, 11, checkout))
	})

	t.Run("closing an already closed session affects no rows", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE attendances")).
			WithArgs(checkout.Time, int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repositories.NewAttendanceRepository(db).CloseSession(ctx, db, 11, checkout)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("checkout before checkin violates the check constraint", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE attendances")).
			WillReturnError(&pq.Error{Code: "23514", Constraint: "attendances_checkout_after_checkin"})

		err := repositories.NewAttendanceRepository(db).CloseSession(ctx, db, 11, checkout)
		assert.ErrorIs(t, err, repositories.ErrDatabaseError)
	})
}

func TestAttendanceRepository_Queries(t *testing.T) {
	ctx := context.Background()
	empID := uuid.New()
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)
	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	out := time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(attendanceCols).
			AddRow(int64(1), empID.String(), in, out).
			AddRow(int64(2), empID.String(), in.Add(9*time.Hour), nil)
	}

	tests := []struct {
		name  string
		query string
		args  []driver.Value
		call  func(repositories.AttendanceRepository) ([]models.Attendance, error)
	}{
		{"by employee", "ORDER BY checkin_datetime DESC", []driver.Value{empID},
			func(r repositories.AttendanceRepository) ([]models.Attendance, error) { return r.FindByEmployee(ctx, empID) }},
		{"by employee and date", "checkin_datetime::date = $2::date", []driver.Value{empID, "2024-01-15"},
			func(r repositories.AttendanceRepository) ([]models.Attendance, error) {
				return r.FindByEmployeeAndDate(ctx, empID, day)
			}},
		{"by employee and range", "BETWEEN $2::date AND $3::date", []driver.Value{empID, "2024-01-15", "2024-01-16"},
			func(r repositories.AttendanceRepository) ([]models.Attendance, error) {
				return r.FindByEmployeeAndDateRange(ctx, empID, day, next)
			}},
		{"by date", "WHERE checkin_datetime::date = $1::date", []driver.Value{"2024-01-15"},
			func(r repositories.AttendanceRepository) ([]models.Attendance, error) { return r.FindByDate(ctx, day) }},
		{"by date range", "WHERE checkin_datetime::date BETWEEN $1::date AND $2::date", []driver.Value{"2024-01-15", "2024-01-16"},
			func(r repositories.AttendanceRepository) ([]models.Attendance, error) {
				return r.FindByDateRange(ctx, day, next)
			}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta(tt.query)).WithArgs(tt.args...).WillReturnRows(rows())

			records, err := tt.call(repositories.NewAttendanceRepository(db))
			require.NoError(t, err)
			require.Len(t, records, 2)
			require.NotNil(t, records[0].CheckoutDatetime)
			assert.Equal(t, "2024-01-15T17:00:00", records[0].CheckoutDatetime.String())
			assert.True(t, records[1].IsOpen())
		})
	}

	t.Run("empty result is an empty slice", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM attendances")).WillReturnRows(sqlmock.NewRows(attendanceCols))

		records, err := repositories.NewAttendanceRepository(db).FindByDate(ctx, day)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM attendances")).WillReturnError(errors.New("boom"))

		_, err := repositories.NewAttendanceRepository(db).FindByEmployee(ctx, empID)
		assert.ErrorIs(t, err, repositories.ErrDatabaseError)
	})
}
