package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/formworks/licensing/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func poolRows(total, used, available int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "org_id", "plan_code", "total", "used", "available"}).
		AddRow(1, 1, "BASIC", total, used, available)
}

func TestReserveSeatConsumesOne(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPoolRepository(db)

	// The available > 0 guard rides in the WHERE clause of the update.
	mock.ExpectExec("UPDATE `license_pools` SET .+ WHERE org_id = \\? AND plan_code = \\? AND available > 0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReserveSeat(1, "BASIC"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatExhausted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPoolRepository(db)

	// Zero rows affected on an existing pool means no seat was free.
	mock.ExpectExec("UPDATE `license_pools` SET .+ AND available > 0").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `license_pools` WHERE org_id = \\? AND plan_code = \\?").
		WillReturnRows(poolRows(5, 5, 0))

	err := repo.ReserveSeat(1, "BASIC")
	assert.ErrorIs(t, err, ErrNoAvailableSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatMissingPool(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPoolRepository(db)

	mock.ExpectExec("UPDATE `license_pools` SET .+ AND available > 0").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `license_pools`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.ReserveSeat(1, "GHOST")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatReturnsOne(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPoolRepository(db)

	mock.ExpectExec("UPDATE `license_pools` SET .+ WHERE org_id = \\? AND plan_code = \\? AND used > 0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseSeat(1, "BASIC"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatUnderflow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPoolRepository(db)

	// The pool exists but used is already zero.
	mock.ExpectExec("UPDATE `license_pools` SET .+ AND used > 0").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `license_pools` WHERE org_id = \\? AND plan_code = \\?").
		WillReturnRows(poolRows(5, 0, 5))

	err := repo.ReleaseSeat(1, "BASIC")
	assert.ErrorIs(t, err, ErrSeatUnderflow)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionUpsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPoolRepository(db)

	// Resize keeps used and recomputes available from the new total.
	mock.ExpectExec("INSERT INTO `license_pools` .+ ON DUPLICATE KEY UPDATE .*`available`=.+ - used.*").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Provision(&models.LicensePool{OrgID: 1, PlanCode: "BASIC", Total: 10, Available: 10})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPool(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPoolRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `license_pools` WHERE org_id = \\? AND plan_code = \\?").
		WillReturnRows(poolRows(25, 24, 1))

	pool, err := repo.Get(1, "BASIC")
	require.NoError(t, err)
	assert.Equal(t, 25, pool.Total)
	assert.Equal(t, 24, pool.Used)
	assert.Equal(t, 1, pool.Available)
	require.NoError(t, pool.CheckConservation())
	assert.NoError(t, mock.ExpectationsWereMet())
}
