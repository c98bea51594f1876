package repository

import (
	"context"
	"testing"
	"time"

	"calibops-data/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSessionWhere(t *testing.T) {
	where, args := buildSessionWhere(SessionFilters{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildSessionWhere(SessionFilters{
		OperatorName: "a.petrov",
		StandID:      "STAND-7",
	})
	assert.Equal(t, "WHERE operator_name = $1 AND stand_id = $2", where)
	assert.Equal(t, []any{"a.petrov", "STAND-7"}, args)
}

func TestBuildSessionWhereVersionRange(t *testing.T) {
	// 版本区间下推为 integer[] 比较，附带 NOT NULL 保护
	where, args := buildSessionWhere(SessionFilters{
		FirmwareVersionMin: []int64{1, 0, 0},
		FirmwareVersionMax: []int64{2, 0, 0},
	})
	assert.Equal(t,
		"WHERE device_firmware_version_parsed IS NOT NULL"+
			" AND device_firmware_version_parsed >= $1"+
			" AND device_firmware_version_parsed <= $2",
		where)
	assert.Len(t, args, 2)
}

func TestBuildSessionWhereTimeRange(t *testing.T) {
	from := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	where, args := buildSessionWhere(SessionFilters{StartTimeFrom: &from, StartTimeTo: &to})
	assert.Equal(t, "WHERE application_start_time >= $1 AND application_start_time <= $2", where)
	assert.Equal(t, []any{from, to}, args)
}

func TestBuildSessionOrderBy(t *testing.T) {
	assert.Equal(t, "ORDER BY application_start_time DESC", buildSessionOrderBy(""))
	assert.Equal(t, "ORDER BY operator_name ASC", buildSessionOrderBy("operator_name"))
	assert.Equal(t, "ORDER BY created_at DESC", buildSessionOrderBy("-created_at"))
	// 白名单外的列回落到默认
	assert.Equal(t, "ORDER BY application_start_time ASC", buildSessionOrderBy("'; --"))
}

func TestPostgresSessionsInsertAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresSessionsRepo(db)

	mock.ExpectExec(`INSERT INTO sessions`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Insert(context.Background(), &domain.Session{
		ComPorts: []string{"COM3"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	mock.ExpectExec(`DELETE FROM sessions WHERE session_id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(`DELETE FROM sessions WHERE session_id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
