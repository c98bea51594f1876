package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"calibops-data/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const entryColumns = `entry_id, session_id, stand_id, device_type, operator_name,
	device_firmware_version_parsed, start_time, reference_voltage_steps,
	dac_min_steps, dac_max_steps, dac_steps, calibration_steps, end_of_calibration,
	active_mode_current, sleep_mode_current, average_sleep_mode_current,
	serial_number, error_detected, error_number, test_duration,
	calibration_successful, calibration_source, created_at`

type PostgresEntriesRepo struct {
	db *sql.DB
}

func NewPostgresEntriesRepo(db *sql.DB) *PostgresEntriesRepo {
	return &PostgresEntriesRepo{db: db}
}

func (r *PostgresEntriesRepo) BulkInsert(ctx context.Context, entries []*domain.CalibrationEntry) error {
	if len(entries) == 0 {
		return nil
	}
	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO calibration_entries (
			entry_id, session_id, stand_id, device_type, operator_name,
			device_firmware_version_parsed, start_time, reference_voltage_steps,
			dac_min_steps, dac_max_steps, dac_steps, calibration_steps, end_of_calibration,
			active_mode_current, sleep_mode_current, average_sleep_mode_current,
			serial_number, error_detected, error_number, test_duration,
			calibration_successful, calibration_source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), e.SessionID, e.StandID, e.DeviceType, e.OperatorName,
			nullableInt64Array(e.DeviceFirmwareVersionParsed), e.StartTime, nullableJSON(e.ReferenceVoltageSteps),
			nullableInt64Array(e.DacMinSteps), nullableInt64Array(e.DacMaxSteps),
			nullableJSON(e.DacSteps), nullableJSON(e.CalibrationSteps), nullableJSON(e.EndOfCalibration),
			e.ActiveModeCurrent, nullableFloat64Array(e.SleepModeCurrent), e.AverageSleepModeCurrent,
			e.SerialNumber, e.ErrorDetected, e.ErrorNumber, e.TestDuration,
			e.CalibrationSuccessful, e.CalibrationSource,
		)
		if err != nil {
			return fmt.Errorf("insert calibration entry: %w", err)
		}
	}
	return nil
}

func (r *PostgresEntriesRepo) ListBySession(ctx context.Context, sessionID string, page, size int) ([]*domain.CalibrationEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM calibration_entries WHERE session_id = $1`, sessionID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM calibration_entries
		 WHERE session_id = $1 ORDER BY start_time ASC LIMIT $2 OFFSET $3`,
		sessionID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	items := []*domain.CalibrationEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresEntriesRepo) CountBySession(ctx context.Context, sessionID string) (int, int, error) {
	var total, errCount int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE error_detected) FROM calibration_entries WHERE session_id = $1`,
		sessionID).Scan(&total, &errCount)
	if err != nil {
		return 0, 0, fmt.Errorf("count entries: %w", err)
	}
	return total, errCount, nil
}

func (r *PostgresEntriesRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM calibration_entries WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}

func scanEntry(row rowScanner) (*domain.CalibrationEntry, error) {
	e := &domain.CalibrationEntry{}
	var fwParsed, dacMin, dacMax pq.Int64Array
	var sleepCurrent pq.Float64Array
	var refSteps, dacSteps, calSteps, endOfCal []byte
	err := row.Scan(
		&e.ID, &e.SessionID, &e.StandID, &e.DeviceType, &e.OperatorName,
		&fwParsed, &e.StartTime, &refSteps,
		&dacMin, &dacMax, &dacSteps, &calSteps, &endOfCal,
		&e.ActiveModeCurrent, &sleepCurrent, &e.AverageSleepModeCurrent,
		&e.SerialNumber, &e.ErrorDetected, &e.ErrorNumber, &e.TestDuration,
		&e.CalibrationSuccessful, &e.CalibrationSource, &e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	e.DeviceFirmwareVersionParsed = fwParsed
	e.DacMinSteps = dacMin
	e.DacMaxSteps = dacMax
	e.SleepModeCurrent = sleepCurrent
	e.ReferenceVoltageSteps = refSteps
	e.DacSteps = dacSteps
	e.CalibrationSteps = calSteps
	e.EndOfCalibration = endOfCal
	return e, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func nullableInt64Array(a []int64) any {
	if a == nil {
		return nil
	}
	return pq.Array(a)
}

func nullableFloat64Array(a []float64) any {
	if a == nil {
		return nil
	}
	return pq.Array(a)
}
