package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"calibops-data/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const errorLogColumns = `error_id, parent_log_id, viewed, start_time, calibration_source,
	error_number, operator_name, software_version_stand, hardware_version_stand,
	serial_number_ob_jlink, stand_id, device_type, device_firmware_version,
	device_firmware_version_parsed, created_at`

type PostgresErrorLogsRepo struct {
	db *sql.DB
}

func NewPostgresErrorLogsRepo(db *sql.DB) *PostgresErrorLogsRepo {
	return &PostgresErrorLogsRepo{db: db}
}

func (r *PostgresErrorLogsRepo) BulkInsert(ctx context.Context, logs []*domain.ErrorLog) error {
	if len(logs) == 0 {
		return nil
	}
	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO error_logs (
			error_id, parent_log_id, viewed, start_time, calibration_source,
			error_number, operator_name, software_version_stand, hardware_version_stand,
			serial_number_ob_jlink, stand_id, device_type, device_firmware_version,
			device_firmware_version_parsed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`)
	if err != nil {
		return fmt.Errorf("prepare error log insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range logs {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), e.ParentLogID, e.Viewed, e.StartTime, e.CalibrationSource,
			e.ErrorNumber, e.OperatorName, e.SoftwareVersionStand, e.HardwareVersionStand,
			e.SerialNumberObJlink, e.StandID, e.DeviceType, e.DeviceFirmwareVersion,
			nullableInt64Array(e.DeviceFirmwareVersionParsed),
		)
		if err != nil {
			return fmt.Errorf("insert error log: %w", err)
		}
	}
	return nil
}

func (r *PostgresErrorLogsRepo) List(ctx context.Context, filters ErrorLogFilters, sort string, page, size int) ([]*domain.ErrorLog, int, error) {
	where, args := buildErrorLogWhere(filters)
	argN := len(args) + 1

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM error_logs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count error logs: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM error_logs %s %s LIMIT $%d OFFSET $%d`,
		errorLogColumns, where, buildErrorLogOrderBy(sort), argN, argN+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list error logs: %w", err)
	}
	defer rows.Close()

	items := []*domain.ErrorLog{}
	for rows.Next() {
		e, err := scanErrorLog(rows)
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

func (r *PostgresErrorLogsRepo) HasUnviewed(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM error_logs WHERE viewed = FALSE)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check unviewed errors: %w", err)
	}
	return exists, nil
}

func (r *PostgresErrorLogsRepo) MarkAllViewed(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE error_logs SET viewed = TRUE WHERE viewed = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("mark errors viewed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *PostgresErrorLogsRepo) DeleteByParent(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM error_logs WHERE parent_log_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete error logs: %w", err)
	}
	return nil
}

func scanErrorLog(row rowScanner) (*domain.ErrorLog, error) {
	e := &domain.ErrorLog{}
	var parsed pq.Int64Array
	err := row.Scan(
		&e.ID, &e.ParentLogID, &e.Viewed, &e.StartTime, &e.CalibrationSource,
		&e.ErrorNumber, &e.OperatorName, &e.SoftwareVersionStand, &e.HardwareVersionStand,
		&e.SerialNumberObJlink, &e.StandID, &e.DeviceType, &e.DeviceFirmwareVersion,
		&parsed, &e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan error log: %w", err)
	}
	if parsed != nil {
		e.DeviceFirmwareVersionParsed = parsed
	}
	return e, nil
}

func buildErrorLogWhere(f ErrorLogFilters) (string, []any) {
	where := []string{}
	args := []any{}
	argN := 1

	addEq := func(column, value string) {
		if value == "" {
			return
		}
		where = append(where, fmt.Sprintf("%s = $%d", column, argN))
		args = append(args, value)
		argN++
	}
	addEq("operator_name", f.OperatorName)
	addEq("software_version_stand", f.SoftwareVersionStand)
	addEq("hardware_version_stand", f.HardwareVersionStand)
	addEq("serial_number_ob_jlink", f.SerialNumberObJlink)
	addEq("stand_id", f.StandID)
	addEq("device_type", f.DeviceType)

	if f.FirmwareVersionMin != nil || f.FirmwareVersionMax != nil {
		where = append(where, "device_firmware_version_parsed IS NOT NULL")
		if f.FirmwareVersionMin != nil {
			where = append(where, fmt.Sprintf("device_firmware_version_parsed >= $%d", argN))
			args = append(args, pq.Array(f.FirmwareVersionMin))
			argN++
		}
		if f.FirmwareVersionMax != nil {
			where = append(where, fmt.Sprintf("device_firmware_version_parsed <= $%d", argN))
			args = append(args, pq.Array(f.FirmwareVersionMax))
			argN++
		}
	}
	if f.StartTimeFrom != nil {
		where = append(where, fmt.Sprintf("start_time >= $%d", argN))
		args = append(args, *f.StartTimeFrom)
		argN++
	}
	if f.StartTimeTo != nil {
		where = append(where, fmt.Sprintf("start_time <= $%d", argN))
		args = append(args, *f.StartTimeTo)
		argN++
	}

	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func buildErrorLogOrderBy(sort string) string {
	if sort == "" {
		sort = "-created_at"
	}
	direction := "ASC"
	if strings.HasPrefix(sort, "-") {
		direction = "DESC"
		sort = strings.TrimPrefix(sort, "-")
	}
	column := "created_at"
	switch sort {
	case "start_time", "operator_name", "stand_id":
		column = sort
	case "createdAt", "created_at":
		column = "created_at"
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}
