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

const sessionColumns = `session_id, operator_name, com_ports, application_start_time,
	software_version_stand, hardware_version_stand, serial_number_ob_jlink,
	stand_id, device_type, device_firmware_version, device_firmware_version_parsed,
	created_at, updated_at`

type PostgresSessionsRepo struct {
	db *sql.DB
}

func NewPostgresSessionsRepo(db *sql.DB) *PostgresSessionsRepo {
	return &PostgresSessionsRepo{db: db}
}

func (r *PostgresSessionsRepo) Insert(ctx context.Context, s *domain.Session) (string, error) {
	id := uuid.New().String()
	var parsed any
	if s.DeviceFirmwareVersionParsed != nil {
		parsed = pq.Array(s.DeviceFirmwareVersionParsed)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (
			session_id, operator_name, com_ports, application_start_time,
			software_version_stand, hardware_version_stand, serial_number_ob_jlink,
			stand_id, device_type, device_firmware_version, device_firmware_version_parsed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, s.OperatorName, pq.Array(s.ComPorts), s.ApplicationStartTime,
		s.SoftwareVersionStand, s.HardwareVersionStand, s.SerialNumberObJlink,
		s.StandID, s.DeviceType, s.DeviceFirmwareVersion, parsed,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

func (r *PostgresSessionsRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = $1`, id)
	return scanSession(row)
}

func (r *PostgresSessionsRepo) List(ctx context.Context, filters SessionFilters, sort string, page, size int) ([]*domain.Session, int, error) {
	where, args := buildSessionWhere(filters)
	argN := len(args) + 1

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM sessions %s %s LIMIT $%d OFFSET $%d`,
		sessionColumns, where, buildSessionOrderBy(sort), argN, argN+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	items := []*domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresSessionsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSession(row rowScanner) (*domain.Session, error) {
	s := &domain.Session{}
	var comPorts pq.StringArray
	var parsed pq.Int64Array
	err := row.Scan(
		&s.ID, &s.OperatorName, &comPorts, &s.ApplicationStartTime,
		&s.SoftwareVersionStand, &s.HardwareVersionStand, &s.SerialNumberObJlink,
		&s.StandID, &s.DeviceType, &s.DeviceFirmwareVersion, &parsed,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.ComPorts = comPorts
	if parsed != nil {
		s.DeviceFirmwareVersionParsed = parsed
	}
	return s, nil
}

func buildSessionWhere(f SessionFilters) (string, []any) {
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
		where = append(where, fmt.Sprintf("application_start_time >= $%d", argN))
		args = append(args, *f.StartTimeFrom)
		argN++
	}
	if f.StartTimeTo != nil {
		where = append(where, fmt.Sprintf("application_start_time <= $%d", argN))
		args = append(args, *f.StartTimeTo)
		argN++
	}

	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func buildSessionOrderBy(sort string) string {
	if sort == "" {
		sort = "-application_start_time"
	}
	direction := "ASC"
	if strings.HasPrefix(sort, "-") {
		direction = "DESC"
		sort = strings.TrimPrefix(sort, "-")
	}
	column := "application_start_time"
	switch sort {
	case "created_at", "createdAt":
		column = "created_at"
	case "operator_name", "stand_id", "device_type":
		column = sort
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}
