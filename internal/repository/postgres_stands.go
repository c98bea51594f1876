package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"calibops-data/internal/domain"

	"github.com/google/uuid"
)

const standColumns = `id, stand_id, software_version_stand, hardware_version_stand,
	serial_number_ob_jlink, status, last_used, repair_history,
	scheduled_maintenance, additional_notes, additional_data, created_at, updated_at`

type PostgresStandsRepo struct {
	db *sql.DB
}

func NewPostgresStandsRepo(db *sql.DB) *PostgresStandsRepo {
	return &PostgresStandsRepo{db: db}
}

func (r *PostgresStandsRepo) GetByID(ctx context.Context, id string) (*domain.Stand, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+standColumns+` FROM stands WHERE id = $1`, id)
	return scanStand(row)
}

func (r *PostgresStandsRepo) GetByStandID(ctx context.Context, standID string) (*domain.Stand, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+standColumns+` FROM stands WHERE stand_id = $1`, standID)
	return scanStand(row)
}

func (r *PostgresStandsRepo) List(ctx context.Context, status string, sort string, page, size int) ([]*domain.Stand, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = "WHERE status = $1"
		args = append(args, status)
	}
	argN := len(args) + 1

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stands `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stands: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM stands %s %s LIMIT $%d OFFSET $%d`,
		standColumns, where, buildStandOrderBy(sort), argN, argN+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stands: %w", err)
	}
	defer rows.Close()

	items := []*domain.Stand{}
	for rows.Next() {
		s, err := scanStand(rows)
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

func (r *PostgresStandsRepo) Insert(ctx context.Context, s *domain.Stand) (string, error) {
	id := uuid.New().String()
	history, err := marshalRepairHistory(s.RepairHistory)
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO stands (
			id, stand_id, software_version_stand, hardware_version_stand,
			serial_number_ob_jlink, status, last_used, repair_history,
			scheduled_maintenance, additional_notes, additional_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, s.StandID, s.SoftwareVersionStand, s.HardwareVersionStand,
		s.SerialNumberObJlink, s.Status, s.LastUsed, history,
		nullableJSON(s.ScheduledMaintenance), s.AdditionalNotes, nullableJSON(s.AdditionalData),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("insert stand: %w", err)
	}
	return id, nil
}

func (r *PostgresStandsRepo) Update(ctx context.Context, s *domain.Stand) error {
	history, err := marshalRepairHistory(s.RepairHistory)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE stands SET
			software_version_stand = $2, hardware_version_stand = $3,
			serial_number_ob_jlink = $4, status = $5, last_used = $6,
			repair_history = $7, scheduled_maintenance = $8,
			additional_notes = $9, additional_data = $10, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.SoftwareVersionStand, s.HardwareVersionStand,
		s.SerialNumberObJlink, s.Status, s.LastUsed,
		history, nullableJSON(s.ScheduledMaintenance),
		s.AdditionalNotes, nullableJSON(s.AdditionalData),
	)
	if err != nil {
		return fmt.Errorf("update stand: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStandsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stand: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStand(row rowScanner) (*domain.Stand, error) {
	s := &domain.Stand{}
	var history []byte
	var schedMaint, addData []byte
	err := row.Scan(
		&s.ID, &s.StandID, &s.SoftwareVersionStand, &s.HardwareVersionStand,
		&s.SerialNumberObJlink, &s.Status, &s.LastUsed, &history,
		&schedMaint, &s.AdditionalNotes, &addData, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan stand: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &s.RepairHistory); err != nil {
			return nil, fmt.Errorf("decode repair history: %w", err)
		}
	}
	s.ScheduledMaintenance = schedMaint
	s.AdditionalData = addData
	return s, nil
}

func marshalRepairHistory(history []domain.RepairRecord) ([]byte, error) {
	if history == nil {
		history = []domain.RepairRecord{}
	}
	b, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("encode repair history: %w", err)
	}
	return b, nil
}

func buildStandOrderBy(sort string) string {
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
	case "last_used", "stand_id", "status", "updated_at":
		column = sort
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}
