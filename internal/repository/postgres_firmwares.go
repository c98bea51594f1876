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

// firmwareColumns SELECT 列清单（与 scanFirmware 对齐）
const firmwareColumns = `firmware_id, name, version, type, sub_type, version_parsed,
	file_path, file_size, description, created_date, upload_date, created_at, updated_at`

type PostgresFirmwaresRepo struct {
	db *sql.DB
}

func NewPostgresFirmwaresRepo(db *sql.DB) *PostgresFirmwaresRepo {
	return &PostgresFirmwaresRepo{db: db}
}

func (r *PostgresFirmwaresRepo) Insert(ctx context.Context, fw *domain.Firmware) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO firmwares (
			firmware_id, name, version, type, sub_type, version_parsed,
			file_path, file_size, description, created_date, upload_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		id, fw.Name, fw.Version, fw.Type, fw.SubType, pq.Array(fw.VersionParsed.Array()),
		fw.FilePath, fw.FileSize, fw.Description, fw.CreatedDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("insert firmware: %w", err)
	}
	return id, nil
}

func (r *PostgresFirmwaresRepo) GetByID(ctx context.Context, id string) (*domain.Firmware, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+firmwareColumns+` FROM firmwares WHERE firmware_id = $1`, id)
	return scanFirmware(row)
}

func (r *PostgresFirmwaresRepo) GetByKey(ctx context.Context, typ, subType, version string) (*domain.Firmware, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+firmwareColumns+` FROM firmwares WHERE type = $1 AND sub_type = $2 AND version = $3`,
		typ, subType, version)
	return scanFirmware(row)
}

func (r *PostgresFirmwaresRepo) List(ctx context.Context, filters FirmwareFilters, sort string, page, size int) ([]*domain.Firmware, int, error) {
	where, args := buildFirmwareWhere(filters)
	argN := len(args) + 1

	var total int
	countQuery := `SELECT COUNT(*) FROM firmwares ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count firmwares: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM firmwares %s %s LIMIT $%d OFFSET $%d`,
		firmwareColumns, where, buildFirmwareOrderBy(sort), argN, argN+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list firmwares: %w", err)
	}
	defer rows.Close()

	items := []*domain.Firmware{}
	for rows.Next() {
		fw, err := scanFirmware(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, fw)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresFirmwaresRepo) ListByTypeSubType(ctx context.Context, typ, subType string) ([]*domain.Firmware, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+firmwareColumns+` FROM firmwares WHERE type = $1 AND sub_type = $2`,
		typ, subType)
	if err != nil {
		return nil, fmt.Errorf("list firmwares by type: %w", err)
	}
	defer rows.Close()

	items := []*domain.Firmware{}
	for rows.Next() {
		fw, err := scanFirmware(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, fw)
	}
	return items, rows.Err()
}

func (r *PostgresFirmwaresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM firmwares WHERE firmware_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete firmware: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFirmware(row rowScanner) (*domain.Firmware, error) {
	fw := &domain.Firmware{}
	var parsed pq.Int64Array
	err := row.Scan(
		&fw.ID, &fw.Name, &fw.Version, &fw.Type, &fw.SubType, &parsed,
		&fw.FilePath, &fw.FileSize, &fw.Description, &fw.CreatedDate,
		&fw.UploadDate, &fw.CreatedAt, &fw.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan firmware: %w", err)
	}
	fw.VersionParsed = domain.VersionFromArray(parsed)
	return fw, nil
}

func buildFirmwareWhere(f FirmwareFilters) (string, []any) {
	where := []string{}
	args := []any{}
	argN := 1

	if f.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", argN))
		args = append(args, f.Type)
		argN++
	}
	if f.SubType != "" {
		where = append(where, fmt.Sprintf("sub_type = $%d", argN))
		args = append(args, f.SubType)
		argN++
	}
	if f.Version != "" {
		where = append(where, fmt.Sprintf("version = $%d", argN))
		args = append(args, f.Version)
		argN++
	}
	if f.Name != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", argN))
		args = append(args, "%"+f.Name+"%")
		argN++
	}
	if f.MinUploadDate != nil {
		where = append(where, fmt.Sprintf("upload_date >= $%d", argN))
		args = append(args, *f.MinUploadDate)
		argN++
	}
	if f.MaxUploadDate != nil {
		where = append(where, fmt.Sprintf("upload_date <= $%d", argN))
		args = append(args, *f.MaxUploadDate)
		argN++
	}

	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

// buildFirmwareOrderBy 排序白名单；前缀 '-' 表示降序，默认 -created_at
func buildFirmwareOrderBy(sort string) string {
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
	case "upload_date", "name", "version", "version_parsed", "created_date":
		column = sort
	case "createdAt", "created_at":
		column = "created_at"
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}
