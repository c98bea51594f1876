package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresLookupsRepo struct {
	db *sql.DB
}

func NewPostgresLookupsRepo(db *sql.DB) *PostgresLookupsRepo {
	return &PostgresLookupsRepo{db: db}
}

func (r *PostgresLookupsRepo) EnsureOperatorName(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO operator_names (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("ensure operator name: %w", err)
	}
	return nil
}

func (r *PostgresLookupsRepo) EnsureStandID(ctx context.Context, standID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stand_ids (stand_id) VALUES ($1) ON CONFLICT (stand_id) DO NOTHING`, standID)
	if err != nil {
		return fmt.Errorf("ensure stand id: %w", err)
	}
	return nil
}

func (r *PostgresLookupsRepo) ListOperatorNames(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, `SELECT name FROM operator_names ORDER BY name`)
}

func (r *PostgresLookupsRepo) ListStandIDs(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, `SELECT stand_id FROM stand_ids ORDER BY stand_id`)
}

func (r *PostgresLookupsRepo) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list lookup values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
