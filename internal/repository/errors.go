package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 唯一键冲突（SQLSTATE 23505）
	ErrDuplicate = errors.New("duplicate key")
)

// isUniqueViolation 判断是否为 Postgres 唯一约束冲突
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
