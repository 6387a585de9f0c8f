package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation PostgreSQL 唯一约束冲突 SQLSTATE
const pgUniqueViolation = "23505"

// ErrSerialExhausted 多次重新生成编号仍然冲突
var ErrSerialExhausted = errors.New("证书编号生成冲突，请稍后重试")

// IsUniqueViolation 判断错误是否由唯一约束冲突引起
// 兼容 GORM TranslateError 翻译后的 ErrDuplicatedKey 与未翻译的原生 PgError
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
