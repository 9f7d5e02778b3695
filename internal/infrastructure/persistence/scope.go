package persistence

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// inChunkSize bounds the number of ids bound into one IN clause
const inChunkSize = 500

// withOwnerScope restricts a contracts query to rows the user owns as sales or account owner.
// A nil scope leaves the query unrestricted.
func withOwnerScope(db *gorm.DB, scope *uuid.UUID) *gorm.DB {
	if scope == nil {
		return db
	}
	group := db.Session(&gorm.Session{NewDB: true}).
		Where("sales_owner_id = ?", *scope).
		Or("account_owner_id = ?", *scope)
	return db.Where(group)
}

// chunkIDs splits ids into slices of at most size elements
func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	var chunks [][]uuid.UUID
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// isUniqueViolation reports whether err is a unique constraint violation,
// translated or raw from either the postgres or the sqlite driver
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// likePattern builds a case-insensitive contains pattern with LIKE wildcards escaped
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(keyword))) + "%"
}
