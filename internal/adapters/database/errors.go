package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// classify maps a driver error to the error taxonomy
func classify(err error, message string) error {
	if isUniqueViolation(err) {
		return apperrors.NewDuplicateNameError("a test with this name already exists")
	}
	return apperrors.NewStorageUnavailableError(message, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
