package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound signals the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicatePhone signals the customers.phone unique constraint fired.
	// The registry treats this as "another writer won"; fetch and return theirs.
	ErrDuplicatePhone = errors.New("phone already registered")
	// ErrDuplicateQuestion signals the knowledge_base.question unique
	// constraint fired. The first-learned answer stays authoritative.
	ErrDuplicateQuestion = errors.New("question already learned")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
