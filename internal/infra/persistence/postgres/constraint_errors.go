package postgres

import (
	"strings"

	"loyalty/internal/errors"

	"gorm.io/gorm"
)

type constraintKind int

const (
	constraintUnique constraintKind = iota
	constraintForeignKey
	constraintNotNull
	constraintCheck
)

// constraintSignature recognizes a violation by gorm's translated sentinel or, for
// dialects that leave driver errors raw, by message fragments and SQLSTATE codes.
type constraintSignature struct {
	sentinel  error
	fragments []string
}

//nolint:gochecknoglobals
var constraintSignatures = map[constraintKind]constraintSignature{
	constraintUnique: {
		sentinel:  gorm.ErrDuplicatedKey,
		fragments: []string{"duplicate key", "unique constraint", "23505"},
	},
	constraintForeignKey: {
		sentinel:  gorm.ErrForeignKeyViolated,
		fragments: []string{"foreign key constraint", "23503"},
	},
	constraintNotNull: {
		fragments: []string{"null value", "not null constraint", "23502"},
	},
	constraintCheck: {
		sentinel:  gorm.ErrCheckConstraintViolated,
		fragments: []string{"check constraint", "23514"},
	},
}

// violates reports whether err is a database error for the given kind of constraint.
func violates(err error, kind constraintKind) bool {
	if err == nil {
		return false
	}

	signature := constraintSignatures[kind]
	if signature.sentinel != nil && errors.Is(err, signature.sentinel) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range signature.fragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}
