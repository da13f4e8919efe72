package sqlerr

import "github.com/jackc/pgx/v5/pgconn"

// Code is the application-level category of a database error.
type Code int

const (
	Other Code = iota
	UniqueViolation
	ForeignKeyViolation
	NotNullViolation
	CheckViolation
)

// SQLSTATE values for the constraint classes we map.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// Error is a structured view over a Postgres server error.
type Error struct {
	Code           Code
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a SQLSTATE string onto a Code.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case pgUniqueViolation:
		return UniqueViolation
	case pgForeignKeyViolation:
		return ForeignKeyViolation
	case pgNotNullViolation:
		return NotNullViolation
	case pgCheckViolation:
		return CheckViolation
	default:
		return Other
	}
}

// ConvertPgError converts a raw pgconn.PgError into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}
