// Package sqlerr handles database driver errors.
//
// It parses SQLSTATE codes from pgx/pgconn errors and converts them into
// application HTTP errors with user-friendly messages, so a foreign key
// violation surfaces as a clean 400 instead of a driver string.
package sqlerr

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Code classifies a database error into categories the application cares
// about. Everything unmapped falls into Other.
type Code int

const (
	Other Code = iota
	UniqueViolation
	ForeignKeyViolation
	NotNullViolation
	CheckViolation
	ConnectionFailure
	InsufficientPrivilege
	SyntaxError
)

// Severity mirrors the Postgres severity field.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityError
	SeverityFatal
	SeverityPanic
)

// MapCode maps a SQLSTATE string onto a Code.
//
// Class 08 covers connection exceptions; the 23xxx states are integrity
// constraint violations.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	case "42501":
		return InsufficientPrivilege
	case "42601":
		return SyntaxError
	}
	if len(sqlstate) >= 2 && sqlstate[:2] == "08" {
		return ConnectionFailure
	}
	return Other
}

// MapSeverity maps the driver's severity string onto a Severity.
func MapSeverity(s string) Severity {
	switch s {
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	}
	return SeverityUnknown
}

// Error is the normalized database error. It keeps the original driver
// error for unwrapping plus the structural fields needed to build a
// user-facing message.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	driverErr *pgconn.PgError
}

func (e *Error) Error() string {
	return fmt.Sprintf("database error %s: %s", e.DatabaseCode, e.Message)
}

// Unwrap exposes the underlying pgconn error to errors.As/Is.
func (e *Error) Unwrap() error {
	if e.driverErr == nil {
		return nil
	}
	return e.driverErr
}
