package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/FursAndrey/staffsync/pkg/store"
)

// Value kinds stored in profile_values.kind.
const (
	kindNull   = "null"
	kindString = "string"
	kindInt    = "int"
	kindFloat  = "float"
	kindBool   = "bool"
)

// encodeValue returns the kind tag and text form of a normalized value.
func encodeValue(v store.Value) (string, sql.NullString, error) {
	nv, err := store.NormalizeValue(v)
	if err != nil {
		return "", sql.NullString{}, err
	}
	switch x := nv.(type) {
	case nil:
		return kindNull, sql.NullString{}, nil
	case string:
		return kindString, sql.NullString{String: x, Valid: true}, nil
	case int64:
		return kindInt, sql.NullString{String: strconv.FormatInt(x, 10), Valid: true}, nil
	case float64:
		return kindFloat, sql.NullString{String: strconv.FormatFloat(x, 'f', -1, 64), Valid: true}, nil
	case bool:
		text := "0"
		if x {
			text = "1"
		}
		return kindBool, sql.NullString{String: text, Valid: true}, nil
	default:
		return "", sql.NullString{}, fmt.Errorf("unsupported value type %T", nv)
	}
}

// decodeValue reverses encodeValue.
func decodeValue(kind string, text sql.NullString) (store.Value, error) {
	if kind == kindNull || !text.Valid {
		return nil, nil
	}
	switch kind {
	case kindString:
		return text.String, nil
	case kindInt:
		n, err := strconv.ParseInt(text.String, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode int value: %w", err)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(text.String, 64)
		if err != nil {
			return nil, fmt.Errorf("decode float value: %w", err)
		}
		return f, nil
	case kindBool:
		return text.String == "1", nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint && sqliteErr.ExtendedCode == code
	}
	return false
}

func isUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.ErrConstraintUnique)
}

func isForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.ErrConstraintForeignKey)
}
