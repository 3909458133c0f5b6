package sqlite

import (
	"database/sql/driver"
	"strings"

	msqlite "modernc.org/sqlite"
)

// SQLite's lower() and LIKE fold ASCII only. fold_case lowers with Go's
// Unicode tables so "ÉTÉ" matches "été".
func init() {
	msqlite.MustRegisterDeterministicScalarFunction("fold_case", 1, foldCase)
}

func foldCase(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}
