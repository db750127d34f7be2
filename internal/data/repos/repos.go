package repos

import (
	"database/sql"
	"time"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// dateArg binds a trading date the same way for every dialect
func dateArg(t time.Time) string {
	return contracts.FormatDate(t)
}

// timeArg binds a timestamp in UTC so text-stored values sort correctly
func timeArg(t time.Time) time.Time {
	return t.UTC()
}

func nullDateArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dateArg(*t)
}

func scannedDate(t time.Time) time.Time {
	return contracts.DateOnly(t)
}

func scannedNullDate(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	d := contracts.DateOnly(nt.Time)
	return &d
}
