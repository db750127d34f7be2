package database_test

import (
	"context"
	"fmt"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/database"
)

// Example opens an in-memory store, creates the schema and builds a
// dialect-aware query
func Example() {
	db, err := database.Open(config.DriverSQLite, ":memory:")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		fmt.Println(err)
		return
	}

	query, args, _ := db.Builder().
		Select("instrument_code").
		From("signals").
		Where("strategy_name = ?", "golden_cross").
		ToSql()
	fmt.Println(query, args)
	// Output: SELECT instrument_code FROM signals WHERE strategy_name = ? [golden_cross]
}
