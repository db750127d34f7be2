package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Result store maintenance",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema if it does not exist",
	RunE:  migrateDB,
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}

func migrateDB(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	healthCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	health, err := db.HealthCheck(healthCtx)
	if err != nil {
		return &storeInitError{err: err}
	}

	log.WithField("driver", cfg.Database.Driver).Info("Schema migrated")
	PrintSuccess(fmt.Sprintf("schema ready (%s, ping %s)", health.Driver, health.ResponseTime.Round(time.Millisecond)))
	return nil
}
