package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|status]",
	Short: "PostgreSQL 스키마 마이그레이션",
	Long: `goose 마이그레이션으로 undervalued_stocks 스키마를 관리합니다.

MySQL 은 MYSQL_AUTO_MIGRATE=true 일 때 연결 시 gorm AutoMigrate 로 생성됩니다.

Example:
  go run ./cmd/screener migrate up
  go run ./cmd/screener migrate status
  go run ./cmd/screener migrate down`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.DriverPostgres {
		return fmt.Errorf("migrate requires STORE_DRIVER=postgres, got %s", cfg.StoreDriver)
	}

	m, err := database.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx := cmd.Context()
	switch action {
	case "up":
		err = m.Up(ctx)
	case "down":
		err = m.Down(ctx)
	case "status":
		err = m.Status(ctx)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", action, err)
	}

	version, err := m.Version(ctx)
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"action":  action,
		"version": version,
	}).Info("Migration finished")
	fmt.Printf("✅ migrate %s (version %d)\n", action, version)
	return nil
}
