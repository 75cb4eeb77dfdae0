package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "ddal-kkak - 저평가 종목 스크리닝 서버",
	Long: `ddal-kkak Screener CLI

일별 팩터 스냅샷을 조회/랭킹하는 스크리닝 서버.
스냅샷 적재는 외부 배치가 담당하고, 이 서버는 읽기와 보관 기간 정리만 수행.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener api
  go run ./cmd/screener migrate up
  go run ./cmd/screener prune --keep-days 90
  go run ./cmd/screener latest
  go run ./cmd/screener test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}

// loadConfig loads the environment config and the logger every command uses
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}
