package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moner050/ddal-kkak/backend/internal/api"
	"github.com/moner050/ddal-kkak/backend/internal/api/handlers"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
	"github.com/moner050/ddal-kkak/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- STORE_DRIVER 에 맞는 스냅샷 저장소 연결 (postgres, mysql, memory)
- Redis 캐시/레이트 리밋 연결 (REDIS_ENABLED=true)
- /api/undervalued-stocks 조회 엔드포인트 제공
- --with-scheduler: 보관 기간 정리 작업 함께 실행

Endpoints:
  GET  /health
  GET  /api/undervalued-stocks/latest-date
  GET  /api/undervalued-stocks/top
  GET  /api/undervalued-stocks/{ticker}
  GET  /api/undervalued-stocks/search
  GET  /api/undervalued-stocks/stats

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080 --with-scheduler
  STORE_DRIVER=memory go run ./cmd/screener api --seed testdata/snapshots.json`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
	apiSeedFile  string
)

const shutdownGrace = 30 * time.Second

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "with-scheduler", false, "스케줄러 함께 실행")
	apiCmd.Flags().StringVar(&apiSeedFile, "seed", "", "시작 시 적재할 스냅샷 JSON 파일")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ddal-kkak Screener API Server ===")

	// 1. Load config
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"driver": cfg.StoreDriver,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect snapshot store
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	// 3. Optional seed
	if apiSeedFile != "" {
		snapshots, err := readSnapshotFile(apiSeedFile)
		if err != nil {
			return err
		}
		n, err := b.Import(ctx, snapshots)
		if err != nil {
			return fmt.Errorf("seed snapshots: %w", err)
		}
		log.WithField("count", n).Info("Seeded snapshots")
	}

	// 4. Service & handler
	service := screening.NewService(b.store)
	handler := handlers.NewSnapshotHandler(service, cfg.API, log)

	// 5. Router & server
	limiter := api.NewRateLimiter(cfg.API, redis.NewRateLimiter(b.redis, logger.ServiceName), log)
	router := api.NewRouter(cfg, handler, limiter, log)
	server := api.New(cfg, log, router)

	// 6. Scheduler
	if apiScheduler {
		sched, err := newScheduler(cfg, b, service, log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// 7. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s%s\n", cfg.Port, api.APIPrefix)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
