package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
)

// latestCmd represents the latest command
var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "최신 스냅샷 날짜와 통계 출력",
	Long: `최신 스냅샷 날짜 기준 통계를 출력합니다.

- 전체 종목 수
- 평균 종합 점수
- 프로파일별 통과 종목 수
- 섹터별 종목 수

Example:
  go run ./cmd/screener latest`,
	RunE: runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)
}

func runLatest(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	stats, err := screening.NewService(b.store).Stats(ctx)
	if errors.Is(err, contracts.ErrNoData) {
		fmt.Println("No snapshots loaded")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Latest snapshot : %s\n", contracts.FormatDate(stats.Date))
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Total stocks    : %d\n", stats.TotalStocks)
	fmt.Printf("  Avg total score : %s\n", stats.AverageTotalScore.StringFixed(2))
	fmt.Println("───────────────────────────────────────────────────────────")
	for _, p := range contracts.KnownProfiles {
		fmt.Printf("  %-20s %6d\n", p, stats.ProfileCounts[p])
	}
	fmt.Println("───────────────────────────────────────────────────────────")
	for _, c := range stats.SectorCounts {
		name := "(none)"
		if c.Sector != nil {
			name = *c.Sector
		}
		fmt.Printf("  %-20s %6d\n", name, c.Count)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
	return nil
}
