package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/retention"
)

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "오래된 스냅샷 삭제",
	Long: `기준일 이전(미포함)의 스냅샷을 모두 삭제합니다.

--cutoff 와 --keep-days 는 함께 쓸 수 없습니다.
둘 다 없으면 RETENTION_KEEP_DAYS 를 사용합니다.

Example:
  go run ./cmd/screener prune --cutoff 2025-11-01
  go run ./cmd/screener prune --keep-days 90`,
	RunE: runPrune,
}

var (
	pruneCutoff   string
	pruneKeepDays int
)

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneCutoff, "cutoff", "", "삭제 기준일 (YYYY-MM-DD, 이 날짜 미만 삭제)")
	pruneCmd.Flags().IntVar(&pruneKeepDays, "keep-days", 0, "최근 N일 보관")
	pruneCmd.MarkFlagsMutuallyExclusive("cutoff", "keep-days")
}

// pruneCutoffFrom resolves the cutoff of one prune invocation
func pruneCutoffFrom(cutoff string, keepDays, defaultKeepDays int, now time.Time) (time.Time, error) {
	if cutoff != "" {
		d, err := contracts.ParseDate(cutoff)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --cutoff: %w", err)
		}
		return d, nil
	}

	if keepDays == 0 {
		keepDays = defaultKeepDays
	}
	if keepDays <= 0 {
		return time.Time{}, retention.ErrInvalidKeepDays
	}
	return retention.CutoffFor(now, keepDays), nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	keepDays := pruneKeepDays
	if cmd.Flags().Changed("keep-days") && keepDays <= 0 {
		return retention.ErrInvalidKeepDays
	}

	cutoff, err := pruneCutoffFrom(pruneCutoff, keepDays, cfg.Retention.KeepDays, time.Now())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	result, err := retention.NewPruner(b.store, cfg.Retention.KeepDays, log).Prune(ctx, cutoff)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Deleted %d snapshots dated before %s\n", result.Deleted, contracts.FormatDate(result.Cutoff))
	return nil
}
