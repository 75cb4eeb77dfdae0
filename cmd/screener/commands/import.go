package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [file.json|-]",
	Short: "스냅샷 JSON 적재",
	Long: `스냅샷 JSON 배열을 (ticker, date) 기준으로 upsert 합니다.
date 는 RFC3339 형식 ("2025-11-07T00:00:00Z"), 숫자 필드는 문자열 또는 숫자, 없는 값은 null.

운영 적재는 외부 배치 담당. 로컬 개발/테스트 데이터용.

Example:
  go run ./cmd/screener import testdata/snapshots.json
  cat snapshots.json | go run ./cmd/screener import -`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	snapshots, err := readSnapshotFile(args[0])
	if err != nil {
		return err
	}

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

	n, err := b.Import(ctx, snapshots)
	if err != nil {
		return fmt.Errorf("import snapshots: %w", err)
	}

	fmt.Printf("✅ Imported %d snapshots into %s\n", n, cfg.StoreDriver)
	return nil
}
