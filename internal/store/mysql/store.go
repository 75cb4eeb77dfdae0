// Package mysql implements the snapshot store on MySQL via gorm.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/pkg/config"
)

// Store reads and prunes the undervalued_stocks table on MySQL
// ⭐ SSOT: MySQL 스냅샷 조회/삭제는 여기서만
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over an open gorm handle
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ contracts.SnapshotStore = (*Store)(nil)

// Open connects to MySQL and optionally migrates the snapshot table
func Open(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(withParseTime(cfg.DSN)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get mysql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&SnapshotModel{}); err != nil {
			return nil, fmt.Errorf("failed to migrate snapshot table: %w", err)
		}
	}

	return db, nil
}

// withParseTime makes the driver return DATE columns as time.Time
func withParseTime(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// LatestDate returns MAX(data_date)
func (s *Store) LatestDate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	row := s.db.WithContext(ctx).Model(&SnapshotModel{}).Select("MAX(data_date)").Row()
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, contracts.StoreError("latest date", err)
	}
	if !latest.Valid {
		return time.Time{}, contracts.ErrNoData
	}
	return contracts.TruncateDate(latest.Time), nil
}

// Get returns the snapshot of ticker on date
func (s *Store) Get(ctx context.Context, ticker string, date time.Time) (*contracts.FactorSnapshot, error) {
	var m SnapshotModel
	err := s.db.WithContext(ctx).
		Where("ticker = ? AND data_date = ?", contracts.NormalizeTicker(ticker), contracts.TruncateDate(date)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s on %s: %w", ticker, contracts.FormatDate(date), contracts.ErrNotFound)
	}
	if err != nil {
		return nil, contracts.StoreError("get snapshot", err)
	}
	return m.ToDomain()
}

// Scan runs the filtered, ordered, windowed query q
func (s *Store) Scan(ctx context.Context, q contracts.Query) ([]*contracts.FactorSnapshot, error) {
	tx, err := s.filtered(ctx, q)
	if err != nil {
		return nil, err
	}

	if q.Order != nil {
		col := q.Order.Field.Column()
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: col},
			Desc:   q.Order.Direction == contracts.Descending,
		})
	}
	tx = tx.Order("ticker ASC")

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		if q.Limit <= 0 {
			// MySQL requires LIMIT with OFFSET
			tx = tx.Limit(1<<62 - 1)
		}
		tx = tx.Offset(q.Offset)
	}

	var models []SnapshotModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, contracts.StoreError("scan snapshots", err)
	}

	snaps := make([]*contracts.FactorSnapshot, 0, len(models))
	for i := range models {
		snap, err := models[i].ToDomain()
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// Count returns the number of rows q matches before windowing
func (s *Store) Count(ctx context.Context, q contracts.Query) (int64, error) {
	tx, err := s.filtered(ctx, q)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, contracts.StoreError("count snapshots", err)
	}
	return n, nil
}

// filtered applies q's predicates, plus the null exclusion of q.Order
// ⭐ SSOT: 필터 -> gorm 조건 변환은 여기서만
func (s *Store) filtered(ctx context.Context, q contracts.Query) (*gorm.DB, error) {
	f := q.Filter
	tx := s.db.WithContext(ctx).Model(&SnapshotModel{}).
		Where("data_date = ?", contracts.TruncateDate(f.Date))

	if profile, ok := f.Profile.Get(); ok {
		needle, err := contracts.EncodeProfileNeedle(profile)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("JSON_CONTAINS(passed_profiles, ?)", needle)
	}
	if sector, ok := f.Sector.Get(); ok {
		tx = tx.Where("sector = ?", sector)
	}
	if v, ok := f.MinScore.Get(); ok {
		tx = tx.Where("total_score >= ?", v)
	}
	if v, ok := f.MaxScore.Get(); ok {
		tx = tx.Where("total_score <= ?", v)
	}
	if v, ok := f.MinMarketCap.Get(); ok {
		tx = tx.Where("market_cap >= ?", v)
	}
	if v, ok := f.MaxMarketCap.Get(); ok {
		tx = tx.Where("market_cap <= ?", v)
	}
	if v, ok := f.MaxDiscount.Get(); ok {
		tx = tx.Where("discount < ?", v)
	}

	if q.Order != nil {
		if !q.Order.Field.IsValid() {
			return nil, fmt.Errorf("unknown score field %q", q.Order.Field)
		}
		tx = tx.Where(q.Order.Field.Column() + " IS NOT NULL")
	}

	return tx, nil
}

// Sectors returns the distinct non-null sectors on date
func (s *Store) Sectors(ctx context.Context, date time.Time) ([]string, error) {
	sectors := make([]string, 0)
	err := s.db.WithContext(ctx).Model(&SnapshotModel{}).
		Where("data_date = ? AND sector IS NOT NULL", contracts.TruncateDate(date)).
		Distinct().
		Order("sector").
		Pluck("sector", &sectors).Error
	if err != nil {
		return nil, contracts.StoreError("list sectors", err)
	}
	return sectors, nil
}

type sectorRow struct {
	Sector *string
	Count  int64
}

// CountBySector groups the snapshots of date by sector, largest first
func (s *Store) CountBySector(ctx context.Context, date time.Time) ([]contracts.SectorCount, error) {
	var rows []sectorRow
	err := s.db.WithContext(ctx).Model(&SnapshotModel{}).
		Select("sector, COUNT(*) AS count").
		Where("data_date = ?", contracts.TruncateDate(date)).
		Group("sector").
		Order("count DESC, sector IS NULL, sector ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, contracts.StoreError("count by sector", err)
	}

	counts := make([]contracts.SectorCount, len(rows))
	for i, r := range rows {
		counts[i] = contracts.SectorCount{Sector: r.Sector, Count: r.Count}
	}
	return counts, nil
}

// Average returns AVG(field) over date
func (s *Store) Average(ctx context.Context, date time.Time, field contracts.ScoreField) (decimal.NullDecimal, error) {
	if !field.IsValid() {
		return decimal.NullDecimal{}, fmt.Errorf("unknown score field %q", field)
	}

	var avg decimal.NullDecimal
	row := s.db.WithContext(ctx).Model(&SnapshotModel{}).
		Select("AVG("+field.Column()+")").
		Where("data_date = ?", contracts.TruncateDate(date)).
		Row()
	if err := row.Scan(&avg); err != nil {
		return decimal.NullDecimal{}, contracts.StoreError("average "+field.Column(), err)
	}
	return avg, nil
}

// DeleteBefore removes every snapshot dated strictly before cutoff
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("data_date < ?", contracts.TruncateDate(cutoff)).
		Delete(&SnapshotModel{})
	if res.Error != nil {
		return 0, contracts.StoreError("delete before cutoff", res.Error)
	}
	return res.RowsAffected, nil
}

// Upsert writes snapshots, replacing rows with the same (ticker, data_date)
func (s *Store) Upsert(ctx context.Context, snapshots []*contracts.FactorSnapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	models := make([]*SnapshotModel, 0, len(snapshots))
	for _, snap := range snapshots {
		m, err := fromDomain(snap)
		if err != nil {
			return 0, err
		}
		models = append(models, m)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "data_date"}},
		DoUpdates: clause.AssignmentColumns(updatableColumns),
	}).CreateInBatches(models, 500).Error
	if err != nil {
		return 0, contracts.StoreError("upsert snapshots", err)
	}
	return len(models), nil
}
