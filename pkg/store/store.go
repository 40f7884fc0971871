// Package store provides durable persistence for benchmark runs and
// their samples.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildbench/buildbench/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnknownRun is returned when a sample references a run id that was
// never created.
var ErrUnknownRun = errors.New("unknown run id")

// Store is the persistence surface for runs and samples.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	// CreateRun inserts a new run with a store-assigned timestamp and
	// returns its identifier.
	CreateRun(
		ctx context.Context,
		hostname, language, toolchainLabel, benchmarkName string,
	) (RunID, error)

	// AddSample appends one duration measurement to an existing run.
	// It fails with ErrUnknownRun if the run does not exist.
	AddSample(ctx context.Context, runID RunID, durationNs int64) error

	// LoadAllRuns returns every run ever created, each with all of
	// its samples attached.
	LoadAllRuns(ctx context.Context) ([]Run, error)

	// LoadLatestRuns returns, for each distinct
	// (hostname, language, toolchain label, benchmark name) identity,
	// only the run with the highest id.
	LoadLatestRuns(ctx context.Context) ([]Run, error)

	// LoadRunsByIDs returns the runs with the given ids. Result order
	// is not significant.
	LoadRunsByIDs(ctx context.Context, ids []RunID) ([]Run, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// New creates a Store backed by the configured database driver.
func New(log logrus.FieldLogger, cfg *config.DatabaseConfig) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&Run{},
		&Sample{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Debug("Database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// CreateRun inserts a new run and returns its store-assigned id.
func (s *store) CreateRun(
	ctx context.Context,
	hostname, language, toolchainLabel, benchmarkName string,
) (RunID, error) {
	run := Run{
		Hostname:       hostname,
		Language:       language,
		ToolchainLabel: toolchainLabel,
		BenchmarkName:  benchmarkName,
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return 0, fmt.Errorf("creating run: %w", err)
	}

	return run.ID, nil
}

// AddSample appends one sample to an existing run.
func (s *store) AddSample(
	ctx context.Context, runID RunID, durationNs int64,
) error {
	// Defensive existence check; sqlite does not enforce the foreign
	// key by default.
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Run{}).
		Where("id = ?", runID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("checking run existence: %w", err)
	}

	if count == 0 {
		return fmt.Errorf("adding sample to run %d: %w", runID, ErrUnknownRun)
	}

	sample := Sample{
		RunID:      runID,
		DurationNs: durationNs,
	}

	if err := s.db.WithContext(ctx).Create(&sample).Error; err != nil {
		return fmt.Errorf("creating sample: %w", err)
	}

	return nil
}

// LoadAllRuns returns every run ever created.
func (s *store) LoadAllRuns(ctx context.Context) ([]Run, error) {
	return s.loadRuns(s.db.WithContext(ctx))
}

// LoadLatestRuns returns only the newest run per identity key.
func (s *store) LoadLatestRuns(ctx context.Context) ([]Run, error) {
	latestIDs := s.db.Model(&Run{}).
		Select("MAX(id)").
		Group("hostname, language, toolchain_label, benchmark_name")

	return s.loadRuns(s.db.WithContext(ctx).Where("id IN (?)", latestIDs))
}

// LoadRunsByIDs returns the runs with the given ids.
func (s *store) LoadRunsByIDs(
	ctx context.Context, ids []RunID,
) ([]Run, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	return s.loadRuns(s.db.WithContext(ctx).Where("id IN ?", ids))
}

// loadRuns executes the given run query and attaches samples in
// insertion order.
func (s *store) loadRuns(tx *gorm.DB) ([]Run, error) {
	var runs []Run
	if err := tx.
		Preload("Samples", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Order("id").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("loading runs: %w", err)
	}

	return runs, nil
}
