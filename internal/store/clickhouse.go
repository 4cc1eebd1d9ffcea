package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/config"
	"github.com/sanspareilsmyn/physiolens/internal/message"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	dialTimeout     = 5 * time.Second
	readTimeout     = 10 * time.Second
	pingTimeout     = 5 * time.Second
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHouse stores feature rows in a MergeTree table through the database/sql driver.
type ClickHouse struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// Open connects, pings and returns a store. The table is not created; call InitSchema.
func Open(ctx context.Context, cfg config.ClickHouseConfig, logger *zap.Logger) (*ClickHouse, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddr
	}
	if !tableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, cfg.Table)
	}

	db, err := sql.Open("clickhouse", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrPingFailed, err)
	}

	logger.Info("ClickHouse store connected",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.Database),
		zap.String("table", cfg.Table),
	)
	return &ClickHouse{db: db, table: cfg.Table, logger: logger}, nil
}

// InitSchema creates the feature table if it does not exist.
func (c *ClickHouse) InitSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, createTableSQL(c.table)); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaFailed, err)
	}
	return nil
}

// InsertRows writes rows as one batch. The driver buffers the prepared statement's
// executions inside the transaction and sends them on commit.
func (c *ClickHouse) InsertRows(ctx context.Context, rows []message.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrInsertFailed, err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(c.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: prepare: %w", ErrInsertFailed, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.SubjectID, r.SegmentID, r.Family, r.Feature,
			r.WindowStart.UTC(), r.WindowEnd.UTC(), r.Value,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: exec: %w", ErrInsertFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrInsertFailed, err)
	}

	c.logger.Debug("Feature rows inserted",
		zap.String("table", c.table),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (c *ClickHouse) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func buildDSN(cfg config.ClickHouseConfig) string {
	u := url.URL{
		Scheme: "clickhouse",
		Host:   cfg.Addr,
		Path:   "/" + cfg.Database,
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	q := url.Values{}
	q.Set("dial_timeout", dialTimeout.String())
	q.Set("read_timeout", readTimeout.String())
	u.RawQuery = q.Encode()
	return u.String()
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            subject_id   String,
            segment_id   String,
            family       LowCardinality(String),
            feature      LowCardinality(String),
            window_start DateTime64(6, 'UTC'),
            window_end   DateTime64(6, 'UTC'),
            value        Float64
        )
        ENGINE = MergeTree
        ORDER BY (subject_id, feature, window_start)
    `, table)
}

func insertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (subject_id, segment_id, family, feature, window_start, window_end, value)`, table)
}
