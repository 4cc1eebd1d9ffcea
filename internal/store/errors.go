package store

import "errors"

var (
	ErrInvalidTable = errors.New("invalid clickhouse table name")
	ErrOpenFailed   = errors.New("failed to open clickhouse connection")
	ErrPingFailed   = errors.New("clickhouse ping failed")
	ErrSchemaFailed = errors.New("failed to initialise clickhouse schema")
	ErrInsertFailed = errors.New("failed to insert feature rows")
	ErrMissingAddr  = errors.New("clickhouse addr is required")
)
