package migrations

import "jobfeed/common/database/schema"

var CreateIngestRunsTable = schema.Migration{
	Version:     1,
	Description: "Create ingest_runs table",
	Up: `
		CREATE TABLE IF NOT EXISTS ingest_runs (
			run_id UUID,
			trigger LowCardinality(String),
			provider LowCardinality(String),
			fetched UInt32,
			saved UInt32,
			duplicates UInt32,
			failed UInt32,
			sample Array(String),
			error String,
			started_at DateTime64(3),
			finished_at DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(started_at)
		ORDER BY (started_at, provider)
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS ingest_runs`,
}

// All lists every migration in version order.
var All = []schema.Migration{
	CreateIngestRunsTable,
}
