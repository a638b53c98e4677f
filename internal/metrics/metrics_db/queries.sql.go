package metricsdb

import (
	"context"
	"database/sql"
)

const insertExecutionMetric = `-- name: InsertExecutionMetric :exec
INSERT INTO execution_metrics (agent_name, model, prompt_tokens, completion_tokens, latency_ms, timestamp)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertExecutionMetricParams struct {
	AgentName        string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
	LatencyMs        int64
	Timestamp        int64
}

func (q *Queries) InsertExecutionMetric(ctx context.Context, arg InsertExecutionMetricParams) error {
	_, err := q.db.ExecContext(ctx, insertExecutionMetric,
		arg.AgentName,
		arg.Model,
		arg.PromptTokens,
		arg.CompletionTokens,
		arg.LatencyMs,
		arg.Timestamp,
	)
	return err
}

const getDailyUsage = `-- name: GetDailyUsage :many
SELECT date(timestamp / 1000, 'unixepoch') AS day,
       SUM(prompt_tokens),
       SUM(completion_tokens),
       COUNT(*)
FROM execution_metrics
WHERE timestamp >= ?
GROUP BY day
ORDER BY day DESC
`

type GetDailyUsageRow struct {
	Day   string
	Sum   sql.NullInt64
	Sum_2 sql.NullInt64
	Count int64
}

func (q *Queries) GetDailyUsage(ctx context.Context, since int64) ([]GetDailyUsageRow, error) {
	rows, err := q.db.QueryContext(ctx, getDailyUsage, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetDailyUsageRow
	for rows.Next() {
		var i GetDailyUsageRow
		if err := rows.Scan(&i.Day, &i.Sum, &i.Sum_2, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const cleanupExecutionMetrics = `-- name: CleanupExecutionMetrics :execrows
DELETE FROM execution_metrics WHERE timestamp < ?
`

func (q *Queries) CleanupExecutionMetrics(ctx context.Context, before int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, cleanupExecutionMetrics, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
