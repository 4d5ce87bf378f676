package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/LouYuanbo1/mapsagent/internal/domain/model"
)

const upsertHistorySQL = `
INSERT INTO scrape_history (source, search_key, location_key, requested, returned, dropped, status, run_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (source) DO UPDATE
SET
	search_key = EXCLUDED.search_key,
	location_key = EXCLUDED.location_key,
	requested = EXCLUDED.requested,
	returned = EXCLUDED.returned,
	dropped = EXCLUDED.dropped,
	status = EXCLUDED.status,
	run_at = EXCLUDED.run_at`

// UpsertHistory 写入一次运行的历史记录,同source覆盖旧值
func (c *Client) UpsertHistory(ctx context.Context, entry *model.HistoryEntry) error {
	if strings.TrimSpace(entry.Source) == "" {
		return fmt.Errorf("历史记录缺少source")
	}
	_, err := c.db.ExecContext(ctx, upsertHistorySQL,
		entry.Source,
		nullString(entry.SearchKey),
		nullString(entry.LocationKey),
		entry.Requested,
		entry.Returned,
		entry.Dropped,
		string(entry.Status),
		entry.RunAt,
	)
	if err != nil {
		return fmt.Errorf("写入历史记录失败: %w", err)
	}
	return nil
}

// History 查询历史记录,source为空时返回全部,按run_at倒序
func (c *Client) History(ctx context.Context, source string) ([]*model.HistoryEntry, error) {
	query := `SELECT source, COALESCE(search_key, ''), COALESCE(location_key, ''),
		COALESCE(requested, 0), COALESCE(returned, 0), COALESCE(dropped, 0),
		COALESCE(status, ''), run_at
		FROM scrape_history`
	var args []any
	if source != "" {
		query += ` WHERE source = $1`
		args = append(args, source)
	}
	query += ` ORDER BY run_at DESC`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询历史记录失败: %w", err)
	}
	defer rows.Close()

	var entries []*model.HistoryEntry
	for rows.Next() {
		var entry model.HistoryEntry
		var status string
		if err := rows.Scan(&entry.Source, &entry.SearchKey, &entry.LocationKey,
			&entry.Requested, &entry.Returned, &entry.Dropped, &status, &entry.RunAt); err != nil {
			return nil, err
		}
		entry.Status = model.RunStatus(status)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
