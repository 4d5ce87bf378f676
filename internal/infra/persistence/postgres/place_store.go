package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/LouYuanbo1/mapsagent/internal/domain/model"
	"github.com/lib/pq"
)

const upsertPlaceSQL = `
INSERT INTO entities (place_id, name, address, latitude, longitude, rating, review_count,
	entity_categories, website, phone, email, link, source_query, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
ON CONFLICT (place_id) DO UPDATE
SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	rating = EXCLUDED.rating,
	review_count = EXCLUDED.review_count,
	entity_categories = EXCLUDED.entity_categories,
	website = EXCLUDED.website,
	phone = EXCLUDED.phone,
	email = EXCLUDED.email,
	link = EXCLUDED.link,
	source_query = EXCLUDED.source_query,
	updated_at = NOW()`

// UpsertPlaces 按place_id逐条upsert,返回写入(新增+更新)的行数
// 每条记录是一个独立语句,单条失败即返回,不做批内回滚
func (c *Client) UpsertPlaces(ctx context.Context, places []*model.Place) (int64, error) {
	if len(places) == 0 {
		return 0, nil
	}
	stmt, err := c.db.PrepareContext(ctx, upsertPlaceSQL)
	if err != nil {
		return 0, fmt.Errorf("准备upsert语句失败: %w", err)
	}
	defer stmt.Close()

	var affected int64
	for _, place := range places {
		// 抽取阶段已经过滤过,这里再兜一道底:没有place_id的记录无法upsert
		if strings.TrimSpace(place.PlaceID) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			place.PlaceID,
			place.Name,
			nullString(place.Address),
			nullFloat64(place.Latitude),
			nullFloat64(place.Longitude),
			nullFloat64Ptr(place.Rating),
			nullIntPtr(place.ReviewCount),
			pq.Array(place.Categories),
			nullString(place.Website),
			nullString(place.Phone),
			nullString(place.Email),
			nullString(place.Link),
			nullString(place.SourceQuery),
		); err != nil {
			return affected, fmt.Errorf("upsert地点 %s 失败: %w", place.PlaceID, err)
		}
		affected++
	}
	return affected, nil
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullFloat64(value float64) sql.NullFloat64 {
	if value == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: value, Valid: true}
}

func nullFloat64Ptr(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func nullIntPtr(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
